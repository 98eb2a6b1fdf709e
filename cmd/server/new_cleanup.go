package main

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// shutdowner is implemented by the OpenTelemetry providers.
type shutdowner interface {
	Shutdown(context.Context) error
}

// newCleanup returns the process exit hook: close the store, then shut the
// providers down in the given order, each within its own timeout.
func newCleanup(store io.Closer, timeout time.Duration, providers ...shutdowner) func() {
	return func() {
		if store != nil {
			if err := store.Close(); err != nil {
				slog.Error("failed to close store", "error", err)
			}
		}

		for _, p := range providers {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			if err := p.Shutdown(ctx); err != nil {
				slog.Error("failed to shutdown telemetry provider", "error", err)
			}
			cancel()
		}
	}
}
