package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/config"
	httpserver "github.com/rezkam/tasks/internal/infrastructure/http"
	"github.com/rezkam/tasks/internal/infrastructure/http/handler"
	"github.com/rezkam/tasks/internal/infrastructure/observability"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/storage"
)

// providerShutdownTimeout bounds flushing telemetry when the collector is unreachable.
const providerShutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		// slog may not be initialized if config fails.
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfig()
	if err != nil {
		return err
	}

	// Root context, cancelled on SIGTERM/SIGINT.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Configuration via OTEL_* env vars (endpoint, headers, resource attributes)
	obsCfg := observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
	}

	lp, logger, err := observability.InitLogger(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	slog.SetDefault(logger)

	tp, err := observability.InitTracerProvider(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init tracer provider: %w", err)
	}

	mp, err := observability.InitMeterProvider(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("failed to init meter provider: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		newCleanup(nil, providerShutdownTimeout, mp, tp, lp)()
		return fmt.Errorf("failed to create store: %w", err)
	}

	// Runs last: the store closes before telemetry is flushed so its
	// shutdown logs still reach the collector.
	cleanup := newCleanup(store, providerShutdownTimeout, mp, tp, lp)
	defer cleanup()

	slog.InfoContext(ctx, "storage initialized", "backend", storage.Describe(cfg.Storage))

	svc := todo.NewService(store, todo.Config{
		MutationTimeout: cfg.Todo.MutationTimeout,
	})

	apiHandler, err := handler.NewOpenAPIRouter(svc)
	if err != nil {
		return fmt.Errorf("failed to create API router: %w", err)
	}

	server := httpserver.NewAPIServer(apiHandler, httpserver.ServerConfig{
		Host:              cfg.HTTP.Host,
		Port:              cfg.HTTP.Port,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MaxBodyBytes:      cfg.HTTP.MaxBodyBytes,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		// The root context is already cancelled here; give in-flight
		// requests a fresh window to finish.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down HTTP server: %w", err)
		}
		slog.InfoContext(shutdownCtx, "HTTP server shutdown complete")
		return nil
	})

	return g.Wait()
}
