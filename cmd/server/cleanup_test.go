package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

type fakeStore struct {
	rec *recorder
	err error
}

func (s *fakeStore) Close() error {
	s.rec.calls = append(s.rec.calls, "store")
	return s.err
}

type fakeProvider struct {
	name string
	rec  *recorder
	ctx  context.Context
}

func (p *fakeProvider) Shutdown(ctx context.Context) error {
	p.ctx = ctx
	p.rec.calls = append(p.rec.calls, p.name)
	return nil
}

func TestNewCleanup_ClosesStoreBeforeProviders(t *testing.T) {
	rec := &recorder{}
	meter := &fakeProvider{name: "meter", rec: rec}
	tracer := &fakeProvider{name: "tracer", rec: rec}
	logger := &fakeProvider{name: "logger", rec: rec}

	newCleanup(&fakeStore{rec: rec}, time.Second, meter, tracer, logger)()

	require.Equal(t, []string{"store", "meter", "tracer", "logger"}, rec.calls)

	deadline, ok := logger.ctx.Deadline()
	require.True(t, ok, "providers get a bounded context")
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestNewCleanup_StoreErrorDoesNotSkipProviders(t *testing.T) {
	rec := &recorder{}
	tracer := &fakeProvider{name: "tracer", rec: rec}

	newCleanup(&fakeStore{rec: rec, err: errors.New("close failed")}, time.Second, tracer)()

	assert.Equal(t, []string{"store", "tracer"}, rec.calls)
}
