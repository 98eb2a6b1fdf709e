package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func TestInitProviders_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Enabled: false}

	tp, err := InitTracerProvider(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(ctx))

	mp, err := InitMeterProvider(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, mp.Shutdown(ctx))

	lp, logger, err := InitLogger(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	require.NoError(t, lp.Shutdown(ctx))
}

func TestNewResource_ServiceName(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "")
	t.Setenv("OTEL_SERVICE_NAME", "")

	res, err := newResource(context.Background(), Config{})
	require.NoError(t, err)

	value, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, attribute.StringValue(DefaultServiceName), value)
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, slog.LevelInfo)

	logger.Debug("hidden")
	logger.Info("todo added", "task_id", "t-1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "todo added", record["msg"])
	assert.Equal(t, "t-1", record["task_id"])
}
