package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vendfleet/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestNewTracerProvider_Disabled(t *testing.T) {
	tp, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestCounterAndGauge(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	c, err := telemetry.NewCounter(meter, "test_total", "test counter", "{n}")
	require.NoError(t, err)
	c.Inc(context.Background(), telemetry.AttrOperation.String("x"))
	c.Add(context.Background(), 3)

	g, err := telemetry.NewGauge(meter, "test_gauge", "test gauge", "{n}")
	require.NoError(t, err)
	g.Record(context.Background(), 5)
}
