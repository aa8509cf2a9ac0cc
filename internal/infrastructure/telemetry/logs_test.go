package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// recordingExporter keeps the body of every exported record
type recordingExporter struct {
	mu     sync.Mutex
	bodies []string
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range records {
		e.bodies = append(e.bodies, records[i].Body().AsString())
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) exported() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.bodies...)
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	lp, err := NewLoggerProvider(ctx, LogsConfig{Enabled: false, CollectorEndpoint: "localhost:4317"}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))

	base := zap.NewNop()
	assert.Same(t, base, lp.Bridge(base, zapcore.InfoLevel))
}

func TestLoggerProvider_BridgeTeesToBothCores(t *testing.T) {
	exporter := &recordingExporter{}
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter))),
		logger:   zap.NewNop(),
		config:   LogsConfig{Enabled: true, ServiceName: "vendfleet-test"},
	}
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })

	observed, logs := observer.New(zapcore.DebugLevel)
	log := lp.Bridge(zap.New(observed), zapcore.InfoLevel).With(zap.String("company_id", "c-1"))

	log.Debug("planned index rebuilt")
	log.Info("expiry commit applied", zap.Int64("added", 15))
	log.Warn("pick entry missing")
	require.NoError(t, lp.ForceFlush(context.Background()))

	assert.Equal(t, 3, logs.Len())
	assert.Equal(t, []string{"expiry commit applied", "pick entry missing"}, exporter.exported())
}

func TestLevelFilterCore(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: observed, minLevel: zapcore.WarnLevel}

	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))

	log := zap.New(core).With(zap.String("k", "v"))
	log.Info("dropped")
	log.Error("kept")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "kept", logs.All()[0].Message)
	assert.Contains(t, logs.All()[0].Context, zap.String("k", "v"))
}
