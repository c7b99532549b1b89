package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetup_Disabled(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	providers, err := Setup(context.Background(), Config{ServiceName: "provisioner"}, zap.New(core))
	require.NoError(t, err)

	assert.False(t, providers.TracesEnabled())
	assert.False(t, providers.MetricsEnabled())
	assert.False(t, providers.LogsEnabled())
	assert.NotNil(t, providers.Meter("test"))
	assert.Equal(t, 1, logs.FilterMessage("Telemetry disabled").Len())

	base := zap.NewNop()
	assert.Same(t, base, providers.BridgeLogger(base, zapcore.InfoLevel))
	assert.False(t, providers.LogCore(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))

	require.NoError(t, providers.ForceFlush(context.Background()))
	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestSetup_EnabledWithUnreachableCollector(t *testing.T) {
	// OTLP gRPC exporters dial lazily, so construction succeeds offline.
	providers, err := Setup(context.Background(), Config{
		ServiceName:       "provisioner",
		CollectorEndpoint: "127.0.0.1:1",
		Insecure:          true,
		TracesEnabled:     true,
		SamplingRatio:     1,
		MetricsEnabled:    true,
		LogsEnabled:       true,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.True(t, providers.TracesEnabled())
	assert.True(t, providers.MetricsEnabled())
	assert.True(t, providers.LogsEnabled())

	logger := providers.BridgeLogger(zap.NewNop(), zapcore.WarnLevel)
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = providers.Shutdown(ctx)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{ratio: 1, want: sdktrace.ParentBased(sdktrace.AlwaysSample()).Description()},
		{ratio: 2, want: sdktrace.ParentBased(sdktrace.AlwaysSample()).Description()},
		{ratio: 0, want: sdktrace.ParentBased(sdktrace.NeverSample()).Description()},
		{ratio: 0.25, want: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sampler(tt.ratio).Description())
	}
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	core := &levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}

	logger := zap.New(core).With(zap.String("template_code", "RETAIL_BASIC"))
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")

	require.Equal(t, 2, logs.Len())
	for _, entry := range logs.All() {
		assert.Equal(t, "RETAIL_BASIC", entry.ContextMap()["template_code"])
	}
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	assert.True(t, core.Enabled(zapcore.ErrorLevel))
}
