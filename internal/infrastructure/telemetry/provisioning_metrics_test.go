package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

// sumWhere adds up the int64 sum points carrying every given attribute.
func sumWhere(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		matches := true
		for _, kv := range attrs {
			v, found := dp.Attributes.Value(kv.Key)
			if !found || v != kv.Value {
				matches = false
				break
			}
		}
		if matches {
			total += dp.Value
		}
	}
	return total
}

func TestProvisioningMetrics_RecordApplyRun(t *testing.T) {
	reader, provider := newManualMeter(t)
	metrics, err := NewProvisioningMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordApplyRun(ctx, "RETAIL_BASIC", false, 3, 0, 0, 120*time.Millisecond)
	metrics.RecordApplyRun(ctx, "RETAIL_BASIC", false, 2, 1, 1, 80*time.Millisecond)
	metrics.RecordApplyRun(ctx, "RESTAURANT_BASIC", true, 0, 0, 4, 10*time.Millisecond)

	got := collect(t, reader)
	runs := got["provisioning_apply_total"]
	assert.Equal(t, int64(1), sumWhere(t, runs, AttrApplyOutcome.String(ApplyOutcomeSucceeded)))
	assert.Equal(t, int64(1), sumWhere(t, runs, AttrApplyOutcome.String(ApplyOutcomePartial)))
	assert.Equal(t, int64(1), sumWhere(t, runs,
		AttrApplyOutcome.String(ApplyOutcomeFailed),
		AttrTemplateCode.String("RESTAURANT_BASIC"),
	))

	items := got["provisioning_items_total"]
	retail := AttrTemplateCode.String("RETAIL_BASIC")
	assert.Equal(t, int64(5), sumWhere(t, items, retail, AttrItemOutcome.String(ItemOutcomeProcessed)))
	assert.Equal(t, int64(1), sumWhere(t, items, retail, AttrItemOutcome.String(ItemOutcomeSkipped)))
	assert.Equal(t, int64(5), sumWhere(t, items, AttrItemOutcome.String(ItemOutcomeError)))

	hist, ok := got["provisioning_apply_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)
}

func TestApplyOutcome(t *testing.T) {
	tests := []struct {
		name   string
		failed bool
		errs   int
		want   string
	}{
		{name: "clean run", want: ApplyOutcomeSucceeded},
		{name: "some errors", errs: 2, want: ApplyOutcomePartial},
		{name: "nothing created", failed: true, errs: 2, want: ApplyOutcomeFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ApplyOutcome(tt.failed, tt.errs))
		})
	}
}

func TestCounter_IgnoresNonPositive(t *testing.T) {
	reader, provider := newManualMeter(t)
	in := NewInstruments(provider.Meter("test"))
	counter := in.Counter("things_total", "things", "{thing}")
	require.NoError(t, in.Err())

	counter.Add(context.Background(), 0)
	counter.Add(context.Background(), -3)
	counter.Add(context.Background(), 2)
	counter.Inc(context.Background())

	assert.Equal(t, int64(3), sumWhere(t, collect(t, reader)["things_total"]))
}

func TestInstruments_CollectsErrors(t *testing.T) {
	_, provider := newManualMeter(t)
	in := NewInstruments(provider.Meter("test"))

	in.Counter("ok_total", "fine", "{thing}")
	in.Seconds("", "no name", nil)
	in.Gauge("9starts_with_digit", "bad", "{thing}")

	err := in.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create instrument 9starts_with_digit")
	assert.NotContains(t, err.Error(), "ok_total")
}
