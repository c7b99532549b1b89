package provisioning

import (
	"context"
	"testing"
	"time"

	"github.com/erp/provisioner/internal/domain/organization"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordApply(ctx context.Context, obs ApplyObservation) {
	m.Called(ctx, obs)
}

func TestApplyMetricsHandler(t *testing.T) {
	ctx := context.Background()
	recorder := &mockRecorder{}
	handler := NewApplyMetricsHandler(recorder, zap.NewNop())

	assert.ElementsMatch(t, []string{
		provisioning.EventTypeTemplateApplied,
		provisioning.EventTypeTemplateApplyFailed,
	}, handler.EventTypes())

	recorder.On("RecordApply", ctx, ApplyObservation{
		TemplateCode: "RETAIL_BASIC", Processed: 3, Skipped: 1, Duration: time.Second,
	}).Once()
	recorder.On("RecordApply", ctx, ApplyObservation{
		TemplateCode: "BROKEN", Failed: true, Errors: 2, Duration: time.Millisecond,
	}).Once()

	require.NoError(t, handler.Handle(ctx, provisioning.NewTemplateAppliedEvent(uuid.New(), uuid.New(), "RETAIL_BASIC", 3, 1, 0, time.Second)))
	require.NoError(t, handler.Handle(ctx, provisioning.NewTemplateApplyFailedEvent(uuid.New(), uuid.New(), "BROKEN", 0, 2, time.Millisecond)))
	recorder.AssertExpectations(t)

	org, err := organization.NewOrganization("ACME", "Acme")
	require.NoError(t, err)
	assert.Error(t, handler.Handle(ctx, org.GetDomainEvents()[0]))
}

func TestTelemetryApplyRecorder(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	metrics, err := telemetry.NewProvisioningMetrics(provider.Meter("test"))
	require.NoError(t, err)
	recorder := TelemetryApplyRecorder{Metrics: metrics}

	recorder.RecordApply(context.Background(), ApplyObservation{
		TemplateCode: "RETAIL_BASIC", Processed: 3, Duration: time.Second,
	})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	names := make([]string, 0)
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{
		"provisioning_apply_total",
		"provisioning_items_total",
		"provisioning_apply_duration_seconds",
	}, names)
}
