package provisioning

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/erp/provisioner/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ApplyMetricsRecorder receives one observation per finished apply run.
type ApplyMetricsRecorder interface {
	RecordApply(ctx context.Context, obs ApplyObservation)
}

// ApplyObservation is what an apply run reports to metrics
type ApplyObservation struct {
	TemplateCode string
	Failed       bool
	Processed    int
	Skipped      int
	Errors       int
	Duration     time.Duration
}

// TelemetryApplyRecorder forwards observations to OpenTelemetry instruments
type TelemetryApplyRecorder struct {
	Metrics *telemetry.ProvisioningMetrics
}

// RecordApply implements ApplyMetricsRecorder
func (r TelemetryApplyRecorder) RecordApply(ctx context.Context, obs ApplyObservation) {
	r.Metrics.RecordApplyRun(ctx, obs.TemplateCode, obs.Failed, obs.Processed, obs.Skipped, obs.Errors, obs.Duration)
}

// ApplyMetricsHandler feeds TemplateApplied and TemplateApplyFailed events
// into a metrics recorder
type ApplyMetricsHandler struct {
	recorder ApplyMetricsRecorder
	logger   *zap.Logger
}

// NewApplyMetricsHandler creates a new ApplyMetricsHandler
func NewApplyMetricsHandler(recorder ApplyMetricsRecorder, logger *zap.Logger) *ApplyMetricsHandler {
	return &ApplyMetricsHandler{recorder: recorder, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ApplyMetricsHandler) EventTypes() []string {
	return []string{
		provisioning.EventTypeTemplateApplied,
		provisioning.EventTypeTemplateApplyFailed,
	}
}

// Handle records one apply observation
func (h *ApplyMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *provisioning.TemplateAppliedEvent:
		h.recorder.RecordApply(ctx, ApplyObservation{
			TemplateCode: e.TemplateCode,
			Processed:    e.Processed,
			Skipped:      e.Skipped,
			Errors:       e.Errors,
			Duration:     e.Duration,
		})
	case *provisioning.TemplateApplyFailedEvent:
		h.recorder.RecordApply(ctx, ApplyObservation{
			TemplateCode: e.TemplateCode,
			Failed:       true,
			Skipped:      e.Skipped,
			Errors:       e.Errors,
			Duration:     e.Duration,
		})
	default:
		h.logger.Error("unexpected event type",
			zap.Strings("expected", h.EventTypes()),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}
	return nil
}

var _ shared.EventHandler = (*ApplyMetricsHandler)(nil)
