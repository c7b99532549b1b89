package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Apply outcomes reported on provisioning metrics.
const (
	ApplyOutcomeSucceeded = "succeeded"
	ApplyOutcomePartial   = "partial"
	ApplyOutcomeFailed    = "failed"
)

// Item outcomes reported on provisioning metrics.
const (
	ItemOutcomeProcessed = "processed"
	ItemOutcomeSkipped   = "skipped"
	ItemOutcomeError     = "error"
)

// ProvisioningMetrics holds the instruments describing template applies.
type ProvisioningMetrics struct {
	applyTotal    Counter
	itemsTotal    Counter
	applyDuration Histogram
}

// NewProvisioningMetrics creates the provisioning instruments on meter.
func NewProvisioningMetrics(meter metric.Meter) (*ProvisioningMetrics, error) {
	in := NewInstruments(meter)
	m := &ProvisioningMetrics{
		applyTotal:    in.Counter("provisioning_apply_total", "Template apply runs by outcome", "{run}"),
		itemsTotal:    in.Counter("provisioning_items_total", "Template items handled during apply runs by outcome", "{item}"),
		applyDuration: in.Seconds("provisioning_apply_duration_seconds", "Duration of template apply runs", ApplyDurationBuckets),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordApplyRun records one finished apply of templateCode.
func (m *ProvisioningMetrics) RecordApplyRun(ctx context.Context, templateCode string, failed bool, processed, skipped, errs int, d time.Duration) {
	code := AttrTemplateCode.String(templateCode)
	outcome := ApplyOutcome(failed, errs)

	m.applyTotal.Inc(ctx, code, AttrApplyOutcome.String(outcome))
	m.applyDuration.Duration(ctx, d, code, AttrApplyOutcome.String(outcome))

	m.itemsTotal.Add(ctx, int64(processed), code, AttrItemOutcome.String(ItemOutcomeProcessed))
	m.itemsTotal.Add(ctx, int64(skipped), code, AttrItemOutcome.String(ItemOutcomeSkipped))
	m.itemsTotal.Add(ctx, int64(errs), code, AttrItemOutcome.String(ItemOutcomeError))
}

// ApplyOutcome classifies a run: failed runs created nothing, partial runs
// created something but also hit item errors.
func ApplyOutcome(failed bool, errs int) string {
	switch {
	case failed:
		return ApplyOutcomeFailed
	case errs > 0:
		return ApplyOutcomePartial
	default:
		return ApplyOutcomeSucceeded
	}
}
