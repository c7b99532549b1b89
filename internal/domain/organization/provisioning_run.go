package organization

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome of one apply attempt.
type RunStatus string

const (
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

// ProvisioningRun is the audit record of one template apply attempt.
type ProvisioningRun struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	TemplateID     *uuid.UUID
	TemplateCode   string
	Status         RunStatus
	Processed      int
	Skipped        int
	Errors         int
	Message        string
	StartedAt      time.Time
	FinishedAt     time.Time
}

// StartRun opens a run record; call Succeed or Fail to close it.
func StartRun(organizationID uuid.UUID, templateCode string) *ProvisioningRun {
	return &ProvisioningRun{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		TemplateCode:   templateCode,
		StartedAt:      time.Now(),
	}
}

// Succeed closes the run with its counts.
func (r *ProvisioningRun) Succeed(templateID uuid.UUID, processed, skipped, errors int) {
	r.TemplateID = &templateID
	r.Status = RunStatusSucceeded
	r.Processed = processed
	r.Skipped = skipped
	r.Errors = errors
	r.FinishedAt = time.Now()
}

// Fail closes the run with the error that stopped it.
func (r *ProvisioningRun) Fail(templateID *uuid.UUID, skipped, errors int, cause error) {
	r.TemplateID = templateID
	r.Status = RunStatusFailed
	r.Skipped = skipped
	r.Errors = errors
	if cause != nil {
		r.Message = cause.Error()
	}
	r.FinishedAt = time.Now()
}

// Duration returns how long the run took
func (r *ProvisioningRun) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
