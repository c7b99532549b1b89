package provisioning

import (
	"time"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	EventTypeTemplateCreated     = "TemplateCreated"
	EventTypeTemplateUpdated     = "TemplateUpdated"
	EventTypeTemplateDeleted     = "TemplateDeleted"
	EventTypeTemplateApplied     = "TemplateApplied"
	EventTypeTemplateApplyFailed = "TemplateApplyFailed"
)

const AggregateTypeTemplate = "Template"

// templateEvent stamps an event about template id. Catalog events carry no
// tenant; apply events carry the target organization.
func templateEvent(eventType string, id, organizationID uuid.UUID) shared.EventMeta {
	return shared.NewEventMeta(eventType, shared.AggregateRef{Type: AggregateTypeTemplate, ID: id}, organizationID)
}

type TemplateCreatedEvent struct {
	shared.EventMeta
	Code         string `json:"code"`
	Name         string `json:"name"`
	TemplateType string `json:"template_type"`
}

func NewTemplateCreatedEvent(t *Template) *TemplateCreatedEvent {
	return &TemplateCreatedEvent{
		EventMeta:    templateEvent(EventTypeTemplateCreated, t.ID, uuid.Nil),
		Code:         t.Code,
		Name:         t.Name,
		TemplateType: t.Type,
	}
}

// TemplateUpdatedEvent follows any metadata change, activation included.
type TemplateUpdatedEvent struct {
	shared.EventMeta
	Code     string `json:"code"`
	Revision int    `json:"revision"`
	Active   bool   `json:"active"`
}

func NewTemplateUpdatedEvent(t *Template) *TemplateUpdatedEvent {
	return &TemplateUpdatedEvent{
		EventMeta: templateEvent(EventTypeTemplateUpdated, t.ID, uuid.Nil),
		Code:      t.Code,
		Revision:  t.Revision,
		Active:    t.Active,
	}
}

type TemplateDeletedEvent struct {
	shared.EventMeta
	Code string `json:"code"`
}

func NewTemplateDeletedEvent(t *Template) *TemplateDeletedEvent {
	return &TemplateDeletedEvent{
		EventMeta: templateEvent(EventTypeTemplateDeleted, t.ID, uuid.Nil),
		Code:      t.Code,
	}
}

// TemplateAppliedEvent reports a run that created at least one entity or hit
// no errors. Partial runs are reported here with Errors > 0.
type TemplateAppliedEvent struct {
	shared.EventMeta
	TemplateCode string        `json:"template_code"`
	Processed    int           `json:"processed"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	Duration     time.Duration `json:"duration"`
}

func NewTemplateAppliedEvent(templateID, organizationID uuid.UUID, templateCode string, processed, skipped, errors int, duration time.Duration) *TemplateAppliedEvent {
	return &TemplateAppliedEvent{
		EventMeta:    templateEvent(EventTypeTemplateApplied, templateID, organizationID),
		TemplateCode: templateCode,
		Processed:    processed,
		Skipped:      skipped,
		Errors:       errors,
		Duration:     duration,
	}
}

// TemplateApplyFailedEvent reports a run that created nothing and hit errors.
type TemplateApplyFailedEvent struct {
	shared.EventMeta
	TemplateCode string        `json:"template_code"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	Duration     time.Duration `json:"duration"`
}

func NewTemplateApplyFailedEvent(templateID, organizationID uuid.UUID, templateCode string, skipped, errors int, duration time.Duration) *TemplateApplyFailedEvent {
	return &TemplateApplyFailedEvent{
		EventMeta:    templateEvent(EventTypeTemplateApplyFailed, templateID, organizationID),
		TemplateCode: templateCode,
		Skipped:      skipped,
		Errors:       errors,
		Duration:     duration,
	}
}
