package organization

import (
	"github.com/erp/provisioner/internal/domain/shared"
)

const AggregateTypeOrganization = "Organization"

const EventTypeOrganizationCreated = "OrganizationCreated"

// OrganizationCreatedEvent is tenant-scoped to the new organization itself.
type OrganizationCreatedEvent struct {
	shared.EventMeta
	Code string `json:"code"`
	Name string `json:"name"`
}

func NewOrganizationCreatedEvent(org *Organization) *OrganizationCreatedEvent {
	ref := shared.AggregateRef{Type: AggregateTypeOrganization, ID: org.ID}
	return &OrganizationCreatedEvent{
		EventMeta: shared.NewEventMeta(EventTypeOrganizationCreated, ref, org.ID),
		Code:      org.Code,
		Name:      org.Name,
	}
}
