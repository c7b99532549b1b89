package provisioning

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is the result class of one template item.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeError     Outcome = "error"
)

// OrganizationRef identifies the organization a template is applied to.
type OrganizationRef struct {
	ID   uuid.UUID
	Name string
}

// Decision is what a materializer did with one item. Errors are reported
// through the error return instead.
type Decision struct {
	Outcome  Outcome
	EntityID uuid.UUID
	Reason   string
}

// Processed reports a newly created entity
func Processed(id uuid.UUID) Decision {
	return Decision{Outcome: OutcomeProcessed, EntityID: id}
}

// Skipped reports an item that was left alone on purpose
func Skipped(id uuid.UUID, reason string) Decision {
	return Decision{Outcome: OutcomeSkipped, EntityID: id, Reason: reason}
}

// RunContext carries the per-run state a materializer works with.
type RunContext struct {
	Organization OrganizationRef
	TemplateCode string
	Refs         *ReferenceTable
	Repos        TransactionalRepositories
	Logger       *zap.Logger
}

// Materializer turns one typed payload into a tenant-scoped entity.
type Materializer interface {
	EntityType() provisioning.EntityType
	Materialize(ctx context.Context, run *RunContext, payload Payload) (Decision, error)
}

// DefaultMaterializers returns one materializer per supported entity type.
func DefaultMaterializers() []Materializer {
	return []Materializer{
		&BrandMaterializer{},
		&CategoryMaterializer{},
		&UnitOfMeasureMaterializer{},
		&ProductTemplateMaterializer{},
		&TaxRuleMaterializer{},
	}
}

// resolveRef looks code up in the run's reference table first and falls back
// to storage through find. A not-found from storage yields (nil, nil).
func resolveRef(
	ctx context.Context,
	run *RunContext,
	entityType provisioning.EntityType,
	code string,
	find func(ctx context.Context, tenantID uuid.UUID, code string) (uuid.UUID, error),
) (*uuid.UUID, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	if id, ok := run.Refs.Lookup(entityType, code); ok {
		return &id, nil
	}
	id, err := find(ctx, run.Organization.ID, code)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &id, nil
}

func unexpectedPayload(want provisioning.EntityType, got Payload) error {
	return shared.NewDomainError("INVALID_INPUT", "Expected "+want.String()+" payload, got "+got.EntityType().String())
}
