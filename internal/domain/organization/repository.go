package organization

import (
	"context"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
)

// OrganizationRepository defines the interface for organization persistence
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindByCode(ctx context.Context, code string) (*Organization, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Save(ctx context.Context, org *Organization) error
}

// ProvisioningRunRepository stores apply history
type ProvisioningRunRepository interface {
	Save(ctx context.Context, run *ProvisioningRun) error

	// FindByOrganization lists runs newest first
	FindByOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]ProvisioningRun, int64, error)
}

// ErrOrganizationNotFound reports a missing organization.
func ErrOrganizationNotFound(id uuid.UUID) *shared.DomainError {
	return shared.NewDomainError(shared.ErrNotFound.Code, "Organization not found: "+id.String())
}
