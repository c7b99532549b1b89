package catalog

import (
	"strings"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
)

// UnitOfMeasure is a unit products are stocked and sold in, such as EA or KG.
type UnitOfMeasure struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Description string
}

// NewUnitOfMeasure creates a new unit of measure
func NewUnitOfMeasure(tenantID uuid.UUID, code, name string) (*UnitOfMeasure, error) {
	code = NormalizeCode(code)
	name = strings.TrimSpace(name)
	if err := validateCode("Unit of measure", code, 20); err != nil {
		return nil, err
	}
	if err := validateName("Unit of measure", name, 50); err != nil {
		return nil, err
	}
	return &UnitOfMeasure{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
	}, nil
}

// SetDescription sets the description
func (u *UnitOfMeasure) SetDescription(description string) {
	u.Description = strings.TrimSpace(description)
}
