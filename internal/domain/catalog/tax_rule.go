package catalog

import (
	"strings"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TaxRule is the default tax rate an organization charges in one country.
type TaxRule struct {
	shared.TenantAggregateRoot
	CountryCode string
	TaxRate     decimal.Decimal
	Description string
}

// NewTaxRule creates a new tax rule. The rate is a percentage between 0 and 100.
func NewTaxRule(tenantID uuid.UUID, countryCode string, taxRate decimal.Decimal) (*TaxRule, error) {
	countryCode = NormalizeCode(countryCode)
	if countryCode == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Country code cannot be empty")
	}
	if len(countryCode) > 10 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Country code is too long")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tax rate must be between 0 and 100")
	}
	return &TaxRule{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CountryCode:         countryCode,
		TaxRate:             taxRate,
	}, nil
}

// SetDescription sets the description
func (t *TaxRule) SetDescription(description string) {
	t.Description = strings.TrimSpace(description)
}
