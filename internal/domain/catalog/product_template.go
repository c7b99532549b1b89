package catalog

import (
	"strings"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

var nameFolder = cases.Fold()

// NameKey returns the case-insensitive lookup key for a product template name.
func NameKey(name string) string {
	return nameFolder.String(strings.TrimSpace(name))
}

// ProductTemplate is the shared definition behind one or more sellable variants.
// Names are unique per organization ignoring case.
type ProductTemplate struct {
	shared.TenantAggregateRoot
	Name            string
	NameKey         string
	Description     string
	UnitOfMeasureID uuid.UUID
	CategoryID      *uuid.UUID
	BrandID         *uuid.UUID
	RequiresExpiry  bool
	ReorderPoint    decimal.Decimal
	Active          bool
}

// NewProductTemplate creates a new product template
func NewProductTemplate(tenantID uuid.UUID, name string, unitOfMeasureID uuid.UUID) (*ProductTemplate, error) {
	name = strings.TrimSpace(name)
	if err := validateName("Product", name, 200); err != nil {
		return nil, err
	}
	if unitOfMeasureID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product unit of measure is required")
	}
	return &ProductTemplate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		NameKey:             NameKey(name),
		UnitOfMeasureID:     unitOfMeasureID,
		ReorderPoint:        decimal.Zero,
		Active:              true,
	}, nil
}

// SetCategory sets the product category
func (p *ProductTemplate) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
}

// SetBrand sets the product brand
func (p *ProductTemplate) SetBrand(brandID *uuid.UUID) {
	p.BrandID = brandID
}

// SetDescription sets the description
func (p *ProductTemplate) SetDescription(description string) {
	p.Description = strings.TrimSpace(description)
}

// SetStockPolicy sets expiry tracking and the reorder point.
func (p *ProductTemplate) SetStockPolicy(requiresExpiry bool, reorderPoint decimal.Decimal) error {
	if reorderPoint.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Reorder point cannot be negative")
	}
	p.RequiresExpiry = requiresExpiry
	p.ReorderPoint = reorderPoint
	return nil
}

// HasCategory returns true if the product has a category
func (p *ProductTemplate) HasCategory() bool {
	return p.CategoryID != nil
}

// HasBrand returns true if the product has a brand
func (p *ProductTemplate) HasBrand() bool {
	return p.BrandID != nil
}
