package catalog

import (
	"context"

	"github.com/google/uuid"
)

// BrandRepository defines the interface for brand persistence.
// Brands are process-wide, so lookups take no tenant.
type BrandRepository interface {
	// FindByName finds a brand by its exact name
	FindByName(ctx context.Context, name string) (*Brand, error)

	// Save creates a brand
	Save(ctx context.Context, brand *Brand) error
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	// FindByIDForTenant finds a category by ID within a tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Category, error)

	// FindByCode finds a category by its code within a tenant
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*Category, error)

	// FindAllForTenant finds all categories for a tenant ordered by code
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Category, error)

	// Save creates a category
	Save(ctx context.Context, category *Category) error
}

// UnitOfMeasureRepository defines the interface for unit of measure persistence
type UnitOfMeasureRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*UnitOfMeasure, error)
	FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*UnitOfMeasure, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]UnitOfMeasure, error)
	Save(ctx context.Context, unit *UnitOfMeasure) error
}

// ProductTemplateRepository defines the interface for product template persistence
type ProductTemplateRepository interface {
	// FindByName finds a product template by name ignoring case
	FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*ProductTemplate, error)

	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ProductTemplate, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]ProductTemplate, error)
	Save(ctx context.Context, product *ProductTemplate) error
}

// ProductVariantRepository defines the interface for product variant persistence
type ProductVariantRepository interface {
	// SKUsWithPrefix lists the SKUs of the organization starting with prefix.
	SKUsWithPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) ([]string, error)
	ExistsByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (bool, error)
	FindByProductTemplate(ctx context.Context, tenantID, productTemplateID uuid.UUID) ([]ProductVariant, error)
	Save(ctx context.Context, variant *ProductVariant) error
}

// TaxRuleRepository defines the interface for tax rule persistence
type TaxRuleRepository interface {
	FindByCountryCode(ctx context.Context, tenantID uuid.UUID, countryCode string) (*TaxRule, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]TaxRule, error)
	Save(ctx context.Context, rule *TaxRule) error
}
