package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	byTenantAndID   = "tenant_id = ? AND id = ?"
	byTenantAndCode = "tenant_id = ? AND code = ?"
	byTenant        = "tenant_id = ?"
)

var (
	_ catalog.BrandRepository           = (*GormBrandRepository)(nil)
	_ catalog.CategoryRepository        = (*GormCategoryRepository)(nil)
	_ catalog.UnitOfMeasureRepository   = (*GormUnitOfMeasureRepository)(nil)
	_ catalog.ProductTemplateRepository = (*GormProductTemplateRepository)(nil)
	_ catalog.ProductVariantRepository  = (*GormProductVariantRepository)(nil)
	_ catalog.TaxRuleRepository         = (*GormTaxRuleRepository)(nil)
)

// GormBrandRepository stores the process-wide brands
type GormBrandRepository struct{ db *gorm.DB }

// NewGormBrandRepository creates a GormBrandRepository
func NewGormBrandRepository(db *gorm.DB) *GormBrandRepository {
	return &GormBrandRepository{db: db}
}

// FindByName finds a brand by its exact name
func (r *GormBrandRepository) FindByName(ctx context.Context, name string) (*catalog.Brand, error) {
	return findOne[catalog.Brand, models.BrandModel](ctx, r.db, "Brand", "name = ?", name)
}

// Save creates or updates a brand
func (r *GormBrandRepository) Save(ctx context.Context, brand *catalog.Brand) error {
	var m models.BrandModel
	m.FromDomain(brand)
	return save(ctx, r.db, &m, "Brand '"+brand.Name+"'")
}

// GormCategoryRepository stores categories per organization
type GormCategoryRepository struct{ db *gorm.DB }

// NewGormCategoryRepository creates a GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByIDForTenant finds a category by ID within an organization
func (r *GormCategoryRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Category, error) {
	return findOne[catalog.Category, models.CategoryModel](ctx, r.db, "Category", byTenantAndID, tenantID, id)
}

// FindByCode finds a category by code, ignoring case
func (r *GormCategoryRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Category, error) {
	return findOne[catalog.Category, models.CategoryModel](ctx, r.db, "Category", byTenantAndCode, tenantID, strings.ToUpper(code))
}

// FindAllForTenant lists the categories of an organization, roots first
func (r *GormCategoryRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.Category, error) {
	return findAll[catalog.Category, models.CategoryModel](ctx, r.db, "level ASC, code ASC", byTenant, tenantID)
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	var m models.CategoryModel
	m.FromDomain(category)
	return save(ctx, r.db, &m, "Category '"+category.Code+"'")
}

// GormUnitOfMeasureRepository stores units of measure per organization
type GormUnitOfMeasureRepository struct{ db *gorm.DB }

// NewGormUnitOfMeasureRepository creates a GormUnitOfMeasureRepository
func NewGormUnitOfMeasureRepository(db *gorm.DB) *GormUnitOfMeasureRepository {
	return &GormUnitOfMeasureRepository{db: db}
}

// FindByIDForTenant finds a unit by ID within an organization
func (r *GormUnitOfMeasureRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.UnitOfMeasure, error) {
	return findOne[catalog.UnitOfMeasure, models.UnitOfMeasureModel](ctx, r.db, "Unit of measure", byTenantAndID, tenantID, id)
}

// FindByCode finds a unit by code, ignoring case
func (r *GormUnitOfMeasureRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.UnitOfMeasure, error) {
	return findOne[catalog.UnitOfMeasure, models.UnitOfMeasureModel](ctx, r.db, "Unit of measure", byTenantAndCode, tenantID, strings.ToUpper(code))
}

// FindAllForTenant lists the units of an organization by code
func (r *GormUnitOfMeasureRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.UnitOfMeasure, error) {
	return findAll[catalog.UnitOfMeasure, models.UnitOfMeasureModel](ctx, r.db, "code ASC", byTenant, tenantID)
}

// Save creates or updates a unit of measure
func (r *GormUnitOfMeasureRepository) Save(ctx context.Context, unit *catalog.UnitOfMeasure) error {
	var m models.UnitOfMeasureModel
	m.FromDomain(unit)
	return save(ctx, r.db, &m, "Unit of measure '"+unit.Code+"'")
}

// GormProductTemplateRepository stores product templates per organization
type GormProductTemplateRepository struct{ db *gorm.DB }

// NewGormProductTemplateRepository creates a GormProductTemplateRepository
func NewGormProductTemplateRepository(db *gorm.DB) *GormProductTemplateRepository {
	return &GormProductTemplateRepository{db: db}
}

// FindByName finds a product template by name, ignoring case, through the
// folded name_key column
func (r *GormProductTemplateRepository) FindByName(ctx context.Context, tenantID uuid.UUID, name string) (*catalog.ProductTemplate, error) {
	return findOne[catalog.ProductTemplate, models.ProductTemplateModel](ctx, r.db, "Product template", "tenant_id = ? AND name_key = ?", tenantID, catalog.NameKey(name))
}

// FindByIDForTenant finds a product template by ID within an organization
func (r *GormProductTemplateRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.ProductTemplate, error) {
	return findOne[catalog.ProductTemplate, models.ProductTemplateModel](ctx, r.db, "Product template", byTenantAndID, tenantID, id)
}

// FindAllForTenant lists the product templates of an organization by name
func (r *GormProductTemplateRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.ProductTemplate, error) {
	return findAll[catalog.ProductTemplate, models.ProductTemplateModel](ctx, r.db, "name_key ASC", byTenant, tenantID)
}

// Save creates or updates a product template
func (r *GormProductTemplateRepository) Save(ctx context.Context, product *catalog.ProductTemplate) error {
	var m models.ProductTemplateModel
	m.FromDomain(product)
	return save(ctx, r.db, &m, "Product template '"+product.Name+"'")
}

// GormProductVariantRepository stores product variants per organization
type GormProductVariantRepository struct{ db *gorm.DB }

// NewGormProductVariantRepository creates a GormProductVariantRepository
func NewGormProductVariantRepository(db *gorm.DB) *GormProductVariantRepository {
	return &GormProductVariantRepository{db: db}
}

// SKUsWithPrefix loads the organization's SKUs starting with prefix in one
// query. LIKE wildcards in prefix are escaped.
func (r *GormProductVariantRepository) SKUsWithPrefix(ctx context.Context, tenantID uuid.UUID, prefix string) ([]string, error) {
	var skus []string
	err := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Where(`tenant_id = ? AND sku LIKE ? ESCAPE '\'`, tenantID, likePrefix(prefix)).
		Order("sku ASC").
		Pluck("sku", &skus).Error
	if err != nil {
		return nil, fmt.Errorf("list skus with prefix %q: %w", prefix, err)
	}
	return skus, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}

// ExistsByBarcode reports whether barcode is taken within an organization.
// The empty barcode is never taken.
func (r *GormProductVariantRepository) ExistsByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (bool, error) {
	if barcode == "" {
		return false, nil
	}
	return exists(ctx, r.db, &models.ProductVariantModel{}, "tenant_id = ? AND barcode = ?", tenantID, barcode)
}

// FindByProductTemplate lists the variants of a product template by SKU
func (r *GormProductVariantRepository) FindByProductTemplate(ctx context.Context, tenantID, productTemplateID uuid.UUID) ([]catalog.ProductVariant, error) {
	return findAll[catalog.ProductVariant, models.ProductVariantModel](ctx, r.db, "sku ASC", "tenant_id = ? AND product_template_id = ?", tenantID, productTemplateID)
}

// Save creates or updates a variant
func (r *GormProductVariantRepository) Save(ctx context.Context, variant *catalog.ProductVariant) error {
	var m models.ProductVariantModel
	m.FromDomain(variant)
	return save(ctx, r.db, &m, "Product variant '"+variant.SKU+"'")
}

// GormTaxRuleRepository stores one tax rule per country per organization
type GormTaxRuleRepository struct{ db *gorm.DB }

// NewGormTaxRuleRepository creates a GormTaxRuleRepository
func NewGormTaxRuleRepository(db *gorm.DB) *GormTaxRuleRepository {
	return &GormTaxRuleRepository{db: db}
}

// FindByCountryCode finds the rule of a country within an organization
func (r *GormTaxRuleRepository) FindByCountryCode(ctx context.Context, tenantID uuid.UUID, countryCode string) (*catalog.TaxRule, error) {
	return findOne[catalog.TaxRule, models.TaxRuleModel](ctx, r.db, "Tax rule", "tenant_id = ? AND country_code = ?", tenantID, strings.ToUpper(strings.TrimSpace(countryCode)))
}

// FindAllForTenant lists the rules of an organization by country
func (r *GormTaxRuleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]catalog.TaxRule, error) {
	return findAll[catalog.TaxRule, models.TaxRuleModel](ctx, r.db, "country_code ASC", byTenant, tenantID)
}

// Save creates or updates a tax rule
func (r *GormTaxRuleRepository) Save(ctx context.Context, rule *catalog.TaxRule) error {
	var m models.TaxRuleModel
	m.FromDomain(rule)
	return save(ctx, r.db, &m, "Tax rule for '"+rule.CountryCode+"'")
}
