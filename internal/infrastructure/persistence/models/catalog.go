package models

import (
	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BrandModel is the persistence model for the process-wide Brand entity.
type BrandModel struct {
	VersionedRow
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex:idx_brands_name"`
	Description string `gorm:"type:text;not null;default:''"`
	LogoURL     string `gorm:"type:text;not null;default:''"`
	Website     string `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (BrandModel) TableName() string {
	return "brands"
}

// ToDomain converts the persistence model to a domain Brand entity.
func (m *BrandModel) ToDomain() *catalog.Brand {
	return &catalog.Brand{
		BaseAggregateRoot: m.aggregate(),
		Name:              m.Name,
		Description:       m.Description,
		LogoURL:           m.LogoURL,
		Website:           m.Website,
	}
}

// FromDomain populates the persistence model from a domain Brand entity.
func (m *BrandModel) FromDomain(b *catalog.Brand) {
	m.VersionedRow = versionedRowOf(b.BaseAggregateRoot)
	m.Name = b.Name
	m.Description = b.Description
	m.LogoURL = b.LogoURL
	m.Website = b.Website
}

// CategoryModel is the persistence model for the Category entity.
type CategoryModel struct {
	VersionedRow
	TenantID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_category_tenant_code,priority:1"`
	Code        string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_category_tenant_code,priority:2"`
	Name        string     `gorm:"type:varchar(100);not null"`
	Description string     `gorm:"type:text;not null;default:''"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	Level       int        `gorm:"not null;default:0"`
	IsActive    bool       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		TenantAggregateRoot: m.tenantAggregate(m.TenantID),
		Code:                m.Code,
		Name:                m.Name,
		Description:         m.Description,
		ParentID:            m.ParentID,
		Level:               m.Level,
		Active:              m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain Category entity.
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.VersionedRow = versionedRowOf(c.BaseAggregateRoot)
	m.TenantID = c.TenantID
	m.Code = c.Code
	m.Name = c.Name
	m.Description = c.Description
	m.ParentID = c.ParentID
	m.Level = c.Level
	m.IsActive = c.Active
}

// UnitOfMeasureModel is the persistence model for the UnitOfMeasure entity.
type UnitOfMeasureModel struct {
	VersionedRow
	TenantID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_uom_tenant_code,priority:1"`
	Code        string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_uom_tenant_code,priority:2"`
	Name        string    `gorm:"type:varchar(50);not null"`
	Description string    `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (UnitOfMeasureModel) TableName() string {
	return "units_of_measure"
}

// ToDomain converts the persistence model to a domain UnitOfMeasure entity.
func (m *UnitOfMeasureModel) ToDomain() *catalog.UnitOfMeasure {
	return &catalog.UnitOfMeasure{
		TenantAggregateRoot: m.tenantAggregate(m.TenantID),
		Code:                m.Code,
		Name:                m.Name,
		Description:         m.Description,
	}
}

// FromDomain populates the persistence model from a domain UnitOfMeasure entity.
func (m *UnitOfMeasureModel) FromDomain(u *catalog.UnitOfMeasure) {
	m.VersionedRow = versionedRowOf(u.BaseAggregateRoot)
	m.TenantID = u.TenantID
	m.Code = u.Code
	m.Name = u.Name
	m.Description = u.Description
}

// ProductTemplateModel is the persistence model for the ProductTemplate
// entity. NameKey holds the case-folded name that carries uniqueness.
type ProductTemplateModel struct {
	VersionedRow
	TenantID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_template_tenant_name,priority:1"`
	Name            string          `gorm:"type:varchar(200);not null"`
	NameKey         string          `gorm:"type:varchar(200);not null;uniqueIndex:idx_product_template_tenant_name,priority:2"`
	Description     string          `gorm:"type:text;not null;default:''"`
	UnitOfMeasureID uuid.UUID       `gorm:"type:uuid;not null"`
	CategoryID      *uuid.UUID      `gorm:"type:uuid"`
	BrandID         *uuid.UUID      `gorm:"type:uuid"`
	RequiresExpiry  bool            `gorm:"not null;default:false"`
	ReorderPoint    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive        bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductTemplateModel) TableName() string {
	return "product_templates"
}

// ToDomain converts the persistence model to a domain ProductTemplate entity.
func (m *ProductTemplateModel) ToDomain() *catalog.ProductTemplate {
	return &catalog.ProductTemplate{
		TenantAggregateRoot: m.tenantAggregate(m.TenantID),
		Name:                m.Name,
		NameKey:             m.NameKey,
		Description:         m.Description,
		UnitOfMeasureID:     m.UnitOfMeasureID,
		CategoryID:          m.CategoryID,
		BrandID:             m.BrandID,
		RequiresExpiry:      m.RequiresExpiry,
		ReorderPoint:        m.ReorderPoint,
		Active:              m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain ProductTemplate entity.
func (m *ProductTemplateModel) FromDomain(p *catalog.ProductTemplate) {
	m.VersionedRow = versionedRowOf(p.BaseAggregateRoot)
	m.TenantID = p.TenantID
	m.Name = p.Name
	m.NameKey = p.NameKey
	if m.NameKey == "" {
		m.NameKey = catalog.NameKey(p.Name)
	}
	m.Description = p.Description
	m.UnitOfMeasureID = p.UnitOfMeasureID
	m.CategoryID = p.CategoryID
	m.BrandID = p.BrandID
	m.RequiresExpiry = p.RequiresExpiry
	m.ReorderPoint = p.ReorderPoint
	m.IsActive = p.Active
}

// ProductVariantModel is the persistence model for the ProductVariant entity.
// An empty barcode is excluded from the barcode unique index.
type ProductVariantModel struct {
	VersionedRow
	TenantID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_variant_tenant_sku,priority:1;uniqueIndex:idx_variant_tenant_barcode,priority:1,where:barcode <> ''"`
	ProductTemplateID uuid.UUID       `gorm:"type:uuid;not null;index:idx_variant_product_template"`
	SKU               string          `gorm:"column:sku;type:varchar(60);not null;uniqueIndex:idx_variant_tenant_sku,priority:2"`
	Barcode           string          `gorm:"type:varchar(50);not null;default:'';uniqueIndex:idx_variant_tenant_barcode,priority:2,where:barcode <> ''"`
	CostPrice         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RetailPrice       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	IsActive          bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant entity.
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	return &catalog.ProductVariant{
		TenantAggregateRoot: m.tenantAggregate(m.TenantID),
		ProductTemplateID:   m.ProductTemplateID,
		SKU:                 m.SKU,
		Barcode:             m.Barcode,
		CostPrice:           m.CostPrice,
		RetailPrice:         m.RetailPrice,
		Active:              m.IsActive,
	}
}

// FromDomain populates the persistence model from a domain ProductVariant entity.
func (m *ProductVariantModel) FromDomain(v *catalog.ProductVariant) {
	m.VersionedRow = versionedRowOf(v.BaseAggregateRoot)
	m.TenantID = v.TenantID
	m.ProductTemplateID = v.ProductTemplateID
	m.SKU = v.SKU
	m.Barcode = v.Barcode
	m.CostPrice = v.CostPrice
	m.RetailPrice = v.RetailPrice
	m.IsActive = v.Active
}

// TaxRuleModel is the persistence model for the TaxRule entity.
type TaxRuleModel struct {
	VersionedRow
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_tax_rule_tenant_country,priority:1"`
	CountryCode string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_tax_rule_tenant_country,priority:2"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(7,4);not null"`
	Description string          `gorm:"type:text;not null;default:''"`
}

// TableName returns the table name for GORM
func (TaxRuleModel) TableName() string {
	return "tax_rules"
}

// ToDomain converts the persistence model to a domain TaxRule entity.
func (m *TaxRuleModel) ToDomain() *catalog.TaxRule {
	return &catalog.TaxRule{
		TenantAggregateRoot: m.tenantAggregate(m.TenantID),
		CountryCode:         m.CountryCode,
		TaxRate:             m.TaxRate,
		Description:         m.Description,
	}
}

// FromDomain populates the persistence model from a domain TaxRule entity.
func (m *TaxRuleModel) FromDomain(r *catalog.TaxRule) {
	m.VersionedRow = versionedRowOf(r.BaseAggregateRoot)
	m.TenantID = r.TenantID
	m.CountryCode = r.CountryCode
	m.TaxRate = r.TaxRate
	m.Description = r.Description
}
