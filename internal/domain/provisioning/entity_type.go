package provisioning

// EntityType is the canonical tag of a template item.
type EntityType string

// Supported entity types, in the PascalCase form stored after normalization.
const (
	EntityBrand           EntityType = "Brand"
	EntityCategory        EntityType = "Category"
	EntityUnitOfMeasure   EntityType = "UnitOfMeasure"
	EntityProductTemplate EntityType = "ProductTemplate"
	EntityTaxRule         EntityType = "TaxRule"
)

// SupportedEntityTypes lists the closed set of types the engine can materialize.
var SupportedEntityTypes = []EntityType{
	EntityBrand,
	EntityCategory,
	EntityUnitOfMeasure,
	EntityProductTemplate,
	EntityTaxRule,
}

// String returns the canonical name.
func (t EntityType) String() string {
	return string(t)
}

// IsSupported reports whether t belongs to the closed set.
func (t EntityType) IsSupported() bool {
	switch t {
	case EntityBrand, EntityCategory, EntityUnitOfMeasure, EntityProductTemplate, EntityTaxRule:
		return true
	}
	return false
}
