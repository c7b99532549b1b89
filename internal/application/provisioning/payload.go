package provisioning

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/go-viper/mapstructure/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Payload is the typed form of a template item's data. Each supported entity
// type has exactly one payload type.
type Payload interface {
	EntityType() provisioning.EntityType
}

// BrandPayload is the data of a Brand item
type BrandPayload struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	LogoURL     string `mapstructure:"logoUrl"`
	Website     string `mapstructure:"website"`
}

// CategoryPayload is the data of a Category item
type CategoryPayload struct {
	Code        string `mapstructure:"code"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	ParentCode  string `mapstructure:"parentCode"`
	IsActive    *bool  `mapstructure:"isActive"`
}

// UnitOfMeasurePayload is the data of a UnitOfMeasure item
type UnitOfMeasurePayload struct {
	Code        string `mapstructure:"code"`
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// ProductTemplatePayload is the data of a ProductTemplate item. The variant
// fields SKUPrefix, CostPrice and RetailPrice go together.
type ProductTemplatePayload struct {
	Name              string           `mapstructure:"name"`
	Description       string           `mapstructure:"description"`
	UnitOfMeasureID   *uuid.UUID       `mapstructure:"unitOfMeasureId"`
	UnitOfMeasureCode string           `mapstructure:"unitOfMeasureCode"`
	UomCode           string           `mapstructure:"uomCode"`
	CategoryCode      string           `mapstructure:"categoryCode"`
	BrandName         string           `mapstructure:"brandName"`
	RequiresExpiry    bool             `mapstructure:"requiresExpiry"`
	ReorderPoint      *decimal.Decimal `mapstructure:"reorderPoint"`
	SKUPrefix         *string          `mapstructure:"skuPrefix"`
	CostPrice         *decimal.Decimal `mapstructure:"costPrice"`
	RetailPrice       *decimal.Decimal `mapstructure:"retailPrice"`
	Barcode           string           `mapstructure:"barcode"`
}

// TaxRulePayload is the data of a TaxRule item
type TaxRulePayload struct {
	CountryCode string           `mapstructure:"countryCode"`
	TaxRate     *decimal.Decimal `mapstructure:"taxRate"`
	Description string           `mapstructure:"description"`
}

func (*BrandPayload) EntityType() provisioning.EntityType    { return provisioning.EntityBrand }
func (*CategoryPayload) EntityType() provisioning.EntityType { return provisioning.EntityCategory }
func (*UnitOfMeasurePayload) EntityType() provisioning.EntityType {
	return provisioning.EntityUnitOfMeasure
}
func (*ProductTemplatePayload) EntityType() provisioning.EntityType {
	return provisioning.EntityProductTemplate
}
func (*TaxRulePayload) EntityType() provisioning.EntityType { return provisioning.EntityTaxRule }

// UnitOfMeasureRef returns the unit code the product points at, preferring
// unitOfMeasureCode over uomCode.
func (p *ProductTemplatePayload) UnitOfMeasureRef() string {
	if code := strings.TrimSpace(p.UnitOfMeasureCode); code != "" {
		return code
	}
	return strings.TrimSpace(p.UomCode)
}

// HasUnitOfMeasure reports whether any unit reference was given
func (p *ProductTemplatePayload) HasUnitOfMeasure() bool {
	return (p.UnitOfMeasureID != nil && *p.UnitOfMeasureID != uuid.Nil) || p.UnitOfMeasureRef() != ""
}

// HasVariantFields reports whether any of the first-variant fields is present
func (p *ProductTemplatePayload) HasVariantFields() bool {
	return p.SKUPrefix != nil || p.CostPrice != nil || p.RetailPrice != nil
}

// DecodePayload converts normalized item data into the payload type of entityType.
func DecodePayload(entityType provisioning.EntityType, data map[string]any) (Payload, error) {
	var out Payload
	switch entityType {
	case provisioning.EntityBrand:
		out = &BrandPayload{}
	case provisioning.EntityCategory:
		out = &CategoryPayload{}
	case provisioning.EntityUnitOfMeasure:
		out = &UnitOfMeasurePayload{}
	case provisioning.EntityProductTemplate:
		out = &ProductTemplatePayload{}
	case provisioning.EntityTaxRule:
		out = &TaxRulePayload{}
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported entity type: "+entityType.String())
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			decimalHook,
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Invalid %s payload: %v", entityType, err))
	}
	return out, nil
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook accepts JSON numbers, floats, integers and numeric strings.
func decimalHook(from, to reflect.Type, data any) (any, error) {
	if to != decimalType {
		return data, nil
	}
	switch v := data.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	}
	return data, nil
}

func missingField(entityType provisioning.EntityType, field string) error {
	return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("%s is missing required field: %s", entityType, field))
}
