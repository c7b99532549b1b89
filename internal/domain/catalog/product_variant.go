package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxSKUSequence is the largest sequence FormatSKU can render in four digits.
const MaxSKUSequence = 9999

// ProductVariant is a sellable SKU of a product template.
type ProductVariant struct {
	shared.TenantAggregateRoot
	ProductTemplateID uuid.UUID
	SKU               string
	Barcode           string
	CostPrice         decimal.Decimal
	RetailPrice       decimal.Decimal
	Active            bool
}

// NewProductVariant creates a new variant with its prices.
func NewProductVariant(tenantID, productTemplateID uuid.UUID, sku string, costPrice, retailPrice decimal.Decimal) (*ProductVariant, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Variant SKU cannot be empty")
	}
	if len(sku) > 60 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Variant SKU is too long")
	}
	if productTemplateID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Variant product template is required")
	}
	if costPrice.IsNegative() || retailPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Variant prices cannot be negative")
	}
	return &ProductVariant{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductTemplateID:   productTemplateID,
		SKU:                 sku,
		CostPrice:           costPrice,
		RetailPrice:         retailPrice,
		Active:              true,
	}, nil
}

// SetBarcode sets the variant barcode
func (v *ProductVariant) SetBarcode(barcode string) error {
	barcode = strings.TrimSpace(barcode)
	if len(barcode) > 50 {
		return shared.NewDomainError("INVALID_INPUT", "Barcode cannot exceed 50 characters")
	}
	v.Barcode = barcode
	return nil
}

// SKUBase turns a free-form prefix into the SKU stem: upper-cased, with
// everything but ASCII letters and digits removed.
func SKUBase(prefix string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(prefix) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatSKU renders BASE-0001 style SKUs.
func FormatSKU(base string, seq int) string {
	return fmt.Sprintf("%s-%04d", base, seq)
}

// FirstFreeSKU returns the lowest-sequence SKU for base that is not in taken.
// Entries of taken that are not in FormatSKU form for base are ignored. It
// reports false when every sequence up to MaxSKUSequence is used.
func FirstFreeSKU(base string, taken []string) (string, bool) {
	used := make(map[int]bool, len(taken))
	for _, sku := range taken {
		digits, ok := strings.CutPrefix(sku, base+"-")
		if !ok || len(digits) != 4 {
			continue
		}
		if seq, err := strconv.Atoi(digits); err == nil {
			used[seq] = true
		}
	}
	for seq := 1; seq <= MaxSKUSequence; seq++ {
		if !used[seq] {
			return FormatSKU(base, seq), true
		}
	}
	return "", false
}
