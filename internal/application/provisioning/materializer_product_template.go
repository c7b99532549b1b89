package provisioning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductTemplateMaterializer creates product templates and, when the payload
// carries skuPrefix, costPrice and retailPrice, their first variant.
type ProductTemplateMaterializer struct{}

func (m *ProductTemplateMaterializer) EntityType() provisioning.EntityType {
	return provisioning.EntityProductTemplate
}

func (m *ProductTemplateMaterializer) Materialize(ctx context.Context, run *RunContext, payload Payload) (Decision, error) {
	p, ok := payload.(*ProductTemplatePayload)
	if !ok {
		return Decision{}, unexpectedPayload(provisioning.EntityProductTemplate, payload)
	}
	if err := validateProductPayload(p); err != nil {
		return Decision{}, err
	}

	orgID := run.Organization.ID
	repos := run.Repos
	existing, err := repos.ProductTemplateRepo().FindByName(ctx, orgID, p.Name)
	if err == nil {
		return Skipped(existing.ID, "product template already exists"), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Decision{}, err
	}

	unitID, err := resolveUnitOfMeasure(ctx, run, p)
	if err != nil {
		return Decision{}, err
	}
	if unitID == nil {
		run.Logger.Warn("unit of measure not found, skipping product template",
			zap.String("name", p.Name),
			zap.String("unit_of_measure", p.UnitOfMeasureRef()),
		)
		return Skipped(uuid.Nil, "unit of measure not found"), nil
	}

	categoryID, err := resolveRef(ctx, run, provisioning.EntityCategory, p.CategoryCode, func(ctx context.Context, tenantID uuid.UUID, code string) (uuid.UUID, error) {
		category, err := repos.CategoryRepo().FindByCode(ctx, tenantID, catalog.NormalizeCode(code))
		if err != nil {
			return uuid.Nil, err
		}
		return category.ID, nil
	})
	if err != nil {
		return Decision{}, err
	}
	if categoryID == nil && strings.TrimSpace(p.CategoryCode) != "" {
		run.Logger.Warn("category not found, leaving product uncategorized",
			zap.String("name", p.Name),
			zap.String("category_code", p.CategoryCode),
		)
	}

	brandID, err := resolveBrand(ctx, run, p.BrandName)
	if err != nil {
		return Decision{}, err
	}

	product, err := catalog.NewProductTemplate(orgID, p.Name, *unitID)
	if err != nil {
		return Decision{}, err
	}
	product.SetDescription(p.Description)
	product.SetCategory(categoryID)
	product.SetBrand(brandID)
	reorderPoint := decimal.Zero
	if p.ReorderPoint != nil {
		reorderPoint = *p.ReorderPoint
	}
	if err := product.SetStockPolicy(p.RequiresExpiry, reorderPoint); err != nil {
		return Decision{}, err
	}
	if err := repos.ProductTemplateRepo().Save(ctx, product); err != nil {
		return Decision{}, err
	}

	if p.HasVariantFields() {
		if err := createFirstVariant(ctx, run, product, p); err != nil {
			return Decision{}, err
		}
	}
	return Processed(product.ID), nil
}

// validateProductPayload runs every check that does not need storage, so a
// bad payload fails before anything is written.
func validateProductPayload(p *ProductTemplatePayload) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return missingField(provisioning.EntityProductTemplate, "name")
	}
	if !p.HasUnitOfMeasure() {
		return missingField(provisioning.EntityProductTemplate, "unitOfMeasureCode")
	}
	if !p.HasVariantFields() {
		return nil
	}
	if p.SKUPrefix == nil || strings.TrimSpace(*p.SKUPrefix) == "" {
		return missingField(provisioning.EntityProductTemplate, "skuPrefix")
	}
	if p.CostPrice == nil {
		return missingField(provisioning.EntityProductTemplate, "costPrice")
	}
	if p.RetailPrice == nil {
		return missingField(provisioning.EntityProductTemplate, "retailPrice")
	}
	if catalog.SKUBase(*p.SKUPrefix) == "" {
		return shared.NewDomainError("INVALID_INPUT", "skuPrefix must contain at least one letter or digit")
	}
	if p.CostPrice.IsNegative() || p.RetailPrice.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Variant prices cannot be negative")
	}
	return nil
}

func resolveUnitOfMeasure(ctx context.Context, run *RunContext, p *ProductTemplatePayload) (*uuid.UUID, error) {
	repo := run.Repos.UnitOfMeasureRepo()
	if p.UnitOfMeasureID != nil && *p.UnitOfMeasureID != uuid.Nil {
		unit, err := repo.FindByIDForTenant(ctx, run.Organization.ID, *p.UnitOfMeasureID)
		if err == nil {
			return &unit.ID, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if p.UnitOfMeasureRef() == "" {
			return nil, nil
		}
	}
	return resolveRef(ctx, run, provisioning.EntityUnitOfMeasure, p.UnitOfMeasureRef(), func(ctx context.Context, tenantID uuid.UUID, code string) (uuid.UUID, error) {
		unit, err := repo.FindByCode(ctx, tenantID, catalog.NormalizeCode(code))
		if err != nil {
			return uuid.Nil, err
		}
		return unit.ID, nil
	})
}

func resolveBrand(ctx context.Context, run *RunContext, name string) (*uuid.UUID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	brand, err := run.Repos.BrandRepo().FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			run.Logger.Warn("brand not found, leaving product unbranded", zap.String("brand_name", name))
			return nil, nil
		}
		return nil, err
	}
	return &brand.ID, nil
}

func createFirstVariant(ctx context.Context, run *RunContext, product *catalog.ProductTemplate, p *ProductTemplatePayload) error {
	repo := run.Repos.ProductVariantRepo()
	orgID := run.Organization.ID

	sku, err := nextFreeSKU(ctx, repo, orgID, catalog.SKUBase(*p.SKUPrefix))
	if err != nil {
		return err
	}
	variant, err := catalog.NewProductVariant(orgID, product.ID, sku, *p.CostPrice, *p.RetailPrice)
	if err != nil {
		return err
	}

	if barcode := strings.TrimSpace(p.Barcode); barcode != "" {
		taken, err := repo.ExistsByBarcode(ctx, orgID, barcode)
		if err != nil {
			return err
		}
		if taken {
			run.Logger.Warn("barcode already in use, creating variant without barcode",
				zap.String("sku", sku),
				zap.String("barcode", barcode),
			)
		} else if err := variant.SetBarcode(barcode); err != nil {
			return err
		}
	}
	return repo.Save(ctx, variant)
}

// nextFreeSKU returns BASE-0001 or the smallest higher sequence not yet used
// in the organization.
func nextFreeSKU(ctx context.Context, repo catalog.ProductVariantRepository, orgID uuid.UUID, base string) (string, error) {
	taken, err := repo.SKUsWithPrefix(ctx, orgID, base+"-")
	if err != nil {
		return "", err
	}
	if sku, ok := catalog.FirstFreeSKU(base, taken); ok {
		return sku, nil
	}
	return "", shared.NewDomainError("INVALID_STATE", fmt.Sprintf("No free SKU left for prefix %s", base))
}
