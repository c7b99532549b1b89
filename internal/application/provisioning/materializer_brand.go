package provisioning

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
)

// BrandMaterializer creates process-wide brands, skipping names that exist.
type BrandMaterializer struct{}

func (m *BrandMaterializer) EntityType() provisioning.EntityType {
	return provisioning.EntityBrand
}

func (m *BrandMaterializer) Materialize(ctx context.Context, run *RunContext, payload Payload) (Decision, error) {
	p, ok := payload.(*BrandPayload)
	if !ok {
		return Decision{}, unexpectedPayload(provisioning.EntityBrand, payload)
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return Decision{}, missingField(provisioning.EntityBrand, "name")
	}

	repo := run.Repos.BrandRepo()
	existing, err := repo.FindByName(ctx, name)
	if err == nil {
		return Skipped(existing.ID, "brand already exists"), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Decision{}, err
	}

	brand, err := catalog.NewBrand(name)
	if err != nil {
		return Decision{}, err
	}
	brand.SetDetails(p.Description, p.LogoURL, p.Website)
	if err := repo.Save(ctx, brand); err != nil {
		return Decision{}, err
	}
	return Processed(brand.ID), nil
}
