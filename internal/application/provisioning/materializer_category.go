package provisioning

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/provisioner/internal/domain/catalog"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryMaterializer creates categories and registers their codes so later
// items can link to them.
type CategoryMaterializer struct{}

func (m *CategoryMaterializer) EntityType() provisioning.EntityType {
	return provisioning.EntityCategory
}

func (m *CategoryMaterializer) Materialize(ctx context.Context, run *RunContext, payload Payload) (Decision, error) {
	p, ok := payload.(*CategoryPayload)
	if !ok {
		return Decision{}, unexpectedPayload(provisioning.EntityCategory, payload)
	}
	if strings.TrimSpace(p.Code) == "" {
		return Decision{}, missingField(provisioning.EntityCategory, "code")
	}
	if strings.TrimSpace(p.Name) == "" {
		return Decision{}, missingField(provisioning.EntityCategory, "name")
	}

	orgID := run.Organization.ID
	repo := run.Repos.CategoryRepo()
	existing, err := repo.FindByCode(ctx, orgID, catalog.NormalizeCode(p.Code))
	if err == nil {
		return Skipped(existing.ID, "category already exists"), nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Decision{}, err
	}

	category, err := catalog.NewCategory(orgID, p.Code, p.Name)
	if err != nil {
		return Decision{}, err
	}
	category.SetDescription(p.Description)
	if p.IsActive != nil {
		category.SetActive(*p.IsActive)
	}

	parentID, err := resolveRef(ctx, run, provisioning.EntityCategory, p.ParentCode, func(ctx context.Context, tenantID uuid.UUID, code string) (uuid.UUID, error) {
		parent, err := repo.FindByCode(ctx, tenantID, catalog.NormalizeCode(code))
		if err != nil {
			return uuid.Nil, err
		}
		return parent.ID, nil
	})
	if err != nil {
		return Decision{}, err
	}
	if parentID != nil {
		parent, err := repo.FindByIDForTenant(ctx, orgID, *parentID)
		if err != nil {
			return Decision{}, err
		}
		if err := category.AttachTo(parent); err != nil {
			return Decision{}, err
		}
	} else if strings.TrimSpace(p.ParentCode) != "" {
		run.Logger.Warn("parent category not found, creating root category",
			zap.String("code", category.Code),
			zap.String("parent_code", p.ParentCode),
		)
	}

	if err := repo.Save(ctx, category); err != nil {
		return Decision{}, err
	}
	run.Refs.Register(provisioning.EntityCategory, category.Code, category.ID)
	return Processed(category.ID), nil
}
