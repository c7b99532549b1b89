package provisioning

import (
	"context"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
)

// TemplateFilter narrows template listings.
type TemplateFilter struct {
	shared.Filter
	Type       string
	ActiveOnly bool
}

// TemplateRepository persists templates and their items. Lookups never return
// soft-deleted templates.
type TemplateRepository interface {
	// FindByID loads a template with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Template, error)

	// FindByCode loads a template with its items
	FindByCode(ctx context.Context, code string) (*Template, error)

	// FindAll lists templates without items and returns the total match count
	FindAll(ctx context.Context, filter TemplateFilter) ([]Template, int64, error)

	// FindItems loads the items of a template in application order
	FindItems(ctx context.Context, templateID uuid.UUID) ([]TemplateItem, error)

	// ExistsByCode checks every template ever stored, deleted ones included,
	// because codes stay reserved after soft delete
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Count counts every template ever stored, deleted ones included
	Count(ctx context.Context) (int64, error)

	// Save creates or updates the template metadata
	Save(ctx context.Context, template *Template) error

	// SaveItem creates or updates one item
	SaveItem(ctx context.Context, item *TemplateItem) error

	// DeleteItem soft-deletes one item of a template
	DeleteItem(ctx context.Context, templateID, itemID uuid.UUID) error

	// DeleteItems soft-deletes every item of a template
	DeleteItems(ctx context.Context, templateID uuid.UUID) error

	// Delete soft-deletes a template and its items
	Delete(ctx context.Context, id uuid.UUID) error
}
