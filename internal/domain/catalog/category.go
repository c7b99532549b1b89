package catalog

import (
	"fmt"
	"strings"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxCategoryDepth is the maximum depth of category hierarchy
const MaxCategoryDepth = 5

// Category groups product templates inside one organization.
type Category struct {
	shared.TenantAggregateRoot
	Code        string
	Name        string
	Description string
	ParentID    *uuid.UUID
	Level       int
	Active      bool
}

// NewCategory creates a new root category
func NewCategory(tenantID uuid.UUID, code, name string) (*Category, error) {
	code = NormalizeCode(code)
	name = strings.TrimSpace(name)
	if err := validateCode("Category", code, 50); err != nil {
		return nil, err
	}
	if err := validateName("Category", name, 100); err != nil {
		return nil, err
	}
	return &Category{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Code:                code,
		Name:                name,
		Active:              true,
	}, nil
}

// AttachTo places the category under parent.
func (c *Category) AttachTo(parent *Category) error {
	if parent == nil {
		return shared.NewDomainError("INVALID_INPUT", "Parent category is required")
	}
	if parent.TenantID != c.TenantID {
		return shared.NewDomainError("INVALID_INPUT", "Parent category belongs to another organization")
	}
	if parent.ID == c.ID {
		return shared.NewDomainError("INVALID_INPUT", "Category cannot be its own parent")
	}
	if parent.Level >= MaxCategoryDepth-1 {
		return shared.NewDomainError("INVALID_INPUT", fmt.Sprintf("Category depth cannot exceed %d levels", MaxCategoryDepth))
	}
	c.ParentID = &parent.ID
	c.Level = parent.Level + 1
	return nil
}

// SetDescription sets the description
func (c *Category) SetDescription(description string) {
	c.Description = strings.TrimSpace(description)
}

// SetActive sets the active flag
func (c *Category) SetActive(active bool) {
	c.Active = active
}

// IsRoot returns true if this is a root category
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}
