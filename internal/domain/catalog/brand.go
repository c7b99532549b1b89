package catalog

import (
	"strings"

	"github.com/erp/provisioner/internal/domain/shared"
)

// Brand is shared by every organization; its name is unique process-wide.
type Brand struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	LogoURL     string
	Website     string
}

// NewBrand creates a new brand
func NewBrand(name string) (*Brand, error) {
	name = strings.TrimSpace(name)
	if err := validateName("Brand", name, 100); err != nil {
		return nil, err
	}
	return &Brand{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
	}, nil
}

// SetDetails sets the optional descriptive fields.
func (b *Brand) SetDetails(description, logoURL, website string) {
	b.Description = strings.TrimSpace(description)
	b.LogoURL = strings.TrimSpace(logoURL)
	b.Website = strings.TrimSpace(website)
}
