package organization

import (
	"strings"
	"time"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
)

// CustomTemplateCode marks an organization that opted out of a starter template.
const CustomTemplateCode = "CUSTOM"

// Organization is the tenant that templates are applied to.
type Organization struct {
	shared.BaseAggregateRoot
	Code                string
	Name                string
	AppliedTemplateCode string
	AppliedAt           *time.Time
}

// NewOrganization creates a new organization
func NewOrganization(code, name string) (*Organization, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if err := validateOrganizationCode(code); err != nil {
		return nil, err
	}
	if err := validateOrganizationName(name); err != nil {
		return nil, err
	}

	org := &Organization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(code),
		Name:              name,
	}
	org.AddDomainEvent(NewOrganizationCreatedEvent(org))
	return org, nil
}

// RecordTemplateApplied remembers the last template applied successfully.
func (o *Organization) RecordTemplateApplied(templateCode string, at time.Time) {
	o.AppliedTemplateCode = templateCode
	o.AppliedAt = &at
	o.Touch()
	o.IncrementVersion()
}

// HasAppliedTemplate returns true once any template was applied
func (o *Organization) HasAppliedTemplate() bool {
	return o.AppliedTemplateCode != ""
}

// GetTenantID returns the tenant ID, which is the organization's own ID
func (o *Organization) GetTenantID() uuid.UUID {
	return o.ID
}

// IsApplicableTemplateCode reports whether code names a real template rather
// than the blank or CUSTOM placeholders.
func IsApplicableTemplateCode(code string) bool {
	code = strings.TrimSpace(code)
	return code != "" && !strings.EqualFold(code, CustomTemplateCode)
}

func validateOrganizationCode(code string) error {
	if code == "" {
		return shared.NewDomainError("INVALID_INPUT", "Organization code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_INPUT", "Organization code cannot exceed 50 characters")
	}
	for _, r := range code {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
			return shared.NewDomainError("INVALID_INPUT", "Organization code can only contain letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

func validateOrganizationName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Organization name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_INPUT", "Organization name cannot exceed 200 characters")
	}
	return nil
}
