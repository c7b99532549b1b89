package organization

import (
	"time"

	"github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/domain/organization"
	"github.com/google/uuid"
)

// CreateOrganizationRequest represents a request to create an organization.
// A TemplateCode other than blank or CUSTOM is applied right after creation.
type CreateOrganizationRequest struct {
	Code         string `json:"code" binding:"required,min=1,max=50"`
	Name         string `json:"name" binding:"required,min=1,max=200"`
	TemplateCode string `json:"template_code" binding:"max=50"`
}

// ApplyTemplateRequest represents a request to apply a template
type ApplyTemplateRequest struct {
	TemplateCode string `json:"template_code" binding:"required,max=50"`
}

// OrganizationResponse represents an organization in API responses
type OrganizationResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Code                string     `json:"code"`
	Name                string     `json:"name"`
	AppliedTemplateCode string     `json:"applied_template_code,omitempty"`
	AppliedAt           *time.Time `json:"applied_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// CreateOrganizationResponse carries the new organization and, when a template
// was requested, the apply outcome. A failed apply does not undo the creation.
type CreateOrganizationResponse struct {
	Organization *OrganizationResponse            `json:"organization"`
	Provisioning *provisioning.ProvisioningResult `json:"provisioning,omitempty"`
	ApplyError   string                           `json:"apply_error,omitempty"`
}

// ProvisioningRunResponse represents one apply attempt in API responses
type ProvisioningRunResponse struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	TemplateID     *uuid.UUID `json:"template_id,omitempty"`
	TemplateCode   string     `json:"template_code"`
	Status         string     `json:"status"`
	ProcessedCount int        `json:"processed_count"`
	SkippedCount   int        `json:"skipped_count"`
	ErrorCount     int        `json:"error_count"`
	Message        string     `json:"message,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     time.Time  `json:"finished_at"`
}

// RunListFilter pages through run history
type RunListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToOrganizationResponse converts an organization to a response
func ToOrganizationResponse(org *organization.Organization) *OrganizationResponse {
	return &OrganizationResponse{
		ID:                  org.ID,
		Code:                org.Code,
		Name:                org.Name,
		AppliedTemplateCode: org.AppliedTemplateCode,
		AppliedAt:           org.AppliedAt,
		CreatedAt:           org.CreatedAt,
		UpdatedAt:           org.UpdatedAt,
	}
}

// ToProvisioningRunResponse converts a run to a response
func ToProvisioningRunResponse(run *organization.ProvisioningRun) ProvisioningRunResponse {
	return ProvisioningRunResponse{
		ID:             run.ID,
		OrganizationID: run.OrganizationID,
		TemplateID:     run.TemplateID,
		TemplateCode:   run.TemplateCode,
		Status:         string(run.Status),
		ProcessedCount: run.Processed,
		SkippedCount:   run.Skipped,
		ErrorCount:     run.Errors,
		Message:        run.Message,
		StartedAt:      run.StartedAt,
		FinishedAt:     run.FinishedAt,
	}
}
