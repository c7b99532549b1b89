package models

import (
	"time"

	"github.com/erp/provisioner/internal/domain/organization"
	"github.com/google/uuid"
)

// OrganizationModel is the persistence model for the Organization aggregate.
type OrganizationModel struct {
	VersionedRow
	Code                string `gorm:"type:varchar(50);not null;uniqueIndex:idx_organizations_code"`
	Name                string `gorm:"type:varchar(200);not null"`
	AppliedTemplateCode string `gorm:"type:varchar(50);not null;default:''"`
	AppliedAt           *time.Time
}

// TableName returns the table name for GORM
func (OrganizationModel) TableName() string {
	return "organizations"
}

// ToDomain converts the persistence model to a domain Organization.
func (m *OrganizationModel) ToDomain() *organization.Organization {
	return &organization.Organization{
		BaseAggregateRoot:   m.aggregate(),
		Code:                m.Code,
		Name:                m.Name,
		AppliedTemplateCode: m.AppliedTemplateCode,
		AppliedAt:           m.AppliedAt,
	}
}

// FromDomain populates the persistence model from a domain Organization.
func (m *OrganizationModel) FromDomain(o *organization.Organization) {
	m.VersionedRow = versionedRowOf(o.BaseAggregateRoot)
	m.Code = o.Code
	m.Name = o.Name
	m.AppliedTemplateCode = o.AppliedTemplateCode
	m.AppliedAt = o.AppliedAt
}

// ProvisioningRunModel is the persistence model for the audit row written on
// every apply attempt.
type ProvisioningRunModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index:idx_provisioning_runs_org_started,priority:1"`
	TemplateID     *uuid.UUID `gorm:"type:uuid"`
	TemplateCode   string     `gorm:"type:varchar(50);not null"`
	Status         string     `gorm:"type:varchar(20);not null"`
	ProcessedCount int        `gorm:"not null;default:0"`
	SkippedCount   int        `gorm:"not null;default:0"`
	ErrorCount     int        `gorm:"not null;default:0"`
	Message        string     `gorm:"type:text;not null;default:''"`
	StartedAt      time.Time  `gorm:"not null;index:idx_provisioning_runs_org_started,priority:2,sort:desc"`
	FinishedAt     time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProvisioningRunModel) TableName() string {
	return "provisioning_runs"
}

// ToDomain converts the persistence model to a domain ProvisioningRun.
func (m *ProvisioningRunModel) ToDomain() organization.ProvisioningRun {
	return organization.ProvisioningRun{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		TemplateID:     m.TemplateID,
		TemplateCode:   m.TemplateCode,
		Status:         organization.RunStatus(m.Status),
		Processed:      m.ProcessedCount,
		Skipped:        m.SkippedCount,
		Errors:         m.ErrorCount,
		Message:        m.Message,
		StartedAt:      m.StartedAt,
		FinishedAt:     m.FinishedAt,
	}
}

// FromDomain populates the persistence model from a domain ProvisioningRun.
func (m *ProvisioningRunModel) FromDomain(r *organization.ProvisioningRun) {
	m.ID = r.ID
	m.OrganizationID = r.OrganizationID
	m.TemplateID = r.TemplateID
	m.TemplateCode = r.TemplateCode
	m.Status = string(r.Status)
	m.ProcessedCount = r.Processed
	m.SkippedCount = r.Skipped
	m.ErrorCount = r.Errors
	m.Message = r.Message
	m.StartedAt = r.StartedAt
	m.FinishedAt = r.FinishedAt
}

// AllModels lists every model in migration order, for AutoMigrate in tests.
func AllModels() []any {
	return []any{
		&TemplateModel{},
		&TemplateItemModel{},
		&BrandModel{},
		&CategoryModel{},
		&UnitOfMeasureModel{},
		&ProductTemplateModel{},
		&ProductVariantModel{},
		&TaxRuleModel{},
		&OrganizationModel{},
		&ProvisioningRunModel{},
	}
}
