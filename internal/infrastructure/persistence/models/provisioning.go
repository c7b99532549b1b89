package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/google/uuid"
)

// TemplateModel is the persistence model for the Template aggregate.
// DeletedAt is managed explicitly rather than through gorm.DeletedAt because
// code uniqueness checks must see deleted rows.
type TemplateModel struct {
	VersionedRow
	Code        string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_templates_code"`
	Name        string     `gorm:"type:varchar(100);not null"`
	Type        string     `gorm:"type:varchar(50);not null;index:idx_templates_type"`
	Revision    int        `gorm:"not null;default:1"`
	IsActive    bool       `gorm:"not null"`
	Description string     `gorm:"type:varchar(500);not null;default:''"`
	DeletedAt   *time.Time `gorm:"index:idx_templates_deleted_at"`
}

// TableName returns the table name for GORM
func (TemplateModel) TableName() string {
	return "templates"
}

// ToDomain converts the persistence model to a domain Template without items.
func (m *TemplateModel) ToDomain() *provisioning.Template {
	return &provisioning.Template{
		BaseAggregateRoot: m.aggregate(),
		Code:              m.Code,
		Name:              m.Name,
		Type:              m.Type,
		Revision:          m.Revision,
		Active:            m.IsActive,
		Description:       m.Description,
		DeletedAt:         m.DeletedAt,
	}
}

// FromDomain populates the persistence model from a domain Template.
func (m *TemplateModel) FromDomain(t *provisioning.Template) {
	m.VersionedRow = versionedRowOf(t.BaseAggregateRoot)
	m.Code = t.Code
	m.Name = t.Name
	m.Type = t.Type
	m.Revision = t.Revision
	m.IsActive = t.Active
	m.Description = t.Description
	m.DeletedAt = t.DeletedAt
}

// TemplateModelFromDomain creates a new persistence model from a domain Template.
func TemplateModelFromDomain(t *provisioning.Template) *TemplateModel {
	m := &TemplateModel{}
	m.FromDomain(t)
	return m
}

// TemplateItemModel is the persistence model for one template item. Data is
// the JSON object stored in a jsonb column; nil means no payload.
type TemplateItemModel struct {
	Row
	TemplateID uuid.UUID  `gorm:"type:uuid;not null;index:idx_template_items_order,priority:1"`
	EntityType string     `gorm:"type:varchar(50);not null"`
	Data       *string    `gorm:"type:jsonb"`
	SortOrder  int        `gorm:"not null;default:0;index:idx_template_items_order,priority:2"`
	DeletedAt  *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (TemplateItemModel) TableName() string {
	return "template_items"
}

// ToDomain converts the persistence model to a domain TemplateItem. Numbers
// in the payload stay json.Number so that decimals keep their precision.
// Unparseable data is treated as an absent payload.
func (m *TemplateItemModel) ToDomain() provisioning.TemplateItem {
	item := provisioning.TemplateItem{
		BaseEntity: m.entity(),
		TemplateID: m.TemplateID,
		EntityType: provisioning.EntityType(m.EntityType),
		SortOrder:  m.SortOrder,
	}
	if m.Data != nil && *m.Data != "" {
		dec := json.NewDecoder(bytes.NewReader([]byte(*m.Data)))
		dec.UseNumber()
		var data map[string]any
		if err := dec.Decode(&data); err == nil {
			item.Data = data
		}
	}
	return item
}

// FromDomain populates the persistence model from a domain TemplateItem.
func (m *TemplateItemModel) FromDomain(item *provisioning.TemplateItem) error {
	m.Row = rowOf(item.BaseEntity)
	m.TemplateID = item.TemplateID
	m.EntityType = item.EntityType.String()
	m.SortOrder = item.SortOrder
	m.Data = nil
	if len(item.Data) > 0 {
		raw, err := json.Marshal(item.Data)
		if err != nil {
			return err
		}
		data := string(raw)
		m.Data = &data
	}
	return nil
}
