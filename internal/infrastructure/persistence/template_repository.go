package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/erp/provisioner/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTemplateRepository implements TemplateRepository using GORM
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new GormTemplateRepository
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

// FindByID loads a live template with its items
func (r *GormTemplateRepository) FindByID(ctx context.Context, id uuid.UUID) (*provisioning.Template, error) {
	var model models.TemplateModel
	if err := r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Template")
	}
	return r.withItems(ctx, &model)
}

// FindByCode loads a live template with its items
func (r *GormTemplateRepository) FindByCode(ctx context.Context, code string) (*provisioning.Template, error) {
	var model models.TemplateModel
	if err := r.db.WithContext(ctx).
		Where("code = ? AND deleted_at IS NULL", code).
		First(&model).Error; err != nil {
		return nil, translateError(err, "Template")
	}
	return r.withItems(ctx, &model)
}

// FindAll lists live templates without items and returns the total match count
func (r *GormTemplateRepository) FindAll(ctx context.Context, filter provisioning.TemplateFilter) ([]provisioning.Template, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TemplateModel{}).Where("deleted_at IS NULL")
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("code LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(templateSortColumns.orderClause(filter.OrderBy, filter.OrderDir, "code"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.TemplateModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	templates := make([]provisioning.Template, len(rows))
	for i := range rows {
		templates[i] = *rows[i].ToDomain()
	}
	return templates, total, nil
}

// FindItems loads the live items of a template in application order
func (r *GormTemplateRepository) FindItems(ctx context.Context, templateID uuid.UUID) ([]provisioning.TemplateItem, error) {
	var rows []models.TemplateItemModel
	if err := r.db.WithContext(ctx).
		Where("template_id = ? AND deleted_at IS NULL", templateID).
		Order("sort_order ASC, created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]provisioning.TemplateItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// ExistsByCode checks every template ever stored, deleted ones included
func (r *GormTemplateRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, &models.TemplateModel{}, "code = ?", code)
}

// Count counts every template ever stored, deleted ones included
func (r *GormTemplateRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TemplateModel{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates the template metadata. Items are saved separately.
func (r *GormTemplateRepository) Save(ctx context.Context, template *provisioning.Template) error {
	return save(ctx, r.db, models.TemplateModelFromDomain(template), "Template with code '"+template.Code+"'")
}

// SaveItem creates or updates one item
func (r *GormTemplateRepository) SaveItem(ctx context.Context, item *provisioning.TemplateItem) error {
	var m models.TemplateItemModel
	if err := m.FromDomain(item); err != nil {
		return fmt.Errorf("encode item data: %w", err)
	}
	return save(ctx, r.db, &m, "Template item")
}

// DeleteItem soft-deletes one item of a template
func (r *GormTemplateRepository) DeleteItem(ctx context.Context, templateID, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.TemplateItemModel{}).
		Where("id = ? AND template_id = ? AND deleted_at IS NULL", itemID, templateID).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.ErrNotFound.Code, "Template item not found")
	}
	return nil
}

// DeleteItems soft-deletes every live item of a template
func (r *GormTemplateRepository) DeleteItems(ctx context.Context, templateID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.TemplateItemModel{}).
		Where("template_id = ? AND deleted_at IS NULL", templateID).
		Update("deleted_at", time.Now()).Error
}

// Delete soft-deletes a template and its items in one transaction
func (r *GormTemplateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.TemplateModel{}).
			Where("id = ? AND deleted_at IS NULL", id).
			Updates(map[string]any{"deleted_at": now, "updated_at": now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Model(&models.TemplateItemModel{}).
			Where("template_id = ? AND deleted_at IS NULL", id).
			Update("deleted_at", now).Error
	})
}

func (r *GormTemplateRepository) withItems(ctx context.Context, model *models.TemplateModel) (*provisioning.Template, error) {
	template := model.ToDomain()
	items, err := r.FindItems(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	template.Items = items
	return template, nil
}

// Ensure GormTemplateRepository implements TemplateRepository
var _ provisioning.TemplateRepository = (*GormTemplateRepository)(nil)
