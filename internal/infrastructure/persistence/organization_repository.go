package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/provisioner/internal/domain/organization"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/erp/provisioner/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOrganizationRepository implements OrganizationRepository using GORM
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewGormOrganizationRepository creates a new GormOrganizationRepository
func NewGormOrganizationRepository(db *gorm.DB) *GormOrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*organization.Organization, error) {
	var model models.OrganizationModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, organization.ErrOrganizationNotFound(id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds an organization by code, ignoring case
func (r *GormOrganizationRepository) FindByCode(ctx context.Context, code string) (*organization.Organization, error) {
	return findOne[organization.Organization, models.OrganizationModel](ctx, r.db, "Organization", "code = ?", orgCode(code))
}

// ExistsByCode reports whether an organization code is taken
func (r *GormOrganizationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return exists(ctx, r.db, &models.OrganizationModel{}, "code = ?", orgCode(code))
}

// Save creates or updates an organization
func (r *GormOrganizationRepository) Save(ctx context.Context, org *organization.Organization) error {
	var m models.OrganizationModel
	m.FromDomain(org)
	return save(ctx, r.db, &m, "Organization with code '"+org.Code+"'")
}

func orgCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// GormProvisioningRunRepository implements ProvisioningRunRepository using GORM
type GormProvisioningRunRepository struct {
	db *gorm.DB
}

// NewGormProvisioningRunRepository creates a new GormProvisioningRunRepository
func NewGormProvisioningRunRepository(db *gorm.DB) *GormProvisioningRunRepository {
	return &GormProvisioningRunRepository{db: db}
}

// Save appends a run to the history
func (r *GormProvisioningRunRepository) Save(ctx context.Context, run *organization.ProvisioningRun) error {
	var m models.ProvisioningRunModel
	m.FromDomain(run)
	return translateError(r.db.WithContext(ctx).Create(&m).Error, "Provisioning run")
}

// FindByOrganization lists the runs of an organization, newest first unless
// the filter asks otherwise
func (r *GormProvisioningRunRepository) FindByOrganization(ctx context.Context, organizationID uuid.UUID, filter shared.Filter) ([]organization.ProvisioningRun, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.ProvisioningRunModel{}).
		Where("organization_id = ?", organizationID)
	if filter.Search != "" {
		query = query.Where("template_code LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(runSortColumns.orderClause(filter.OrderBy, filter.OrderDir, "started_at")).Order("id ASC")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.ProvisioningRunModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	runs := make([]organization.ProvisioningRun, len(rows))
	for i := range rows {
		runs[i] = rows[i].ToDomain()
	}
	return runs, total, nil
}

// Ensure the GORM repositories implement the organization interfaces
var (
	_ organization.OrganizationRepository    = (*GormOrganizationRepository)(nil)
	_ organization.ProvisioningRunRepository = (*GormProvisioningRunRepository)(nil)
)
