package models

import (
	"time"

	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/google/uuid"
)

// Row holds the identity and timestamp columns every table carries
type Row struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (r Row) entity() shared.BaseEntity {
	return shared.BaseEntity{ID: r.ID, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt}
}

func rowOf(e shared.BaseEntity) Row {
	return Row{ID: e.ID, CreatedAt: e.CreatedAt, UpdatedAt: e.UpdatedAt}
}

// VersionedRow adds the optimistic version column of aggregate tables
type VersionedRow struct {
	Row
	Version int `gorm:"not null;default:1"`
}

func (r VersionedRow) aggregate() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{BaseEntity: r.entity(), Version: r.Version}
}

// tenantAggregate pairs the row with its organization. Organization-scoped
// models declare TenantID themselves so it can lead their unique indexes.
func (r VersionedRow) tenantAggregate(tenantID uuid.UUID) shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{BaseAggregateRoot: r.aggregate(), TenantID: tenantID}
}

func versionedRowOf(a shared.BaseAggregateRoot) VersionedRow {
	return VersionedRow{Row: rowOf(a.BaseEntity), Version: a.Version}
}
