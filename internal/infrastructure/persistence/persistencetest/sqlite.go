// Package persistencetest opens throwaway databases for repository and
// service tests.
package persistencetest

import (
	"fmt"
	"testing"

	"github.com/erp/provisioner/internal/infrastructure/persistence"
	"github.com/erp/provisioner/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a private in-memory SQLite database with every model
// migrated. The pool is pinned to one connection, so a test must not use a
// repository built on db while a transaction on db is open.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=private&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), persistence.GormConfig(logger.Discard))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}
