// Package integration runs the provisioning engine against real PostgreSQL
// and Redis instances started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/erp/provisioner/internal/infrastructure/logger"
	"github.com/erp/provisioner/internal/infrastructure/migration"
	"github.com/erp/provisioner/internal/infrastructure/persistence"
	"github.com/erp/provisioner/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// postgresServer is the one migrated container every test in the package
// shares. Tests start from empty tables.
var postgresServer struct {
	sync.Mutex
	container testcontainers.Container
	dsn       string
}

// TestDB is a connection to the shared container
type TestDB struct {
	DB *gorm.DB
	t  *testing.T
}

func skipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

// freshDB connects to the shared container, starting and migrating it on
// first use, and truncates every table. Skipped under -short.
func freshDB(t *testing.T) *TestDB {
	t.Helper()
	skipIfShort(t)

	dsn := sharedDSN(t)
	gormLog := logger.NewGormLogger(zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel)), gormlogger.Warn)
	db, err := gorm.Open(gormpostgres.Open(dsn), persistence.GormConfig(gormLog))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })

	tdb := &TestDB{DB: db, t: t}
	tdb.truncate()
	return tdb
}

func sharedDSN(t *testing.T) string {
	t.Helper()
	postgresServer.Lock()
	defer postgresServer.Unlock()
	if postgresServer.container != nil {
		return postgresServer.dsn
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("provisioner_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "start postgres container")
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		require.NoError(t, err)
	}

	// the migrator closes the connection it is given
	conn, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	m, err := migration.NewFromFS(conn, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()
	require.NoError(t, m.Up(), "migrate test database")

	postgresServer.container, postgresServer.dsn = container, dsn
	return dsn
}

func (tdb *TestDB) truncate() {
	tdb.t.Helper()
	var tables []string
	require.NoError(tdb.t, tdb.DB.Raw(
		`SELECT quote_ident(tablename) FROM pg_tables WHERE schemaname = 'public' AND tablename <> 'schema_migrations'`,
	).Scan(&tables).Error)
	for _, table := range tables {
		require.NoError(tdb.t, tdb.DB.Exec("TRUNCATE TABLE "+table+" CASCADE").Error)
	}
}

// Count returns the number of rows in table matching the optional condition
func (tdb *TestDB) Count(table string, query string, args ...any) int64 {
	tdb.t.Helper()
	var n int64
	q := tdb.DB.Table(table)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(tdb.t, q.Count(&n).Error)
	return n
}

// CleanupSharedContainer terminates the shared container. Call it from TestMain.
func CleanupSharedContainer() {
	postgresServer.Lock()
	defer postgresServer.Unlock()
	if postgresServer.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = postgresServer.container.Terminate(ctx)
	postgresServer.container, postgresServer.dsn = nil, ""
}
