package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sampleRow struct {
	ID   uint
	Name string
}

func openInstrumentedDB(t *testing.T, plugin gorm.Plugin) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=private"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Use(plugin))
	require.NoError(t, db.AutoMigrate(&sampleRow{}))
	return db
}

func TestDBInstrumentation_RecordsQueries(t *testing.T) {
	reader, provider := newManualMeter(t)
	plugin, err := NewDBInstrumentation(DBConfig{DBSystem: "sqlite"}, provider.Meter("db"), zap.NewNop())
	require.NoError(t, err)
	db := openInstrumentedDB(t, plugin)

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&sampleRow{Name: "brand"}).Error)
	var rows []sampleRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	require.NoError(t, db.WithContext(ctx).Model(&sampleRow{}).Where("id = ?", rows[0].ID).Update("name", "renamed").Error)
	require.NoError(t, db.WithContext(ctx).Exec("DELETE FROM sample_rows").Error)

	got := collect(t, reader)
	queries := got["db_query_total"]
	assert.Equal(t, int64(1), sumWhere(t, queries, AttrDBOperation.String("INSERT")))
	assert.GreaterOrEqual(t, sumWhere(t, queries, AttrDBOperation.String("SELECT")), int64(1))
	assert.Equal(t, int64(1), sumWhere(t, queries, AttrDBOperation.String("UPDATE")))
	assert.Equal(t, int64(1), sumWhere(t, queries, AttrDBOperation.String("DELETE")))

	_, ok := got["db_query_duration_seconds"].Data.(metricdata.Histogram[float64])
	assert.True(t, ok)
}

func TestDBInstrumentation_SlowQueries(t *testing.T) {
	reader, provider := newManualMeter(t)
	plugin, err := NewDBInstrumentation(DBConfig{SlowQueryThreshold: time.Nanosecond}, provider.Meter("db"), nil)
	require.NoError(t, err)
	db := openInstrumentedDB(t, plugin)

	require.NoError(t, db.Create(&sampleRow{Name: "slow"}).Error)

	slow := collect(t, reader)["db_slow_query_total"]
	assert.GreaterOrEqual(t, sumWhere(t, slow, AttrDBTable.String("sample_rows")), int64(1))
}

func TestDBInstrumentation_WithoutMeter(t *testing.T) {
	plugin, err := NewDBInstrumentation(DBConfig{}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, defaultSlowQueryThreshold, plugin.config.SlowQueryThreshold)
	assert.Equal(t, "postgresql", plugin.config.DBSystem)

	db := openInstrumentedDB(t, plugin)
	assert.NoError(t, db.Create(&sampleRow{Name: "plain"}).Error)
}

func TestRegisterPoolMetrics(t *testing.T) {
	reader, provider := newManualMeter(t)
	plugin, err := NewDBInstrumentation(DBConfig{}, nil, nil)
	require.NoError(t, err)
	db := openInstrumentedDB(t, plugin)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	reg, err := RegisterPoolMetrics(provider.Meter("db"), sqlDB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Unregister() })

	got := collect(t, reader)
	maxConns, ok := got["db_pool_connections_max"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, maxConns.DataPoints, 1)
	assert.Equal(t, int64(1), maxConns.DataPoints[0].Value)

	conns, ok := got["db_pool_connections"].Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	assert.Len(t, conns.DataPoints, 3)
}

func TestDetectOperation(t *testing.T) {
	tests := map[string]string{
		"SELECT * FROM templates":          "SELECT",
		"  insert into brands VALUES (1)":  "INSERT",
		"update categories SET code = 'A'": "UPDATE",
		"DELETE FROM tax_rules":            "DELETE",
		"PRAGMA foreign_keys = ON":         "OTHER",
		"":                                 "OTHER",
	}
	for query, want := range tests {
		assert.Equal(t, want, DetectOperation(query), query)
	}
}
