package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

// DBConfig controls database tracing and metrics.
type DBConfig struct {
	TracingEnabled     bool
	LogFullSQL         bool
	SlowQueryThreshold time.Duration
	DBSystem           string
}

// DBInstrumentation is a GORM plugin adding otelgorm spans, slow query
// annotations and query metrics. Meter may be nil to skip metrics.
type DBInstrumentation struct {
	config DBConfig
	logger *zap.Logger

	metered        bool
	queryTotal     Counter
	queryDuration  Histogram
	slowQueryTotal Counter
}

type dbStartKey struct{}

// NewDBInstrumentation builds the plugin. Pass it to db.Use.
func NewDBInstrumentation(cfg DBConfig, meter metric.Meter, logger *zap.Logger) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = "postgresql"
	}
	p := &DBInstrumentation{config: cfg, logger: logger}
	if meter == nil {
		return p, nil
	}

	in := NewInstruments(meter)
	p.queryTotal = in.Counter("db_query_total", "Database queries by operation", "{query}")
	p.queryDuration = in.Seconds("db_query_duration_seconds", "Database query latency", DBDurationBuckets)
	p.slowQueryTotal = in.Counter("db_slow_query_total", "Database queries slower than the threshold", "{query}")
	if err := in.Err(); err != nil {
		return nil, err
	}
	p.metered = true
	return p, nil
}

// Name implements gorm.Plugin
func (p *DBInstrumentation) Name() string {
	return "provisioner:db_instrumentation"
}

// Initialize implements gorm.Plugin
func (p *DBInstrumentation) Initialize(db *gorm.DB) error {
	if p.config.TracingEnabled {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
		if !p.config.LogFullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	cb := db.Callback()
	registrations := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("db_instr:before_create", p.before) },
		func() error { return cb.Query().Before("gorm:query").Register("db_instr:before_query", p.before) },
		func() error { return cb.Update().Before("gorm:update").Register("db_instr:before_update", p.before) },
		func() error { return cb.Delete().Before("gorm:delete").Register("db_instr:before_delete", p.before) },
		func() error { return cb.Row().Before("gorm:row").Register("db_instr:before_row", p.before) },
		func() error { return cb.Raw().Before("gorm:raw").Register("db_instr:before_raw", p.before) },
		func() error {
			return cb.Create().After("gorm:create").Register("db_instr:after_create", p.after("INSERT"))
		},
		func() error {
			return cb.Query().After("gorm:query").Register("db_instr:after_query", p.after("SELECT"))
		},
		func() error {
			return cb.Update().After("gorm:update").Register("db_instr:after_update", p.after("UPDATE"))
		},
		func() error {
			return cb.Delete().After("gorm:delete").Register("db_instr:after_delete", p.after("DELETE"))
		},
		func() error { return cb.Row().After("gorm:row").Register("db_instr:after_row", p.after("")) },
		func() error { return cb.Raw().After("gorm:raw").Register("db_instr:after_raw", p.after("")) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}

	p.logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", p.config.TracingEnabled),
		zap.Bool("metrics", p.metered),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThreshold),
	)
	return nil
}

func (p *DBInstrumentation) before(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, dbStartKey{}, time.Now())
}

func (p *DBInstrumentation) after(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		op := operation
		if op == "" {
			op = DetectOperation(db.Statement.SQL.String())
		}

		var elapsed time.Duration
		if start, ok := ctx.Value(dbStartKey{}).(time.Time); ok {
			elapsed = time.Since(start)
		}
		slow := elapsed > p.config.SlowQueryThreshold
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		if p.metered {
			p.queryTotal.Inc(ctx, AttrDBOperation.String(op))
			p.queryDuration.Duration(ctx, elapsed, AttrDBOperation.String(op))
			if slow {
				p.slowQueryTotal.Inc(ctx, AttrDBTable.String(table))
			}
		}

		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
			attribute.String("db.sql.table", table),
		)
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}
		if slow {
			span.SetAttributes(attribute.Bool("db.slow_query", true))
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThreshold.Milliseconds()),
			))
		}
	}
}

// DetectOperation returns the leading SQL verb of query, or OTHER.
func DetectOperation(query string) string {
	query = strings.ToUpper(strings.TrimSpace(query))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(query, verb) {
			return verb
		}
	}
	return "OTHER"
}

// RegisterPoolMetrics reports connection pool usage of sqlDB through an
// observable gauge collected on every metric export.
func RegisterPoolMetrics(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}
	maxConnections, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum number of open connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConnections, int64(stats.MaxOpenConnections))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, connections, maxConnections)
}
