// Package bootstrap wires configuration, telemetry, the database and the
// provisioning services for the binaries under cmd/.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	orgapp "github.com/erp/provisioner/internal/application/organization"
	appprov "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/erp/provisioner/internal/infrastructure/cache"
	"github.com/erp/provisioner/internal/infrastructure/config"
	"github.com/erp/provisioner/internal/infrastructure/event"
	"github.com/erp/provisioner/internal/infrastructure/logger"
	"github.com/erp/provisioner/internal/infrastructure/migration"
	"github.com/erp/provisioner/internal/infrastructure/persistence"
	"github.com/erp/provisioner/internal/infrastructure/storage"
	"github.com/erp/provisioner/internal/infrastructure/telemetry"
	"github.com/erp/provisioner/migrations"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X .../bootstrap.Version=..."
var Version = "dev"

const meterName = "github.com/erp/provisioner"

// App holds the wired services. Close releases everything New opened.
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Telemetry *telemetry.Providers
	Meter     metric.Meter
	Database  *persistence.Database
	EventBus  *event.InMemoryEventBus
	Locker    shared.Locker

	Templates     *appprov.TemplateService
	Applier       *appprov.ApplyService
	Organizations *orgapp.OrganizationService

	closers []func(context.Context) error
}

// NewLogger builds the zap logger from the log section
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	return logger.New(logger.FromConfig(cfg.Log))
}

// New connects to the database and wires every service. The logger is
// teed into the OTLP log pipeline when telemetry logs are enabled.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: log}
	if err := app.setupTelemetry(ctx); err != nil {
		return nil, err
	}
	if err := app.setupDatabase(); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	if err := app.setupServices(ctx); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	return app, nil
}

func (a *App) setupTelemetry(ctx context.Context) error {
	tc := a.Config.Telemetry
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:       tc.ServiceName,
		ServiceVersion:    Version,
		CollectorEndpoint: tc.CollectorEndpoint,
		Insecure:          tc.Insecure,
		TracesEnabled:     tc.Enabled,
		SamplingRatio:     tc.SamplingRatio,
		MetricsEnabled:    tc.Enabled && tc.MetricsEnabled,
		MetricsInterval:   tc.MetricsInterval,
		LogsEnabled:       tc.Enabled && tc.LogsEnabled,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	a.Telemetry = providers
	a.Logger = providers.BridgeLogger(a.Logger, a.Logger.Level())
	a.Meter = providers.Meter(meterName)
	a.closers = append(a.closers, providers.Shutdown)
	return nil
}

func (a *App) setupDatabase() error {
	gormLog := logger.NewGormLogger(a.Logger, logger.MapGormLogLevel(a.Config.Log.Level),
		logger.WithSlowThreshold(a.Config.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabaseWithLogger(&a.Config.Database, gormLog)
	if err != nil {
		return err
	}
	a.Database = db
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	var meter metric.Meter
	if a.Telemetry.MetricsEnabled() {
		meter = a.Meter
	}
	instrumentation, err := telemetry.NewDBInstrumentation(telemetry.DBConfig{
		TracingEnabled:     a.Telemetry.TracesEnabled() && a.Config.Telemetry.DBTraceEnabled,
		LogFullSQL:         a.Config.Telemetry.DBLogFullSQL,
		SlowQueryThreshold: a.Config.Telemetry.DBSlowQueryThresh,
	}, meter, a.Logger)
	if err != nil {
		return fmt.Errorf("create db instrumentation: %w", err)
	}
	if err := db.DB.Use(instrumentation); err != nil {
		return fmt.Errorf("register db instrumentation: %w", err)
	}

	if meter != nil {
		reg, err := telemetry.RegisterPoolMetrics(meter, db.SQL())
		if err != nil {
			return fmt.Errorf("register pool metrics: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return reg.Unregister() })
	}

	a.Logger.Info("Database connected",
		zap.String("host", a.Config.Database.Host),
		zap.String("dbname", a.Config.Database.DBName),
	)
	return nil
}

func (a *App) setupServices(ctx context.Context) error {
	a.EventBus = event.NewInMemoryEventBus(a.Logger)
	if err := a.EventBus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	a.closers = append(a.closers, a.EventBus.Stop)

	metrics, err := telemetry.NewProvisioningMetrics(a.Meter)
	if err != nil {
		return fmt.Errorf("create provisioning metrics: %w", err)
	}
	a.EventBus.Subscribe(appprov.NewApplyMetricsHandler(appprov.TelemetryApplyRecorder{Metrics: metrics}, a.Logger))

	locker, err := cache.NewLockerFactory(a.Config.Redis, cache.WithLogger(a.Logger)).CreateLocker()
	if err != nil {
		return err
	}
	a.Locker = locker
	if redisLocker, ok := locker.(*cache.RedisLocker); ok {
		a.closers = append(a.closers, func(context.Context) error { return redisLocker.Close() })
	}

	db := a.Database.DB
	txScope := persistence.NewGormTransactionScope(db)
	templateRepo := persistence.NewGormTemplateRepository(db)

	a.Templates = appprov.NewTemplateService(templateRepo, txScope, a.Logger).
		WithEventPublisher(a.EventBus)
	a.Applier = appprov.NewApplyService(txScope, a.Logger).
		WithEventPublisher(a.EventBus)
	a.Organizations = orgapp.NewOrganizationService(
		persistence.NewGormOrganizationRepository(db),
		persistence.NewGormProvisioningRunRepository(db),
		a.Applier,
		a.Locker,
		a.Logger,
	).WithLockTTL(a.Config.Templates.ApplyLockTTL)
	return nil
}

// Migrate applies the embedded migrations on a dedicated connection, since
// closing the migrator also closes the connection it was given.
func (a *App) Migrate() error {
	sqlDB, err := sql.Open("postgres", a.Config.Database.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	m, err := migration.NewFromFS(sqlDB, migrations.FS, a.Logger)
	if err != nil {
		_ = sqlDB.Close()
		return err
	}
	defer m.Close()
	return m.Up()
}

// NewSeeder builds a seeder over the configured bundle source
func (a *App) NewSeeder(ctx context.Context) (*appprov.Seeder, error) {
	source, err := storage.NewBundleSource(ctx, a.Config, a.Logger)
	if err != nil {
		return nil, err
	}
	return a.NewSeederFrom(source), nil
}

// NewSeederFrom builds a seeder over source
func (a *App) NewSeederFrom(source appprov.BundleSource) *appprov.Seeder {
	db := a.Database.DB
	return appprov.NewSeeder(
		persistence.NewGormTemplateRepository(db),
		persistence.NewGormTransactionScope(db),
		source,
		a.Logger,
	).WithConcurrency(a.Config.Templates.FetchConcurrency)
}

// Close releases resources in reverse order of acquisition
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
