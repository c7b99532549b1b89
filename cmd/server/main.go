package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/erp/provisioner/internal/bootstrap"
	"github.com/erp/provisioner/internal/infrastructure/config"
	"github.com/erp/provisioner/internal/infrastructure/logger"
	"github.com/erp/provisioner/internal/interfaces/http/handler"
	"github.com/erp/provisioner/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	app, err := bootstrap.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}
	log = app.Logger
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			log.Error("Error during shutdown", zap.Error(err))
		}
	}()

	log.Info("Starting provisioner",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", bootstrap.Version),
	)

	if cfg.Database.AutoMigrate {
		if err := app.Migrate(); err != nil {
			log.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Seeding finishes before the server accepts requests
	if cfg.Templates.SeedOnStart {
		seeder, err := app.NewSeeder(ctx)
		if err != nil {
			log.Fatal("Failed to create template seeder", zap.Error(err))
		}
		result, err := seeder.Seed(ctx)
		if err != nil {
			log.Error("Template seeding failed", zap.Error(err))
		} else {
			log.Info("Template seeding finished",
				zap.Int("files", result.FilesSeen),
				zap.Int("templates_created", result.TemplatesCreated),
				zap.Int("items_created", result.ItemsCreated),
				zap.Int("files_failed", result.FilesFailed),
			)
		}
	}

	systemHandler := handler.NewSystemHandler(app.Database.SQL(), bootstrap.Version)
	system := router.RouteFunc(func(rg *gin.RouterGroup) {
		rg.GET("/health", systemHandler.Health)
		rg.GET("/system/info", systemHandler.GetSystemInfo)
	})

	engine, err := router.New(router.Config{
		ServiceName:    cfg.Telemetry.ServiceName,
		TracingEnabled: app.Telemetry.TracesEnabled(),
		Meter:          app.Meter,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		TrustedProxies: cfg.HTTP.TrustedProxies,
	}, log,
		system,
		handler.NewTemplateHandler(app.Templates),
		handler.NewOrganizationHandler(app.Organizations),
	)
	if err != nil {
		log.Fatal("Failed to create HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
