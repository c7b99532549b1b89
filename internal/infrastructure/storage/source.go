package storage

import (
	"context"
	"fmt"

	appprov "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewBundleSource builds the bundle source selected by templates.source
func NewBundleSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (appprov.BundleSource, error) {
	switch cfg.Templates.Source {
	case config.TemplateSourceDir:
		logger.Info("reading template bundles from directory", zap.String("dir", cfg.Templates.Dir))
		return NewDirBundleSource(cfg.Templates.Dir), nil
	case config.TemplateSourceEmbedded, "":
		logger.Info("reading embedded template bundles")
		return NewEmbeddedBundleSource(), nil
	case config.TemplateSourceS3:
		logger.Info("reading template bundles from S3",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("prefix", cfg.Storage.Prefix),
		)
		return NewS3BundleSource(ctx, &cfg.Storage, WithLogger(logger))
	default:
		return nil, fmt.Errorf("unknown template source %q", cfg.Templates.Source)
	}
}
