// Package commands implements the provision operator CLI. Every command runs
// the same services as the HTTP server, without the HTTP layer.
package commands

import (
	"context"
	"encoding/json"
	"io"

	"github.com/erp/provisioner/internal/bootstrap"
	"github.com/erp/provisioner/internal/infrastructure/config"
	"github.com/erp/provisioner/internal/infrastructure/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	logLevel   string
	migrate    bool
	appCtx     *bootstrap.App
)

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "provision",
		Short:        "Seed, inspect and apply provisioning templates",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			// keep stdout for command output
			if cfg.Log.Output == "" || cfg.Log.Output == "stdout" {
				cfg.Log.Output = "stderr"
			}
			log, err := bootstrap.NewLogger(cfg)
			if err != nil {
				return err
			}
			app, err := bootstrap.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			appCtx = app
			if migrate {
				return app.Migrate()
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appCtx == nil {
				return nil
			}
			defer func() { _ = logger.Sync(appCtx.Logger) }()
			if err := appCtx.Close(context.WithoutCancel(cmd.Context())); err != nil {
				appCtx.Logger.Warn("shutdown incomplete", zap.Error(err))
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.toml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level")
	root.PersistentFlags().BoolVar(&migrate, "migrate", false, "apply database migrations before running the command")

	root.AddCommand(seedCmd(), applyCmd(), templatesCmd(), orgsCmd())
	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCommand().ExecuteContext(context.Background())
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
