package commands

import (
	"fmt"
	"path/filepath"

	appprov "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/infrastructure/storage"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed [bundle.json ...]",
		Short: "Load template bundles into the template store",
		Long: `Without arguments, seed loads the configured bundle source, but only
when the template store is empty. --force loads every bundle of the source
even when templates already exist. Explicit files are always loaded.
Templates whose code already exists are skipped in every mode.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			total := &appprov.SeedResult{}

			if len(args) > 0 {
				for dir, names := range groupByDir(args) {
					seeder := appCtx.NewSeederFrom(storage.NewDirBundleSource(dir))
					seedFiles(cmd, seeder, names, total)
				}
				return printJSON(cmd.OutOrStdout(), total)
			}

			source, err := storage.NewBundleSource(ctx, appCtx.Config, appCtx.Logger)
			if err != nil {
				return err
			}
			seeder := appCtx.NewSeederFrom(source)
			if !force {
				result, err := seeder.Seed(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), result)
			}

			names, err := source.List(ctx)
			if err != nil {
				return fmt.Errorf("list bundles: %w", err)
			}
			seedFiles(cmd, seeder, names, total)
			return printJSON(cmd.OutOrStdout(), total)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "load the source even if the store already holds templates")
	return cmd
}

// seedFiles loads each bundle, reporting and counting failures without stopping
func seedFiles(cmd *cobra.Command, seeder *appprov.Seeder, names []string, total *appprov.SeedResult) {
	for _, name := range names {
		result, err := seeder.SeedFile(cmd.Context(), name)
		if err != nil {
			total.FilesSeen++
			total.FilesFailed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", name, err)
			continue
		}
		addSeedResult(total, result)
	}
}

func addSeedResult(total, r *appprov.SeedResult) {
	total.FilesSeen += r.FilesSeen
	total.FilesFailed += r.FilesFailed
	total.TemplatesCreated += r.TemplatesCreated
	total.TemplatesSkipped += r.TemplatesSkipped
	total.ItemsCreated += r.ItemsCreated
	total.ItemsSkipped += r.ItemsSkipped
}

// groupByDir maps each directory to the base names of the given files
func groupByDir(paths []string) map[string][]string {
	groups := make(map[string][]string)
	for _, p := range paths {
		dir, name := filepath.Split(filepath.Clean(p))
		if dir == "" {
			dir = "."
		}
		groups[dir] = append(groups[dir], name)
	}
	return groups
}
