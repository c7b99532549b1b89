package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	appprov "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/spf13/cobra"
)

const listPageSize = 100

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"tpl"},
		Short:   "Inspect and import templates",
	}
	cmd.AddCommand(templatesListCmd(), templatesShowCmd(), templatesImportCmd(), templatesDeleteCmd())
	return cmd
}

func templatesListCmd() *cobra.Command {
	var filter appprov.TemplateListFilter

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter.PageSize = listPageSize
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tNAME\tTYPE\tVERSION\tACTIVE")

			for page := 1; ; page++ {
				filter.Page = page
				templates, total, err := appCtx.Templates.List(cmd.Context(), filter)
				if err != nil {
					return err
				}
				for _, t := range templates {
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\n", t.Code, t.Name, t.Type, t.Version, t.IsActive)
				}
				if int64(page*listPageSize) >= total || len(templates) == 0 {
					break
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&filter.ActiveOnly, "active", false, "only active templates")
	cmd.Flags().StringVar(&filter.Type, "type", "", "only templates of this type")
	return cmd
}

func templatesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <code>",
		Short: "Print a template with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := appCtx.Templates.GetByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), template)
		},
	}
}

func templatesImportCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <bundle.json>",
		Short: "Create a template from a bundle document",
		Long: `Create a template from a bundle document. With --replace, an existing
template with the same code gets its metadata updated and all items replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if replace {
				doc, err := appprov.ParseBundleBytes(body)
				if err != nil {
					return err
				}
				if doc.Template != nil {
					if existing, err := appCtx.Templates.GetByCode(ctx, doc.Template.Code); err == nil {
						result, err := appCtx.Templates.UpdateFromJSON(ctx, existing.ID, body)
						if err != nil {
							return err
						}
						return printJSON(cmd.OutOrStdout(), result)
					}
				}
			}

			result, err := appCtx.Templates.CreateFromJSON(ctx, body)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "replace the template if its code exists")
	return cmd
}

func templatesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <code>",
		Short: "Soft-delete a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			template, err := appCtx.Templates.GetByCode(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := appCtx.Templates.Delete(cmd.Context(), template.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", template.Code)
			return nil
		},
	}
}
