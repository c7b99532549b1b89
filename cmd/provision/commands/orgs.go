package commands

import (
	"fmt"

	orgapp "github.com/erp/provisioner/internal/application/organization"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func orgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "orgs",
		Aliases: []string{"organizations"},
		Short:   "Create organizations and inspect their provisioning runs",
	}
	cmd.AddCommand(orgsCreateCmd(), orgsRunsCmd())
	return cmd
}

func orgsCreateCmd() *cobra.Command {
	var req orgapp.CreateOrganizationRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an organization, optionally applying a template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := appCtx.Organizations.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	cmd.Flags().StringVar(&req.Code, "code", "", "organization code")
	cmd.Flags().StringVar(&req.Name, "name", "", "organization name")
	cmd.Flags().StringVar(&req.TemplateCode, "template", "", "template to apply after creation")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func orgsRunsCmd() *cobra.Command {
	var filter orgapp.RunListFilter

	cmd := &cobra.Command{
		Use:   "runs <organization-id>",
		Short: "List provisioning runs of an organization, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid organization id %q: %w", args[0], err)
			}
			runs, _, err := appCtx.Organizations.ListRuns(cmd.Context(), orgID, filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), runs)
		},
	}

	cmd.Flags().IntVar(&filter.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&filter.PageSize, "page-size", 20, "runs per page")
	return cmd
}
