package commands

import (
	"errors"
	"fmt"

	domainprov "github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <organization-id> <template-code>",
		Short: "Apply a template to an organization",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orgID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid organization id %q: %w", args[0], err)
			}

			ctx, _ := logger.WithApplyScope(cmd.Context(), appCtx.Logger, orgID.String(), args[1])
			result, err := appCtx.Organizations.ApplyTemplate(ctx, orgID, args[1])
			var failed *domainprov.ProvisioningFailedError
			if err != nil && !(errors.As(err, &failed) && result != nil) {
				return err
			}
			if perr := printJSON(cmd.OutOrStdout(), result); perr != nil {
				return perr
			}
			return err
		},
	}
}
