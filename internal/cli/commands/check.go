package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/manifold/internal/cli/ui"
)

func newCheckCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Populate the registry and report problems",
		Long: `Populate the registry from installed_components and check the result.

Besides everything Populate verifies, check reports relation targets that do
not resolve, reverse relations without a forward side, and foreign key cycles
that leave the tables without a creation order.`,
		Example: `  manifold check
  manifold check --config deploy/manifold.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := a.populate(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			models := reg.Schema()
			if err := models.ValidateRelations(); err != nil {
				return err
			}
			if _, err := models.DependencyOrder(); err != nil {
				return err
			}

			descriptors, err := reg.Descriptors()
			if err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(),
				fmt.Sprintf("%d components, %d entities ready (run %s)", len(descriptors), models.Count(), reg.RunID()),
				a.noColor)
			return nil
		},
	}
}
