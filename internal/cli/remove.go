package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/pkg/orchestrator"
)

// NewRemoveCmd creates the remove command.
func NewRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove PACKAGE...",
		Aliases: []string{"uninstall"},
		Short:   "Remove installed packages",
		Long: `Remove one or more installed packages.
The pre_remove hook of each package runs first; its failure is logged
and does not stop the removal.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				var results []orchestrator.Result
				withProgress(cmd.Context(), a.orch, func() {
					results = a.orch.Remove(cmd.Context(), args)
				})
				return renderResults(a.cfg, results)
			})
		},
	}

	return cmd
}
