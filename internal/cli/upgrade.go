package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/pkg/orchestrator"
)

// NewUpgradeCmd creates the upgrade command.
func NewUpgradeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upgrade [PACKAGE...]",
		Short: "Upgrade installed packages",
		Long: `Upgrade packages to their newest version.

Without arguments every installed package that is not pinned is upgraded.
Naming a pinned package fails; unpin it first or use 'pin PACKAGE VERSION'.
Run 'refresh' beforehand to pick up new packages from the sources.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				var results []orchestrator.Result
				withProgress(cmd.Context(), a.orch, func() {
					results = a.orch.Upgrade(cmd.Context(), args)
				})
				if len(results) == 0 && !isJSON(a.cfg) {
					_, _ = fmt.Fprintln(stdout, "Nothing to upgrade")
					return nil
				}
				return renderResults(a.cfg, results)
			})
		},
	}

	return cmd
}
