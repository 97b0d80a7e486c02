package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/pkg/orchestrator"
)

// NewLoadCmd creates the load command.
func NewLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load PACKAGE...",
		Short: "Add installed packages to the auto-load file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(cmd, args, func(a *app, ref string) orchestrator.Result {
				return a.orch.Load(cmd.Context(), ref)
			})
		},
	}
}

// NewUnloadCmd creates the unload command.
func NewUnloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unload PACKAGE...",
		Short: "Remove packages from the auto-load file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEach(cmd, args, func(a *app, ref string) orchestrator.Result {
				return a.orch.Unload(cmd.Context(), ref)
			})
		},
	}
}

// runEach applies op to every reference in order.
func runEach(cmd *cobra.Command, refs []string, op func(a *app, ref string) orchestrator.Result) error {
	return withApp(cmd.Context(), func(a *app) error {
		results := make([]orchestrator.Result, 0, len(refs))
		for _, ref := range refs {
			results = append(results, op(a, ref))
		}
		return renderResults(a.cfg, results)
	})
}
