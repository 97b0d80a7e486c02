package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/pkg/orchestrator"
)

// NewPinCmd creates the pin command.
func NewPinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pin PACKAGE [VERSION]",
		Short: "Freeze the installed version of a package",
		Long: `Pin a package so that upgrade leaves it alone and refresh never marks it
outdated. With a VERSION the package is switched to that version first.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			version := ""
			if len(args) == 2 {
				version = args[1]
			}
			return runSingle(cmd, func(a *app) orchestrator.Result {
				return a.orch.Pin(cmd.Context(), args[0], version)
			})
		},
	}

	return cmd
}

// NewUnpinCmd creates the unpin command.
func NewUnpinCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unpin PACKAGE",
		Short: "Allow a pinned package to be upgraded again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(cmd, func(a *app) orchestrator.Result {
				return a.orch.Unpin(cmd.Context(), args[0])
			})
		},
	}

	return cmd
}

// runSingle runs a one-package operation and renders its result.
func runSingle(cmd *cobra.Command, op func(a *app) orchestrator.Result) error {
	return withApp(cmd.Context(), func(a *app) error {
		var res orchestrator.Result
		withProgress(cmd.Context(), a.orch, func() {
			res = op(a)
		})
		return renderResults(a.cfg, []orchestrator.Result{res})
	})
}
