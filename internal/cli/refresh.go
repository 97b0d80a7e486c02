package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/orchestrator"
)

type refreshView struct {
	*orchestrator.RefreshReport
	SourceErrors map[string]string `json:"source_errors,omitempty"`
	CheckErrors  map[string]string `json:"check_errors,omitempty"`
}

// NewRefreshCmd creates the refresh command.
func NewRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "refresh",
		Aliases: []string{"sync"},
		Short:   "Fetch source indexes and check for updates",
		Long: `Re-fetch the index of every configured source, report packages that
appeared or disappeared and mark installed packages with a newer version as
outdated. A source that cannot be fetched keeps its previous index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				report, err := a.orch.Refresh(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to refresh sources: %w", err)
				}
				for _, f := range report.Failures {
					logger.Warn("Failed to refresh source", logger.Fields{"source": f.Source, "error": f.Err.Error()})
				}
				return printRefresh(a, report)
			})
		},
	}

	return cmd
}

func printRefresh(a *app, report *orchestrator.RefreshReport) error {
	if isJSON(a.cfg) {
		view := refreshView{RefreshReport: report}
		for _, f := range report.Failures {
			if view.SourceErrors == nil {
				view.SourceErrors = map[string]string{}
			}
			view.SourceErrors[f.Source] = f.Err.Error()
		}
		for _, f := range report.CheckFailures {
			if view.CheckErrors == nil {
				view.CheckErrors = map[string]string{}
			}
			view.CheckErrors[f.Name] = f.Err.Error()
		}
		return printJSON(view)
	}

	for _, name := range report.Diff.Added {
		_, _ = fmt.Fprintf(stdout, "+ %s\n", name)
	}
	for _, name := range report.Diff.Removed {
		_, _ = fmt.Fprintf(stdout, "- %s\n", name)
	}
	if report.Diff.Empty() {
		_, _ = fmt.Fprintln(stdout, "No new or removed packages")
	}
	for _, name := range report.Outdated {
		_, _ = fmt.Fprintf(stdout, "outdated: %s\n", name)
	}
	for _, f := range report.CheckFailures {
		_, _ = fmt.Fprintf(stdout, "unchecked: %s (%s)\n", f.Name, f.Err)
	}
	if report.Partial() {
		_, _ = fmt.Fprintf(stdout, "%d source(s) failed to refresh\n", len(report.Failures))
	}
	return nil
}
