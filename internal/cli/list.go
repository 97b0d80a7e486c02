package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/pkg/config"
	"github.com/glorpus-work/zpkg/pkg/orchestrator"
)

// NewListCmd creates the list command.
func NewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [FILTER]",
		Short: "List packages",
		Long: `List packages known from the sources together with installed ones.

FILTER is one of: ` + filterNames() + `. The default is installed.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: filterList(),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := orchestrator.FilterInstalled
			if len(args) == 1 {
				filter = orchestrator.ListFilter(args[0])
			}
			return withApp(cmd.Context(), func(a *app) error {
				entries, err := a.orch.List(filter)
				if err != nil {
					return err
				}
				return printEntries(a.cfg, entries)
			})
		},
	}

	return cmd
}

func filterList() []string {
	names := make([]string, len(orchestrator.Filters))
	for i, f := range orchestrator.Filters {
		names[i] = string(f)
	}
	return names
}

func filterNames() string {
	return strings.Join(filterList(), ", ")
}

func printEntries(cfg *config.Config, entries []orchestrator.Entry) error {
	if isJSON(cfg) {
		if entries == nil {
			entries = []orchestrator.Entry{}
		}
		return printJSON(entries)
	}

	if len(entries) == 0 {
		_, _ = fmt.Fprintln(stdout, "No packages found")
		return nil
	}

	tw := newTabWriter()
	_, _ = fmt.Fprintln(tw, "PACKAGE\tVERSION\tSTATE\tDESCRIPTION")
	for _, e := range entries {
		version, state := "", ""
		if ip := e.Installed; ip != nil {
			version = ip.Status.CurrentVersion
			state = stateFlags(e)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Package.QualifiedName(), version, state, truncate(e.Package.Description(), MaxDescriptionLength))
	}
	return tw.Flush()
}

// stateFlags renders the status of an installed entry as a comma separated
// list.
func stateFlags(e orchestrator.Entry) string {
	st := e.Installed.Status
	flags := []string{"installed"}
	if st.IsLoaded {
		flags = append(flags, "loaded")
	}
	if st.IsPinned {
		flags = append(flags, "pinned")
	}
	if st.IsOutdated {
		flags = append(flags, "outdated")
	}
	return strings.Join(flags, ",")
}
