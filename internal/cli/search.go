package cli

import (
	"github.com/spf13/cobra"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	var fuzzy bool

	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search for packages",
		Long: `Search package paths and tags across all configured sources.

QUERY is matched as a case-insensitive substring, or as a regular expression
when wrapped in slashes ("/^net/"). With --fuzzy the results are ranked by
match quality, best matches first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				entries, err := a.orch.Search(args[0], fuzzy)
				if err != nil {
					return err
				}
				return printEntries(a.cfg, entries)
			})
		},
	}

	cmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "Rank results by fuzzy matching")

	return cmd
}
