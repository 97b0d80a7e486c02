package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/internal/logger"
	"github.com/glorpus-work/zpkg/pkg/registry"
)

// Number of arguments expected by the source add command.
const sourceAddArgs = 2

// NewSourceCmd creates the source command with subcommands.
func NewSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "source",
		Aliases: []string{"repo"},
		Short:   "Manage package sources",
		Long:    "Add, remove and list the package sources packages are installed from",
	}

	cmd.AddCommand(
		newSourceAddCmd(),
		newSourceRemoveCmd(),
		newSourceListCmd(),
	)

	return cmd
}

func newSourceAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME LOCATION",
		Short: "Add a package source",
		Long: `Add a package source. LOCATION is a git URL, an HTTP(S) URL of an archive
or an absolute path of a local directory. The source index is fetched
before the source is saved, so an unreachable location is rejected.`,
		Args: cobra.ExactArgs(sourceAddArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				pkgs, err := a.orch.AddSource(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if err := a.saveSources(); err != nil {
					return err
				}
				logger.Success("Source added", logger.Fields{"source": args[0], "packages": len(pkgs)})
				return nil
			})
		},
	}
}

func newSourceRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a package source",
		Long:  "Remove a package source. Packages installed from it stay installed.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				if err := a.orch.RemoveSource(args[0]); err != nil {
					return err
				}
				if err := a.saveSources(); err != nil {
					return err
				}
				logger.Success("Source removed", logger.Fields{"source": args[0]})
				return nil
			})
		},
	}
}

type sourceView struct {
	registry.SourceInfo
	Stale bool `json:"stale"`
}

func newSourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List package sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				ttl := a.cfg.Settings.CacheTTL
				views := []sourceView{}
				for _, info := range a.registry.SourceInfos() {
					views = append(views, sourceView{SourceInfo: info, Stale: a.registry.IsCacheStale(info.Name, ttl)})
				}
				if isJSON(a.cfg) {
					return printJSON(views)
				}

				tw := newTabWriter()
				_, _ = fmt.Fprintln(tw, "NAME\tLOCATION\tPACKAGES\tUPDATED")
				for _, v := range views {
					updated := "never"
					if !v.LastUpdate.IsZero() {
						updated = v.LastUpdate.Local().Format(time.DateTime)
					}
					if v.Stale {
						updated += " (stale)"
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", v.Name, v.Location, v.Packages, updated)
				}
				return tw.Flush()
			})
		},
	}
}
