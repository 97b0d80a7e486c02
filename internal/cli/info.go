package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/pkg/model"
	"github.com/glorpus-work/zpkg/pkg/orchestrator"
)

type infoView struct {
	*orchestrator.Info
	RefsError string `json:"refs_error,omitempty"`
}

// NewInfoCmd creates the info command.
func NewInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info PACKAGE",
		Short: "Show package details",
		Long: `Show the metadata of a package, its installed state and the versions
available upstream.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				info, err := a.orch.Info(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if isJSON(a.cfg) {
					view := infoView{Info: info}
					if info.RefsErr != nil {
						view.RefsError = info.RefsErr.Error()
					}
					return printJSON(view)
				}
				printInfo(info)
				return nil
			})
		},
	}

	return cmd
}

func printInfo(info *orchestrator.Info) {
	p := info.Package
	tw := newTabWriter()
	_, _ = fmt.Fprintf(tw, "Package:\t%s\n", p.QualifiedName())
	_, _ = fmt.Fprintf(tw, "URL:\t%s\n", p.URL)
	if d := p.Description(); d != "" {
		_, _ = fmt.Fprintf(tw, "Description:\t%s\n", d)
	}
	if len(p.Tags) > 0 {
		_, _ = fmt.Fprintf(tw, "Tags:\t%s\n", strings.Join(p.Tags, ", "))
	}
	for _, m := range p.Metadata {
		if m.Key == model.MetaDescription {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", m.Key, m.Value)
	}

	if ip := info.Installed; ip != nil {
		_, _ = fmt.Fprintf(tw, "Installed:\t%s (%s)\n", ip.Status.CurrentVersion, shortHash(ip.Status.CurrentHash))
		_, _ = fmt.Fprintf(tw, "State:\t%s\n", stateFlags(info.Entry))
		_, _ = fmt.Fprintf(tw, "Path:\t%s\n", ip.InstallPath)
	} else {
		_, _ = fmt.Fprintln(tw, "Installed:\tno")
	}

	switch {
	case info.RefsErr != nil:
		_, _ = fmt.Fprintf(tw, "Versions:\tunavailable (%s)\n", info.RefsErr)
	case info.Refs != nil:
		tags := info.Refs.TagNames()
		if len(tags) == 0 {
			tags = []string{"(none)"}
		}
		_, _ = fmt.Fprintf(tw, "Tags available:\t%s\n", strings.Join(tags, ", "))
		if info.Refs.DefaultBranch != "" {
			_, _ = fmt.Fprintf(tw, "Default branch:\t%s\n", info.Refs.DefaultBranch)
		}
	}
	_ = tw.Flush()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
