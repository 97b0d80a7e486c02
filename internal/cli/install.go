package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/pkg/orchestrator"
)

// NewInstallCmd creates the install command.
func NewInstallCmd() *cobra.Command {
	var (
		load    bool
		dryRun  bool
		version string
	)

	cmd := &cobra.Command{
		Use:   "install PACKAGE[@VERSION]...",
		Short: "Install packages",
		Long: `Install one or more packages from the configured sources or from a URL.

Without a version the newest version tag is installed, falling back to the
default branch. A version may be a tag, a branch, a commit hash or a version
constraint such as ">= 1.2, < 2". Installing with an explicit version pins
the package.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reqs, err := parseInstallArgs(args, version)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(a *app) error {
				var results []orchestrator.Result
				withProgress(cmd.Context(), a.orch, func() {
					results = a.orch.Install(cmd.Context(), reqs, orchestrator.InstallOptions{Load: load, DryRun: dryRun})
				})
				return renderResults(a.cfg, results)
			})
		},
	}

	cmd.Flags().BoolVar(&load, "load", false, "Add the installed packages to the auto-load file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve packages and versions without installing")
	cmd.Flags().StringVar(&version, "version", "", "Version to install (single package only)")

	return cmd
}

// parseInstallArgs splits PACKAGE@VERSION arguments. An '@' only separates a
// version when what follows contains no '/' or ':', which keeps scp-style
// git URLs intact.
func parseInstallArgs(args []string, version string) ([]orchestrator.InstallRequest, error) {
	if version != "" && len(args) != 1 {
		return nil, fmt.Errorf("--version requires exactly one package")
	}

	reqs := make([]orchestrator.InstallRequest, 0, len(args))
	for _, arg := range args {
		req := orchestrator.InstallRequest{Ref: arg, Version: version}
		if i := strings.LastIndex(arg, "@"); i > 0 && !strings.ContainsAny(arg[i+1:], "/:") {
			if version != "" {
				return nil, fmt.Errorf("version given twice for %s", arg[:i])
			}
			req.Ref, req.Version = arg[:i], arg[i+1:]
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
