package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/internal/cli"
	"github.com/glorpus-work/zpkg/pkg/errors"
)

var (
	configPath   string
	verbose      bool
	outputFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrOperationsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", errors.Kind(err), err)
		}
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "zpkg",
		Short: "A package manager for script packages hosted in git",
		Long: `zpkg installs script packages from git repositories, archives and local
directories:
- Sources: named indexes of package repositories
- Lifecycle: install, remove, upgrade, pin, load
- Discovery: list, search, info`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (text, json)")

	// Set up CLI package variables
	cli.ConfigPath = &configPath
	cli.Verbose = &verbose
	cli.OutputFormat = &outputFormat

	cmd.AddCommand(
		cli.NewInstallCmd(),
		cli.NewRemoveCmd(),
		cli.NewUpgradeCmd(),
		cli.NewPinCmd(),
		cli.NewUnpinCmd(),
		cli.NewLoadCmd(),
		cli.NewUnloadCmd(),
		cli.NewRefreshCmd(),
		cli.NewListCmd(),
		cli.NewSearchCmd(),
		cli.NewInfoCmd(),
		cli.NewSourceCmd(),
		cli.NewCacheCmd(),
		cli.NewConfigCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
