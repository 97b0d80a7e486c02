package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/zpkg/pkg/cache"
)

// NewCacheCmd creates the cache command with subcommands
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the cache",
		Long:  "Clean and show information about cached source indexes and staging workspaces",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
		newCacheDirCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var (
		all     bool
		indexes bool
		staging bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the cache",
		Long: `Remove cached files to free up disk space. Without flags everything is
removed. Cleaned source indexes are fetched again on the next refresh.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			op, err := loadCacheOperation()
			if err != nil {
				return err
			}
			msg, err := op.Clean(all, indexes, staging)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, msg)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Clean all cached files")
	cmd.Flags().BoolVar(&indexes, "indexes", false, "Clean only source indexes")
	cmd.Flags().BoolVar(&staging, "staging", false, "Clean only leftover staging workspaces")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			manager := cache.NewManager(cfg.Settings.CacheDir)
			if isJSON(cfg) {
				info, err := manager.GetInfo()
				if err != nil {
					return err
				}
				return printJSON(info)
			}
			msg, err := cache.NewOperation(manager).GetInfo()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, msg)
			return nil
		},
	}
}

func newCacheDirCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dir",
		Short: "Show cache directory path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			op, err := loadCacheOperation()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(stdout, op.GetDirectory())
			return nil
		},
	}
}

func loadCacheOperation() (*cache.Operation, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.NewOperation(cache.NewManager(cfg.Settings.CacheDir)), nil
}
