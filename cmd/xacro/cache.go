package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/xacro/pkg/cache"
	"mercator-hq/xacro/pkg/cli"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the expansion result cache",
	Long: `Manage the expansion result cache.

Cached results are keyed by the document, its content and the options that
affect output, and are only reused while every included file is unchanged.`,
}

var cachePruneFlags struct {
	all bool
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old cache entries",
	Long: `Remove entries unused for longer than cache.retention.max_age and the least
recently used entries beyond cache.retention.max_entries.

Examples:
  xacro cache prune
  xacro cache prune --all`,
	Args: cobra.NoArgs,
	RunE: runCachePrune,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the number of cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePruneCmd, cacheStatsCmd)

	cachePruneCmd.Flags().BoolVar(&cachePruneFlags.all, "all", false, "remove every entry")
}

func openCache(cmd *cobra.Command) (*app, cache.Store, error) {
	a, err := newApp(cmd, nil)
	if err != nil {
		return nil, nil, err
	}
	if a.store != nil {
		return a, a.store, nil
	}
	store, err := cache.Open(&a.cfg.Cache)
	if err != nil {
		a.close()
		return nil, nil, err
	}
	a.store = store
	return a, store, nil
}

func runCachePrune(cmd *cobra.Command, args []string) error {
	a, store, err := openCache(cmd)
	if err != nil {
		return cli.NewCommandError("cache prune", err)
	}
	defer a.close()

	retention := a.cfg.Cache.Retention
	if cachePruneFlags.all {
		n, err := store.PruneToCount(cmd.Context(), 0)
		if err != nil {
			return cli.NewCommandError("cache prune", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d entries\n", n)
		return nil
	}

	n, err := cache.NewPruner(store, retention, a.metrics).Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("cache prune", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d entries\n", n)
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	a, store, err := openCache(cmd)
	if err != nil {
		return cli.NewCommandError("cache stats", err)
	}
	defer a.close()

	n, err := store.Count(cmd.Context())
	if err != nil {
		return cli.NewCommandError("cache stats", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Backend: %s\nEntries: %d\n", a.cfg.Cache.Backend, n)
	return nil
}
