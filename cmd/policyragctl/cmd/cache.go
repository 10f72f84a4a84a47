package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/policyrag/internal/app"
	"github.com/kailas-cloud/policyrag/internal/repository/answercache"
)

func newCacheCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the answer cache",
	}
	cmd.AddCommand(newCacheStatsCmd(opts))
	cmd.AddCommand(newCacheClearCmd(opts))
	return cmd
}

func newCacheStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count cached answers per TTL class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app.App) error {
				stats, err := a.Cache.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("cache stats: %w", err)
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), stats)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "total: %d\n", stats.Total)
				for _, c := range answercache.Classes {
					fmt.Fprintf(out, "  %-8s %d\n", c, stats.ByClass[c])
				}
				return nil
			})
		},
	}
}

func newCacheClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every cached answer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), opts, func(a *app.App) error {
				n, err := a.Cache.Clear(cmd.Context())
				if err != nil {
					return fmt.Errorf("cache clear: %w", err)
				}
				if opts.jsonOutput {
					return writeJSON(cmd.OutOrStdout(), map[string]int{"deleted": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d cached answers\n", n)
				return nil
			})
		},
	}
}
