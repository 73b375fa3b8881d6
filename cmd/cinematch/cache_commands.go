package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"cinematch/internal/textutil"
	"cinematch/internal/tmdbcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the TMDB metadata cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))
	return cacheCmd
}

func withCache(cmd *cobra.Command, ctx *commandContext, fn func(*tmdbcache.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.MetadataCache.Enabled {
		return errors.New("metadata cache is disabled (set metadata_cache.enabled = true)")
	}
	store, err := tmdbcache.Open(cmd.Context(), cfg.MetadataCache.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached lookups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, ctx, func(store *tmdbcache.Store) error {
				entries, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "Metadata cache is empty")
					return nil
				}
				shown := entries
				if limit > 0 && len(shown) > limit {
					shown = shown[:limit]
				}
				rows := make([][]string, len(shown))
				for i, entry := range shown {
					rows[i] = []string{
						entry.Operation,
						entry.Key,
						textutil.Truncate(entry.Title, 40),
						entry.CachedAt.Local().Format(time.DateTime),
					}
				}
				fmt.Fprintln(out, renderTable([]column{
					{header: "Operation"},
					{header: "Key", maxWidth: 40},
					{header: "Title"},
					{header: "Cached"},
				}, rows))
				fmt.Fprintf(out, "%d of %d entries (%s)\n", len(shown), len(entries), store.Path())
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 50, "Maximum entries to show (0 for all)")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached lookup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd, ctx, func(store *tmdbcache.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached lookups\n", removed)
				return nil
			})
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove lookups older than metadata_cache.ttl_hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return withCache(cmd, ctx, func(store *tmdbcache.Store) error {
				removed, err := store.Prune(cmd.Context(), cfg.MetadataCacheTTL())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired lookups\n", removed)
				return nil
			})
		},
	}
}
