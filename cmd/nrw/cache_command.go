package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nrw/internal/scorecache"
	"nrw/internal/scores"
)

type cacheEntryJSON struct {
	Key      string        `json:"key"`
	StoredAt time.Time     `json:"stored_at"`
	Result   scores.Result `json:"result"`
}

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the score cache",
	}
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func (c *commandContext) openCache() (*scorecache.Cache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return scorecache.Open(cfg.Paths.CachePath, scorecache.WithLogger(logger)), nil
}

func keyFromArgs(args []string) string {
	year := ""
	if len(args) > 1 {
		year = args[1]
	}
	return scores.CacheKey(args[0], year)
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			entries := cache.Entries()
			if jsonOut {
				payload := make([]cacheEntryJSON, 0, len(entries))
				for _, e := range entries {
					payload = append(payload, cacheEntryJSON{Key: e.Key, StoredAt: e.StoredAt, Result: e.Result})
				}
				return writeJSON(cmd, payload)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Score cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Key,
					formatScore(e.Result.CriticScore),
					formatScore(e.Result.AudienceScore),
					dashIfEmpty(e.Result.Method),
					storedAt(e.StoredAt),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Key", maxWidth: 48},
				{header: "Critic", numeric: true},
				{header: "Audience", numeric: true},
				{header: "Method"},
				{header: "Stored"},
			}, rows))
			fmt.Fprintf(out, "%d entries in %s\n", len(entries), cache.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <title> [year]",
		Short: "Show the cached result for a title",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			key := keyFromArgs(args)
			result, ok := cache.Get(key)
			if !ok {
				return fmt.Errorf("no cache entry for %s", key)
			}
			return writeJSON(cmd, struct {
				Key    string        `json:"key"`
				Result scores.Result `json:"result"`
			}{Key: key, Result: result})
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <title> [year]",
		Short: "Drop the cached result for a title so the next run queries providers again",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			key := keyFromArgs(args)
			if err := cache.Remove(key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", key)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached result",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear the score cache without --yes")
			}
			cache, err := ctx.openCache()
			if err != nil {
				return err
			}
			count := cache.Count()
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries\n", count)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm clearing the cache")
	return cmd
}

func storedAt(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return strings.TrimSpace(t.Local().Format("2006-01-02 15:04"))
}
