package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"nrw/internal/runlog"
)

type historyRunJSON struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Catalog    string    `json:"catalog"`
	Resolved   int       `json:"resolved"`
	Skipped    int       `json:"skipped"`
	Unresolved int       `json:"unresolved"`
	Failed     int       `json:"failed"`
	CacheHits  int       `json:"cache_hits"`
	Changed    int       `json:"changed"`
	DryRun     bool      `json:"dry_run"`
	Error      string    `json:"error,omitempty"`
}

func (c *commandContext) openRunLog() (*runlog.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return runlog.Open(cfg.RunLogPath())
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openRunLog()
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				payload := make([]historyRunJSON, 0, len(runs))
				for _, r := range runs {
					payload = append(payload, historyRunJSON{
						ID: r.ID, StartedAt: r.StartedAt, FinishedAt: r.FinishedAt, Catalog: r.CatalogPath,
						Resolved: r.Resolved, Skipped: r.Skipped, Unresolved: r.Unresolved, Failed: r.Failed,
						CacheHits: r.CacheHits, Changed: r.Changed, DryRun: r.DryRun, Error: r.Error,
					})
				}
				return writeJSON(cmd, payload)
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, []string{
					shortID(r.ID),
					r.StartedAt.Local().Format("2006-01-02 15:04:05"),
					strconv.Itoa(r.Resolved),
					strconv.Itoa(r.Skipped),
					strconv.Itoa(r.Unresolved),
					strconv.Itoa(r.Failed),
					strconv.Itoa(r.Changed),
					yesNo(r.DryRun),
					dashIfEmpty(r.Error),
				})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "Run"},
				{header: "Started"},
				{header: "Resolved", numeric: true},
				{header: "Skipped", numeric: true},
				{header: "Unresolved", numeric: true},
				{header: "Failed", numeric: true},
				{header: "Changed", numeric: true},
				{header: "Dry"},
				{header: "Error", maxWidth: 48},
			}, rows))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	cmd.AddCommand(newHistoryShowCommand(ctx))
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the per-movie outcomes of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openRunLog()
			if err != nil {
				return err
			}
			defer store.Close()
			run, err := store.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			rows, err := store.Outcomes(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("run "+run.ID, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("Catalog", statusInfo, run.CatalogPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Finished", statusInfo, run.FinishedAt.Local().Format("2006-01-02 15:04:05"), colorize))
			if run.Error != "" {
				fmt.Fprintln(out, renderStatusLine("Error", statusError, run.Error, colorize))
			}
			if len(rows) == 0 {
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{r.MovieID, r.Title, r.Status,
					formatScore(r.CriticScore), formatScore(r.AudienceScore), dashIfEmpty(r.Method), dashIfEmpty(r.Reason)})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(outcomeColumns, table))
			return nil
		},
	}
}
