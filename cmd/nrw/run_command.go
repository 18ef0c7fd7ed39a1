package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"nrw/internal/pipeline"
	"nrw/internal/scores"
)

type runOutcomeJSON struct {
	MovieID       string `json:"movie_id"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	CriticScore   *int   `json:"critic_score,omitempty"`
	AudienceScore *int   `json:"audience_score,omitempty"`
	Method        string `json:"method,omitempty"`
	FromCache     bool   `json:"from_cache,omitempty"`
}

type runJSON struct {
	RunID      string           `json:"run_id"`
	Catalog    string           `json:"catalog"`
	DryRun     bool             `json:"dry_run"`
	Resolved   int              `json:"resolved"`
	Skipped    int              `json:"skipped"`
	Unresolved int              `json:"unresolved"`
	Failed     int              `json:"failed"`
	CacheHits  int              `json:"cache_hits"`
	Changed    []string         `json:"changed"`
	DurationMS int64            `json:"duration_ms"`
	Outcomes   []runOutcomeJSON `json:"outcomes"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		req     pipeline.Request
		jsonOut bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Resolve missing scores and merge them into the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Limit < 0 || req.Workers < 0 {
				return errors.New("--limit and --workers must not be negative")
			}
			p, err := ctx.newPipeline()
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			summary, runErr := p.Run(runCtx, req)
			if runErr != nil && !errors.Is(runErr, context.Canceled) && summary.FinishedAt.IsZero() {
				return runErr
			}
			if jsonOut {
				if err := writeJSON(cmd, summaryJSON(summary)); err != nil {
					return err
				}
			} else {
				printRunSummary(cmd, summary, verbose)
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&req.Force, "force", false, "Re-resolve movies that already have a score and overwrite it")
	cmd.Flags().BoolVar(&req.DryRun, "dry-run", false, "Resolve and report without writing the catalog")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "Maximum eligible movies to attempt (0 uses config)")
	cmd.Flags().IntVar(&req.Workers, "workers", 0, "Concurrent resolutions (0 uses config)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the summary as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include skipped movies in the outcome table")
	return cmd
}

func summaryJSON(s pipeline.Summary) runJSON {
	out := runJSON{
		RunID:      s.RunID,
		Catalog:    s.CatalogPath,
		DryRun:     s.DryRun,
		Resolved:   s.Report.Resolved,
		Skipped:    s.Report.Skipped,
		Unresolved: s.Report.Unresolved,
		Failed:     s.Report.Failed,
		CacheHits:  s.Report.CacheHits,
		Changed:    append([]string{}, s.Changed...),
		DurationMS: s.FinishedAt.Sub(s.StartedAt).Milliseconds(),
		Outcomes:   make([]runOutcomeJSON, 0, len(s.Report.Outcomes)),
	}
	for _, o := range s.Report.Outcomes {
		row := runOutcomeJSON{
			MovieID:   o.MovieID,
			Title:     o.Title,
			Status:    string(o.Status),
			Reason:    o.Reason,
			FromCache: o.FromCache,
		}
		if o.Status == scores.StatusResolved {
			row.CriticScore = o.Result.CriticScore
			row.AudienceScore = o.Result.AudienceScore
			row.Method = o.Result.Method
		}
		out.Outcomes = append(out.Outcomes, row)
	}
	return out
}

func printRunSummary(cmd *cobra.Command, s pipeline.Summary, verbose bool) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("nrw run "+shortID(s.RunID), colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Catalog", statusInfo, s.CatalogPath, colorize))
	fmt.Fprintln(out, renderStatusLine("Resolved", statusOK, strconv.Itoa(s.Report.Resolved), colorize))
	fmt.Fprintln(out, renderStatusLine("Skipped", statusInfo, strconv.Itoa(s.Report.Skipped), colorize))
	unresolvedKind := statusInfo
	if s.Report.Unresolved > 0 {
		unresolvedKind = statusWarn
	}
	fmt.Fprintln(out, renderStatusLine("Unresolved", unresolvedKind, strconv.Itoa(s.Report.Unresolved), colorize))
	failedKind := statusInfo
	if s.Report.Failed > 0 {
		failedKind = statusError
	}
	fmt.Fprintln(out, renderStatusLine("Failed", failedKind, strconv.Itoa(s.Report.Failed), colorize))
	fmt.Fprintln(out, renderStatusLine("Cache hits", statusInfo, strconv.Itoa(s.Report.CacheHits), colorize))
	changed := strconv.Itoa(len(s.Changed))
	if s.DryRun {
		changed += " (dry run, not written)"
	}
	fmt.Fprintln(out, renderStatusLine("Changed", statusInfo, changed, colorize))

	rows := make([][]string, 0, len(s.Report.Outcomes))
	for _, o := range s.Report.Outcomes {
		if o.Status == scores.StatusSkipped && !verbose {
			continue
		}
		rows = append(rows, outcomeRow(o))
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable(outcomeColumns, rows))
}

func outcomeRow(o scores.Outcome) []string {
	critic, audience, method := "-", "-", "-"
	if o.Status == scores.StatusResolved {
		critic = formatScore(o.Result.CriticScore)
		audience = formatScore(o.Result.AudienceScore)
		method = dashIfEmpty(o.Result.Method)
		if o.FromCache {
			method += " (cache)"
		}
	}
	return []string{o.MovieID, o.Title, string(o.Status), critic, audience, method, dashIfEmpty(o.Reason)}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
