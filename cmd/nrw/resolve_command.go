package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nrw/internal/pipeline"
	"nrw/internal/scores"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "resolve <title> [year]",
		Short: "Run the provider chain for one title without touching the catalog",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(args[0])
			year := ""
			if len(args) > 1 {
				year = strings.TrimSpace(args[1])
			}
			p, err := ctx.newPipeline()
			if err != nil {
				return err
			}
			res, err := p.Resolver(pipeline.Request{})
			if err != nil {
				return err
			}
			outcome, err := res.ResolveTitle(cmd.Context(), title, year)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, outcomeJSON(outcome))
			}
			printOutcome(cmd, outcome)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the outcome as JSON")
	return cmd
}

type attemptJSON struct {
	Provider   string `json:"provider"`
	Error      string `json:"error,omitempty"`
	Critic     *int   `json:"critic_score,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}

type outcomeDetailJSON struct {
	Key       string        `json:"key"`
	Status    string        `json:"status"`
	Reason    string        `json:"reason,omitempty"`
	FromCache bool          `json:"from_cache"`
	Result    scores.Result `json:"result"`
	Attempts  []attemptJSON `json:"attempts"`
}

func outcomeJSON(o scores.Outcome) outcomeDetailJSON {
	out := outcomeDetailJSON{
		Key:       o.Key,
		Status:    string(o.Status),
		Reason:    o.Reason,
		FromCache: o.FromCache,
		Result:    o.Result,
		Attempts:  make([]attemptJSON, 0, len(o.Attempts)),
	}
	for _, a := range o.Attempts {
		row := attemptJSON{Provider: a.Provider, Critic: a.Critic, DurationMS: a.Duration.Milliseconds()}
		if a.Err != nil {
			row.Error = a.Err.Error()
		}
		out.Attempts = append(out.Attempts, row)
	}
	return out
}

func printOutcome(cmd *cobra.Command, o scores.Outcome) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	kind := statusWarn
	if o.Status == scores.StatusResolved {
		kind = statusOK
	}
	fmt.Fprintln(out, renderStatusLine("Key", statusInfo, o.Key, colorize))
	fmt.Fprintln(out, renderStatusLine("Status", kind, strings.TrimSpace(string(o.Status)+" "+o.Reason), colorize))
	if o.Status == scores.StatusResolved {
		fmt.Fprintln(out, renderStatusLine("Critic", statusInfo, formatScore(o.Result.CriticScore), colorize))
		fmt.Fprintln(out, renderStatusLine("Audience", statusInfo, formatScore(o.Result.AudienceScore), colorize))
		fmt.Fprintln(out, renderStatusLine("Method", statusInfo, dashIfEmpty(o.Result.Method), colorize))
		fmt.Fprintln(out, renderStatusLine("URL", statusInfo, dashIfEmpty(o.Result.URL), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("From cache", statusInfo, yesNo(o.FromCache), colorize))
	if len(o.Attempts) == 0 {
		return
	}
	rows := make([][]string, 0, len(o.Attempts))
	for _, a := range o.Attempts {
		result := "score " + formatScore(a.Critic)
		if a.Err != nil {
			result = a.Err.Error()
		}
		rows = append(rows, []string{a.Provider, result, a.Duration.Round(time.Millisecond).String()})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]column{
		{header: "Provider"},
		{header: "Result", maxWidth: 60},
		{header: "Duration", numeric: true},
	}, rows))
}
