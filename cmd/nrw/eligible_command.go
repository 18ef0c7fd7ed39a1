package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"nrw/internal/catalog"
	"nrw/internal/staleness"
)

type eligibleJSON struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Date   string `json:"date"`
	Reason string `json:"skip_reason,omitempty"`
}

func newEligibleCommand(ctx *commandContext) *cobra.Command {
	var (
		force   bool
		all     bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "eligible",
		Short: "List catalog movies the staleness policy would attempt",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			doc, err := catalog.Load(cfg.Paths.CatalogPath)
			if err != nil {
				return err
			}
			policy := staleness.New(cfg.Resolver.MinAgeDays, force)

			var entries []eligibleJSON
			for _, m := range doc.Movies() {
				subject := m.Subject()
				ok, reason := policy.Eligible(subject)
				if !ok && !all {
					continue
				}
				date := subject.DigitalDate
				if date == "" {
					date = subject.ReleaseDate
				}
				entries = append(entries, eligibleJSON{ID: subject.ID, Title: subject.Title, Year: subject.Year, Date: date, Reason: reason})
			}

			if jsonOut {
				if entries == nil {
					entries = []eligibleJSON{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No eligible movies")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.ID, e.Title, dashIfEmpty(e.Year), dashIfEmpty(e.Date), dashIfEmpty(e.Reason)})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "ID", numeric: true},
				{header: "Title", maxWidth: 40},
				{header: "Year", numeric: true},
				{header: "Date"},
				{header: "Skip"},
			}, rows))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Treat movies with an existing score as eligible")
	cmd.Flags().BoolVar(&all, "all", false, "Also list skipped movies with their reason")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print as JSON")
	return cmd
}
