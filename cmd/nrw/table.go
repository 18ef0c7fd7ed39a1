package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// column describes one table column. Numeric columns align right; free-text
// columns may set maxWidth so long titles or errors are cut with an ellipsis.
type column struct {
	header   string
	numeric  bool
	maxWidth int
}

// outcomeColumns is shared by `run` and `history show`.
var outcomeColumns = []column{
	{header: "ID", numeric: true},
	{header: "Title", maxWidth: 40},
	{header: "Status"},
	{header: "Critic", numeric: true},
	{header: "Audience", numeric: true},
	{header: "Method"},
	{header: "Reason", maxWidth: 48},
}

func renderTable(columns []column, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.header
		cfg := table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.numeric {
			cfg.Align = text.AlignRight
		}
		if col.maxWidth > 0 {
			cfg.WidthMax = col.maxWidth
			cfg.WidthMaxEnforcer = text.Trim
		}
		configs[i] = cfg
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, row := range rows {
		r := make(table.Row, len(columns))
		for i := range columns {
			if i < len(row) {
				r[i] = truncateCell(row[i], columns[i].maxWidth)
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func truncateCell(value string, maxWidth int) string {
	if maxWidth <= 0 || text.StringWidthWithoutEscSequences(value) <= maxWidth {
		return value
	}
	return text.Trim(value, maxWidth-1) + "…"
}
