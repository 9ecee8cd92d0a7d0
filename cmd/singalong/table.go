package main

import (
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxTextWidth wraps long lyric lines instead of stretching the table.
const maxTextWidth = 60

// renderTable draws rows under headers. Columns listed in rightAligned
// (1-based) are right aligned; short rows are padded.
func renderTable(headers []string, rows [][]string, rightAligned ...int) string {
	if len(headers) == 0 {
		return ""
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(headers, len(headers)))
	for _, row := range rows {
		tw.AppendRow(toRow(row, len(headers)))
	}

	configs := make([]table.ColumnConfig, len(headers))
	for i := range configs {
		configs[i] = table.ColumnConfig{
			Number:           i + 1,
			AlignHeader:      text.AlignLeft,
			WidthMax:         maxTextWidth,
			WidthMaxEnforcer: text.WrapSoft,
		}
		if slices.Contains(rightAligned, i+1) {
			configs[i].Align = text.AlignRight
		}
	}
	tw.SetColumnConfigs(configs)
	return tw.Render() + "\n"
}

func toRow(cells []string, width int) table.Row {
	row := make(table.Row, width)
	for i := range row {
		row[i] = ""
		if i < len(cells) {
			row[i] = cells[i]
		}
	}
	return row
}

// renderPairs renders label/value rows without a header or borders.
func renderPairs(pairs [][2]string) string {
	tw := table.NewWriter()
	style := table.StyleLight
	style.Options.DrawBorder = false
	style.Options.SeparateColumns = false
	tw.SetStyle(style)
	for _, pair := range pairs {
		tw.AppendRow(table.Row{pair[0], pair[1]})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: maxTextWidth, WidthMaxEnforcer: text.WrapSoft},
	})
	return tw.Render() + "\n"
}
