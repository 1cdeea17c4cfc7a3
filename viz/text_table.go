package viz

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/pivolan/data_agent/domain/models"
)

// RenderText renders a payload as an ascii table for chat replies. Series
// payloads become label/value tables.
func RenderText(payload models.VisualizationPayload) string {
	t := table.NewWriter()

	switch payload.Type {
	case models.VizBar, models.VizLine:
		t.AppendHeader(table.Row{"label", "value"})
		for _, p := range payload.Data {
			t.AppendRow(table.Row{p.Label, fmt.Sprintf("%.2f", p.Value)})
		}
	default:
		header := make(table.Row, len(payload.Columns))
		for i, c := range payload.Columns {
			header[i] = c
		}
		t.AppendHeader(header)
		for _, rec := range payload.Table {
			row := make(table.Row, len(payload.Columns))
			for i, c := range payload.Columns {
				row[i] = fmt.Sprintf("%v", rec[c])
			}
			t.AppendRow(row)
		}
	}

	t.SetStyle(table.StyleDefault)
	return t.Render()
}

// RenderProfileText renders a table profile for chat replies.
func RenderProfileText(prof models.TableProfile) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"column", "type", "count", "nulls", "distinct", "min", "q25", "median", "q75", "max", "mean", "std"})
	for _, c := range prof.Columns {
		t.AppendRow(table.Row{
			c.Name, c.Type.String(), c.Count, c.Nulls, c.Distinct,
			formatStat(c.Min), formatStat(c.Q25), formatStat(c.Median), formatStat(c.Q75),
			formatStat(c.Max), formatStat(c.Mean), formatStat(c.StdDev),
		})
	}
	t.SetStyle(table.StyleDefault)
	return t.Render()
}
