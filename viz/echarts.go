package viz

import (
	"bytes"
	"fmt"
	"html"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/pivolan/data_agent/domain/models"
)

// RenderHTML renders a payload as a standalone HTML page. Bar and line
// payloads use echarts; table payloads fall back to a plain HTML table.
func RenderHTML(payload models.VisualizationPayload, title string) ([]byte, error) {
	switch payload.Type {
	case models.VizBar:
		return renderBarHTML(payload, title)
	case models.VizLine:
		return renderLineHTML(payload, title)
	default:
		return renderTableHTML(payload, title), nil
	}
}

func renderBarHTML(payload models.VisualizationPayload, title string) ([]byte, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: title}))

	labels := make([]string, len(payload.Data))
	values := make([]opts.BarData, len(payload.Data))
	for i, p := range payload.Data {
		labels[i] = p.Label
		values[i] = opts.BarData{Value: p.Value}
	}
	bar.SetXAxis(labels).AddSeries("value", values)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderLineHTML(payload models.VisualizationPayload, title string) ([]byte, error) {
	line := charts.NewLine()
	line.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: title}))

	labels := make([]string, len(payload.Data))
	values := make([]opts.LineData, len(payload.Data))
	for i, p := range payload.Data {
		labels[i] = p.Label
		values[i] = opts.LineData{Value: p.Value}
	}
	line.SetXAxis(labels).AddSeries("value", values)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderTableHTML(payload models.VisualizationPayload, title string) []byte {
	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><title>")
	buf.WriteString(html.EscapeString(title))
	buf.WriteString("</title></head><body><table border=\"1\"><tr>")
	for _, c := range payload.Columns {
		fmt.Fprintf(&buf, "<th>%s</th>", html.EscapeString(c))
	}
	buf.WriteString("</tr>")
	for _, rec := range payload.Table {
		buf.WriteString("<tr>")
		for _, c := range payload.Columns {
			fmt.Fprintf(&buf, "<td>%s</td>", html.EscapeString(fmt.Sprintf("%v", rec[c])))
		}
		buf.WriteString("</tr>")
	}
	buf.WriteString("</table></body></html>")
	return buf.Bytes()
}
