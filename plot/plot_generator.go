// Package plot renders labeled series as PNG images for chat delivery.
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pivolan/data_agent/domain/models"
)

var ErrNoSeries = errors.New("no series data to plot")

// RenderPNG draws a bar or line payload as a PNG. Table payloads have no
// image form and return ErrNoSeries.
func RenderPNG(payload models.VisualizationPayload, title string) ([]byte, error) {
	if len(payload.Data) == 0 {
		return nil, ErrNoSeries
	}
	switch payload.Type {
	case models.VizBar:
		return renderBarPNG(payload.Data, title)
	case models.VizLine:
		return renderLinePNG(payload.Data, title)
	}
	return nil, ErrNoSeries
}

func renderBarPNG(data []models.LabeledValue, title string) ([]byte, error) {
	bars := make([]chart.Value, len(data))
	for i, p := range data {
		bars[i] = chart.Value{
			Value: p.Value,
			Label: p.Label,
			Style: chart.Style{FillColor: drawing.ColorBlue.WithAlpha(150)},
		}
	}

	width, height := chartDimensions(len(data))
	graph := chart.BarChart{
		Title: title,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 120},
			FillColor: drawing.ColorWhite,
		},
		Width:    width,
		Height:   height,
		BarWidth: 40,
		XAxis:    chart.Style{TextRotationDegrees: 45},
		Bars:     bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %v", err)
	}
	return buf.Bytes(), nil
}

func renderLinePNG(data []models.LabeledValue, title string) ([]byte, error) {
	xValues := make([]float64, len(data))
	yValues := make([]float64, len(data))
	labels := make([]string, len(data))
	for i, p := range data {
		xValues[i] = float64(i)
		yValues[i] = p.Value
		labels[i] = p.Label
	}

	width, height := chartDimensions(len(data))
	graph := chart.Chart{
		Title: title,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 120},
			FillColor: drawing.ColorWhite,
		},
		Width:  width,
		Height: height,
		XAxis: chart.XAxis{
			Style: chart.Style{TextRotationDegrees: 45},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					i := int(math.Round(f))
					if i >= 0 && i < len(labels) && f == math.Round(f) {
						return labels[i]
					}
				}
				return ""
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xValues,
				YValues: yValues,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2,
				},
			},
		},
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render line chart: %v", err)
	}
	return buf.Bytes(), nil
}

// chartDimensions scales the canvas with the number of points so labels stay
// readable on small series and the image stays bounded on large ones.
func chartDimensions(points int) (width, height int) {
	width = points*60 + 200
	if width < 800 {
		width = 800
	}
	if width > 2048 {
		width = 2048
	}
	height = int(float64(width) * 9.0 / 16.0)
	return width, height
}
