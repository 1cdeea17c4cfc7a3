package plot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pivolan/data_agent/domain/models"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G'}

func TestRenderBarPNG(t *testing.T) {
	payload := models.VisualizationPayload{
		Type: models.VizBar,
		Data: []models.LabeledValue{
			{Label: "north", Value: 13},
			{Label: "south", Value: 5},
		},
	}

	png, err := RenderPNG(payload, "sales by region")
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader))
}

func TestRenderLinePNG(t *testing.T) {
	payload := models.VisualizationPayload{
		Type: models.VizLine,
		Data: []models.LabeledValue{
			{Label: "2024-01", Value: 10},
			{Label: "2024-02", Value: 20},
			{Label: "2024-03", Value: 15},
		},
	}

	png, err := RenderPNG(payload, "sales trend")
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngHeader))
}

func TestRenderTablePayload(t *testing.T) {
	payload := models.VisualizationPayload{Type: models.VizTable}
	_, err := RenderPNG(payload, "stats")
	assert.ErrorIs(t, err, ErrNoSeries)
}

func TestRenderEmptySeries(t *testing.T) {
	payload := models.VisualizationPayload{Type: models.VizBar}
	_, err := RenderPNG(payload, "empty")
	assert.ErrorIs(t, err, ErrNoSeries)
}
