// Package viz converts analysis results into renderable payloads: labeled
// bar/line series or table data. Pure mapping, no error conditions; a result
// with no data produces an empty payload of the mapped type.
package viz

import (
	"fmt"

	"github.com/pivolan/data_agent/domain/models"
)

// Build maps an analysis result to its visualization payload.
func Build(result models.AnalysisResult) models.VisualizationPayload {
	switch result.Op {
	case models.OpGroupAgg:
		return barPayload(groupSeries(result.Groups))
	case models.OpTopN:
		return barPayload(topSeries(result.TopRows))
	case models.OpTrend:
		return linePayload(trendSeries(result.Trend))
	case models.OpComparison:
		return comparisonTable(result.Comparison)
	case models.OpCorrelation:
		return correlationTable(result.Correlation)
	default:
		return statsTable(result.Stats)
	}
}

func barPayload(data []models.LabeledValue) models.VisualizationPayload {
	return models.VisualizationPayload{Type: models.VizBar, Data: data}
}

func linePayload(data []models.LabeledValue) models.VisualizationPayload {
	return models.VisualizationPayload{Type: models.VizLine, Data: data}
}

func groupSeries(groups []models.GroupValue) []models.LabeledValue {
	out := make([]models.LabeledValue, len(groups))
	for i, g := range groups {
		out[i] = models.LabeledValue{Label: g.Label, Value: g.Value}
	}
	return out
}

func topSeries(rows []models.TopRow) []models.LabeledValue {
	out := make([]models.LabeledValue, len(rows))
	for i, r := range rows {
		out[i] = models.LabeledValue{Label: r.Label, Value: r.Value}
	}
	return out
}

func trendSeries(points []models.TrendPoint) []models.LabeledValue {
	out := make([]models.LabeledValue, len(points))
	for i, p := range points {
		out[i] = models.LabeledValue{Label: p.Bucket, Value: p.Value}
	}
	return out
}

func statsTable(stats []models.ColumnProfile) models.VisualizationPayload {
	payload := models.VisualizationPayload{
		Type:    models.VizTable,
		Columns: []string{"column", "type", "count", "nulls", "distinct", "min", "max", "mean", "median", "std_dev"},
	}
	for _, c := range stats {
		payload.Table = append(payload.Table, map[string]interface{}{
			"column":   c.Name,
			"type":     c.Type.String(),
			"count":    c.Count,
			"nulls":    c.Nulls,
			"distinct": c.Distinct,
			"min":      formatStat(c.Min),
			"max":      formatStat(c.Max),
			"mean":     formatStat(c.Mean),
			"median":   formatStat(c.Median),
			"std_dev":  formatStat(c.StdDev),
		})
	}
	return payload
}

func comparisonTable(cmp *models.ComparisonResult) models.VisualizationPayload {
	payload := models.VisualizationPayload{
		Type:    models.VizTable,
		Columns: []string{"measure", "value"},
	}
	if cmp == nil {
		return payload
	}
	payload.Table = []map[string]interface{}{
		{"measure": cmp.LabelA, "value": formatStat(cmp.ValueA)},
		{"measure": cmp.LabelB, "value": formatStat(cmp.ValueB)},
		{"measure": "difference", "value": formatStat(cmp.Difference)},
		{"measure": "ratio", "value": formatStat(cmp.Ratio)},
	}
	return payload
}

func correlationTable(corr *models.CorrelationResult) models.VisualizationPayload {
	payload := models.VisualizationPayload{
		Type:    models.VizTable,
		Columns: []string{"column_x", "column_y", "coefficient", "sample_size"},
	}
	if corr == nil {
		return payload
	}
	coeff := "undefined"
	if corr.Coefficient != nil {
		coeff = fmt.Sprintf("%.3f", *corr.Coefficient)
	}
	payload.Table = []map[string]interface{}{{
		"column_x":    corr.ColumnX,
		"column_y":    corr.ColumnY,
		"coefficient": coeff,
		"sample_size": corr.SampleSize,
	}}
	return payload
}

func formatStat(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
