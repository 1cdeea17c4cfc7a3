package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pivolan/data_agent/domain/models"
)

func TestComposeAnswerWithBar(t *testing.T) {
	result := models.AnalysisResult{
		Op:      models.OpGroupAgg,
		Summary: "Computed sum of sales by region across 2 groups; highest is A (13.00).",
	}
	payload := models.VisualizationPayload{
		Type: models.VizBar,
		Data: []models.LabeledValue{{Label: "A", Value: 13}},
	}

	answer := composeAnswer(result, payload)
	assert.True(t, strings.HasPrefix(answer, result.Summary))
	assert.Contains(t, answer, "bar chart")
}

func TestComposeAnswerNoData(t *testing.T) {
	result := models.AnalysisResult{
		Op:      models.OpComparison,
		NoData:  true,
		Summary: "No data matched this analysis.",
	}

	answer := composeAnswer(result, models.VisualizationPayload{})
	assert.Contains(t, answer, "rephrasing")
}

func TestDescribeReport(t *testing.T) {
	report := &models.DataQualityReport{Issues: []models.QualityIssue{
		{Kind: models.IssueDuplicateRows, Count: 2, Detail: "removed 2 duplicate rows, kept first occurrence"},
	}}

	text := describeReport(report)
	assert.Contains(t, text, "1 data quality issue")
	assert.Contains(t, text, "duplicate rows")

	assert.Equal(t, "No data quality issues detected.", describeReport(nil))
}
