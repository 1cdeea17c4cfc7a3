package main

import (
	"fmt"
	"strings"

	"github.com/pivolan/data_agent/domain/models"
)

// composeAnswer builds the final answer text from the result's summary
// fragment. Phrasing is deterministic; no language model sits in the numeric
// path.
func composeAnswer(result models.AnalysisResult, payload models.VisualizationPayload) string {
	if result.NoData {
		return result.Summary + " Try rephrasing the question or check the data quality report."
	}

	lines := []string{result.Summary}
	switch payload.Type {
	case models.VizBar:
		if len(payload.Data) > 0 {
			lines = append(lines, "The bar chart shows the computed value per label.")
		}
	case models.VizLine:
		if len(payload.Data) > 0 {
			lines = append(lines, "The line chart shows how the value develops over time.")
		}
	case models.VizTable:
		if len(payload.Table) > 0 {
			lines = append(lines, "Details are in the table below.")
		}
	}
	return strings.Join(lines, "\n\n")
}

// describeReport summarizes quality issues for upload responses and chat.
func describeReport(report *models.DataQualityReport) string {
	if report == nil || len(report.Issues) == 0 {
		return "No data quality issues detected."
	}
	lines := make([]string, 0, len(report.Issues)+1)
	lines = append(lines, fmt.Sprintf("Detected %d data quality issue(s):", len(report.Issues)))
	for _, issue := range report.Issues {
		lines = append(lines, "- "+issue.Detail)
	}
	return strings.Join(lines, "\n")
}
