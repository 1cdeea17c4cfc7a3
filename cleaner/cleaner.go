// Package cleaner turns raw tables into canonical typed tables plus a
// data-quality report. Malformed input degrades to nulls and flags; the only
// abort is a table with no usable columns at all.
package cleaner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pivolan/data_agent/domain/models"
)

// ErrNoUsableColumns is the sole cleaning failure: nothing survived header
// normalization.
var ErrNoUsableColumns = errors.New("no usable columns")

// Options holds the cleaning thresholds. Defaults mirror config.
type Options struct {
	MaxNullRatio      float64
	MaxDistinctRatio  float64
	CardinalityFloor  int
	CardinalityRowMin int
}

func DefaultOptions() Options {
	return Options{
		MaxNullRatio:      0.3,
		MaxDistinctRatio:  0.5,
		CardinalityFloor:  2,
		CardinalityRowMin: 100,
	}
}

// Clean normalizes headers, infers and coerces column types, drops empty and
// duplicate rows, and reports quality issues. The result is immutable by
// convention: nothing downstream writes to it.
func Clean(raw models.RawTable, opts Options) (*models.CanonicalTable, *models.DataQualityReport, error) {
	names, generated := NormalizeHeaders(raw.Headers)

	usable := usableColumns(raw, names, generated)
	if len(usable) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoUsableColumns, raw.Identity())
	}

	// Infer a type per usable column from all non-null values.
	specs := make([]models.ColumnSpec, 0, len(usable))
	for _, ci := range usable {
		var nonNull []string
		for _, row := range raw.Rows {
			if ci < len(row) && !IsNull(row[ci]) {
				nonNull = append(nonNull, row[ci])
			}
		}
		specs = append(specs, models.ColumnSpec{
			Name:      names[ci],
			RawHeader: raw.Headers[ci],
			Type:      InferColumnType(nonNull, opts.MaxDistinctRatio),
			Generated: generated[ci],
		})
	}

	// Coerce every cell; unparseable cells become null.
	rows := make([][]interface{}, 0, len(raw.Rows))
	emptyRows := 0
	duplicates := 0
	seen := map[string]bool{}
	for _, rawRow := range raw.Rows {
		row := make([]interface{}, len(usable))
		allNull := true
		for i, ci := range usable {
			var cell string
			if ci < len(rawRow) {
				cell = rawRow[ci]
			}
			row[i] = Coerce(cell, specs[i].Type)
			if row[i] != nil {
				allNull = false
			}
		}
		if allNull {
			emptyRows++
			continue
		}
		fp := fingerprint(row)
		if seen[fp] {
			duplicates++
			continue
		}
		seen[fp] = true
		rows = append(rows, row)
	}

	// Observed nullability per column.
	nulls := make([]int, len(specs))
	for _, row := range rows {
		for i, cell := range row {
			if cell == nil {
				nulls[i]++
			}
		}
	}
	for i := range specs {
		specs[i].Nullable = nulls[i] > 0
	}

	table := &models.CanonicalTable{
		FileID:  raw.FileID,
		Sheet:   raw.Sheet,
		Columns: specs,
		Rows:    rows,
	}
	report := detectIssues(table, nulls, emptyRows, duplicates, opts)
	return table, report, nil
}

// usableColumns returns indexes of columns worth keeping. A column with a
// blank header and not a single non-null cell carries no information and is
// dropped; a file made only of such columns fails with ErrNoUsableColumns.
func usableColumns(raw models.RawTable, names []string, generated []bool) []int {
	var usable []int
	for ci := range names {
		if !generated[ci] {
			usable = append(usable, ci)
			continue
		}
		for _, row := range raw.Rows {
			if ci < len(row) && !IsNull(row[ci]) {
				usable = append(usable, ci)
				break
			}
		}
	}
	return usable
}

// fingerprint encodes a row injectively so only exact duplicates collide.
// Strings are length-prefixed; the other cell types have fixed,
// separator-free representations.
func fingerprint(row []interface{}) string {
	var b strings.Builder
	for _, cell := range row {
		switch v := cell.(type) {
		case nil:
			b.WriteString("n|")
		case string:
			fmt.Fprintf(&b, "s%d:%s|", len(v), v)
		case time.Time:
			fmt.Fprintf(&b, "t%d|", v.UnixNano())
		default:
			fmt.Fprintf(&b, "%T:%v|", cell, cell)
		}
	}
	return b.String()
}

func detectIssues(table *models.CanonicalTable, nulls []int, emptyRows, duplicates int, opts Options) *models.DataQualityReport {
	report := &models.DataQualityReport{}
	rowCount := len(table.Rows)

	if emptyRows > 0 {
		report.Issues = append(report.Issues, models.QualityIssue{
			Kind:   models.IssueEmptyRows,
			Count:  emptyRows,
			Detail: fmt.Sprintf("dropped %d fully empty rows", emptyRows),
		})
	}
	if duplicates > 0 {
		report.Issues = append(report.Issues, models.QualityIssue{
			Kind:   models.IssueDuplicateRows,
			Count:  duplicates,
			Detail: fmt.Sprintf("removed %d duplicate rows, kept first occurrence", duplicates),
		})
	}

	for i, spec := range table.Columns {
		if spec.Generated {
			report.Issues = append(report.Issues, models.QualityIssue{
				Column: spec.Name,
				Kind:   models.IssueUnnamedColumn,
				Detail: fmt.Sprintf("column '%s' had no header, name was generated", spec.Name),
			})
		}
		if rowCount > 0 {
			ratio := float64(nulls[i]) / float64(rowCount)
			if ratio > opts.MaxNullRatio {
				report.Issues = append(report.Issues, models.QualityIssue{
					Column: spec.Name,
					Kind:   models.IssueHighMissing,
					Count:  nulls[i],
					Detail: fmt.Sprintf("column '%s' has %.1f%% missing values", spec.Name, ratio*100),
				})
			}
		}
		if spec.Type == models.TypeCategorical && rowCount > opts.CardinalityRowMin {
			distinct := distinctCount(table, i)
			if distinct < opts.CardinalityFloor {
				report.Issues = append(report.Issues, models.QualityIssue{
					Column: spec.Name,
					Kind:   models.IssueLowVariety,
					Count:  distinct,
					Detail: fmt.Sprintf("column '%s' has only %d distinct values", spec.Name, distinct),
				})
			}
		}
	}
	return report
}

func distinctCount(table *models.CanonicalTable, col int) int {
	distinct := map[interface{}]bool{}
	for _, row := range table.Rows {
		if row[col] != nil {
			distinct[row[col]] = true
		}
	}
	return len(distinct)
}
