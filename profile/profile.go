// Package profile computes per-column descriptive statistics and a preview
// sample from a canonical table. Pure: no error conditions, no side effects.
package profile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/pivolan/data_agent/domain/models"
)

type Options struct {
	PreviewRows int // rows kept in the preview sample
	TopValues   int // most frequent values reported per categorical column
}

func DefaultOptions() Options {
	return Options{PreviewRows: 10, TopValues: 10}
}

// Build derives a TableProfile from a canonical table. Numeric statistics
// ignore nulls; a column with zero non-null values reports them as undefined.
func Build(table *models.CanonicalTable, opts Options) models.TableProfile {
	prof := models.TableProfile{RowCount: len(table.Rows)}

	for ci, spec := range table.Columns {
		col := models.ColumnProfile{Name: spec.Name, Type: spec.Type}

		distinct := map[interface{}]bool{}
		var numbers []float64
		for _, row := range table.Rows {
			cell := row[ci]
			if cell == nil {
				col.Nulls++
				continue
			}
			col.Count++
			distinct[cell] = true
			if f, ok := asFloat(cell); ok {
				numbers = append(numbers, f)
			}
		}
		col.Distinct = len(distinct)

		if spec.Type.IsNumeric() && len(numbers) > 0 {
			col.Min = ptr(minOf(numbers))
			col.Max = ptr(maxOf(numbers))
			col.Mean = ptr(mean(numbers))
			col.Median = ptr(median(numbers))
			col.Q25 = ptr(quantile(numbers, 0.25))
			col.Q75 = ptr(quantile(numbers, 0.75))
			col.StdDev = ptr(stdDev(numbers))
		}
		if spec.Type == models.TypeCategorical || spec.Type == models.TypeBoolean {
			col.TopValues = topValues(table, ci, opts.TopValues)
		}

		prof.Columns = append(prof.Columns, col)
	}

	prof.Preview = buildPreview(table, opts.PreviewRows)
	return prof
}

// topValues counts value frequencies and returns the k most frequent, ties
// broken by first-seen order.
func topValues(table *models.CanonicalTable, ci int, k int) []models.ValueCount {
	counts := map[string]int{}
	firstSeen := map[string]int{}
	var order []string
	for i, row := range table.Rows {
		cell := row[ci]
		if cell == nil {
			continue
		}
		v := cellString(cell)
		if _, ok := counts[v]; !ok {
			firstSeen[v] = i
			order = append(order, v)
		}
		counts[v]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		if counts[order[i]] != counts[order[j]] {
			return counts[order[i]] > counts[order[j]]
		}
		return firstSeen[order[i]] < firstSeen[order[j]]
	})
	if len(order) > k {
		order = order[:k]
	}
	out := make([]models.ValueCount, len(order))
	for i, v := range order {
		out[i] = models.ValueCount{Value: v, Count: counts[v]}
	}
	return out
}

func buildPreview(table *models.CanonicalTable, n int) []map[string]interface{} {
	if n > len(table.Rows) {
		n = len(table.Rows)
	}
	preview := make([]map[string]interface{}, n)
	for i := 0; i < n; i++ {
		rec := make(map[string]interface{}, len(table.Columns))
		for ci, spec := range table.Columns {
			cell := table.Rows[i][ci]
			if t, ok := cell.(time.Time); ok {
				cell = t.Format("2006-01-02 15:04:05")
			}
			rec[spec.Name] = cell
		}
		preview[i] = rec
	}
	return preview
}

func asFloat(cell interface{}) (float64, bool) {
	switch v := cell.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func minOf(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		if n < m {
			m = n
		}
	}
	return m
}

func maxOf(nums []float64) float64 {
	m := nums[0]
	for _, n := range nums[1:] {
		if n > m {
			m = n
		}
	}
	return m
}

func mean(nums []float64) float64 {
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return sum / float64(len(nums))
}

// median interpolates between the two middle values for even sample sizes.
func median(nums []float64) float64 {
	sorted := make([]float64, len(nums))
	copy(sorted, nums)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// quantile interpolates linearly between the surrounding order statistics.
func quantile(nums []float64, q float64) float64 {
	sorted := make([]float64, len(nums))
	copy(sorted, nums)
	sort.Float64s(sorted)

	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// stdDev is the population standard deviation.
func stdDev(nums []float64) float64 {
	m := mean(nums)
	sum := 0.0
	for _, n := range nums {
		d := n - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(nums)))
}

func ptr(f float64) *float64 { return &f }
