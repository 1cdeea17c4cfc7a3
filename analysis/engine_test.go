package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pivolan/data_agent/domain/models"
	"github.com/pivolan/data_agent/profile"
)

func newTestEngine() *Engine {
	return NewEngine(NewMemoryCache(time.Hour, nil), profile.DefaultOptions())
}

func salesTable() *models.CanonicalTable {
	day := func(d int) time.Time {
		return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
	}
	return &models.CanonicalTable{
		FileID: "f1",
		Columns: []models.ColumnSpec{
			{Name: "region", Type: models.TypeCategorical},
			{Name: "sales", Type: models.TypeInteger, Nullable: true},
			{Name: "day", Type: models.TypeDate},
		},
		Rows: [][]interface{}{
			{"A", int64(10), day(1)},
			{"B", int64(5), day(2)},
			{"A", int64(3), day(3)},
			{"A", nil, day(4)},
		},
	}
}

func TestGroupAggregationSum(t *testing.T) {
	e := newTestEngine()
	result, _, cached := e.Run(salesTable(), models.AnalysisRequest{
		Op:      models.OpGroupAgg,
		GroupBy: "region",
		Metric:  "sales",
		Agg:     models.AggSum,
	})

	assert.False(t, cached)
	assert.False(t, result.NoData)
	assert.Len(t, result.Groups, 2)
	// descending by aggregate value
	assert.Equal(t, models.GroupValue{Label: "A", Value: 13, Count: 3}, result.Groups[0])
	assert.Equal(t, models.GroupValue{Label: "B", Value: 5, Count: 1}, result.Groups[1])
}

func TestGroupAggregationNullGroupLabel(t *testing.T) {
	table := salesTable()
	table.Rows = append(table.Rows, []interface{}{nil, int64(7), time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)})

	e := newTestEngine()
	result, _, _ := e.Run(table, models.AnalysisRequest{
		Op:      models.OpGroupAgg,
		GroupBy: "region",
		Metric:  "sales",
		Agg:     models.AggSum,
	})

	labels := map[string]bool{}
	for _, g := range result.Groups {
		labels[g.Label] = true
	}
	assert.True(t, labels["(null)"])
}

func TestGroupAggregationCountWithoutMetric(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:      models.OpGroupAgg,
		GroupBy: "region",
		Agg:     models.AggCount,
	})

	assert.Equal(t, models.GroupValue{Label: "A", Value: 3, Count: 3}, result.Groups[0])
}

func TestTopN(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:     models.OpTopN,
		Metric: "sales",
		N:      2,
	})

	assert.Len(t, result.TopRows, 2)
	assert.Equal(t, "A", result.TopRows[0].Label)
	assert.Equal(t, 10.0, result.TopRows[0].Value)
	assert.Equal(t, 5.0, result.TopRows[1].Value)
}

func TestTopNTiesKeepRowOrder(t *testing.T) {
	table := &models.CanonicalTable{
		FileID: "f1",
		Columns: []models.ColumnSpec{
			{Name: "name", Type: models.TypeText},
			{Name: "score", Type: models.TypeInteger},
		},
		Rows: [][]interface{}{
			{"a", int64(3)},
			{"b", int64(9)},
			{"c", int64(1)},
			{"d", int64(9)},
		},
	}

	e := newTestEngine()
	result, _, _ := e.Run(table, models.AnalysisRequest{
		Op:     models.OpTopN,
		Metric: "score",
		N:      2,
	})

	// the two 9s keep their original relative order
	assert.Equal(t, "b", result.TopRows[0].Label)
	assert.Equal(t, "d", result.TopRows[1].Label)
}

func TestTopNAscending(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:        models.OpTopN,
		Metric:    "sales",
		N:         1,
		Ascending: true,
	})

	assert.Equal(t, 3.0, result.TopRows[0].Value)
}

func TestTopNSkipsNullMetric(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:     models.OpTopN,
		Metric: "sales",
		N:      10,
	})

	// one of four rows has a null metric
	assert.Len(t, result.TopRows, 3)
}

func TestTrendDailyBuckets(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:         models.OpTrend,
		TimeColumn: "day",
		Metric:     "sales",
		Agg:        models.AggSum,
	})

	assert.Equal(t, "day", result.TrendUnit)
	assert.Len(t, result.Trend, 3) // the null-metric row contributes nothing
	assert.Equal(t, "2024-01-01", result.Trend[0].Bucket)
	assert.Equal(t, 10.0, result.Trend[0].Value)
	// chronological order
	assert.True(t, result.Trend[0].Start.Before(result.Trend[1].Start))
}

func TestTrendCountsRowsWithoutMetric(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:         models.OpTrend,
		TimeColumn: "day",
		Agg:        models.AggCount,
	})

	assert.Len(t, result.Trend, 4)
	assert.Equal(t, 1.0, result.Trend[0].Value)
}

func TestGranularity(t *testing.T) {
	tests := []struct {
		span time.Duration
		want string
	}{
		{24 * time.Hour, "day"},
		{59 * 24 * time.Hour, "day"},
		{90 * 24 * time.Hour, "month"},
		{3 * 365 * 24 * time.Hour, "year"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, granularity(tt.span))
	}
}

func TestComparisonExplicitLabels(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:       models.OpComparison,
		GroupBy:  "region",
		Metric:   "sales",
		Agg:      models.AggMean,
		CompareA: "A",
		CompareB: "B",
	})

	cmp := result.Comparison
	assert.Equal(t, "A", cmp.LabelA)
	assert.Equal(t, 6.5, *cmp.ValueA) // null excluded from the mean
	assert.Equal(t, 5.0, *cmp.ValueB)
	assert.Equal(t, 1.5, *cmp.Difference)
	assert.Equal(t, 1.3, *cmp.Ratio)
}

func TestComparisonDefaultsToFrequentValues(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:      models.OpComparison,
		GroupBy: "region",
		Metric:  "sales",
		Agg:     models.AggSum,
	})

	cmp := result.Comparison
	assert.Equal(t, "A", cmp.LabelA)
	assert.Equal(t, "B", cmp.LabelB)
	assert.Equal(t, 13.0, *cmp.ValueA)
}

func TestComparisonRatioNilOnZero(t *testing.T) {
	table := &models.CanonicalTable{
		FileID: "f1",
		Columns: []models.ColumnSpec{
			{Name: "g", Type: models.TypeCategorical},
			{Name: "v", Type: models.TypeInteger},
		},
		Rows: [][]interface{}{
			{"x", int64(4)},
			{"y", int64(0)},
		},
	}

	e := newTestEngine()
	result, _, _ := e.Run(table, models.AnalysisRequest{
		Op:       models.OpComparison,
		GroupBy:  "g",
		Metric:   "v",
		Agg:      models.AggSum,
		CompareA: "x",
		CompareB: "y",
	})

	cmp := result.Comparison
	assert.Equal(t, 4.0, *cmp.Difference)
	assert.Nil(t, cmp.Ratio)
}

func TestCorrelationPerfectPositive(t *testing.T) {
	table := &models.CanonicalTable{
		FileID: "f1",
		Columns: []models.ColumnSpec{
			{Name: "x", Type: models.TypeInteger},
			{Name: "y", Type: models.TypeInteger},
		},
		Rows: [][]interface{}{
			{int64(1), int64(2)},
			{int64(2), int64(4)},
			{int64(3), int64(6)},
		},
	}

	e := newTestEngine()
	result, _, _ := e.Run(table, models.AnalysisRequest{
		Op:      models.OpCorrelation,
		Columns: []string{"x", "y"},
	})

	corr := result.Correlation
	assert.Equal(t, 3, corr.SampleSize)
	assert.InDelta(t, 1.0, *corr.Coefficient, 1e-9)
}

func TestCorrelationTooFewPairs(t *testing.T) {
	table := &models.CanonicalTable{
		FileID: "f1",
		Columns: []models.ColumnSpec{
			{Name: "x", Type: models.TypeInteger},
			{Name: "y", Type: models.TypeInteger},
		},
		Rows: [][]interface{}{
			{int64(1), int64(2)},
			{int64(2), nil},
		},
	}

	e := newTestEngine()
	result, _, _ := e.Run(table, models.AnalysisRequest{
		Op:      models.OpCorrelation,
		Columns: []string{"x", "y"},
	})

	assert.Equal(t, 1, result.Correlation.SampleSize)
	assert.Nil(t, result.Correlation.Coefficient)
}

func TestUnknownColumnDegradesToSummary(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:      models.OpGroupAgg,
		GroupBy: "no_such_column",
		Metric:  "sales",
		Agg:     models.AggSum,
	})

	assert.Equal(t, models.OpSummaryStats, result.Op)
	assert.NotEmpty(t, result.Stats)
}

func TestSummaryStatsFiltered(t *testing.T) {
	e := newTestEngine()
	result, _, _ := e.Run(salesTable(), models.AnalysisRequest{
		Op:      models.OpSummaryStats,
		Columns: []string{"sales"},
	})

	assert.Len(t, result.Stats, 1)
	assert.Equal(t, "sales", result.Stats[0].Name)
}

func TestInterpretCorrelation(t *testing.T) {
	assert.Equal(t, "strong", interpretCorrelation(-0.9))
	assert.Equal(t, "moderate", interpretCorrelation(0.5))
	assert.Equal(t, "weak", interpretCorrelation(0.25))
	assert.Equal(t, "very weak", interpretCorrelation(0.1))
}
