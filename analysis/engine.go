// Package analysis executes typed analysis requests against canonical
// tables. All operations are pure reads over the table; the result cache is
// the only shared mutable state.
package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pivolan/data_agent/domain/models"
	"github.com/pivolan/data_agent/profile"
	"github.com/pivolan/data_agent/viz"
)

const nullGroupLabel = "(null)"

type Engine struct {
	cache    ResultCache
	profOpts profile.Options
}

func NewEngine(cache ResultCache, profOpts profile.Options) *Engine {
	return &Engine{cache: cache, profOpts: profOpts}
}

// Run executes a request, consulting the cache first and writing through on
// a miss. The returned bool reports a cache hit.
func (e *Engine) Run(table *models.CanonicalTable, req models.AnalysisRequest) (models.AnalysisResult, models.VisualizationPayload, bool) {
	key := CacheKey(table.Identity(), req)
	if e.cache != nil {
		if entry, ok := e.cache.Get(key); ok {
			return entry.Result, entry.Payload, true
		}
	}

	result := e.compute(table, req)
	payload := viz.Build(result)
	if e.cache != nil {
		e.cache.Put(key, result, payload)
	}
	return result, payload, false
}

func (e *Engine) compute(table *models.CanonicalTable, req models.AnalysisRequest) models.AnalysisResult {
	switch req.Op {
	case models.OpGroupAgg:
		if table.ColumnIndex(req.GroupBy) >= 0 {
			return e.groupAggregation(table, req)
		}
	case models.OpTrend:
		if table.ColumnIndex(req.TimeColumn) >= 0 {
			return e.trendOverTime(table, req)
		}
	case models.OpTopN:
		if table.ColumnIndex(req.Metric) >= 0 {
			return e.topN(table, req)
		}
	case models.OpComparison:
		if table.ColumnIndex(req.GroupBy) >= 0 && table.ColumnIndex(req.Metric) >= 0 {
			return e.comparison(table, req)
		}
	case models.OpCorrelation:
		if len(req.Columns) == 2 && table.ColumnIndex(req.Columns[0]) >= 0 && table.ColumnIndex(req.Columns[1]) >= 0 {
			return e.correlation(table, req)
		}
	case models.OpSummaryStats:
		return e.summaryStats(table, req)
	}
	// Structurally impossible request: degrade to summary statistics so the
	// question still yields an answer.
	return e.summaryStats(table, models.AnalysisRequest{Op: models.OpSummaryStats})
}

func (e *Engine) summaryStats(table *models.CanonicalTable, req models.AnalysisRequest) models.AnalysisResult {
	prof := profile.Build(table, e.profOpts)

	stats := prof.Columns
	if len(req.Columns) > 0 {
		var filtered []models.ColumnProfile
		for _, c := range prof.Columns {
			for _, want := range req.Columns {
				if c.Name == want {
					filtered = append(filtered, c)
					break
				}
			}
		}
		if len(filtered) > 0 {
			stats = filtered
		}
	}

	return models.AnalysisResult{
		Op:    models.OpSummaryStats,
		Stats: stats,
		Summary: fmt.Sprintf("The dataset has %d rows and %d columns; statistics cover %d column(s).",
			len(table.Rows), len(table.Columns), len(stats)),
	}
}

func (e *Engine) groupAggregation(table *models.CanonicalTable, req models.AnalysisRequest) models.AnalysisResult {
	groupIdx := table.ColumnIndex(req.GroupBy)
	metricIdx := table.ColumnIndex(req.Metric)

	type bucket struct {
		values []float64
		rows   int
	}
	buckets := map[string]*bucket{}
	for _, row := range table.Rows {
		label := nullGroupLabel
		if row[groupIdx] != nil {
			label = cellString(row[groupIdx])
		}
		b := buckets[label]
		if b == nil {
			b = &bucket{}
			buckets[label] = b
		}
		b.rows++
		if metricIdx >= 0 {
			if f, ok := asFloat(row[metricIdx]); ok {
				b.values = append(b.values, f)
			}
		}
	}

	var groups []models.GroupValue
	for label, b := range buckets {
		var value *float64
		if req.Agg == models.AggCount && metricIdx < 0 {
			value = ptr(float64(b.rows))
		} else {
			value = aggregate(b.values, req.Agg)
		}
		if value == nil {
			continue // no eligible rows for this group
		}
		groups = append(groups, models.GroupValue{Label: label, Value: *value, Count: b.rows})
	}
	if len(groups) == 0 {
		return noData(models.OpGroupAgg)
	}

	// Descending by aggregate, ties by label ascending.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Value != groups[j].Value {
			return groups[i].Value > groups[j].Value
		}
		return groups[i].Label < groups[j].Label
	})

	metricName := req.Metric
	if metricName == "" {
		metricName = "rows"
	}
	return models.AnalysisResult{
		Op:     models.OpGroupAgg,
		Groups: groups,
		Summary: fmt.Sprintf("Computed %s of %s by %s across %d groups; highest is %s (%.2f).",
			req.Agg, metricName, req.GroupBy, len(groups), groups[0].Label, groups[0].Value),
	}
}

func (e *Engine) trendOverTime(table *models.CanonicalTable, req models.AnalysisRequest) models.AnalysisResult {
	timeIdx := table.ColumnIndex(req.TimeColumn)
	metricIdx := table.ColumnIndex(req.Metric)

	type point struct {
		t time.Time
		v float64
	}
	var points []point
	for _, row := range table.Rows {
		t, ok := row[timeIdx].(time.Time)
		if !ok {
			continue
		}
		if metricIdx >= 0 {
			if f, ok := asFloat(row[metricIdx]); ok {
				points = append(points, point{t, f})
			}
		} else {
			points = append(points, point{t, 1})
		}
	}
	if len(points) == 0 {
		return noData(models.OpTrend)
	}

	minT, maxT := points[0].t, points[0].t
	for _, p := range points[1:] {
		if p.t.Before(minT) {
			minT = p.t
		}
		if p.t.After(maxT) {
			maxT = p.t
		}
	}
	unit := granularity(maxT.Sub(minT))

	buckets := map[string][]float64{}
	starts := map[string]time.Time{}
	for _, p := range points {
		label, start := truncate(p.t, unit)
		buckets[label] = append(buckets[label], p.v)
		starts[label] = start
	}

	agg := req.Agg
	if agg == "" {
		agg = models.AggSum
	}
	if metricIdx < 0 {
		agg = models.AggCount
	}

	var trend []models.TrendPoint
	for label, values := range buckets {
		value := aggregate(values, agg)
		if value == nil {
			continue
		}
		trend = append(trend, models.TrendPoint{
			Bucket: label,
			Start:  starts[label],
			Value:  *value,
			Count:  len(values),
		})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Start.Before(trend[j].Start) })

	metricName := req.Metric
	if metricName == "" {
		metricName = "rows"
	}
	return models.AnalysisResult{
		Op:        models.OpTrend,
		Trend:     trend,
		TrendUnit: unit,
		Summary: fmt.Sprintf("Aggregated %s of %s per %s across %d buckets from %s to %s.",
			agg, metricName, unit, len(trend), trend[0].Bucket, trend[len(trend)-1].Bucket),
	}
}

// granularity picks the bucket unit from the span of the date range.
func granularity(span time.Duration) string {
	switch {
	case span > 2*365*24*time.Hour:
		return "year"
	case span > 60*24*time.Hour:
		return "month"
	default:
		return "day"
	}
}

func truncate(t time.Time, unit string) (string, time.Time) {
	switch unit {
	case "year":
		start := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return t.Format("2006"), start
	case "month":
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return t.Format("2006-01"), start
	default:
		start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return t.Format("2006-01-02"), start
	}
}

func (e *Engine) topN(table *models.CanonicalTable, req models.AnalysisRequest) models.AnalysisResult {
	metricIdx := table.ColumnIndex(req.Metric)
	labelIdx := identifyingColumn(table, req.Metric)

	type entry struct {
		rowIdx int
		value  float64
	}
	var entries []entry
	for i, row := range table.Rows {
		if f, ok := asFloat(row[metricIdx]); ok {
			entries = append(entries, entry{i, f})
		}
	}
	if len(entries) == 0 {
		return noData(models.OpTopN)
	}

	// Stable sort keeps original row order on ties.
	sort.SliceStable(entries, func(i, j int) bool {
		if req.Ascending {
			return entries[i].value < entries[j].value
		}
		return entries[i].value > entries[j].value
	})

	n := req.N
	if n <= 0 {
		n = 10
	}
	if n > len(entries) {
		n = len(entries)
	}

	rows := make([]models.TopRow, n)
	for i := 0; i < n; i++ {
		en := entries[i]
		label := fmt.Sprintf("Row %d", en.rowIdx+1)
		fields := map[string]interface{}{req.Metric: en.value}
		if labelIdx >= 0 && table.Rows[en.rowIdx][labelIdx] != nil {
			label = cellString(table.Rows[en.rowIdx][labelIdx])
			fields[table.Columns[labelIdx].Name] = label
		}
		rows[i] = models.TopRow{Label: label, Value: en.value, Fields: fields}
	}

	direction := "highest"
	if req.Ascending {
		direction = "lowest"
	}
	return models.AnalysisResult{
		Op:      models.OpTopN,
		TopRows: rows,
		Summary: fmt.Sprintf("The %d %s values of %s range from %.2f to %.2f.",
			n, direction, req.Metric, rows[n-1].Value, rows[0].Value),
	}
}

// identifyingColumn picks the column used to label top-n rows: the first
// categorical or text column other than the metric, else any other column.
func identifyingColumn(table *models.CanonicalTable, metric string) int {
	for i, c := range table.Columns {
		if c.Name != metric && (c.Type == models.TypeCategorical || c.Type == models.TypeText) {
			return i
		}
	}
	for i, c := range table.Columns {
		if c.Name != metric {
			return i
		}
	}
	return -1
}

func (e *Engine) comparison(table *models.CanonicalTable, req models.AnalysisRequest) models.AnalysisResult {
	labelA, labelB := req.CompareA, req.CompareB
	if labelA == "" || labelB == "" {
		a, b := frequentValues(table, req.GroupBy)
		if labelA == "" {
			labelA = a
		}
		if labelB == "" {
			labelB = b
			if labelB == labelA {
				labelB = a
			}
		}
	}
	if labelA == "" || labelB == "" || labelA == labelB {
		return noData(models.OpComparison)
	}

	valueA := subsetAggregate(table, req.GroupBy, labelA, req.Metric, req.Agg)
	valueB := subsetAggregate(table, req.GroupBy, labelB, req.Metric, req.Agg)

	cmp := &models.ComparisonResult{
		LabelA: labelA,
		LabelB: labelB,
		ValueA: valueA,
		ValueB: valueB,
	}
	if valueA != nil && valueB != nil {
		cmp.Difference = ptr(*valueA - *valueB)
		if *valueB != 0 {
			cmp.Ratio = ptr(*valueA / *valueB)
		}
	}

	summary := fmt.Sprintf("Not enough data to compare %s between %s and %s.", req.Metric, labelA, labelB)
	if valueA != nil && valueB != nil {
		summary = fmt.Sprintf("Compared %s of %s: %s is %.2f, %s is %.2f.",
			req.Agg, req.Metric, labelA, *valueA, labelB, *valueB)
	}
	return models.AnalysisResult{
		Op:         models.OpComparison,
		Comparison: cmp,
		NoData:     valueA == nil && valueB == nil,
		Summary:    summary,
	}
}

// frequentValues returns the two most frequent non-null values of a column,
// ties broken by first appearance.
func frequentValues(table *models.CanonicalTable, column string) (string, string) {
	idx := table.ColumnIndex(column)
	counts := map[string]int{}
	firstSeen := map[string]int{}
	var order []string
	for i, row := range table.Rows {
		if row[idx] == nil {
			continue
		}
		v := cellString(row[idx])
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
	switch len(order) {
	case 0:
		return "", ""
	case 1:
		return order[0], ""
	}
	return order[0], order[1]
}

func subsetAggregate(table *models.CanonicalTable, groupBy, label, metric string, agg models.AggFunc) *float64 {
	groupIdx := table.ColumnIndex(groupBy)
	metricIdx := table.ColumnIndex(metric)
	var values []float64
	for _, row := range table.Rows {
		if row[groupIdx] == nil || cellString(row[groupIdx]) != label {
			continue
		}
		if f, ok := asFloat(row[metricIdx]); ok {
			values = append(values, f)
		}
	}
	return aggregate(values, agg)
}

func (e *Engine) correlation(table *models.CanonicalTable, req models.AnalysisRequest) models.AnalysisResult {
	xIdx := table.ColumnIndex(req.Columns[0])
	yIdx := table.ColumnIndex(req.Columns[1])

	var xs, ys []float64
	for _, row := range table.Rows {
		x, okX := asFloat(row[xIdx])
		y, okY := asFloat(row[yIdx])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}

	corr := &models.CorrelationResult{
		ColumnX:    req.Columns[0],
		ColumnY:    req.Columns[1],
		SampleSize: len(xs),
	}
	corr.Coefficient = pearson(xs, ys)

	summary := fmt.Sprintf("Correlation between %s and %s is undefined with only %d paired values.",
		corr.ColumnX, corr.ColumnY, corr.SampleSize)
	if corr.Coefficient != nil {
		summary = fmt.Sprintf("Pearson correlation between %s and %s is %.3f over %d paired values (%s).",
			corr.ColumnX, corr.ColumnY, *corr.Coefficient, corr.SampleSize, interpretCorrelation(*corr.Coefficient))
	}
	return models.AnalysisResult{
		Op:          models.OpCorrelation,
		Correlation: corr,
		Summary:     summary,
	}
}

// pearson returns nil for fewer than two pairs or zero variance.
func pearson(xs, ys []float64) *float64 {
	n := float64(len(xs))
	if n < 2 {
		return nil
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n
	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return nil
	}
	return ptr(cov / math.Sqrt(varX*varY))
}

func interpretCorrelation(c float64) string {
	switch a := math.Abs(c); {
	case a >= 0.7:
		return "strong"
	case a >= 0.4:
		return "moderate"
	case a >= 0.2:
		return "weak"
	default:
		return "very weak"
	}
}

func noData(op models.AnalysisOp) models.AnalysisResult {
	return models.AnalysisResult{
		Op:      op,
		NoData:  true,
		Summary: "No data matched this analysis.",
	}
}

// aggregate folds values with the given function, nil when no values exist.
// All aggregations ignore nulls; callers filter them before this point.
func aggregate(values []float64, agg models.AggFunc) *float64 {
	if agg == models.AggCount {
		return ptr(float64(len(values)))
	}
	if len(values) == 0 {
		return nil
	}
	switch agg {
	case models.AggMean:
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return ptr(sum / float64(len(values)))
	case models.AggMin:
		m := values[0]
		for _, v := range values[1:] {
			if v < m {
				m = v
			}
		}
		return ptr(m)
	case models.AggMax:
		m := values[0]
		for _, v := range values[1:] {
			if v > m {
				m = v
			}
		}
		return ptr(m)
	default: // sum
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		return ptr(sum)
	}
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
	default:
		return fmt.Sprintf("%v", v)
	}
}

func ptr(f float64) *float64 { return &f }
