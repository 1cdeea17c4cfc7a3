// Package intent maps a free-text question plus table profile to a typed
// analysis request. Matching is rule-ordered and deterministic; no model is
// consulted, so the same question always resolves the same way. An
// unanswerable question degrades to summary statistics, never to an error.
package intent

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pivolan/data_agent/domain/models"
)

var (
	trendWords       = []string{"trend", "over time", "timeline", "time series", "by month", "by year", "by day"}
	topWords         = []string{"top ", "bottom ", "highest", "lowest", "best", "worst", "largest", "smallest"}
	bottomWords      = []string{"bottom", "lowest", "worst", "smallest", "minimum"}
	correlationWords = []string{"correlat", "relationship", "relate", "connected"}
	comparisonWords  = []string{"compare", "comparison", " vs ", " vs.", "versus", "difference"}
	aggWords         = []string{"average", "mean", "total", "sum", "count", "how many", "minimum", "maximum", "per "}
)

var topNPattern = regexp.MustCompile(`(?:top|bottom|best|worst|first|highest|lowest|largest|smallest)\s+(\d+)`)

// Resolve classifies the question and targets columns from the profile.
// Rule order matters: correlation is checked before comparison so that
// "correlation between x and y" does not route to comparison on "between".
func Resolve(question string, prof models.TableProfile) models.AnalysisRequest {
	q := " " + strings.ToLower(question) + " "
	matched := matchColumns(q, prof)

	switch {
	case containsAny(q, trendWords):
		if req, ok := resolveTrend(q, prof, matched); ok {
			return req
		}
	case containsAny(q, topWords):
		if req, ok := resolveTopN(q, prof, matched); ok {
			return req
		}
	case containsAny(q, correlationWords):
		if req, ok := resolveCorrelation(prof, matched); ok {
			return req
		}
	case containsAny(q, comparisonWords):
		if req, ok := resolveComparison(q, prof, matched); ok {
			return req
		}
	case containsAny(q, aggWords):
		if req, ok := resolveGroupAgg(q, prof, matched); ok {
			return req
		}
	}

	// Fallback: summary statistics, restricted to mentioned columns if any.
	return models.AnalysisRequest{Op: models.OpSummaryStats, Columns: matched}
}

func resolveTrend(q string, prof models.TableProfile, matched []string) (models.AnalysisRequest, bool) {
	timeCol := pickFirst(matched, prof.DateColumnNames())
	if timeCol == "" {
		return models.AnalysisRequest{}, false // no date column anywhere
	}
	req := models.AnalysisRequest{
		Op:         models.OpTrend,
		TimeColumn: timeCol,
		Agg:        models.AggSum,
	}
	req.Metric = pickMatched(matched, prof.NumericColumnNames())
	if req.Metric == "" {
		req.Agg = models.AggCount // no numeric column named: count rows per bucket
	}
	return req, true
}

func resolveTopN(q string, prof models.TableProfile, matched []string) (models.AnalysisRequest, bool) {
	metric := pickFirst(matched, prof.NumericColumnNames())
	if metric == "" {
		return models.AnalysisRequest{}, false
	}
	req := models.AnalysisRequest{
		Op:        models.OpTopN,
		Metric:    metric,
		N:         10,
		Ascending: containsAny(q, bottomWords),
	}
	if m := topNPattern.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			req.N = n
		}
	}
	return req, true
}

func resolveCorrelation(prof models.TableProfile, matched []string) (models.AnalysisRequest, bool) {
	numeric := prof.NumericColumnNames()
	var cols []string
	for _, m := range matched {
		if contains(numeric, m) {
			cols = append(cols, m)
		}
	}
	for _, c := range numeric {
		if len(cols) >= 2 {
			break
		}
		if !contains(cols, c) {
			cols = append(cols, c)
		}
	}
	if len(cols) < 2 {
		return models.AnalysisRequest{}, false
	}
	return models.AnalysisRequest{Op: models.OpCorrelation, Columns: cols[:2]}, true
}

func resolveComparison(q string, prof models.TableProfile, matched []string) (models.AnalysisRequest, bool) {
	group := pickFirst(matched, prof.CategoricalColumnNames())
	metric := pickFirst(matched, prof.NumericColumnNames())
	if group == "" || metric == "" {
		return models.AnalysisRequest{}, false
	}
	req := models.AnalysisRequest{
		Op:      models.OpComparison,
		Metric:  metric,
		GroupBy: group,
		Agg:     detectAgg(q, models.AggMean),
	}
	req.CompareA, req.CompareB = matchGroupValues(q, prof, group)
	return req, true
}

func resolveGroupAgg(q string, prof models.TableProfile, matched []string) (models.AnalysisRequest, bool) {
	group := pickFirst(matched, prof.CategoricalColumnNames())
	if group == "" {
		return models.AnalysisRequest{}, false
	}
	req := models.AnalysisRequest{
		Op:      models.OpGroupAgg,
		GroupBy: group,
		Agg:     detectAgg(q, models.AggSum),
	}
	req.Metric = pickFirst(matched, prof.NumericColumnNames())
	if req.Metric == "" {
		req.Agg = models.AggCount
	}
	return req, true
}

// detectAgg maps aggregation keywords to a function, defaulting when the
// question names none.
func detectAgg(q string, def models.AggFunc) models.AggFunc {
	switch {
	case strings.Contains(q, "average") || strings.Contains(q, "mean"):
		return models.AggMean
	case strings.Contains(q, "count") || strings.Contains(q, "how many"):
		return models.AggCount
	case strings.Contains(q, "minimum") || strings.Contains(q, "min "):
		return models.AggMin
	case strings.Contains(q, "maximum") || strings.Contains(q, "max "):
		return models.AggMax
	case strings.Contains(q, "total") || strings.Contains(q, "sum"):
		return models.AggSum
	}
	return def
}

// matchColumns finds cleaned column names mentioned in the question, in
// order of appearance. Underscores and spaces are interchangeable and
// matching is word-bounded so "id" does not match inside "did".
func matchColumns(q string, prof models.TableProfile) []string {
	type hit struct {
		name string
		pos  int
	}
	var hits []hit
	for _, name := range prof.ColumnNames() {
		pos := columnPosition(q, name)
		if pos >= 0 {
			hits = append(hits, hit{name, pos})
		}
	}
	if len(hits) == 0 {
		return nil
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}

func columnPosition(q, name string) int {
	variants := []string{
		strings.ToLower(name),
		strings.ReplaceAll(strings.ToLower(name), "_", " "),
	}
	for _, v := range variants {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(v) + `\b`)
		if err != nil {
			continue
		}
		if loc := re.FindStringIndex(q); loc != nil {
			return loc[0]
		}
	}
	return -1
}

// matchGroupValues looks for two known values of the grouping column in the
// question text, e.g. "compare A and B". Missing values stay empty; the
// engine then falls back to the two most frequent.
func matchGroupValues(q string, prof models.TableProfile, group string) (string, string) {
	var values []models.ValueCount
	for _, c := range prof.Columns {
		if c.Name == group {
			values = c.TopValues
			break
		}
	}
	var found []string
	for _, v := range values {
		if strings.Contains(q, strings.ToLower(v.Value)) {
			found = append(found, v.Value)
		}
		if len(found) == 2 {
			break
		}
	}
	switch len(found) {
	case 2:
		return found[0], found[1]
	case 1:
		return found[0], ""
	}
	return "", ""
}

// pickFirst prefers a mentioned column, then falls back to the first
// candidate; pickMatched never falls back.
func pickFirst(matched, candidates []string) string {
	if m := pickMatched(matched, candidates); m != "" {
		return m
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

func pickMatched(matched, candidates []string) string {
	for _, m := range matched {
		if contains(candidates, m) {
			return m
		}
	}
	return ""
}

func containsAny(q string, words []string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
