package models

import (
	"time"
)

// ColumnType is the inferred type of a cleaned column. The order of the
// constants is the demotion ladder: a value that does not conform to a type
// pushes the column toward the next looser one.
type ColumnType int

const (
	TypeInteger ColumnType = iota
	TypeFloat
	TypeDate
	TypeBoolean
	TypeCategorical
	TypeText
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeDate:
		return "date"
	case TypeBoolean:
		return "boolean"
	case TypeCategorical:
		return "categorical"
	default:
		return "text"
	}
}

// IsNumeric reports whether values of this type can be aggregated.
func (t ColumnType) IsNumeric() bool {
	return t == TypeInteger || t == TypeFloat
}

// RawTable is one sheet of an uploaded file before cleaning. Headers may be
// blank or duplicated; cells are untyped strings exactly as parsed.
type RawTable struct {
	FileID  string
	Sheet   string
	Headers []string
	Rows    [][]string
}

// Identity returns the stable identity of the table's source sheet.
func (r RawTable) Identity() string {
	return r.FileID + "/" + r.Sheet
}

// ColumnSpec describes one cleaned column.
type ColumnSpec struct {
	Name      string     `json:"name"`
	RawHeader string     `json:"raw_header"`
	Type      ColumnType `json:"type"`
	Nullable  bool       `json:"nullable"`
	Generated bool       `json:"generated"` // name was synthesized from a blank header
}

// CanonicalTable is the cleaned, typed, immutable form of one RawTable.
// Cells hold int64, float64, bool, time.Time or string according to the
// column spec, or nil for null. Rows always have exactly len(Columns) cells.
type CanonicalTable struct {
	FileID  string          `json:"file_id"`
	Sheet   string          `json:"sheet"`
	Columns []ColumnSpec    `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

func (t *CanonicalTable) Identity() string {
	return t.FileID + "/" + t.Sheet
}

// ColumnIndex returns the position of a cleaned column name, or -1.
func (t *CanonicalTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column returns all cells of one column in row order.
func (t *CanonicalTable) Column(name string) []interface{} {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]interface{}, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out
}

// ColumnsOfType returns cleaned names of columns with the given type.
func (t *CanonicalTable) ColumnsOfType(types ...ColumnType) []string {
	var out []string
	for _, c := range t.Columns {
		for _, ct := range types {
			if c.Type == ct {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}

// NumericColumns returns cleaned names of integer and float columns.
func (t *CanonicalTable) NumericColumns() []string {
	return t.ColumnsOfType(TypeInteger, TypeFloat)
}

// Quality issue kinds reported by the cleaner.
const (
	IssueHighMissing   = "high-missing"
	IssueDuplicateRows = "duplicate-rows"
	IssueEmptyRows     = "empty-rows"
	IssueUnnamedColumn = "unnamed-column"
	IssueLowVariety    = "low-variety-categorical"
)

// QualityIssue is one record of the data-quality report. Column is empty for
// table-wide issues.
type QualityIssue struct {
	Column string `json:"column,omitempty"`
	Kind   string `json:"kind"`
	Count  int    `json:"count,omitempty"`
	Detail string `json:"detail"`
}

// DataQualityReport is the ordered list of issues found while cleaning.
type DataQualityReport struct {
	Issues []QualityIssue `json:"issues"`
}

// ColumnProfile is the per-column summary inside a TableProfile. Numeric
// statistics are pointers so an all-null column reports them as undefined.
type ColumnProfile struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Count    int        `json:"count"` // non-null cells
	Nulls    int        `json:"nulls"`
	Distinct int        `json:"distinct"`

	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Mean   *float64 `json:"mean,omitempty"`
	Median *float64 `json:"median,omitempty"`
	Q25    *float64 `json:"q25,omitempty"`
	Q75    *float64 `json:"q75,omitempty"`
	StdDev *float64 `json:"std_dev,omitempty"`

	TopValues []ValueCount `json:"top_values,omitempty"`
}

// ValueCount is one categorical value with its frequency.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TableProfile is the per-upload summary used by the UI and by the intent
// resolver. Preview keeps the first rows in cleaned order.
type TableProfile struct {
	RowCount int                      `json:"row_count"`
	Columns  []ColumnProfile          `json:"columns"`
	Preview  []map[string]interface{} `json:"preview"`
}

// ColumnNames returns the cleaned column names in table order.
func (p TableProfile) ColumnNames() []string {
	out := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		out[i] = c.Name
	}
	return out
}

// NumericColumnNames returns names of integer and float columns in order.
func (p TableProfile) NumericColumnNames() []string {
	var out []string
	for _, c := range p.Columns {
		if c.Type.IsNumeric() {
			out = append(out, c.Name)
		}
	}
	return out
}

// CategoricalColumnNames returns names of categorical columns in order.
func (p TableProfile) CategoricalColumnNames() []string {
	var out []string
	for _, c := range p.Columns {
		if c.Type == TypeCategorical {
			out = append(out, c.Name)
		}
	}
	return out
}

// DateColumnNames returns names of date columns in order.
func (p TableProfile) DateColumnNames() []string {
	var out []string
	for _, c := range p.Columns {
		if c.Type == TypeDate {
			out = append(out, c.Name)
		}
	}
	return out
}

// AnalysisOp is the closed set of analysis operations.
type AnalysisOp string

const (
	OpSummaryStats AnalysisOp = "summary_statistics"
	OpGroupAgg     AnalysisOp = "group_aggregation"
	OpTrend        AnalysisOp = "trend_over_time"
	OpTopN         AnalysisOp = "top_n"
	OpComparison   AnalysisOp = "comparison"
	OpCorrelation  AnalysisOp = "correlation"
)

// AggFunc is the aggregation applied by group_aggregation and trend_over_time.
type AggFunc string

const (
	AggSum   AggFunc = "sum"
	AggMean  AggFunc = "mean"
	AggCount AggFunc = "count"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
)

// AnalysisRequest is the typed request the intent resolver produces and the
// engine consumes. Op selects the variant; only the fields that variant
// defines are meaningful. Field order is fixed, the cache key serialization
// depends on it.
type AnalysisRequest struct {
	Op AnalysisOp `json:"op"`

	Columns    []string `json:"columns,omitempty"`     // summary_statistics, correlation (exactly 2)
	Metric     string   `json:"metric,omitempty"`      // group_aggregation, trend, top_n, comparison
	GroupBy    string   `json:"group_by,omitempty"`    // group_aggregation, comparison
	TimeColumn string   `json:"time_column,omitempty"` // trend_over_time
	Agg        AggFunc  `json:"agg,omitempty"`
	N          int      `json:"n,omitempty"`         // top_n
	Ascending  bool     `json:"ascending,omitempty"` // top_n: lowest instead of highest
	CompareA   string   `json:"compare_a,omitempty"` // comparison subset labels
	CompareB   string   `json:"compare_b,omitempty"`
}

// GroupValue is one aggregated group, ordered by the engine.
type GroupValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// TrendPoint is one time bucket of a trend series.
type TrendPoint struct {
	Bucket string    `json:"bucket"`
	Start  time.Time `json:"start"`
	Value  float64   `json:"value"`
	Count  int       `json:"count"`
}

// TopRow is one row of a top_n result: identifying label plus metric value.
type TopRow struct {
	Label  string                 `json:"label"`
	Value  float64                `json:"value"`
	Fields map[string]interface{} `json:"fields,omitempty"`
}

// ComparisonResult holds the two subset aggregates and their relation.
type ComparisonResult struct {
	LabelA     string   `json:"label_a"`
	LabelB     string   `json:"label_b"`
	ValueA     *float64 `json:"value_a"`
	ValueB     *float64 `json:"value_b"`
	Difference *float64 `json:"difference"`
	Ratio      *float64 `json:"ratio"`
}

// CorrelationResult reports a Pearson coefficient. Coefficient is nil when
// fewer than two paired samples exist.
type CorrelationResult struct {
	ColumnX     string   `json:"column_x"`
	ColumnY     string   `json:"column_y"`
	Coefficient *float64 `json:"coefficient"`
	SampleSize  int      `json:"sample_size"`
}

// AnalysisResult mirrors AnalysisRequest's variants. Exactly the payload for
// Op is populated. Summary is a short natural-language fragment the caller
// embeds in the final answer.
type AnalysisResult struct {
	Op      AnalysisOp `json:"op"`
	Summary string     `json:"summary"`
	NoData  bool       `json:"no_data"`

	Stats       []ColumnProfile    `json:"stats,omitempty"`
	Groups      []GroupValue       `json:"groups,omitempty"`
	Trend       []TrendPoint       `json:"trend,omitempty"`
	TrendUnit   string             `json:"trend_unit,omitempty"` // day, month or year
	TopRows     []TopRow           `json:"top_rows,omitempty"`
	Comparison  *ComparisonResult  `json:"comparison,omitempty"`
	Correlation *CorrelationResult `json:"correlation,omitempty"`
}

// Visualization payload kinds.
const (
	VizBar   = "bar"
	VizLine  = "line"
	VizTable = "table"
)

// LabeledValue is one point of a bar or line series.
type LabeledValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// VisualizationPayload is the render-ready output: a labeled series for bar
// and line charts, or columns+rows for tables. Shapes match what the web UI
// already consumes.
type VisualizationPayload struct {
	Type    string                   `json:"type"`
	Data    []LabeledValue           `json:"data,omitempty"`
	Columns []string                 `json:"columns,omitempty"`
	Table   []map[string]interface{} `json:"table,omitempty"`
}

// QueryMetadata travels back to the caller alongside the answer.
type QueryMetadata struct {
	Op       AnalysisOp `json:"query_type"`
	Columns  []string   `json:"columns,omitempty"`
	Cached   bool       `json:"cached"`
	Duration string     `json:"duration"`
}
