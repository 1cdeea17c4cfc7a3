package cleaner

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pivolan/data_agent/domain/models"
)

func TestNormalizeHeaders(t *testing.T) {
	tests := []struct {
		name          string
		input         []string
		wantNames     []string
		wantGenerated []bool
	}{
		{
			name:          "valid headers",
			input:         []string{"Name", "Age", "Email", "Phone"},
			wantNames:     []string{"name", "age", "email", "phone"},
			wantGenerated: []bool{false, false, false, false},
		},
		{
			name:          "special characters",
			input:         []string{"User Name!", "Age#", "Email@", "Phone$"},
			wantNames:     []string{"user_name", "age", "email", "phone"},
			wantGenerated: []bool{false, false, false, false},
		},
		{
			name:          "duplicate headers",
			input:         []string{"Name", "Name", "Name", "Age"},
			wantNames:     []string{"name", "name_1", "name_2", "age"},
			wantGenerated: []bool{false, false, false, false},
		},
		{
			name:          "blank headers get generated names",
			input:         []string{"", "Amount", "  "},
			wantNames:     []string{"column_1", "amount", "column_3"},
			wantGenerated: []bool{true, false, true},
		},
		{
			name:          "cyrillic transliterated",
			input:         []string{"Имя", "Возраст"},
			wantNames:     []string{"imia", "vozrast"},
			wantGenerated: []bool{false, false},
		},
		{
			name:          "punctuation only",
			input:         []string{"###", "%%%"},
			wantNames:     []string{"column_1", "column_2"},
			wantGenerated: []bool{true, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, generated := NormalizeHeaders(tt.input)
			if !reflect.DeepEqual(names, tt.wantNames) {
				t.Errorf("names = %v, want %v", names, tt.wantNames)
			}
			if !reflect.DeepEqual(generated, tt.wantGenerated) {
				t.Errorf("generated = %v, want %v", generated, tt.wantGenerated)
			}
		})
	}
}

func TestNormalizeHeadersIdempotent(t *testing.T) {
	input := []string{"user_name", "age", "total_revenue"}
	names, _ := NormalizeHeaders(input)
	again, _ := NormalizeHeaders(names)
	assert.Equal(t, names, again)
}

func TestInferColumnType(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   models.ColumnType
	}{
		{"integers", []string{"1", "2", "42", "-7"}, models.TypeInteger},
		{"floats", []string{"1.5", "2", "3.25"}, models.TypeFloat},
		{"one float demotes integers", []string{"1", "2", "3.5"}, models.TypeFloat},
		{"dates iso", []string{"2024-01-01", "2024-02-15"}, models.TypeDate},
		{"dates with time", []string{"2022-10-26 06:03:18", "2022-10-27 07:00:00"}, models.TypeDate},
		{"booleans", []string{"yes", "no", "yes"}, models.TypeBoolean},
		{"low variety strings", []string{"red", "blue", "red", "blue", "red", "red"}, models.TypeCategorical},
		{"high variety strings", []string{"alpha", "beta", "gamma", "delta"}, models.TypeText},
		{"mixed text breaks ladder", []string{"1", "2", "abc", "def"}, models.TypeText},
		{"empty sample", nil, models.TypeText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferColumnType(tt.values, 0.5)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerce(t *testing.T) {
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(42), Coerce("42", models.TypeInteger))
	assert.Equal(t, 3.5, Coerce("3.5", models.TypeFloat))
	assert.Equal(t, d, Coerce("2024-03-01", models.TypeDate))
	assert.Equal(t, true, Coerce("yes", models.TypeBoolean))
	assert.Equal(t, "hello", Coerce("  hello  ", models.TypeText))

	// null tokens and unparseable cells degrade to nil
	assert.Nil(t, Coerce("", models.TypeInteger))
	assert.Nil(t, Coerce("n/a", models.TypeFloat))
	assert.Nil(t, Coerce("abc", models.TypeInteger))
	assert.Nil(t, Coerce("not-a-date", models.TypeDate))
}

func TestIsNull(t *testing.T) {
	for _, v := range []string{"", "  ", "NULL", "na", "N/A", "NaN", "None"} {
		assert.True(t, IsNull(v), "expected %q to be null", v)
	}
	assert.False(t, IsNull("0"))
	assert.False(t, IsNull("false"))
}

func TestCleanDropsEmptyAndDuplicateRows(t *testing.T) {
	raw := models.RawTable{
		FileID:  "f1",
		Sheet:   "Sheet1",
		Headers: []string{"Region", "Sales"},
		Rows: [][]string{
			{"A", "10"},
			{"", ""},
			{"A", "10"},
			{"B", "5"},
			{"A", "3"},
		},
	}

	table, report, err := Clean(raw, DefaultOptions())
	assert.NoError(t, err)
	assert.Equal(t, 3, len(table.Rows))

	kinds := map[string]int{}
	for _, issue := range report.Issues {
		kinds[issue.Kind] = issue.Count
	}
	assert.Equal(t, 1, kinds[models.IssueEmptyRows])
	assert.Equal(t, 1, kinds[models.IssueDuplicateRows])
}

func TestCleanKeepsRowsWithCollidingConcatenation(t *testing.T) {
	// distinct rows whose cells concatenate to the same text must survive
	raw := models.RawTable{
		FileID:  "f1",
		Headers: []string{"x", "y"},
		Rows: [][]string{
			{"a b", "c"},
			{"a", "b c"},
		},
	}

	table, report, err := Clean(raw, DefaultOptions())
	assert.NoError(t, err)
	assert.Equal(t, 2, len(table.Rows))
	for _, issue := range report.Issues {
		assert.NotEqual(t, models.IssueDuplicateRows, issue.Kind)
	}
}

func TestCleanIdempotent(t *testing.T) {
	raw := models.RawTable{
		FileID:  "f1",
		Sheet:   "Sheet1",
		Headers: []string{"day", "amount", ""},
		Rows: [][]string{
			{"2024-01-01", "10", "x"},
			{"2024-01-02", "", "y"},
			{"2024-01-01", "10", "x"},
			{"", "", ""},
		},
	}

	table1, report1, err1 := Clean(raw, DefaultOptions())
	table2, report2, err2 := Clean(raw, DefaultOptions())

	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, table1, table2)
	assert.Equal(t, report1, report2)
}

func TestCleanTypesAndNullability(t *testing.T) {
	raw := models.RawTable{
		FileID:  "f1",
		Headers: []string{"day", "amount", "note"},
		Rows: [][]string{
			{"2024-01-01", "10", "first order"},
			{"2024-01-02", "", "second order arrived late"},
			{"2024-01-03", "7", "third order confirmed ok"},
		},
	}

	table, _, err := Clean(raw, DefaultOptions())
	assert.NoError(t, err)

	assert.Equal(t, models.TypeDate, table.Columns[0].Type)
	assert.Equal(t, models.TypeInteger, table.Columns[1].Type)
	assert.Equal(t, models.TypeText, table.Columns[2].Type)

	assert.False(t, table.Columns[0].Nullable)
	assert.True(t, table.Columns[1].Nullable)
	assert.Nil(t, table.Rows[1][1])
	assert.Equal(t, int64(10), table.Rows[0][1])
}

func TestCleanHighMissingIssue(t *testing.T) {
	raw := models.RawTable{
		FileID:  "f1",
		Headers: []string{"a", "b"},
		Rows: [][]string{
			{"1", ""},
			{"2", ""},
			{"3", "x"},
		},
	}

	_, report, err := Clean(raw, DefaultOptions())
	assert.NoError(t, err)

	found := false
	for _, issue := range report.Issues {
		if issue.Kind == models.IssueHighMissing && issue.Column == "b" {
			found = true
		}
	}
	assert.True(t, found, "expected high-missing issue on column b")
}

func TestCleanNoUsableColumns(t *testing.T) {
	raw := models.RawTable{
		FileID:  "f1",
		Headers: []string{"", ""},
		Rows: [][]string{
			{"", ""},
			{"", ""},
		},
	}

	_, _, err := Clean(raw, DefaultOptions())
	assert.ErrorIs(t, err, ErrNoUsableColumns)
}

func TestCleanKeepsBlankHeaderColumnWithData(t *testing.T) {
	raw := models.RawTable{
		FileID:  "f1",
		Headers: []string{"", "name"},
		Rows: [][]string{
			{"5", "a"},
			{"6", "b"},
		},
	}

	table, report, err := Clean(raw, DefaultOptions())
	assert.NoError(t, err)
	assert.Equal(t, 2, len(table.Columns))
	assert.Equal(t, "column_1", table.Columns[0].Name)
	assert.True(t, table.Columns[0].Generated)

	found := false
	for _, issue := range report.Issues {
		if issue.Kind == models.IssueUnnamedColumn {
			found = true
		}
	}
	assert.True(t, found)
}
