package loader

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"
)

func TestLoadCSV(t *testing.T) {
	data := []byte("name,amount\nalice,10\nbob,20\n")

	tables, err := Load(data, "orders.csv", "f1")
	assert.NoError(t, err)
	assert.Len(t, tables, 1)

	table := tables[0]
	assert.Equal(t, "f1", table.FileID)
	assert.Equal(t, []string{"name", "amount"}, table.Headers)
	assert.Equal(t, [][]string{{"alice", "10"}, {"bob", "20"}}, table.Rows)
}

func TestLoadCSVFirstRowIsData(t *testing.T) {
	data := []byte("2024-01-01,10\n2024-01-02,20\n")

	tables, err := Load(data, "orders.csv", "f1")
	assert.NoError(t, err)

	table := tables[0]
	assert.Equal(t, []string{"", ""}, table.Headers)
	assert.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2024-01-01", "10"}, table.Rows[0])
}

func TestDetectSeparator(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "a,b,c\n1,2,3", ','},
		{"semicolon", "a;b;c\n1;2;3", ';'},
		{"tab", "a\tb\tc\n1\t2\t3", '\t'},
		{"pipe", "a|b|c\n1|2|3", '|'},
		{"comma wins ties", "abc\n123", ','},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectSeparator([]byte(tt.data)))
		})
	}
}

func TestLoadSemicolonSeparated(t *testing.T) {
	data := []byte("name;amount\nalice;10\n")

	tables, err := Load(data, "orders.csv", "f1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"name", "amount"}, tables[0].Headers)
}

func TestLoadEmptyFile(t *testing.T) {
	_, err := Load(nil, "orders.csv", "f1")
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = Load([]byte("name,amount\n"), "orders.csv", "f1")
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load([]byte("hello"), "notes.docx", "f1")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	f.SetSheetRow("Sheet1", "A1", &[]interface{}{"name", "amount"})
	f.SetSheetRow("Sheet1", "A2", &[]interface{}{"alice", 10})
	f.SetSheetRow("Sheet1", "A3", &[]interface{}{"bob", 20})
	var buf bytes.Buffer
	err := f.Write(&buf)
	assert.NoError(t, err)

	tables, err := Load(buf.Bytes(), "orders.xlsx", "f1")
	assert.NoError(t, err)
	assert.Len(t, tables, 1)
	assert.Equal(t, "Sheet1", tables[0].Sheet)
	assert.Equal(t, []string{"name", "amount"}, tables[0].Headers)
	assert.Equal(t, []string{"alice", "10"}, tables[0].Rows[0])
}

func TestLoadXLSXCorrupt(t *testing.T) {
	_, err := Load([]byte("this is not a spreadsheet"), "orders.xlsx", "f1")
	assert.ErrorIs(t, err, ErrCorruptFile)
}

func TestLoadGzip(t *testing.T) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	gw.Write([]byte("name,amount\nalice,10\n"))
	gw.Close()

	tables, err := Load(buf.Bytes(), "orders.csv.gz", "f1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"name", "amount"}, tables[0].Headers)
}

func TestLoadZipPicksLargestFile(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"readme.txt": "hi",
		"orders.csv": "name,amount\nalice,10\nbob,20\n",
	} {
		w, err := zw.Create(name)
		assert.NoError(t, err)
		w.Write([]byte(content))
	}
	assert.NoError(t, zw.Close())

	tables, err := Load(buf.Bytes(), "orders.zip", "f1")
	assert.NoError(t, err)
	assert.Equal(t, []string{"name", "amount"}, tables[0].Headers)
	assert.Len(t, tables[0].Rows, 2)
}

func TestPadRows(t *testing.T) {
	rows := padRows([][]string{
		{"a", "b", "c"},
		{"1"},
		{"2", "3"},
	})
	assert.Equal(t, [][]string{
		{"a", "b", "c"},
		{"1", "", ""},
		{"2", "3", ""},
	}, rows)
}

func TestFirstRowIsData(t *testing.T) {
	tests := []struct {
		name  string
		row   []string
		want  bool
	}{
		{"headers", []string{"name", "age", "email"}, false},
		{"numbers", []string{"123", "456", "789"}, true},
		{"dates", []string{"2024-01-01", "2024-01-02"}, true},
		{"mixed mostly data", []string{"region", "123", "456", "789"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstRowIsData(tt.row))
		})
	}
}
