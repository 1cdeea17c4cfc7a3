// Package loader parses uploaded files into raw tables, one per sheet.
// It never touches network or storage; callers hand it bytes.
package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pivolan/data_agent/domain/models"
)

// Terminal ingestion failures. The input itself is the problem, retrying
// does not help, so they surface to the caller verbatim.
var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrCorruptFile       = errors.New("corrupt file")
	ErrEmptyFile         = errors.New("empty file")
)

// Load parses file bytes into one RawTable per sheet. Delimited text yields
// exactly one table. Archives (gzip, zip, lz4) are unwrapped first.
func Load(data []byte, filename, fileID string) ([]models.RawTable, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is zero bytes", ErrEmptyFile, filename)
	}

	data, filename, err := unpackArchive(data, filename)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv", ".tsv", ".txt":
		return loadDelimited(data, fileID)
	case ".xlsx":
		return loadSpreadsheet(data, fileID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func loadDelimited(data []byte, fileID string) ([]models.RawTable, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = detectSeparator(data)
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
		}
		records = append(records, rec)
	}

	table, ok := buildRawTable(records, fileID, "")
	if !ok {
		return nil, fmt.Errorf("%w: no data rows", ErrEmptyFile)
	}
	return []models.RawTable{table}, nil
}

func loadSpreadsheet(data []byte, fileID string) ([]models.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptFile, err)
	}
	defer f.Close()

	var tables []models.RawTable
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		rows = padRows(rows)
		if table, ok := buildRawTable(rows, fileID, sheet); ok {
			tables = append(tables, table)
		}
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: no data rows in any sheet", ErrEmptyFile)
	}
	return tables, nil
}

// buildRawTable splits records into headers and data rows. When the first row
// looks like data rather than headers, headers stay blank and the row is kept
// as data; the cleaner generates column names later.
func buildRawTable(records [][]string, fileID, sheet string) (models.RawTable, bool) {
	if len(records) == 0 {
		return models.RawTable{}, false
	}

	headers := records[0]
	rows := records[1:]
	if firstRowIsData(records[0]) {
		headers = make([]string, len(records[0]))
		rows = records
	}
	if len(rows) == 0 {
		return models.RawTable{}, false
	}

	return models.RawTable{
		FileID:  fileID,
		Sheet:   sheet,
		Headers: headers,
		Rows:    rows,
	}, true
}

// padRows right-pads ragged rows to the widest row so every row has the same
// number of cells. Spreadsheet readers drop trailing empties.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows
}

// detectSeparator picks the delimiter that occurs most in the first line.
func detectSeparator(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, c := range []byte{';', '\t', '|'} {
		if n := bytes.Count(line, []byte{c}); n > bestCount {
			best, bestCount = rune(c), n
		}
	}
	return best
}
