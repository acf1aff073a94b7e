// =============================================================================
// Club Utilities - CSV Parser Module
// =============================================================================
//
// This module reads the two CSV sources the tool understands: the member
// roster and the address-book export. It is deliberately lenient:
//   - rows with a varying number of fields are returned as-is so callers
//     can report them instead of failing the whole file
//   - blank rows and rows whose first cell starts with '#' are skipped
//   - every row keeps the line number it started on for error reporting
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings controls how a CSV file is read.
type Settings struct {
	// Delimiter separates fields. Accepts a single character or one of the
	// names "tab", "pipe", "semicolon". Default: ","
	Delimiter string

	// TrimValues strips surrounding whitespace from every cell.
	// Default: true
	TrimValues bool
}

// DefaultSettings returns the settings used for the roster and contacts.
func DefaultSettings() Settings {
	return Settings{Delimiter: ",", TrimValues: true}
}

// =============================================================================
// CSV DATA STRUCTURE
// =============================================================================

// Row is one data row of a CSV file.
type Row struct {
	// Line is the 1-based line number the row starts on.
	Line int

	// Cells holds the raw cell values in column order.
	Cells []string
}

// Field returns the cell for the given header, or "" when the row is short
// or the header is unknown.
func (d *CSVData) Field(row Row, header string) string {
	idx, ok := d.index[header]
	if !ok || idx >= len(row.Cells) {
		return ""
	}
	return row.Cells[idx]
}

// HasHeader reports whether the file carries the named column.
func (d *CSVData) HasHeader(header string) bool {
	_, ok := d.index[header]
	return ok
}

// CSVData represents a parsed CSV file.
type CSVData struct {
	// Headers contains the column headers from the first non-comment row.
	Headers []string

	// HeaderLine is the line number the header row was read from.
	HeaderLine int

	// Rows contains the data rows in file order.
	Rows []Row

	// SourceFile is the path to the source CSV file.
	SourceFile string

	index map[string]int
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ErrEmpty is returned when a file has no header row.
var ErrEmpty = errors.New("csv file is empty")

// Parse reads a CSV file from disk.
//
// RETURNS:
//   - The parsed data.
//   - An error if the file cannot be opened, is not valid CSV, or has no
//     header row. A missing file is reported with os.ErrNotExist wrapped.
func Parse(filePath string, settings Settings) (*CSVData, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filePath, err)
	}
	defer file.Close()

	data, err := ParseReader(bufio.NewReader(file), settings)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filePath, err)
	}
	data.SourceFile = filePath
	return data, nil
}

// ParseReader reads CSV content from r. The first row that is neither
// blank nor a comment is taken as the header row.
func ParseReader(r io.Reader, settings Settings) (*CSVData, error) {
	reader := csv.NewReader(r)
	configureReader(reader, settings)

	data := &CSVData{index: make(map[string]int)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		data.accept(record, line, settings)
	}

	if len(data.Headers) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// FromRecords builds CSVData from rows already split into cells, such as a
// spreadsheet sheet. Row i is reported as line i+1.
func FromRecords(records [][]string, settings Settings) (*CSVData, error) {
	data := &CSVData{index: make(map[string]int)}
	for i, record := range records {
		data.accept(append([]string(nil), record...), i+1, settings)
	}
	if len(data.Headers) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// accept takes the first usable record as the header and the rest as rows.
func (d *CSVData) accept(record []string, line int, settings Settings) {
	if isRowEmpty(record) || isComment(record) {
		return
	}
	if settings.TrimValues {
		for i := range record {
			record[i] = strings.TrimSpace(record[i])
		}
	}

	if len(d.Headers) == 0 {
		d.Headers = record
		d.HeaderLine = line
		for i, h := range record {
			if _, dup := d.index[h]; !dup {
				d.index[h] = i
			}
		}
		return
	}
	d.Rows = append(d.Rows, Row{Line: line, Cells: record})
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings Settings) {
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	// Field count is checked by the callers so that a bad row is a
	// finding rather than a parse failure.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// isComment reports whether the row's first non-blank character is '#'.
func isComment(row []string) bool {
	return len(row) > 0 && strings.HasPrefix(strings.TrimSpace(row[0]), "#")
}
