// =============================================================================
// Club Utilities - Spreadsheet Conversion
// =============================================================================
//
// Converts the roster to and from an XLSX workbook for members of the
// executive committee who prefer a spreadsheet. The sheet layout mirrors
// the CSV: a header row followed by one row per record.
//
//	| first | last | phone | ... | mooring | status | [email_only] |
//	| Jane  | Doe  | ...   | ... | 100     | m|r    |              |
//
// Money cells are written as numbers, "w" for waived and blank for zero.
// Importing goes through the same row rules as the CSV loader, so a
// workbook with problems yields the same findings as the equivalent CSV.
//
// =============================================================================

package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/alexKleider/Club-Utilities-sub000/internal/csvparser"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

// Options selects the sheet to write or read.
type Options struct {
	// Sheet is the worksheet name.
	// Default: "Roster" on export, the first sheet on import.
	Sheet string
}

const defaultSheet = "Roster"

// =============================================================================
// EXPORT
// =============================================================================

// Export writes the roster to a new workbook at path.
//
// PARAMETERS:
//   - path: destination .xlsx file; replaced if present
//   - r: the roster, written in roster order
//   - opts: sheet name
//
// RETURNS:
//   - An error if the workbook cannot be built or saved.
func Export(path string, r *member.Roster, opts Options) error {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	header := append([]string(nil), member.Fields...)
	if r.HasEmailOnly {
		header = append(header, member.EmailOnlyField)
	}
	if err := setRow(f, sheet, 1, toCells(header)); err != nil {
		return err
	}

	for i, m := range r.Members {
		if err := setRow(f, sheet, i+2, memberCells(m, r.HasEmailOnly)); err != nil {
			return fmt.Errorf("write %s: %w", m.Name(), err)
		}
	}

	if err := styleHeader(f, sheet, len(header)); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// memberCells converts a record to sheet cells, using numbers where the
// value is an integer.
func memberCells(m *member.Member, emailOnly bool) []any {
	cells := toCells(m.Values())
	for i, f := range member.Fields {
		if !isMoneyField(f) {
			continue
		}
		if a := m.Money(member.MoneyField(f)); a.Owes() || a.InCredit() {
			cells[i] = a.Int()
		}
	}
	if emailOnly {
		cell := ""
		if m.EmailOnly {
			cell = "y"
		}
		cells = append(cells, cell)
	}
	return cells
}

func isMoneyField(name string) bool {
	for _, f := range member.MoneyFields {
		if string(f) == name {
			return true
		}
	}
	return false
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

// styleHeader bolds the header row and freezes it above the records.
func styleHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// =============================================================================
// IMPORT
// =============================================================================

// Import reads a roster from the workbook at path. Row problems are
// collected on the returned roster exactly as for the CSV file.
func Import(path string, opts Options) (*member.Roster, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook has no sheet %q", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	data, err := csvparser.FromRecords(padRows(rows), csvparser.DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	data.SourceFile = path
	return member.FromCSV(data), nil
}

// padRows restores the trailing blank cells a sheet does not store, so
// every row is as wide as the widest.
func padRows(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		width = max(width, len(r))
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		padded := make([]string, width)
		copy(padded, r)
		out[i] = padded
	}
	return out
}
