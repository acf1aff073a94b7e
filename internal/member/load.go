package member

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/csvparser"
	"github.com/alexKleider/Club-Utilities-sub000/internal/types"
)

// Load reads the roster CSV at path. The error is non-nil only when the
// file cannot be read at all; row-level problems are collected on the
// returned roster.
func Load(path string) (*Roster, error) {
	data, err := csvparser.Parse(path, csvparser.DefaultSettings())
	if err != nil {
		return nil, err
	}
	return FromCSV(data), nil
}

// Parse reads a roster from r; name is used in findings.
func Parse(r io.Reader, name string) (*Roster, error) {
	data, err := csvparser.ParseReader(r, csvparser.DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	data.SourceFile = name
	return FromCSV(data), nil
}

// FromCSV converts parsed CSV rows into a roster.
//
// Rules applied per row:
//   - the cell count must equal the header length, otherwise the row is
//     skipped and reported
//   - money cells must be empty, "w", or a canonical integer
//   - a present email must contain '@'
//   - status tokens must come from the closed alphabet
//   - keys must not repeat and should ascend
func FromCSV(data *csvparser.CSVData) *Roster {
	r := NewRoster(nil)
	r.Path = data.SourceFile
	r.Header = append([]string(nil), data.Headers...)

	file := data.SourceFile
	bad := func(line int, format string, args ...any) {
		r.Malformed = append(r.Malformed, types.NewMalformed(file, line, format, args...))
	}

	switch {
	case equalFields(data.Headers, Fields):
	case equalFields(data.Headers, append(append([]string(nil), Fields...), EmailOnlyField)):
		r.HasEmailOnly = true
	default:
		bad(data.HeaderLine, "header %q does not match expected fields %q",
			strings.Join(data.Headers, ","), strings.Join(Fields, ","))
	}

	width := len(data.Headers)
	var prev *Key
	for _, row := range data.Rows {
		if len(row.Cells) != width {
			bad(row.Line, "expected %d fields, found %d", width, len(row.Cells))
			continue
		}

		m := &Member{Line: row.Line}
		m.First = data.Field(row, "first")
		m.Last = data.Field(row, "last")
		m.Phone = data.Field(row, "phone")
		m.Address = data.Field(row, "address")
		m.Town = data.Field(row, "town")
		m.State = data.Field(row, "state")
		m.PostalCode = data.Field(row, "postal_code")
		m.Country = data.Field(row, "country")
		m.Email = data.Field(row, "email")

		if m.First == "" || m.Last == "" {
			bad(row.Line, "record lacks a first or last name")
			continue
		}

		for _, f := range MoneyFields {
			a, err := ParseAmount(data.Field(row, string(f)))
			if err != nil {
				bad(row.Line, "%s: %s field: %v", m.Name(), f, err)
				continue
			}
			m.SetMoney(f, a)
		}

		if m.HasEmail() && !strings.Contains(m.Email, "@") {
			bad(row.Line, "%s: email %q lacks '@'", m.Name(), m.Email)
		}

		var unknown []string
		m.Status, unknown = ParseStatusSet(data.Field(row, "status"))
		for _, tok := range unknown {
			bad(row.Line, "%s: unrecognized status token %q", m.Name(), tok)
		}

		if r.HasEmailOnly {
			m.EmailOnly = parseBool(data.Field(row, EmailOnlyField))
		}

		key := m.Key()
		if _, dup := r.ByName[key]; dup {
			bad(row.Line, "%s: duplicate record", m.Name())
			continue
		}
		if prev != nil && key.Less(*prev) {
			r.OutOfOrder = append(r.OutOfOrder, OutOfOrder{Line: row.Line, Key: key, Previous: *prev})
		}
		k := key
		prev = &k

		r.add(m)
	}

	return r
}

func equalFields(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "1", "true", "t":
		return true
	}
	return false
}

// =============================================================================
// WRITING
// =============================================================================

// Write emits the roster as CSV: the header then each record in roster
// order. Re-parsing the output yields the same records.
func Write(w io.Writer, r *Roster) error {
	cw := csv.NewWriter(w)
	header := append([]string(nil), Fields...)
	if r.HasEmailOnly {
		header = append(header, EmailOnlyField)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, m := range r.Members {
		row := m.Values()
		if r.HasEmailOnly {
			row = append(row, formatBool(m.EmailOnly))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", m.Name(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the roster to path, replacing any existing file.
func WriteFile(path string, r *Roster) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatBool(b bool) string {
	if b {
		return "y"
	}
	return ""
}
