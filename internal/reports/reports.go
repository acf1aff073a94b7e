// =============================================================================
// Club Utilities - Reports
// =============================================================================
//
// Thin text renderers over the parsed model. Every function returns the
// complete report; choosing the output sink is the caller's business.
//
// =============================================================================

package reports

import (
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DateLayout is the long date used in report titles and signatures.
const DateLayout = "January 2, 2006"

var upper = cases.Upper(language.English)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws an ASCII table suitable for a line printer.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleDefault)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	tw.SetColumnConfigs(columnConfigs(columns, aligns))
	return tw.Render()
}

// renderColumns lays out text columns side by side without borders.
func renderColumns(headers []string, columns [][]string) string {
	height := 0
	for _, c := range columns {
		height = max(height, len(c))
	}

	tw := table.NewWriter()
	style := table.StyleDefault
	style.Options = table.OptionsNoBordersAndSeparators
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for row := 0; row < height; row++ {
		r := make(table.Row, len(columns))
		for i, c := range columns {
			if row < len(c) {
				r[i] = c[row]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

func columnConfigs(columns int, aligns []columnAlignment) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	return configs
}

// title underlines s with '=' (or '-' for a subtitle).
func title(b *strings.Builder, s string, sub bool) {
	mark := "="
	if sub {
		mark = "-"
	}
	b.WriteString(s + "\n")
	b.WriteString(strings.Repeat(mark, len(s)) + "\n")
}

// NextFirstFriday returns the first Friday of now's month if it has not yet
// passed, otherwise the first Friday of the following month. The time of
// day is dropped.
func NextFirstFriday(now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	ff := firstFriday(today.Year(), today.Month(), today.Location())
	if ff.Before(today) {
		ff = firstFriday(today.Year(), today.Month()+1, today.Location())
	}
	return ff
}

func firstFriday(year int, month time.Month, loc *time.Location) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := (int(time.Friday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}
