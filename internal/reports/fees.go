package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/content"
	"github.com/alexKleider/Club-Utilities-sub000/internal/fees"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

// =============================================================================
// PAYABLES
// =============================================================================

// PayablesReport renders the owing and advance-payment lists as tables with
// one column per money field.
func PayablesReport(p fees.Payables) string {
	var b strings.Builder
	section := func(name string, list []fees.Payable) {
		title(&b, name, false)
		if len(list) == 0 {
			b.WriteString("None\n")
			return
		}
		headers := []string{"Name"}
		aligns := []columnAlignment{alignLeft}
		for _, f := range member.MoneyFields {
			headers = append(headers, fees.Label(f))
			aligns = append(aligns, alignRight)
		}
		headers = append(headers, "Total")
		aligns = append(aligns, alignRight)

		rows := make([][]string, 0, len(list))
		for _, pay := range list {
			cells := make(map[member.MoneyField]string, len(pay.Items))
			total := 0
			for _, it := range pay.Items {
				cells[it.Field] = it.Amount.Dollars()
				total += it.Amount.Int()
			}
			row := []string{pay.Member.Name()}
			for _, f := range member.MoneyFields {
				row = append(row, cells[f])
			}
			rows = append(rows, append(row, member.FormatDollars(total)))
		}
		b.WriteString(renderTable(headers, rows, aligns) + "\n")
	}

	section("Owing", p.Owing)
	b.WriteString("\n")
	section("Advance payments", p.Advance)
	return b.String()
}

// =============================================================================
// EXTRA CHARGES
// =============================================================================

// ExtraFormat selects the layout of ExtraCharges.
type ExtraFormat string

const (
	// ExtraTable is one row per member, one column per category.
	ExtraTable ExtraFormat = "table"
	// ExtraListing reproduces the fee log shape.
	ExtraListing ExtraFormat = "listing"
	// ExtraSide puts the category listings side by side.
	ExtraSide ExtraFormat = "side"
)

// ParseExtraFormat validates a --format value.
func ParseExtraFormat(s string) (ExtraFormat, error) {
	switch f := ExtraFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case ExtraTable, ExtraListing, ExtraSide:
		return f, nil
	}
	return "", fmt.Errorf("unknown extra charges format %q (want table, listing or side)", s)
}

// ExtraCharges dumps the fee log in the requested format. Amounts for the
// same member and category are summed.
func ExtraCharges(log *fees.Log, format ExtraFormat) (string, error) {
	totals := log.Totals()
	switch format {
	case ExtraTable:
		headers := []string{"Name"}
		aligns := []columnAlignment{alignLeft}
		for _, cat := range fees.Categories {
			headers = append(headers, fees.Label(cat))
			aligns = append(aligns, alignRight)
		}
		var rows [][]string
		for _, k := range log.Keys() {
			row := []string{k.String()}
			for _, cat := range fees.Categories {
				cell := ""
				if n, ok := totals[cat][k]; ok {
					cell = member.FormatDollars(n)
				}
				row = append(row, cell)
			}
			rows = append(rows, row)
		}
		return renderTable(headers, rows, aligns) + "\n", nil

	case ExtraListing:
		var b strings.Builder
		for i, cat := range fees.Categories {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(fees.Label(cat) + ":\n")
			for _, line := range categoryLines(totals[cat]) {
				b.WriteString("    " + line + "\n")
			}
		}
		return b.String(), nil

	case ExtraSide:
		headers := make([]string, 0, len(fees.Categories))
		columns := make([][]string, 0, len(fees.Categories))
		for _, cat := range fees.Categories {
			headers = append(headers, fees.Label(cat)+":")
			columns = append(columns, categoryLines(totals[cat]))
		}
		return renderColumns(headers, columns) + "\n", nil
	}
	return "", fmt.Errorf("unknown extra charges format %q", format)
}

// categoryLines renders "First Last: amount" lines in key order.
func categoryLines(totals map[member.Key]int) []string {
	keys := make([]member.Key, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = fmt.Sprintf("%s: %d", k, totals[k])
	}
	return out
}

// =============================================================================
// MAILING CATEGORIES
// =============================================================================

// MailingCategories tabulates the catalog: name, policy, selection and
// subject of each kind.
func MailingCategories(c *content.Catalog) string {
	var rows [][]string
	for _, name := range c.Names() {
		k, err := c.Lookup(name)
		if err != nil {
			continue
		}
		rows = append(rows, []string{k.Name, string(k.Policy), k.Predicate.String(), k.Subject})
	}
	return renderTable([]string{"Kind", "Policy", "Selects", "Subject"}, rows, nil) + "\n"
}
