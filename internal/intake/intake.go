// =============================================================================
// Club Utilities - Receipts Intake
// =============================================================================
//
// Totals the treasurer's receipts file. Each data line carries an amount in
// a fixed column range followed by free text (payer, purpose). Two kinds of
// marker line structure the file:
//   - "---..."           closes a deposit; its subtotal is reported
//   - "YYMMDD" / "Date: ..." dates the deposits that follow
//
// =============================================================================

package intake

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alexKleider/Club-Utilities-sub000/internal/config"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/types"
)

const subtotalMarker = "---"

// Subtotal is one closed deposit.
type Subtotal struct {
	// Date is the latest date marker seen before the subtotal marker.
	Date   string
	Amount int
	Line   int
}

// Report is the result of totalling a receipts file.
type Report struct {
	Path      string
	Subtotals []Subtotal

	// Total includes amounts after the last subtotal marker.
	Total int

	Malformed []types.Malformed
}

// Load reads and totals the receipts file at path.
func Load(path string, layout config.Intake) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open receipts: %w", err)
	}
	defer f.Close()
	return Parse(f, path, layout)
}

// Parse totals receipts read from r. Lines whose amount column does not
// hold an integer are reported and skipped.
func Parse(r io.Reader, name string, layout config.Intake) (*Report, error) {
	rep := &Report{Path: name}
	var (
		date    string
		running int
	)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, subtotalMarker) {
			rep.Subtotals = append(rep.Subtotals, Subtotal{Date: date, Amount: running, Line: lineNum})
			running = 0
			continue
		}
		if d, ok := dateMarker(line); ok {
			date = d
			continue
		}

		amount, err := amountColumn(raw, layout)
		if err != nil {
			rep.Malformed = append(rep.Malformed, types.NewMalformed(name, lineNum, "%v", err))
			continue
		}
		running += amount
		rep.Total += amount
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return rep, nil
}

// dateMarker recognises "YYMMDD" on its own and "Date: <anything>".
func dateMarker(line string) (string, bool) {
	if len(line) == 6 {
		if _, err := time.Parse("060102", line); err == nil {
			return line, true
		}
	}
	if head, rest, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(head), "date") {
		return strings.TrimSpace(rest), true
	}
	return "", false
}

// amountColumn extracts the amount from its column range, clipped to the
// line. A leading '$' and thousands separators are accepted.
func amountColumn(line string, layout config.Intake) (int, error) {
	start, end := layout.AmountStart, layout.AmountEnd
	if start >= len(line) {
		return 0, fmt.Errorf("line %q is shorter than the amount column", line)
	}
	end = min(end, len(line))
	cell := strings.TrimSpace(line[start:end])
	cell = strings.ReplaceAll(strings.TrimPrefix(cell, "$"), ",", "")
	n, err := strconv.Atoi(cell)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not an integer", strings.TrimSpace(line[start:end]))
	}
	return n, nil
}

// String renders one line per subtotal and the grand total.
func (r *Report) String() string {
	var b strings.Builder
	for _, s := range r.Subtotals {
		label := "Subtotal"
		if s.Date != "" {
			label = s.Date + " subtotal"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, member.FormatDollars(s.Amount))
	}
	fmt.Fprintf(&b, "Grand total: %s\n", member.FormatDollars(r.Total))
	return b.String()
}
