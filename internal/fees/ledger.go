package fees

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

var titleCaser = cases.Title(language.English)

// Label returns the display label of a money column, e.g. "Mooring".
func Label(f member.MoneyField) string {
	return titleCaser.String(string(f))
}

// =============================================================================
// STATEMENT
// =============================================================================

// Item is one non-empty money column of a statement.
type Item struct {
	Field  member.MoneyField
	Amount member.Amount
}

// String renders "Dues: $100", "Kayak: waived".
func (i Item) String() string {
	return Label(i.Field) + ": " + i.Amount.Dollars()
}

// Statement is a member's breakdown over the four money columns.
type Statement struct {
	Key   member.Key
	Items []Item

	// Total is the signed sum; waived columns contribute 0.
	Total int
}

// StatementFor builds the statement of one member. Empty columns are
// omitted.
func StatementFor(m *member.Member) Statement {
	s := Statement{Key: m.Key()}
	for _, f := range member.MoneyFields {
		a := m.Money(f)
		if a.IsZero() {
			continue
		}
		s.Items = append(s.Items, Item{Field: f, Amount: a})
		s.Total += a.Int()
	}
	return s
}

// TotalLine renders the total with its "all paid up" / "credit" label.
func (s Statement) TotalLine() string {
	switch {
	case s.Total < 0:
		return "Total: " + member.FormatDollars(s.Total) + " (credit)"
	case s.Total == 0:
		return "Total: $0 (all paid up)"
	default:
		return "Total: " + member.FormatDollars(s.Total)
	}
}

// Lines renders the item lines followed by the total line.
func (s Statement) Lines() []string {
	out := make([]string, 0, len(s.Items)+1)
	for _, it := range s.Items {
		out = append(out, it.String())
	}
	return append(out, s.TotalLine())
}

// String joins Lines with newlines.
func (s Statement) String() string {
	return strings.Join(s.Lines(), "\n")
}

// =============================================================================
// PAYABLES
// =============================================================================

// Payable lists the columns of one member that are owed or in credit.
type Payable struct {
	Member *member.Member
	Items  []Item
}

// Payables partitions the roster into members owing and members in credit.
// A member may appear in both, never with the same column.
type Payables struct {
	Owing   []Payable
	Advance []Payable
}

// ComputePayables scans the roster in key order.
func ComputePayables(r *member.Roster) Payables {
	var p Payables
	for _, m := range r.Sorted() {
		var owing, advance []Item
		for _, f := range member.MoneyFields {
			a := m.Money(f)
			switch {
			case a.Owes():
				owing = append(owing, Item{Field: f, Amount: a})
			case a.InCredit():
				advance = append(advance, Item{Field: f, Amount: a})
			}
		}
		if len(owing) > 0 {
			p.Owing = append(p.Owing, Payable{Member: m, Items: owing})
		}
		if len(advance) > 0 {
			p.Advance = append(p.Advance, Payable{Member: m, Items: advance})
		}
	}
	return p
}

// =============================================================================
// RESTORE FEES
// =============================================================================

// ErrRefused is matched by errors.Is for any RefusalError.
var ErrRefused = errors.New("restore fees refused")

// RefusalError is returned when restore fees cannot run. Nothing is
// written when it is returned.
type RefusalError struct {
	// NotZeroed names members that still owe something.
	NotZeroed []string

	// Unresolved names fee-log entries with no roster record.
	Unresolved []string

	// Malformed lists roster rows that did not load cleanly. Such a row
	// is missing or partly read, so writing the roster back would lose it.
	Malformed []string
}

func (e *RefusalError) Error() string {
	var parts []string
	if n := len(e.NotZeroed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d member(s) not zeroed out: %s", n, strings.Join(e.NotZeroed, ", ")))
	}
	if n := len(e.Unresolved); n > 0 {
		parts = append(parts, fmt.Sprintf("%d fee-log name(s) not in roster: %s", n, strings.Join(e.Unresolved, ", ")))
	}
	if n := len(e.Malformed); n > 0 {
		parts = append(parts, fmt.Sprintf("%d malformed roster row(s): %s", n, strings.Join(e.Malformed, "; ")))
	}
	return ErrRefused.Error() + ": " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrRefused) match.
func (e *RefusalError) Is(target error) bool { return target == ErrRefused }

// RestoreFees charges the yearly dues and the fee-log amounts for a new
// club year.
//
// Preconditions, all checked before anything is computed:
//   - the roster loaded without malformed rows
//   - every member not waived by status owes nothing in any column
//   - every name in the fee log has a roster record
//
// Members holding the "w" status are skipped. Dues are charged to members
// only; applicants pay their dues on induction. A waived column stays
// waived.
//
// RETURNS:
//   - a new roster; the input is never modified
//   - *RefusalError when a precondition fails
func RestoreFees(r *member.Roster, yearlyDues int, log *Log) (*member.Roster, error) {
	refusal := &RefusalError{}
	for _, bad := range r.Malformed {
		refusal.Malformed = append(refusal.Malformed, bad.Error())
	}
	for _, m := range r.Sorted() {
		if m.Status.Has(member.StatusWaived) {
			continue
		}
		for _, f := range member.MoneyFields {
			if m.Money(f).Owes() {
				refusal.NotZeroed = append(refusal.NotZeroed, m.Name())
				break
			}
		}
	}
	for _, k := range log.Keys() {
		if _, ok := r.Lookup(k); !ok {
			refusal.Unresolved = append(refusal.Unresolved, k.String())
		}
	}
	if len(refusal.NotZeroed) > 0 || len(refusal.Unresolved) > 0 || len(refusal.Malformed) > 0 {
		return nil, refusal
	}

	out := r.Clone()
	for _, m := range out.Members {
		if m.Status.Has(member.StatusWaived) || !m.IsMember() {
			continue
		}
		m.Dues = m.Dues.Add(yearlyDues)
	}
	for _, e := range log.Entries {
		m := out.ByName[e.Key]
		if m.Status.Has(member.StatusWaived) {
			continue
		}
		m.SetMoney(e.Category, m.Money(e.Category).Add(e.Amount))
	}
	return out, nil
}
