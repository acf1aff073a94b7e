package member

import (
	"fmt"
	"strconv"
	"strings"
)

// AmountKind tags the variant held by an Amount.
type AmountKind int

const (
	// AmountZero is an empty cell: nothing owed, no credit.
	AmountZero AmountKind = iota
	// AmountWaived is a literal "w" cell.
	AmountWaived
	// AmountOwed is a positive value.
	AmountOwed
	// AmountCredit is a negative value.
	AmountCredit
)

// Amount is one money cell of the roster. The zero value is AmountZero.
type Amount struct {
	kind  AmountKind
	value int
}

// Waived is the "w" amount.
var Waived = Amount{kind: AmountWaived}

// NewAmount returns the amount for a signed integer.
func NewAmount(n int) Amount {
	switch {
	case n > 0:
		return Amount{kind: AmountOwed, value: n}
	case n < 0:
		return Amount{kind: AmountCredit, value: n}
	default:
		return Amount{}
	}
}

// ParseAmount decodes a money cell. Valid cells are "", "w", or the
// canonical decimal form of an integer ("05" and "+5" are rejected).
func ParseAmount(cell string) (Amount, error) {
	cell = strings.TrimSpace(cell)
	switch cell {
	case "":
		return Amount{}, nil
	case "w":
		return Waived, nil
	}
	n, err := strconv.Atoi(cell)
	if err != nil || strconv.Itoa(n) != cell {
		return Amount{}, fmt.Errorf("money value %q is neither empty, 'w', nor an integer", cell)
	}
	return NewAmount(n), nil
}

// Kind returns the variant.
func (a Amount) Kind() AmountKind { return a.kind }

// Int returns the signed value; waived and zero contribute 0.
func (a Amount) Int() int {
	if a.kind == AmountWaived {
		return 0
	}
	return a.value
}

// IsWaived reports whether the cell is "w".
func (a Amount) IsWaived() bool { return a.kind == AmountWaived }

// IsZero reports whether the cell is empty (or a literal 0).
func (a Amount) IsZero() bool { return a.kind == AmountZero }

// Owes reports whether the amount is strictly positive.
func (a Amount) Owes() bool { return a.kind == AmountOwed }

// InCredit reports whether the amount is strictly negative.
func (a Amount) InCredit() bool { return a.kind == AmountCredit }

// Add returns a+n. A waived amount stays waived.
func (a Amount) Add(n int) Amount {
	if a.kind == AmountWaived {
		return a
	}
	return NewAmount(a.value + n)
}

// String returns the cell encoding used in the roster file.
func (a Amount) String() string {
	switch a.kind {
	case AmountWaived:
		return "w"
	case AmountZero:
		return ""
	default:
		return strconv.Itoa(a.value)
	}
}

// Dollars renders the amount for statements: "$100", "-$25", "waived".
func (a Amount) Dollars() string {
	if a.kind == AmountWaived {
		return "waived"
	}
	return FormatDollars(a.value)
}

// FormatDollars renders a signed integer as "$n" or "-$n".
func FormatDollars(n int) string {
	if n < 0 {
		return fmt.Sprintf("-$%d", -n)
	}
	return fmt.Sprintf("$%d", n)
}
