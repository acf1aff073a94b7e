package intake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexKleider/Club-Utilities-sub000/internal/config"
)

var layout = config.Intake{AmountStart: 0, AmountEnd: 8}

func TestParse_SubtotalAndGrandTotal(t *testing.T) {
	rep, err := Parse(strings.NewReader("100\n100\n---\n75\n"), "receipts.txt", layout)
	require.NoError(t, err)
	require.Len(t, rep.Subtotals, 1)
	assert.Equal(t, 200, rep.Subtotals[0].Amount)
	assert.Equal(t, 275, rep.Total)
	assert.Equal(t, "Subtotal: $200\nGrand total: $275\n", rep.String())
}

func TestParse_DatesAndColumns(t *testing.T) {
	input := strings.Join([]string{
		"# receipts",
		"240105",
		"    200  Jane Doe dues",
		"  $1,000  John Roe mooring",
		"---------",
		"Date: Feb 2, 2024",
		"     30  Al Able dock",
		"    abc  nobody",
		"--- deposit",
		"",
	}, "\n")
	rep, err := Parse(strings.NewReader(input), "receipts.txt", layout)
	require.NoError(t, err)

	require.Len(t, rep.Subtotals, 2)
	assert.Equal(t, Subtotal{Date: "240105", Amount: 1200, Line: 5}, rep.Subtotals[0])
	assert.Equal(t, Subtotal{Date: "Feb 2, 2024", Amount: 30, Line: 9}, rep.Subtotals[1])
	assert.Equal(t, 1230, rep.Total)

	require.Len(t, rep.Malformed, 1)
	assert.Equal(t, 8, rep.Malformed[0].Line)
	assert.Contains(t, rep.Malformed[0].Reason, `amount "abc" is not an integer`)

	assert.Equal(t, "240105 subtotal: $1200\nFeb 2, 2024 subtotal: $30\nGrand total: $1230\n", rep.String())
}

func TestParse_ShiftedColumn(t *testing.T) {
	rep, err := Parse(strings.NewReader("Jane Doe  50\nJohn Roe  25\n"), "receipts.txt",
		config.Intake{AmountStart: 10, AmountEnd: 14})
	require.NoError(t, err)
	assert.Equal(t, 75, rep.Total)

	rep, err = Parse(strings.NewReader("short\n"), "receipts.txt", config.Intake{AmountStart: 10, AmountEnd: 14})
	require.NoError(t, err)
	require.Len(t, rep.Malformed, 1)
	assert.Contains(t, rep.Malformed[0].Reason, "shorter than the amount column")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "receipts.txt")
	require.NoError(t, os.WriteFile(path, []byte("10\n---\n"), 0o644))

	rep, err := Load(path, layout)
	require.NoError(t, err)
	assert.Equal(t, 10, rep.Total)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"), layout)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
