package xlsx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

func sampleRoster() *member.Roster {
	r := member.NewRoster([]*member.Member{
		{First: "Jane", Last: "Doe", Phone: "415-555-0101", Address: "1 Main St", Town: "Bolinas", State: "CA", PostalCode: "04924",
			Email: "jane@x", Dues: member.NewAmount(100), Kayak: member.Waived, Status: member.NewStatusSet(member.StatusRetiring)},
		{First: "John", Last: "Roe", Dock: member.NewAmount(-25), Status: member.NewStatusSet(member.StatusAttended1), EmailOnly: true},
	})
	r.HasEmailOnly = true
	return r
}

func TestExportImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, Export(path, sampleRoster(), Options{}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Roster"}, f.GetSheetList())
	dues, err := f.GetCellValue("Roster", "J2")
	require.NoError(t, err)
	assert.Equal(t, "100", dues)
	require.NoError(t, f.Close())

	got, err := Import(path, Options{})
	require.NoError(t, err)
	assert.Empty(t, got.Malformed)
	assert.True(t, got.HasEmailOnly)
	require.Len(t, got.Members, 2)

	for i, want := range sampleRoster().Members {
		assert.Equal(t, want.Values(), got.Members[i].Values())
		assert.Equal(t, want.EmailOnly, got.Members[i].EmailOnly)
	}
}

func TestImport_ReportsRowProblems(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	f := excelize.NewFile()
	header := make([]any, len(member.Fields))
	for i, h := range member.Fields {
		header[i] = h
	}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"Jane", "Doe", "", "", "", "", "", "", "jane.at.x", "1.5"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	r, err := Import(path, Options{Sheet: "Sheet1"})
	require.NoError(t, err)
	require.Len(t, r.Malformed, 2)
	assert.Equal(t, 2, r.Malformed[0].Line)
	assert.Contains(t, r.Malformed[0].Reason, "dues field")
	assert.Contains(t, r.Malformed[1].Reason, "lacks '@'")
}

func TestImport_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, Export(path, sampleRoster(), Options{Sheet: "Members"}))

	_, err := Import(path, Options{Sheet: "Nope"})
	assert.ErrorContains(t, err, `no sheet "Nope"`)

	_, err = Import(filepath.Join(t.TempDir(), "missing.xlsx"), Options{})
	assert.Error(t, err)
}

func TestPadRows(t *testing.T) {
	out := padRows([][]string{{"a", "b", "c"}, {"x"}, nil})
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"x", "", ""}, {"", "", ""}}, out)
}
