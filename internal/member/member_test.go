package member

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "first,last,phone,address,town,state,postal_code,country,email,dues,dock,kayak,mooring,status\n"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		cell    string
		kind    AmountKind
		value   int
		wantErr bool
	}{
		{cell: "", kind: AmountZero},
		{cell: "w", kind: AmountWaived},
		{cell: "100", kind: AmountOwed, value: 100},
		{cell: "-25", kind: AmountCredit, value: -25},
		{cell: "0", kind: AmountZero},
		{cell: "05", wantErr: true},
		{cell: "+5", wantErr: true},
		{cell: "1.5", wantErr: true},
		{cell: "W", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			a, err := ParseAmount(tt.cell)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, a.Kind())
			assert.Equal(t, tt.value, a.Int())
		})
	}
}

func TestAmount_AddAndRender(t *testing.T) {
	assert.Equal(t, "50", NewAmount(-25).Add(75).String())
	assert.Equal(t, "", NewAmount(25).Add(-25).String())
	assert.Equal(t, "w", Waived.Add(200).String())
	assert.Equal(t, "-$25", NewAmount(-25).Dollars())
	assert.Equal(t, "$100", NewAmount(100).Dollars())
	assert.Equal(t, "waived", Waived.Dollars())
}

func TestStatusSet(t *testing.T) {
	set, unknown := ParseStatusSet("w| a2 |bogus")
	assert.Equal(t, []string{"bogus"}, unknown)
	assert.True(t, set.Has(StatusWaived))
	assert.True(t, set.Has(StatusAttended2))
	assert.Equal(t, "a2|w|bogus", set.String())

	tok, ok := set.ApplicantToken()
	require.True(t, ok)
	assert.Equal(t, StatusAttended2, tok)
	assert.Equal(t, StatusAttended2, set.Lifecycle())

	assert.False(t, StatusNewMember.IsApplicantToken())
	assert.True(t, StatusWithdrawn.IsApplicantToken())
	assert.Equal(t, StatusMember, NewStatusSet(StatusNewMember).Lifecycle())
	assert.Equal(t, StatusExpired, NewStatusSet(StatusExpired).Lifecycle())
	assert.Equal(t, StatusMember, NewStatusSet().Lifecycle())
}

func TestParse_CollectsFindingsWithoutAborting(t *testing.T) {
	input := header +
		"Jane,Doe,555,1 Main St,Bolinas,CA,94924,USA,jane@x,100,75,w,-25,\n" +
		"# comment line\n" +
		"Short,Row,1,2\n" +
		"Al,Able,,,,,,,al.example.com,abc,,,,\n" +
		"Bo,Zed,,,,,,,bo@x,,,,,a1|qq\n" +
		"Cy,Baker,,,,,,,bo@x,,,,,\n" +
		"Cy,Baker,,,,,,,,,,,,\n"

	r, err := Parse(strings.NewReader(input), "memlist.csv")
	require.NoError(t, err)

	assert.Len(t, r.Members, 4)
	assert.False(t, r.HasEmailOnly)

	reasons := make([]string, 0, len(r.Malformed))
	for _, m := range r.Malformed {
		reasons = append(reasons, m.Error())
	}
	joined := strings.Join(reasons, "\n")
	assert.Contains(t, joined, "memlist.csv:4: expected 14 fields, found 4")
	assert.Contains(t, joined, "dues field")
	assert.Contains(t, joined, "lacks '@'")
	assert.Contains(t, joined, `unrecognized status token "qq"`)
	assert.Contains(t, joined, "Cy Baker: duplicate record")

	require.Len(t, r.OutOfOrder, 2)
	assert.Equal(t, Key{Last: "Able", First: "Al"}, r.OutOfOrder[0].Key)
	assert.Equal(t, Key{Last: "Baker", First: "Cy"}, r.OutOfOrder[1].Key)

	jane, ok := r.Lookup(Key{Last: "Doe", First: "Jane"})
	require.True(t, ok)
	assert.Equal(t, 100, jane.Dues.Int())
	assert.True(t, jane.Kayak.IsWaived())
	assert.True(t, jane.Mooring.InCredit())

	shared := r.SharedEmails()
	require.Contains(t, shared, "bo@x")
	assert.Len(t, shared["bo@x"], 2)
}

func TestParse_EveryRowHasHeaderWidth(t *testing.T) {
	input := header +
		"A,Aa,,,,,,,,,,,,\n" +
		"B,Bb,,,,,,,,,,,\n" +
		"C,Cc,,,,,,,,,,,,,\n"
	r, err := Parse(strings.NewReader(input), "memlist.csv")
	require.NoError(t, err)
	require.Len(t, r.Members, 1)
	assert.Len(t, r.Malformed, 2)
	for _, m := range r.Members {
		assert.Len(t, m.Values(), len(r.Header))
	}
}

func TestParse_EmailOnlyColumn(t *testing.T) {
	input := strings.TrimSuffix(header, "\n") + ",email_only\n" +
		"Jane,Doe,,,,,,,jane@x,,,,,,y\n"
	r, err := Parse(strings.NewReader(input), "memlist.csv")
	require.NoError(t, err)
	assert.True(t, r.HasEmailOnly)
	assert.Empty(t, r.Malformed)
	assert.True(t, r.Members[0].EmailOnly)
}

func TestWrite_RoundTrip(t *testing.T) {
	input := header +
		"Jane,Doe,555,\"1 Main St, Apt 2\",Bolinas,CA,94924,USA,jane@x,100,75,w,-25,be|w\n" +
		"John,Roe,,,,,,,,,,,,a2\n"
	first, err := Parse(strings.NewReader(input), "memlist.csv")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, first))

	second, err := Parse(bytes.NewReader(buf.Bytes()), "memlist.csv")
	require.NoError(t, err)
	require.Len(t, second.Members, len(first.Members))
	for i := range first.Members {
		assert.Equal(t, first.Members[i].Values(), second.Members[i].Values())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "memlist.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFile_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	r := NewRoster([]*Member{{First: "Jane", Last: "Doe", Status: NewStatusSet()}})
	require.NoError(t, WriteFile(path, r))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Members, 1)
	assert.Equal(t, "Jane Doe", loaded.Members[0].Name())
}

func TestAddressLines(t *testing.T) {
	m := &Member{Address: "1 Main St", Town: "Bolinas", State: "CA", PostalCode: "94924", Country: "USA"}
	assert.Equal(t, []string{"1 Main St", "Bolinas, CA 94924"}, m.AddressLines())

	m.Country = "Canada"
	assert.Equal(t, []string{"1 Main St", "Bolinas, CA 94924", "Canada"}, m.AddressLines())
}

func TestKeyFromName(t *testing.T) {
	k, err := KeyFromName("  John   Roe ")
	require.NoError(t, err)
	assert.Equal(t, Key{First: "John", Last: "Roe"}, k)

	_, err = KeyFromName("John Q Roe")
	assert.Error(t, err)
}
