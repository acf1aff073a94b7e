package fees

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

func newMember(first, last string, dues, dock, kayak, mooring member.Amount, status ...member.Status) *member.Member {
	return &member.Member{
		First: first, Last: last,
		Dues: dues, Dock: dock, Kayak: kayak, Mooring: mooring,
		Status: member.NewStatusSet(status...),
	}
}

var zero member.Amount

func TestParse_Sections(t *testing.T) {
	input := strings.Join([]string{
		"# extra fees 2024",
		"Dock usage:",
		"Jane Doe: 75",
		"",
		"Moorings:",
		"John Roe: 100",
		"John Roe: 25",
		"Kayaks:",
		"Jane Doe : 70",
		"Lockers:",
		"Al Able: 10",
	}, "\n")
	log, err := Parse(strings.NewReader(input), "extra_fees.txt")
	require.NoError(t, err)
	assert.Empty(t, log.Malformed)

	require.Len(t, log.Warnings, 1)
	assert.Equal(t, 10, log.Warnings[0].Line)
	assert.Contains(t, log.Warnings[0].Reason, `unknown category "Lockers"`)

	require.Len(t, log.Entries, 4)
	totals := log.Totals()
	assert.Equal(t, 75, totals[member.FieldDock][member.Key{Last: "Doe", First: "Jane"}])
	assert.Equal(t, 125, totals[member.FieldMooring][member.Key{Last: "Roe", First: "John"}])
	assert.Equal(t, 70, totals[member.FieldKayak][member.Key{Last: "Doe", First: "Jane"}])
	assert.Len(t, log.Keys(), 2)
	assert.Len(t, log.ByCategory(member.FieldMooring), 2)
}

func TestParse_MalformedLines(t *testing.T) {
	input := strings.Join([]string{
		"Jane Doe: 75",
		"Dock:",
		"Jane Doe 75",
		"Mary Ann Smith: 10",
		"John Roe: lots",
	}, "\n")
	log, err := Parse(strings.NewReader(input), "extra_fees.txt")
	require.NoError(t, err)
	assert.Empty(t, log.Entries)
	require.Len(t, log.Malformed, 4)
	assert.Contains(t, log.Malformed[0].Reason, "precedes any category header")
	assert.Contains(t, log.Malformed[1].Reason, "lacks ':'")
	assert.Contains(t, log.Malformed[2].Reason, "exactly two tokens")
	assert.Contains(t, log.Malformed[3].Reason, "not an integer")
}

func TestCategoryFromHeader(t *testing.T) {
	for header, want := range map[string]member.MoneyField{
		"Dock":       member.FieldDock,
		"DOCK usage": member.FieldDock,
		"Moorings":   member.FieldMooring,
		"kayaks":     member.FieldKayak,
	} {
		got, ok := CategoryFromHeader(header)
		assert.True(t, ok, header)
		assert.Equal(t, want, got, header)
	}
	_, ok := CategoryFromHeader("Dues")
	assert.False(t, ok)
}

func TestStatementFor(t *testing.T) {
	m := newMember("Jane", "Doe", member.NewAmount(100), member.NewAmount(75), member.Waived, member.NewAmount(-25))
	s := StatementFor(m)
	assert.Equal(t, []string{
		"Dues: $100",
		"Dock: $75",
		"Kayak: waived",
		"Mooring: -$25",
		"Total: $150",
	}, s.Lines())
	assert.Equal(t, 150, s.Total)
}

func TestStatementFor_PaidUpAndCredit(t *testing.T) {
	empty := newMember("Al", "Able", zero, zero, zero, zero)
	assert.Equal(t, []string{"Total: $0 (all paid up)"}, StatementFor(empty).Lines())

	credit := newMember("Bo", "Zed", member.NewAmount(-25), zero, zero, zero)
	assert.Equal(t, "Dues: -$25\nTotal: -$25 (credit)", StatementFor(credit).String())
}

func TestComputePayables(t *testing.T) {
	r := member.NewRoster([]*member.Member{
		newMember("Jane", "Doe", member.Waived, member.NewAmount(75), zero, zero),
		newMember("John", "Roe", member.NewAmount(100), zero, zero, member.NewAmount(-50)),
		newMember("Al", "Able", zero, zero, zero, zero),
	})
	p := ComputePayables(r)

	require.Len(t, p.Owing, 2)
	assert.Equal(t, "Jane Doe", p.Owing[0].Member.Name())
	assert.Equal(t, []Item{{Field: member.FieldDock, Amount: member.NewAmount(75)}}, p.Owing[0].Items)
	assert.Equal(t, "John Roe", p.Owing[1].Member.Name())

	require.Len(t, p.Advance, 1)
	assert.Equal(t, "John Roe", p.Advance[0].Member.Name())

	// A member in both lists never shares a column between them.
	for _, o := range p.Owing {
		for _, a := range p.Advance {
			if o.Member != a.Member {
				continue
			}
			for _, oi := range o.Items {
				for _, ai := range a.Items {
					assert.NotEqual(t, oi.Field, ai.Field)
				}
			}
		}
	}
}

func TestRestoreFees(t *testing.T) {
	r := member.NewRoster([]*member.Member{
		newMember("Jane", "Doe", zero, member.Waived, zero, member.NewAmount(-25)),
		newMember("Sam", "Free", zero, zero, zero, zero, member.StatusWaived),
		newMember("John", "Roe", zero, zero, zero, zero, member.StatusAttended2),
		newMember("Al", "Zed", member.NewAmount(-10), zero, zero, zero, member.StatusMember),
	})
	log, err := Parse(strings.NewReader("Dock:\nJane Doe: 75\nMooring:\nJane Doe: 100\nSam Free: 40\nKayak:\nJohn Roe: 70\n"), "extra_fees.txt")
	require.NoError(t, err)

	out, err := RestoreFees(r, 200, log)
	require.NoError(t, err)

	jane := out.ByName[member.Key{Last: "Doe", First: "Jane"}]
	assert.Equal(t, 200, jane.Dues.Int())
	assert.True(t, jane.Dock.IsWaived())
	assert.Equal(t, 75, jane.Mooring.Int())

	sam := out.ByName[member.Key{Last: "Free", First: "Sam"}]
	assert.True(t, sam.Dues.IsZero())
	assert.True(t, sam.Mooring.IsZero())

	john := out.ByName[member.Key{Last: "Roe", First: "John"}]
	assert.True(t, john.Dues.IsZero())
	assert.Equal(t, 70, john.Kayak.Int())

	al := out.ByName[member.Key{Last: "Zed", First: "Al"}]
	assert.Equal(t, 190, al.Dues.Int())

	// The input roster is left untouched.
	assert.True(t, r.ByName[member.Key{Last: "Doe", First: "Jane"}].Dues.IsZero())
}

func TestRestoreFees_RefusesWhenNotZeroed(t *testing.T) {
	r := member.NewRoster([]*member.Member{
		newMember("Jane", "Doe", member.NewAmount(50), zero, zero, zero),
		newMember("John", "Roe", zero, zero, zero, zero),
	})
	log, err := Parse(strings.NewReader(""), "extra_fees.txt")
	require.NoError(t, err)

	out, err := RestoreFees(r, 200, log)
	assert.Nil(t, out)
	var refusal *RefusalError
	require.True(t, errors.As(err, &refusal))
	assert.Equal(t, []string{"Jane Doe"}, refusal.NotZeroed)
	assert.Empty(t, refusal.Unresolved)
	assert.ErrorIs(t, err, ErrRefused)
	assert.Equal(t, 50, r.Members[0].Dues.Int())
}

func TestRestoreFees_RefusesMalformedRoster(t *testing.T) {
	csv := strings.Join([]string{
		strings.Join(member.Fields, ","),
		"Ann,Able,,,,,,,ann@x,50.00,,,,m",
		"Bob,Baker,,,,,,,bob@x,,,",
		"Cy,Cole,,,,,,,cy@x,,,,,m",
	}, "\n") + "\n"
	r, err := member.Parse(strings.NewReader(csv), "memlist.csv")
	require.NoError(t, err)
	require.Len(t, r.Malformed, 2)

	out, err := RestoreFees(r, 200, &Log{})
	assert.Nil(t, out)
	var refusal *RefusalError
	require.True(t, errors.As(err, &refusal))
	assert.ErrorIs(t, err, ErrRefused)
	assert.Empty(t, refusal.NotZeroed)
	require.Len(t, refusal.Malformed, 2)
	assert.Contains(t, refusal.Malformed[0], "memlist.csv:2")
	assert.Contains(t, refusal.Malformed[1], "memlist.csv:3")
	assert.Contains(t, err.Error(), "2 malformed roster row(s)")
}

func TestRestoreFees_RefusesUnresolvedNames(t *testing.T) {
	r := member.NewRoster([]*member.Member{newMember("Jane", "Doe", zero, zero, zero, zero)})
	log, err := Parse(strings.NewReader("Dock:\nNo Body: 75\n"), "extra_fees.txt")
	require.NoError(t, err)

	_, err = RestoreFees(r, 200, log)
	var refusal *RefusalError
	require.True(t, errors.As(err, &refusal))
	assert.Equal(t, []string{"No Body"}, refusal.Unresolved)
}

func TestRestoreFees_SecondRunRefuses(t *testing.T) {
	r := member.NewRoster([]*member.Member{newMember("Jane", "Doe", zero, zero, zero, zero)})
	log, err := Parse(strings.NewReader("Dock:\nJane Doe: 75\n"), "extra_fees.txt")
	require.NoError(t, err)

	once, err := RestoreFees(r, 200, log)
	require.NoError(t, err)
	_, err = RestoreFees(once, 200, log)
	assert.ErrorIs(t, err, ErrRefused)
}
