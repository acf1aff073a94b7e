package content

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

func testMember(status ...member.Status) *member.Member {
	return &member.Member{
		First: "Jane", Last: "Doe", Email: "jane@gmail.com",
		Address: "1 Main St", Town: "Bolinas", State: "CA", PostalCode: "94924",
		Status: member.NewStatusSet(status...),
	}
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	names := c.Names()
	for _, want := range []string{
		"first_notice", "penultimate_warning", "welcome2full_membership", "bad_address", "thank",
	} {
		assert.Contains(t, names, want)
	}
	assert.IsIncreasing(t, names)

	k, err := c.Lookup("first_notice")
	require.NoError(t, err)
	assert.Equal(t, PolicyOneOnly, k.Policy)

	_, err = c.Lookup("nope")
	assert.True(t, errors.Is(err, ErrUnknownKind))

	// Every built-in kind uses only known steps and predicates.
	m := testMember()
	for _, name := range names {
		k, _ := c.Lookup(name)
		_, err := Evaluate(k.Predicate, m, Env{})
		assert.NoError(t, err, name)
		for _, s := range k.Steps {
			_, err := Apply(s, m.Clone(), BaseFields(m), Env{Payments: map[member.Key]int{m.Key(): 1}})
			assert.NoError(t, err, name)
		}
	}
}

func TestEvaluate(t *testing.T) {
	owing := testMember()
	owing.Dues = member.NewAmount(100)
	returned := map[member.Key]bool{owing.Key(): true}

	tests := []struct {
		pred Predicate
		m    *member.Member
		want bool
	}{
		{Predicate{Name: IsMember}, testMember(), true},
		{Predicate{Name: IsMember}, testMember(member.StatusAttended1), false},
		{Predicate{Name: IsApplicant}, testMember(member.StatusWithdrawn), true},
		{Predicate{Name: IsFeePayingMember}, testMember(member.StatusWaived), false},
		{Predicate{Name: NotPaidUp}, owing, true},
		{Predicate{Name: NotPaidUp}, testMember(), false},
		{Predicate{Name: IsInductee}, testMember(member.StatusInducted), true},
		{Predicate{Name: IsNewMember}, testMember(member.StatusNewMember), true},
		{Predicate{Name: IsTerminated}, testMember(member.StatusExpired), true},
		{Predicate{Name: HasValidEmail}, testMember(member.StatusBadEmail), false},
		{Predicate{Name: LetterReturned}, owing, true},
		{Predicate{Name: IsGmailUser}, testMember(), true},
		{Predicate{Name: HasStatus, Arg: "r"}, testMember(member.StatusRetiring), true},
	}
	for _, tt := range tests {
		t.Run(tt.pred.String(), func(t *testing.T) {
			got, err := Evaluate(tt.pred, tt.m, Env{ReturnedLetters: returned})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Evaluate(Predicate{Name: HasStatus}, testMember(), Env{})
	assert.Error(t, err)
	_, err = Evaluate(Predicate{Name: "bogus"}, testMember(), Env{})
	assert.Error(t, err)
}

func TestApply_AssignStatement(t *testing.T) {
	m := testMember()
	m.Dues = member.NewAmount(100)
	m.Kayak = member.Waived

	fields := BaseFields(m)
	skip, err := Apply(AssignStatement2Extra, m, fields, Env{OwingOnly: true})
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, "Dues: $100\nKayak: waived\nTotal: $100", fields["extra"])

	paid := testMember()
	skip, err = Apply(AssignStatement2Extra, paid, BaseFields(paid), Env{OwingOnly: true})
	require.NoError(t, err)
	assert.True(t, skip)

	skip, err = Apply(AssignStatement2Extra, paid, BaseFields(paid), Env{})
	require.NoError(t, err)
	assert.False(t, skip)
}

func TestInducteeDues(t *testing.T) {
	env := Env{YearlyDues: 200, HalfYearDues: 100, InducteeCutoffMonth: 4}

	env.Now = time.Date(2024, time.April, 30, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 100, InducteeDues(env))

	env.Now = time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 200, InducteeDues(env))

	fields := Fields{}
	_, err := Apply(SetInducteeDues, testMember(), fields, env)
	require.NoError(t, err)
	assert.Equal(t, "$200", fields["current_dues"])
}

func TestApply_ThankAndBadAddress(t *testing.T) {
	m := testMember()
	m.Dock = member.NewAmount(-25)

	skip, err := Apply(Thank, m, Fields{}, Env{})
	require.NoError(t, err)
	assert.True(t, skip)

	fields := Fields{}
	skip, err = Apply(Thank, m, fields, Env{Payments: map[member.Key]int{m.Key(): 225}})
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, "$225", fields["payment"])
	assert.Contains(t, fields["extra"], "Payment received: $225")
	assert.Contains(t, fields["extra"], "    Total: -$25 (credit)")

	fields = Fields{}
	_, err = Apply(BadAddressMailing, m, fields, Env{})
	require.NoError(t, err)
	assert.Equal(t, "    Jane Doe\n    1 Main St\n    Bolinas, CA 94924", fields["extra"])

	_, err = Apply("bogus", m, Fields{}, Env{})
	assert.Error(t, err)
}

func TestSubstitute(t *testing.T) {
	out, err := Substitute("Dear {first} {last},\n{extra}", Fields{"first": "Jane", "last": "Doe", "extra": "{first}"})
	require.NoError(t, err)
	assert.Equal(t, "Dear Jane Doe,\n{first}", out)

	_, err = Substitute("{first} owes {current_dues} and {total}", Fields{"first": "Jane"})
	assert.EqualError(t, err, "unresolved template fields: current_dues, total")

	out, err = Substitute("literal {Braces} stay", Fields{})
	require.NoError(t, err)
	assert.Equal(t, "literal {Braces} stay", out)
}
