package validation

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexKleider/Club-Utilities-sub000/internal/applicant"
	"github.com/alexKleider/Club-Utilities-sub000/internal/contacts"
	"github.com/alexKleider/Club-Utilities-sub000/internal/fees"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

const rosterHeader = "first,last,phone,address,town,state,postal_code,country,email,dues,dock,kayak,mooring,status\n"
const contactsHeader = "Given Name,Additional Name,Family Name,Name Suffix,E-mail 1 - Value,Group Membership\n"

func roster(t *testing.T, rows ...string) *member.Roster {
	t.Helper()
	r, err := member.Parse(strings.NewReader(rosterHeader+strings.Join(rows, "\n")+"\n"), "memlist.csv")
	require.NoError(t, err)
	return r
}

func book(t *testing.T, rows ...string) *contacts.Book {
	t.Helper()
	b, err := contacts.Parse(strings.NewReader(contactsHeader+strings.Join(rows, "\n")+"\n"), "contacts.csv")
	require.NoError(t, err)
	return b
}

func applicants(t *testing.T, lines ...string) *applicant.Log {
	t.Helper()
	l, err := applicant.Parse(strings.NewReader(strings.Join(lines, "\n")), "applicants.txt")
	require.NoError(t, err)
	return l
}

func feeLog(t *testing.T, text string) *fees.Log {
	t.Helper()
	l, err := fees.Parse(strings.NewReader(text), "extra_fees.txt")
	require.NoError(t, err)
	return l
}

func render(t *testing.T, r *Report, opts RenderOptions) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, opts))
	return buf.String()
}

func TestCheck_HappyPath(t *testing.T) {
	report := Check(Sources{
		Roster:     roster(t, "Jane,Doe,,,,,,,jane@x,,,,,"),
		Contacts:   book(t, "Jane,,Doe,,jane@x,LIST ::: * myContacts"),
		Applicants: applicants(t),
		Fees:       feeLog(t, ""),
	})
	assert.True(t, report.IsClean())
	assert.Equal(t, "No problems\n", render(t, report, RenderOptions{}))
}

func TestCheck_ApplicantStatusAgrees(t *testing.T) {
	report := Check(Sources{
		Roster:     roster(t, "John,Roe,,,,,,,,,,,,a2"),
		Applicants: applicants(t, "John Roe | 240101 | 240115 | 240202 | 240301 |"),
	})
	_, found := report.Section(TitleApplicantStatus)
	assert.False(t, found)
	assert.True(t, report.IsClean())
}

func TestCheck_ApplicantStatusMismatch(t *testing.T) {
	report := Check(Sources{
		Roster:     roster(t, "John,Roe,,,,,,,,,,,,a2"),
		Applicants: applicants(t, "John Roe | 240101 | 240115 | 240202 |"),
	})
	s, found := report.Section(TitleApplicantStatus)
	require.True(t, found)
	assert.Equal(t, []string{"John Roe: roster a2 vs log a1"}, s.Lines)
}

func TestCheck_ApplicantStatusMissingSides(t *testing.T) {
	report := Check(Sources{
		Roster: roster(t,
			"Al,Able,,,,,,,,,,,,a0",
			"Cy,Baker,,,,,,,,,,,,am",
		),
		Applicants: applicants(t,
			"Cy Baker | 230101 | 230102 | 230203 | 230303 | 230407 | 230505 | 230601",
			"Ed Fox | 240101 | 240102",
			"Old Timer | 200101 | Application expired.",
		),
	})
	s, found := report.Section(TitleApplicantStatus)
	require.True(t, found)
	assert.Equal(t, []string{
		"Ed Fox: roster (no record) vs log a0",
		"Al Able: roster a0 vs log (no entry)",
	}, s.Lines)
}

func TestCheck_ApplicantSets(t *testing.T) {
	report := Check(Sources{
		Roster: roster(t,
			"Al,Able,,,,,,,al@x,,,,,a1",
			"John,Roe,,,,,,,john@x,,,,,a2",
		),
		Contacts: book(t,
			"Al,,Able,,al@x,applicant",
			"John,,Roe,,john@x,LIST",
		),
		Applicants: applicants(t,
			"Al Able | 240101 | 240102 | 240103",
			"John Roe | 240101 | 240102 | 240103 | 240104",
		),
	})
	s, found := report.Section(TitleApplicantSets)
	require.True(t, found)
	assert.Equal(t, []string{
		"in roster not contacts: John Roe",
		"in applicant log not contacts: John Roe",
	}, s.Lines)

	list, found := report.Section(TitleListNotMembers)
	require.True(t, found)
	assert.Equal(t, []string{"John Roe: roster status a2"}, list.Lines)
}

func TestCheck_ApplicantSets_WithdrawnAgrees(t *testing.T) {
	report := Check(Sources{
		Roster: roster(t,
			"Al,Able,,,,,,,al@x,,,,,a1",
			"Wes,Wild,,,,,,,wes@x,,,,,aw",
		),
		Applicants: applicants(t,
			"Al Able | 240101 | 240102 | 240103",
			"Wes Wild | 240101 | Application withdrawn by letter 240301",
		),
	})
	_, found := report.Section(TitleApplicantSets)
	assert.False(t, found)
	_, found = report.Section(TitleApplicantStatus)
	assert.False(t, found)
}

func TestCheck_RosterStructure(t *testing.T) {
	report := Check(Sources{
		Roster: roster(t,
			"Jane,Doe,,,,,,,shared@x,,,,,",
			"Al,Able,,,,,,,shared@x,,,,,",
			"Bad,Row,,",
		),
	})

	order, found := report.Section(TitleOutOfOrder)
	require.True(t, found)
	assert.Equal(t, []string{"line 3: Able, Al sorts before Doe, Jane"}, order.Lines)

	shared, found := report.Section(TitleRosterSharedEmail)
	require.True(t, found)
	assert.Equal(t, []string{"shared@x: Al Able, Jane Doe"}, shared.Lines)

	bad, found := report.Section(TitleMalformed)
	require.True(t, found)
	assert.Equal(t, []string{"memlist.csv:4: expected 14 fields, found 4"}, bad.Lines)
}

func TestCheck_Contacts(t *testing.T) {
	report := Check(Sources{
		Roster: roster(t,
			"Jane,Doe,,,,,,,jane@x,,,,,",
			"John,Roe,,,,,,,john@x,,,,,",
		),
		Contacts: book(t,
			"Jane,,Doe,,jane@x,LIST",
			"Pat,,Gone,,,LIST",
		),
	})

	missing, _ := report.Section(TitleMissingFromContact)
	assert.Equal(t, []string{"John Roe: john@x"}, missing.Lines)

	notMembers, _ := report.Section(TitleListNotMembers)
	assert.Equal(t, []string{"Pat Gone: not in roster"}, notMembers.Lines)

	notListed, _ := report.Section(TitleMembersNotInList)
	assert.Equal(t, []string{"John Roe"}, notListed.Lines)
}

func TestCheck_FeeCrossCheck(t *testing.T) {
	report := Check(Sources{
		Roster: roster(t,
			"Jane,Doe,,,,,,,,,75,,,",
			"John,Roe,,,,,,,,,,w,50,",
			"Al,Zed,,,,,,,,,30,,,",
		),
		Fees: feeLog(t, "Dock:\nJane Doe: 75\nKayak:\nJohn Roe: 70\nMooring:\nJohn Roe: 100\nWidgets:\nJane Doe: 1\n"),
	})

	s, found := report.Section(TitleFees)
	require.True(t, found)
	assert.Equal(t, []string{
		"Al Zed Dock: is $30, should be $0",
		"John Roe Mooring: is $50, should be $100",
	}, s.Lines)

	w, found := report.Section(TitleFeeLogWarnings)
	require.True(t, found)
	assert.Len(t, w.Lines, 1)
}

func TestRender_Options(t *testing.T) {
	report := &Report{Sections: []Section{
		{Title: "First", Lines: []string{"a"}},
		{Title: "Second", Lines: []string{"b", "c"}},
	}}

	assert.Equal(t, "First\n-----\na\n\nSecond\n------\nb\nc\n", render(t, report, RenderOptions{}))
	assert.Equal(t, "a\nb\nc\n", strings.ReplaceAll(render(t, report, RenderOptions{Raw: true}), "\n\n", "\n"))
	assert.Equal(t, "a\n\fb\nc\n", render(t, report, RenderOptions{Raw: true, PageSeparate: true}))
	assert.Equal(t, 3, report.Count())
}
