package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/alexKleider/Club-Utilities-sub000/internal/applicant"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

const membersOnlyNotice = `FOR MEMBER USE ONLY

THE TELEPHONE NUMBERS, ADDRESSES AND EMAIL ADDRESSES OF THE CLUB
MEMBERSHIP ARE NOT TO BE REPRODUCED OR DISTRIBUTED FOR ANY PURPOSE
WITHOUT THE EXPRESS PERMISSION OF THE EXECUTIVE COMMITTEE.
`

// =============================================================================
// ROSTER LISTING
// =============================================================================

// ListingLine renders "first last  phone  address, town, state postal  email",
// dropping empty parts. A known-bad email is annotated.
func ListingLine(m *member.Member) string {
	parts := []string{m.Name()}
	if m.Phone != "" {
		parts = append(parts, m.Phone)
	}
	if addr := m.AddressLines(); len(addr) > 0 {
		parts = append(parts, strings.Join(addr, ", "))
	}
	if m.HasEmail() {
		email := m.Email
		if m.Status.Has(member.StatusBadEmail) {
			email += " (bad email)"
		}
		parts = append(parts, email)
	}
	return strings.Join(parts, "  ")
}

// ListingOptions parameterise RosterListing.
type ListingOptions struct {
	Club string
	Now  time.Time

	// Status appends each record's status field in brackets.
	Status bool
}

func (o ListingOptions) line(m *member.Member) string {
	line := ListingLine(m)
	if o.Status && len(m.Status) > 0 {
		line += " [" + m.Status.String() + "]"
	}
	return line
}

// RosterListing emits the members-only notice, the members grouped by the
// first letter of their last name, then the applicants grouped by status.
func RosterListing(r *member.Roster, opts ListingOptions) string {
	var b strings.Builder
	b.WriteString(membersOnlyNotice + "\n")
	title(&b, fmt.Sprintf("%s Membership (as of %s)", opts.Club, opts.Now.Format(DateLayout)), false)

	letter := ""
	for _, m := range r.Sorted() {
		if !m.IsMember() {
			continue
		}
		if first := initial(m.Last); first != letter {
			letter = first
			b.WriteString("\n" + letter + "\n")
		}
		b.WriteString(opts.line(m) + "\n")
	}

	groups := applicantsByStatus(r)
	if len(groups) == 0 {
		return b.String()
	}
	b.WriteString("\n")
	title(&b, "Applicants", false)
	for _, s := range lifecycleOrder(groups) {
		b.WriteString("\n")
		title(&b, s.Description(), true)
		for _, m := range groups[s] {
			b.WriteString(opts.line(m) + "\n")
		}
	}
	return b.String()
}

func initial(s string) string {
	for _, r := range s {
		return upper.String(string(r))
	}
	return "?"
}

// applicantsByStatus groups roster applicants by their applicant token, each
// group in key order.
func applicantsByStatus(r *member.Roster) map[member.Status][]*member.Member {
	out := make(map[member.Status][]*member.Member)
	for _, m := range r.Sorted() {
		if tok, ok := m.Status.ApplicantToken(); ok {
			out[tok] = append(out[tok], m)
		}
	}
	return out
}

// lifecycleOrder returns the known group tokens in lifecycle order.
func lifecycleOrder[V any](groups map[member.Status]V) []member.Status {
	var out []member.Status
	for _, s := range member.KnownStatuses() {
		if _, ok := groups[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// =============================================================================
// MEMBERSHIP REPORT
// =============================================================================

// MembershipOptions parameterise MembershipReport.
type MembershipOptions struct {
	Club string
	Now  time.Time

	// Addendum is free text appended before the signature; may be empty.
	Addendum string

	// Signer is the signature block, one entry per line.
	Signer []string
}

// MembershipReport emits the report read at the monthly meeting: member
// count, applicants by status with their meeting dates, retiring members,
// the addendum and a signature dated the next first Friday.
//
// PARAMETERS:
//   - r: the roster
//   - log: the applicant log; nil omits meeting dates
//   - opts: title, date and signature
func MembershipReport(r *member.Roster, log *applicant.Log, opts MembershipOptions) string {
	var b strings.Builder
	title(&b, fmt.Sprintf("%s Membership Report (prepared %s)", opts.Club, opts.Now.Format(DateLayout)), false)

	count := 0
	var retiring []*member.Member
	for _, m := range r.Sorted() {
		if m.IsMember() {
			count++
		}
		if m.Status.Has(member.StatusRetiring) {
			retiring = append(retiring, m)
		}
	}
	fmt.Fprintf(&b, "\nClub membership currently stands at %d.\n", count)

	groups := applicantsByStatus(r)
	if len(groups) > 0 {
		b.WriteString("\n")
		title(&b, "Applicants", true)
		for _, s := range lifecycleOrder(groups) {
			fmt.Fprintf(&b, "%s:\n", s.Description())
			for _, m := range groups[s] {
				line := "    " + m.Name()
				if log != nil {
					if e, ok := log.Lookup(m.Key()); ok {
						if dates := e.MeetingDates(); len(dates) > 0 {
							line += " (meetings: " + strings.Join(dates, ", ") + ")"
						}
					}
				}
				b.WriteString(line + "\n")
			}
		}
	}

	if len(retiring) > 0 {
		b.WriteString("\n")
		title(&b, "Retiring", true)
		for _, m := range retiring {
			b.WriteString("    " + m.Name() + "\n")
		}
	}

	if addendum := strings.TrimSpace(opts.Addendum); addendum != "" {
		b.WriteString("\n" + addendum + "\n")
	}

	b.WriteString("\nRespectfully submitted,\n\n")
	for _, l := range opts.Signer {
		b.WriteString(l + "\n")
	}
	b.WriteString(NextFirstFriday(opts.Now).Format(DateLayout) + "\n")
	return b.String()
}

// =============================================================================
// STATI
// =============================================================================

// Stati lists records grouped by status token in lifecycle order, followed
// by a count table. With applicantsOnly only applicant tokens are listed.
// Unrecognized tokens come last.
func Stati(r *member.Roster, applicantsOnly bool) string {
	groups := make(map[member.Status][]*member.Member)
	for _, m := range r.Sorted() {
		for _, s := range m.Status.Tokens() {
			if applicantsOnly && !s.IsApplicantToken() {
				continue
			}
			groups[s] = append(groups[s], m)
		}
	}
	if len(groups) == 0 {
		return "No records with a matching status\n"
	}

	order := lifecycleOrder(groups)
	var unknown []member.Status
	for s := range groups {
		if !s.IsKnown() {
			unknown = append(unknown, s)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	order = append(order, unknown...)

	var b strings.Builder
	rows := make([][]string, 0, len(order))
	for _, s := range order {
		title(&b, fmt.Sprintf("%s: %s", s, s.Description()), true)
		for _, m := range groups[s] {
			b.WriteString("    " + m.Name() + "\n")
		}
		b.WriteString("\n")
		rows = append(rows, []string{string(s), s.Description(), fmt.Sprint(len(groups[s]))})
	}
	b.WriteString(renderTable([]string{"Status", "Meaning", "Count"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight}))
	b.WriteString("\n")
	return b.String()
}

// =============================================================================
// USPS ONLY
// =============================================================================

// USPSHeader is the column set written by USPSOnly.
var USPSHeader = []string{"first", "last", "address", "town", "state", "postal_code"}

// USPSOnly writes, as CSV, the records that are not email-only. A roster
// without the email_only column treats every record as not email-only.
func USPSOnly(w io.Writer, r *member.Roster) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(USPSHeader); err != nil {
		return err
	}
	for _, m := range r.Sorted() {
		if m.EmailOnly {
			continue
		}
		if err := cw.Write([]string{m.First, m.Last, m.Address, m.Town, m.State, m.PostalCode}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
