// =============================================================================
// Club Utilities - Consistency Checker
// =============================================================================
//
// This module cross-validates the four text sources the club keeps:
//   - the roster CSV
//   - the address-book export
//   - the applicant log
//   - the extra-fees log
//
// CHECKING STRATEGY:
//   Checks run in a fixed order and each contributes at most one section
//   to the report:
//   1. Source-level: malformed lines, ordering, shared addresses
//   2. Roster vs contacts: missing addresses, LIST membership
//   3. Roster vs applicant log: derived status, applicant sets
//   4. Roster vs fee log: per-category amounts
//
// ERROR HANDLING:
//   - Findings are collected, never fatal
//   - Nothing is corrected; disagreements are listed as "is / should be"
//   - A source that was not supplied skips the checks that need it
//
// =============================================================================

package validation

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/applicant"
	"github.com/alexKleider/Club-Utilities-sub000/internal/contacts"
	"github.com/alexKleider/Club-Utilities-sub000/internal/fees"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/types"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// Section is one titled group of findings.
type Section struct {
	// Title is printed above the lines unless raw output is requested.
	Title string

	// Lines holds one finding per line.
	Lines []string
}

// Report is the ordered list of non-empty sections.
type Report struct {
	Sections []Section
}

// IsClean reports whether no check produced a finding.
func (r *Report) IsClean() bool { return len(r.Sections) == 0 }

// Count returns the total number of findings.
func (r *Report) Count() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Lines)
	}
	return n
}

// Section returns the section with a title, if present.
func (r *Report) Section(title string) (Section, bool) {
	for _, s := range r.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

func (r *Report) add(title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	r.Sections = append(r.Sections, Section{Title: title, Lines: lines})
}

// Section titles.
const (
	TitleMalformed          = "Malformed records"
	TitleFeeLogWarnings     = "Fee log warnings"
	TitleOutOfOrder         = "Roster records out of order"
	TitleRosterSharedEmail  = "Emails shared in the roster"
	TitleContactSharedEmail = "Emails shared in contacts"
	TitleMissingFromContact = "Roster emails missing from contacts"
	TitleListNotMembers     = "Contacts in LIST who are not members"
	TitleMembersNotInList   = "Members missing from the LIST group"
	TitleApplicantStatus    = "Applicant status mismatches"
	TitleApplicantSets      = "Applicant set mismatches"
	TitleFees               = "Fee log vs roster"
)

// =============================================================================
// RENDERING
// =============================================================================

// RenderOptions controls the textual output.
type RenderOptions struct {
	// Raw omits section titles.
	// Default: false
	Raw bool

	// PageSeparate emits a form-feed between sections.
	// Default: false
	PageSeparate bool
}

// NoProblems is printed for a clean report.
const NoProblems = "No problems"

// Render writes the report as text.
func (r *Report) Render(w io.Writer, opts RenderOptions) error {
	if r.IsClean() {
		_, err := fmt.Fprintln(w, NoProblems)
		return err
	}

	var b strings.Builder
	for i, s := range r.Sections {
		if i > 0 {
			if opts.PageSeparate {
				b.WriteString("\f")
			} else {
				b.WriteString("\n")
			}
		}
		if !opts.Raw {
			b.WriteString(s.Title + "\n")
			b.WriteString(strings.Repeat("-", len(s.Title)) + "\n")
		}
		for _, line := range s.Lines {
			b.WriteString(line + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// =============================================================================
// CHECKER
// =============================================================================

// Sources bundles the parsed inputs. Roster is required; any other source
// may be nil, in which case the checks that need it are skipped.
type Sources struct {
	Roster     *member.Roster
	Contacts   *contacts.Book
	Applicants *applicant.Log
	Fees       *fees.Log
}

// Check runs every applicable check and returns the report.
func Check(src Sources) *Report {
	c := &checker{src: src, report: &Report{}}
	c.checkMalformed()
	c.checkOrder()
	c.checkSharedEmails()
	if src.Contacts != nil {
		c.checkContacts()
	}
	if src.Applicants != nil {
		c.checkApplicantStatus()
	}
	c.checkApplicantSets()
	if src.Fees != nil {
		c.checkFees()
	}
	return c.report
}

type checker struct {
	src    Sources
	report *Report
}

// checkMalformed gathers the findings each parser collected.
func (c *checker) checkMalformed() {
	var all []types.Malformed
	all = append(all, c.src.Roster.Malformed...)
	if c.src.Contacts != nil {
		all = append(all, c.src.Contacts.Malformed...)
	}
	if c.src.Applicants != nil {
		all = append(all, c.src.Applicants.Malformed...)
	}
	if c.src.Fees != nil {
		all = append(all, c.src.Fees.Malformed...)
	}
	types.SortMalformed(all)
	c.report.add(TitleMalformed, malformedLines(all))

	if c.src.Fees != nil {
		c.report.add(TitleFeeLogWarnings, malformedLines(c.src.Fees.Warnings))
	}
}

func malformedLines(list []types.Malformed) []string {
	lines := make([]string, len(list))
	for i, m := range list {
		lines[i] = m.Error()
	}
	return lines
}

func (c *checker) checkOrder() {
	var lines []string
	for _, o := range c.src.Roster.OutOfOrder {
		lines = append(lines, fmt.Sprintf("line %d: %s, %s sorts before %s, %s",
			o.Line, o.Key.Last, o.Key.First, o.Previous.Last, o.Previous.First))
	}
	c.report.add(TitleOutOfOrder, lines)
}

func (c *checker) checkSharedEmails() {
	var lines []string
	shared := c.src.Roster.SharedEmails()
	for _, email := range types.SortedKeys(shared) {
		names := make([]string, 0, len(shared[email]))
		for _, m := range shared[email] {
			names = append(names, m.Name())
		}
		sort.Strings(names)
		lines = append(lines, email+": "+strings.Join(names, ", "))
	}
	c.report.add(TitleRosterSharedEmail, lines)

	if c.src.Contacts == nil {
		return
	}
	lines = nil
	cshared := c.src.Contacts.SharedEmails()
	for _, email := range types.SortedKeys(cshared) {
		names := make([]string, 0, len(cshared[email]))
		for _, ct := range cshared[email] {
			names = append(names, ct.Name)
		}
		sort.Strings(names)
		lines = append(lines, email+": "+strings.Join(names, ", "))
	}
	c.report.add(TitleContactSharedEmail, lines)
}

// checkContacts compares the roster with the address book.
func (c *checker) checkContacts() {
	book := c.src.Contacts

	var missing []string
	for _, m := range c.src.Roster.Sorted() {
		if m.HasEmail() && !book.HasEmail(m.Email) {
			missing = append(missing, fmt.Sprintf("%s: %s", m.Name(), m.Email))
		}
	}
	c.report.add(TitleMissingFromContact, missing)

	list := book.Group(contacts.GroupMembers)
	var notMembers []string
	for _, k := range sortedKeys(list) {
		m, ok := c.src.Roster.Lookup(k)
		switch {
		case !ok:
			notMembers = append(notMembers, fmt.Sprintf("%s: not in roster", list[k].Name))
		case !m.IsMember():
			notMembers = append(notMembers, fmt.Sprintf("%s: roster status %s", m.Name(), m.Status.Lifecycle()))
		}
	}
	c.report.add(TitleListNotMembers, notMembers)

	var notListed []string
	for _, m := range c.src.Roster.Sorted() {
		if !m.IsMember() {
			continue
		}
		if _, ok := list[m.Key()]; !ok {
			notListed = append(notListed, m.Name())
		}
	}
	c.report.add(TitleMembersNotInList, notListed)
}

// checkApplicantStatus compares each roster applicant with the status the
// applicant log derives for the same name.
func (c *checker) checkApplicantStatus() {
	log := c.src.Applicants
	var lines []string

	for _, k := range log.Order {
		e := log.Entries[k]
		m, ok := c.src.Roster.Lookup(k)
		if !ok {
			if e.IsActive() {
				lines = append(lines, fmt.Sprintf("%s: roster (no record) vs log %s", e.Name, e.Status))
			}
			continue
		}
		if got := m.Status.Lifecycle(); got != e.Status {
			lines = append(lines, fmt.Sprintf("%s: roster %s vs log %s", m.Name(), got, e.Status))
		}
	}

	for _, m := range c.src.Roster.Sorted() {
		tok, ok := m.Status.ApplicantToken()
		if !ok {
			continue
		}
		if _, logged := log.Lookup(m.Key()); !logged {
			lines = append(lines, fmt.Sprintf("%s: roster %s vs log (no entry)", m.Name(), tok))
		}
	}
	c.report.add(TitleApplicantStatus, lines)
}

// checkApplicantSets compares the roster's applicants, the contacts'
// applicant group and the active applicant-log entries pairwise.
func (c *checker) checkApplicantSets() {
	type namedSet struct {
		name string
		keys map[member.Key]string
	}
	var sets []namedSet

	// A withdrawn applicant has left the active set the log reports.
	roster := make(map[member.Key]string)
	for _, m := range c.src.Roster.Members {
		if m.IsApplicant() && !m.Status.Has(member.StatusWithdrawn) {
			roster[m.Key()] = m.Name()
		}
	}
	sets = append(sets, namedSet{"roster", roster})

	if c.src.Contacts != nil {
		group := make(map[member.Key]string)
		for k := range c.src.Contacts.Group(contacts.GroupApplicant) {
			group[k] = k.String()
		}
		sets = append(sets, namedSet{"contacts", group})
	}
	if c.src.Applicants != nil {
		active := make(map[member.Key]string)
		for k := range c.src.Applicants.Active() {
			active[k] = k.String()
		}
		sets = append(sets, namedSet{"applicant log", active})
	}

	var lines []string
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			a, b := sets[i], sets[j]
			if onlyA := difference(a.keys, b.keys); len(onlyA) > 0 {
				lines = append(lines, fmt.Sprintf("in %s not %s: %s", a.name, b.name, strings.Join(onlyA, ", ")))
			}
			if onlyB := difference(b.keys, a.keys); len(onlyB) > 0 {
				lines = append(lines, fmt.Sprintf("in %s not %s: %s", b.name, a.name, strings.Join(onlyB, ", ")))
			}
		}
	}
	c.report.add(TitleApplicantSets, lines)
}

// checkFees compares, per category, the fee log's totals with the
// positive roster values. The fee log is taken as the source of truth.
func (c *checker) checkFees() {
	totals := c.src.Fees.Totals()
	var lines []string
	for _, cat := range fees.Categories {
		fromLog := totals[cat]
		fromRoster := make(map[member.Key]int)
		waived := make(map[member.Key]bool)
		for _, m := range c.src.Roster.Members {
			a := m.Money(cat)
			switch {
			case a.Owes():
				fromRoster[m.Key()] = a.Int()
			case a.IsWaived():
				waived[m.Key()] = true
			}
		}

		union := make(map[member.Key]bool)
		for k := range fromLog {
			union[k] = true
		}
		for k := range fromRoster {
			union[k] = true
		}
		for _, k := range sortedKeys(union) {
			if waived[k] {
				continue
			}
			is, should := fromRoster[k], fromLog[k]
			if is != should {
				lines = append(lines, fmt.Sprintf("%s %s: is %s, should be %s",
					k, fees.Label(cat), member.FormatDollars(is), member.FormatDollars(should)))
			}
		}
	}
	c.report.add(TitleFees, lines)
}

// =============================================================================
// HELPERS
// =============================================================================

func sortedKeys[V any](m map[member.Key]V) []member.Key {
	keys := make([]member.Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// difference returns the names in a whose keys are absent from b, sorted
// by key.
func difference(a, b map[member.Key]string) []string {
	var out []string
	for _, k := range sortedKeys(a) {
		if _, ok := b[k]; !ok {
			out = append(out, a[k])
		}
	}
	return out
}
