// =============================================================================
// Club Utilities - Applicant Log
// =============================================================================
//
// The applicant log is a plain-text file with one applicant per line:
//
//	first last | received | fee | meeting1 | meeting2 | meeting3 | inducted | dues | [annotation] | [sponsor] | [sponsor]
//
// Dates are positional YYMMDD strings. "??????" holds a slot when the date
// is unknown but does not count toward the applicant's progress. An
// annotation such as "Application expired." ends the lifecycle regardless
// of the number of dates present.
//
// =============================================================================

package applicant

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/types"
)

// MaxDates is the number of positional date slots on a log line.
const MaxDates = 7

// UnknownDate holds a slot whose date was not recorded.
const UnknownDate = "??????"

// Date slot positions.
const (
	SlotApplied = iota
	SlotFeePaid
	SlotMeeting1
	SlotMeeting2
	SlotMeeting3
	SlotInducted
	SlotDuesPaid
)

// MaxSponsors is the number of sponsor names a line may carry.
const MaxSponsors = 2

var dateRE = regexp.MustCompile(`^\d{6}$`)

// ErrNoDates is returned by Derive when a line carries no countable date.
var ErrNoDates = errors.New("no dates present")

// =============================================================================
// ANNOTATIONS
// =============================================================================

// Annotation is the lifecycle-ending remark that may trail the dates.
type Annotation int

const (
	// NoAnnotation means the lifecycle is driven by the date count alone.
	NoAnnotation Annotation = iota
	// Expired is "Application expired."
	Expired
	// Withdrawn is "Application withdrawn ..." with any trailing text.
	Withdrawn
)

// String returns the annotation as it appears in the log.
func (a Annotation) String() string {
	switch a {
	case Expired:
		return "Application expired."
	case Withdrawn:
		return "Application withdrawn"
	}
	return ""
}

// parseAnnotation recognises the two lifecycle-ending remarks.
func parseAnnotation(field string) (Annotation, bool) {
	lower := strings.ToLower(field)
	switch {
	case strings.HasPrefix(lower, "application expired"):
		return Expired, true
	case strings.HasPrefix(lower, "application withdrawn"):
		return Withdrawn, true
	}
	return NoAnnotation, false
}

// =============================================================================
// STATE MACHINE
// =============================================================================

// statusByCount maps the number of countable dates to a status.
var statusByCount = [...]member.Status{
	1: member.StatusApplied,
	2: member.StatusAttended0,
	3: member.StatusAttended1,
	4: member.StatusAttended2,
	5: member.StatusAttended3,
	6: member.StatusInducted,
	7: member.StatusMember,
}

// Derive returns the status an applicant holds given the number of dates
// recorded and any trailing annotation.
//
// PARAMETERS:
//   - dateCount: countable dates on the line ("??????" excluded)
//   - annotation: lifecycle-ending remark, or NoAnnotation
//
// RETURNS:
//   - the derived status token
//   - ErrNoDates when dateCount is zero, an error when it exceeds MaxDates
func Derive(dateCount int, annotation Annotation) (member.Status, error) {
	switch {
	case dateCount <= 0:
		return "", ErrNoDates
	case dateCount > MaxDates:
		return "", fmt.Errorf("%d dates present, at most %d allowed", dateCount, MaxDates)
	}
	switch annotation {
	case Expired:
		return member.StatusExpired, nil
	case Withdrawn:
		return member.StatusWithdrawn, nil
	}
	return statusByCount[dateCount], nil
}

// =============================================================================
// LOG ENTRIES
// =============================================================================

// Entry is one parsed applicant line.
type Entry struct {
	// Name is the name as written in the log.
	Name string
	Key  member.Key

	// Dates holds the positional slots; unused slots are "".
	Dates [MaxDates]string

	// DateCount is the number of slots holding a real date.
	DateCount int

	Annotation Annotation
	Sponsors   []string

	// Status is the token derived by the state machine.
	Status member.Status

	Line int
}

// Date returns the date held in a slot, or "" when it is empty or unknown.
func (e *Entry) Date(slot int) string {
	if slot < 0 || slot >= MaxDates {
		return ""
	}
	if d := e.Dates[slot]; d != UnknownDate {
		return d
	}
	return ""
}

// MeetingDates returns the recorded meeting attendance dates in order.
func (e *Entry) MeetingDates() []string {
	var out []string
	for _, slot := range []int{SlotMeeting1, SlotMeeting2, SlotMeeting3} {
		if d := e.Date(slot); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// IsActive reports whether the applicant is still in the pipeline, which
// excludes expired, withdrawn and completed applications.
func (e *Entry) IsActive() bool {
	switch e.Status {
	case member.StatusExpired, member.StatusWithdrawn, member.StatusMember:
		return false
	}
	return true
}

// Log is the parsed applicant log.
type Log struct {
	Path string

	// Entries indexes the well-formed lines by key.
	Entries map[member.Key]*Entry

	// Order lists keys in file order.
	Order []member.Key

	Malformed []types.Malformed
}

// Lookup finds the entry for a key.
func (l *Log) Lookup(k member.Key) (*Entry, bool) {
	e, ok := l.Entries[k]
	return e, ok
}

// Active returns the set of keys whose derived status is still active.
func (l *Log) Active() map[member.Key]*Entry {
	out := make(map[member.Key]*Entry)
	for k, e := range l.Entries {
		if e.IsActive() {
			out[k] = e
		}
	}
	return out
}
