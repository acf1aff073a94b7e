package member

import (
	"sort"
	"strings"
)

// Status is a single token from the roster's status field.
type Status string

// Closed alphabet of status tokens.
const (
	StatusApplied   Status = "a-"  // application received, fee pending
	StatusAttended0 Status = "a0"  // applicant, no meetings attended
	StatusAttended1 Status = "a1"  // applicant, one meeting
	StatusAttended2 Status = "a2"  // applicant, two meetings
	StatusAttended3 Status = "a3"  // applicant, three meetings
	StatusInducted  Status = "ai"  // inducted, dues pending
	StatusNewMember Status = "am"  // inducted, welcome period
	StatusWithdrawn Status = "aw"  // application withdrawn
	StatusExpired   Status = "zae" // application expired
	StatusMember    Status = "m"   // member in good standing
	StatusWaived    Status = "w"   // dues and fees waived
	StatusBadEmail  Status = "be"  // email on record known bad
	StatusRetiring  Status = "r"   // retiring
)

const statusSeparator = "|"

// knownStatuses lists the alphabet in canonical serialisation order.
var knownStatuses = []Status{
	StatusApplied, StatusAttended0, StatusAttended1, StatusAttended2,
	StatusAttended3, StatusInducted, StatusNewMember, StatusWithdrawn,
	StatusExpired, StatusMember, StatusWaived, StatusBadEmail, StatusRetiring,
}

var statusRank = func() map[Status]int {
	m := make(map[Status]int, len(knownStatuses))
	for i, s := range knownStatuses {
		m[s] = i
	}
	return m
}()

// KnownStatuses returns the closed alphabet in canonical order.
func KnownStatuses() []Status {
	out := make([]Status, len(knownStatuses))
	copy(out, knownStatuses)
	return out
}

// IsKnown reports whether the token belongs to the closed alphabet.
func (s Status) IsKnown() bool {
	_, ok := statusRank[s]
	return ok
}

// IsApplicantToken reports whether the token marks an applicant: any token
// beginning with 'a' except "am".
func (s Status) IsApplicantToken() bool {
	return strings.HasPrefix(string(s), "a") && s != StatusNewMember
}

// Description returns the roll-call heading used in reports.
func (s Status) Description() string {
	switch s {
	case StatusApplied:
		return "Application received, fee pending"
	case StatusAttended0:
		return "No meetings yet attended"
	case StatusAttended1:
		return "Attended one meeting"
	case StatusAttended2:
		return "Attended two meetings"
	case StatusAttended3:
		return "Attended three meetings"
	case StatusInducted:
		return "Inducted, awaiting payment of dues"
	case StatusNewMember:
		return "New member"
	case StatusWithdrawn:
		return "Application withdrawn"
	case StatusExpired:
		return "Application expired"
	case StatusMember:
		return "Member in good standing"
	case StatusWaived:
		return "Dues and fees waived"
	case StatusBadEmail:
		return "Email on record is bad"
	case StatusRetiring:
		return "Retiring"
	}
	return "Unrecognized status " + string(s)
}

// StatusSet is the set of tokens held by one record.
type StatusSet map[Status]struct{}

// ParseStatusSet splits a "|" separated field. Unknown tokens are kept and
// returned separately so the caller can report them.
func ParseStatusSet(field string) (StatusSet, []string) {
	set := StatusSet{}
	var unknown []string
	for _, part := range strings.Split(field, statusSeparator) {
		tok := Status(strings.TrimSpace(part))
		if tok == "" {
			continue
		}
		if !tok.IsKnown() {
			unknown = append(unknown, string(tok))
		}
		set[tok] = struct{}{}
	}
	return set, unknown
}

// NewStatusSet builds a set from tokens.
func NewStatusSet(tokens ...Status) StatusSet {
	set := StatusSet{}
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s StatusSet) Has(t Status) bool {
	_, ok := s[t]
	return ok
}

// Add inserts a token.
func (s StatusSet) Add(t Status) { s[t] = struct{}{} }

// Remove deletes a token.
func (s StatusSet) Remove(t Status) { delete(s, t) }

// Tokens returns the tokens in canonical order; unknown tokens sort last.
func (s StatusSet) Tokens() []Status {
	out := make([]Status, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := statusRank[out[i]]
		rj, jok := statusRank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return out[i] < out[j]
		}
	})
	return out
}

// String serialises the set for the roster file.
func (s StatusSet) String() string {
	toks := s.Tokens()
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = string(t)
	}
	return strings.Join(parts, statusSeparator)
}

// Clone returns an independent copy.
func (s StatusSet) Clone() StatusSet {
	out := make(StatusSet, len(s))
	for t := range s {
		out[t] = struct{}{}
	}
	return out
}

// ApplicantToken returns the first applicant token in canonical order.
func (s StatusSet) ApplicantToken() (Status, bool) {
	for _, t := range s.Tokens() {
		if t.IsApplicantToken() {
			return t, true
		}
	}
	return "", false
}

// Lifecycle returns the token the applicant state machine would assign:
// an applicant token, "zae", or "m" for everyone else ("am" included,
// since a new member has completed the applicant lifecycle).
func (s StatusSet) Lifecycle() Status {
	if t, ok := s.ApplicantToken(); ok {
		return t
	}
	if s.Has(StatusExpired) {
		return StatusExpired
	}
	return StatusMember
}
