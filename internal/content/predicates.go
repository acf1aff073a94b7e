package content

import (
	"fmt"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/fees"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

// PredicateName is one of the closed set of selection predicates.
type PredicateName string

// Selection predicates.
const (
	IsMember          PredicateName = "is_member"
	IsApplicant       PredicateName = "is_applicant"
	IsFeePayingMember PredicateName = "is_fee_paying_member"
	NotPaidUp         PredicateName = "not_paid_up"
	IsInductee        PredicateName = "is_inductee"
	IsNewMember       PredicateName = "is_new_member"
	IsTerminated      PredicateName = "is_terminated"
	HasValidEmail     PredicateName = "has_valid_email"
	LetterReturned    PredicateName = "letter_returned"
	IsGmailUser       PredicateName = "is_gmail_user"
	HasStatus         PredicateName = "has_status"
)

// Predicate selects recipients. Arg is only used by HasStatus, where it
// names the status token.
type Predicate struct {
	Name PredicateName
	Arg  string
}

// String renders "has_status(w)" or the bare name.
func (p Predicate) String() string {
	if p.Arg != "" {
		return fmt.Sprintf("%s(%s)", p.Name, p.Arg)
	}
	return string(p.Name)
}

// Evaluate applies a predicate to one record.
func Evaluate(p Predicate, m *member.Member, env Env) (bool, error) {
	switch p.Name {
	case IsMember:
		return m.IsMember(), nil
	case IsApplicant:
		return m.IsApplicant(), nil
	case IsFeePayingMember:
		return m.IsMember() && !m.Status.Has(member.StatusWaived), nil
	case NotPaidUp:
		return fees.StatementFor(m).Total > 0, nil
	case IsInductee:
		return m.Status.Has(member.StatusInducted), nil
	case IsNewMember:
		return m.Status.Has(member.StatusNewMember), nil
	case IsTerminated:
		return m.Status.Has(member.StatusExpired) || m.Status.Has(member.StatusWithdrawn), nil
	case HasValidEmail:
		return m.HasUsableEmail(), nil
	case LetterReturned:
		return env.ReturnedLetters[m.Key()], nil
	case IsGmailUser:
		return strings.HasSuffix(strings.ToLower(strings.TrimSpace(m.Email)), "@gmail.com"), nil
	case HasStatus:
		if p.Arg == "" {
			return false, fmt.Errorf("predicate %s needs a status token", p.Name)
		}
		return m.Status.Has(member.Status(p.Arg)), nil
	}
	return false, fmt.Errorf("unknown predicate %q", p.Name)
}
