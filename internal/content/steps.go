package content

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/fees"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

// Step is one of the closed set of per-record enrichment steps.
type Step string

// Enrichment steps.
const (
	StdMailing            Step = "std_mailing"
	AssignStatement2Extra Step = "assign_statement2extra"
	SetInducteeDues       Step = "set_inductee_dues"
	Thank                 Step = "thank"
	BadAddressMailing     Step = "bad_address_mailing"
	TestingFunc           Step = "testing_func"
)

// Fields is the per-record scratch map substituted into templates.
type Fields map[string]string

// BaseFields returns the fields every template may use.
func BaseFields(m *member.Member) Fields {
	return Fields{
		"first":   m.First,
		"last":    m.Last,
		"email":   m.Email,
		"phone":   m.Phone,
		"address": strings.Join(m.AddressLines(), "\n"),
		"extra":   "",
	}
}

// Apply runs one step against a record. A step may add fields or ask for
// the record to be skipped.
//
// RETURNS:
//   - skip: true when the record must not receive this mailing
//   - an error for an unknown step
func Apply(step Step, m *member.Member, fields Fields, env Env) (skip bool, err error) {
	switch step {
	case StdMailing, TestingFunc:
		return false, nil

	case AssignStatement2Extra:
		s := fees.StatementFor(m)
		if env.OwingOnly && s.Total <= 0 {
			return true, nil
		}
		fields["extra"] = s.String()
		fields["total"] = member.FormatDollars(s.Total)
		return false, nil

	case SetInducteeDues:
		fields["current_dues"] = member.FormatDollars(InducteeDues(env))
		return false, nil

	case Thank:
		paid, ok := env.Payments[m.Key()]
		if !ok {
			return true, nil
		}
		s := fees.StatementFor(m)
		fields["payment"] = member.FormatDollars(paid)
		fields["extra"] = fmt.Sprintf("Payment received: %s\nBalance:\n%s",
			member.FormatDollars(paid), indent(s.String(), "    "))
		return false, nil

	case BadAddressMailing:
		lines := append([]string{m.Name()}, m.AddressLines()...)
		fields["extra"] = indent(strings.Join(lines, "\n"), "    ")
		return false, nil
	}
	return false, fmt.Errorf("unknown enrichment step %q", step)
}

// InducteeDues is the amount charged on induction: the full-year amount
// after the cut-off month, the half-year amount up to and including it.
func InducteeDues(env Env) int {
	if int(env.Now.Month()) > env.InducteeCutoffMonth {
		return env.YearlyDues
	}
	return env.HalfYearDues
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// SUBSTITUTION
// =============================================================================

var placeholderRE = regexp.MustCompile(`\{([a-z_][a-z0-9_]*)\}`)

// Substitute replaces {name} placeholders with field values. Every
// placeholder must resolve.
func Substitute(tmpl string, fields Fields) (string, error) {
	missing := make(map[string]bool)
	out := placeholderRE.ReplaceAllStringFunc(tmpl, func(ph string) string {
		name := ph[1 : len(ph)-1]
		v, ok := fields[name]
		if !ok {
			missing[name] = true
			return ph
		}
		return v
	})
	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", fmt.Errorf("unresolved template fields: %s", strings.Join(names, ", "))
	}
	return out, nil
}
