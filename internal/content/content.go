// =============================================================================
// Club Utilities - Content Catalog
// =============================================================================
//
// A mailing kind bundles everything needed to send one logical mailing:
//   - subject line and author
//   - body template and post-scripts
//   - a selection predicate
//   - enrichment steps run per recipient
//   - a delivery policy (email, usps, both, one_only)
//
// Predicates and steps are closed sets of named values with one dispatcher
// each (Evaluate, Apply), so a kind is plain data.
//
// =============================================================================

package content

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

// ErrUnknownKind is returned by Lookup for a name not in the catalog.
var ErrUnknownKind = errors.New("unknown mailing kind")

// =============================================================================
// DELIVERY POLICY
// =============================================================================

// Policy decides whether a recipient gets an email, a letter, or both.
type Policy string

const (
	// PolicyEmail emails when possible, otherwise falls back to a letter.
	PolicyEmail Policy = "email"
	// PolicyUSPS always prints a letter.
	PolicyUSPS Policy = "usps"
	// PolicyBoth emails when possible and always prints a letter.
	PolicyBoth Policy = "both"
	// PolicyOneOnly emails when possible, otherwise prints a letter.
	PolicyOneOnly Policy = "one_only"
)

// =============================================================================
// KIND
// =============================================================================

// Kind is one entry of the catalog.
type Kind struct {
	Name    string
	Subject string

	// Author is a key into the configured authors.
	Author string

	// Body is the letter body with {field} placeholders.
	Body string

	PostScripts []string
	Steps       []Step
	Predicate   Predicate
	Policy      Policy
}

// Env is the run-level input predicates and steps may consult.
type Env struct {
	Now       time.Time
	OwingOnly bool

	YearlyDues          int
	HalfYearDues        int
	InducteeCutoffMonth int

	// Payments maps a member to the amount just received, for "thank".
	Payments map[member.Key]int

	// ReturnedLetters names members whose last letter came back.
	ReturnedLetters map[member.Key]bool
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is the registry of mailing kinds.
type Catalog struct {
	kinds map[string]*Kind
}

// NewCatalog builds a catalog from kinds; later duplicates replace earlier
// ones.
func NewCatalog(kinds ...*Kind) *Catalog {
	c := &Catalog{kinds: make(map[string]*Kind, len(kinds))}
	for _, k := range kinds {
		c.kinds[k.Name] = k
	}
	return c
}

// Names returns the kind names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.kinds))
	for n := range c.kinds {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a kind by name.
func (c *Catalog) Lookup(name string) (*Kind, error) {
	k, ok := c.kinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return k, nil
}
