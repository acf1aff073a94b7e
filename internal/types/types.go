// =============================================================================
// Club Utilities - Shared Types
// =============================================================================
//
// This package contains types shared by the parsers and the consistency
// checker. Keeping them here avoids import cycles between:
//   - member
//   - applicant
//   - fees
//   - contacts
//   - validation
//
// =============================================================================

package types

import (
	"fmt"
	"sort"
)

// =============================================================================
// MALFORMED INPUT
// =============================================================================

// Malformed describes a structural problem found while parsing one of the
// text sources. Parsers collect these instead of aborting; the consistency
// checker reports them.
type Malformed struct {
	// File is the path of the source file.
	File string

	// Line is the 1-based line number of the offending record.
	Line int

	// Reason is a human-readable description of the problem.
	Reason string
}

// Error implements the error interface so a Malformed value can be
// returned or wrapped where a single problem is fatal.
func (m Malformed) Error() string {
	if m.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", m.File, m.Line, m.Reason)
	}
	return fmt.Sprintf("%s: %s", m.File, m.Reason)
}

// NewMalformed builds a Malformed with a formatted reason.
func NewMalformed(file string, line int, format string, args ...any) Malformed {
	return Malformed{File: file, Line: line, Reason: fmt.Sprintf(format, args...)}
}

// SortMalformed orders findings by file then line so reports are stable.
func SortMalformed(list []Malformed) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].File != list[j].File {
			return list[i].File < list[j].File
		}
		return list[i].Line < list[j].Line
	})
}

// =============================================================================
// NAME HELPERS
// =============================================================================

// SortedKeys returns the keys of a string set in ascending order.
func SortedKeys[V any](set map[string]V) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
