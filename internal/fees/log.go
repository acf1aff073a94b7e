// =============================================================================
// Club Utilities - Extra Fees Log
// =============================================================================
//
// The extra-fees log is the operator's narrative record of who owes what
// for dock use, kayak storage and moorings in the current club year:
//
//	Dock:
//	Jane Doe: 75
//
//	Moorings:
//	John Roe: 100
//
// Section headers end in ':' and name a category; the first word decides,
// case-insensitively and with plurals accepted. A section with an unknown
// category is ignored with a warning.
//
// =============================================================================

package fees

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/types"
)

// Categories lists the extra-fee categories in roster column order.
var Categories = []member.MoneyField{member.FieldDock, member.FieldKayak, member.FieldMooring}

// Entry is one "first last: amount" line of the log.
type Entry struct {
	Key      member.Key
	Name     string
	Category member.MoneyField
	Amount   int
	Line     int
}

// Log is the parsed extra-fees log.
type Log struct {
	Path string

	// Entries holds the data lines in file order.
	Entries []Entry

	// Malformed lists lines that break the format.
	Malformed []types.Malformed

	// Warnings lists unknown section headers; their lines were ignored.
	Warnings []types.Malformed
}

// Load reads the fee log at path.
func Load(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fee log: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads a fee log from r; name is used in findings.
func Parse(r io.Reader, name string) (*Log, error) {
	log := &Log{Path: name}

	var (
		current   member.MoneyField
		skipping  bool
		sawHeader bool
	)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, ":") {
			sawHeader = true
			header := strings.TrimSuffix(line, ":")
			if cat, ok := CategoryFromHeader(header); ok {
				current, skipping = cat, false
			} else {
				current, skipping = "", true
				log.Warnings = append(log.Warnings, types.NewMalformed(name, lineNum,
					"unknown category %q, section ignored", header))
			}
			continue
		}

		if skipping {
			continue
		}
		if !sawHeader {
			log.Malformed = append(log.Malformed, types.NewMalformed(name, lineNum,
				"line %q precedes any category header", line))
			continue
		}

		entry, err := parseEntry(line)
		if err != nil {
			log.Malformed = append(log.Malformed, types.NewMalformed(name, lineNum, "%v", err))
			continue
		}
		entry.Category = current
		entry.Line = lineNum
		log.Entries = append(log.Entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return log, nil
}

// CategoryFromHeader maps a section header to a category: "Dock",
// "DOCK usage", "Moorings" and "kayaks" are all recognised.
func CategoryFromHeader(header string) (member.MoneyField, bool) {
	words := strings.Fields(strings.ToLower(header))
	if len(words) == 0 {
		return "", false
	}
	word := strings.TrimSuffix(words[0], "s")
	for _, cat := range Categories {
		if word == string(cat) {
			return cat, true
		}
	}
	return "", false
}

func parseEntry(line string) (Entry, error) {
	idx := strings.LastIndex(line, ":")
	if idx < 0 {
		return Entry{}, fmt.Errorf("fee line %q lacks ':'", line)
	}
	name := strings.TrimSpace(line[:idx])
	key, err := member.KeyFromName(name)
	if err != nil {
		return Entry{}, err
	}
	raw := strings.TrimSpace(line[idx+1:])
	amount, err := strconv.Atoi(raw)
	if err != nil {
		return Entry{}, fmt.Errorf("%s: amount %q is not an integer", key, raw)
	}
	return Entry{Key: key, Name: key.String(), Amount: amount}, nil
}

// =============================================================================
// AGGREGATES
// =============================================================================

// Totals sums the log per category and member.
func (l *Log) Totals() map[member.MoneyField]map[member.Key]int {
	out := make(map[member.MoneyField]map[member.Key]int, len(Categories))
	for _, cat := range Categories {
		out[cat] = make(map[member.Key]int)
	}
	for _, e := range l.Entries {
		out[e.Category][e.Key] += e.Amount
	}
	return out
}

// ByCategory returns the entries of one category, sorted by key.
func (l *Log) ByCategory(cat member.MoneyField) []Entry {
	var out []Entry
	for _, e := range l.Entries {
		if e.Category == cat {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}

// Keys returns every member named in the log, sorted.
func (l *Log) Keys() []member.Key {
	seen := make(map[member.Key]bool)
	var out []member.Key
	for _, e := range l.Entries {
		if !seen[e.Key] {
			seen[e.Key] = true
			out = append(out, e.Key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}
