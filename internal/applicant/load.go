package applicant

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/types"
)

const fieldSeparator = "|"

// dateLayout is the YYMMDD layout of log dates.
const dateLayout = "060102"

// Load reads the applicant log at path. The error is non-nil only when the
// file cannot be read.
func Load(path string) (*Log, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open applicant log: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads an applicant log from r; name is used in findings.
func Parse(r io.Reader, name string) (*Log, error) {
	log := &Log{Path: name, Entries: make(map[member.Key]*Entry)}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		entry, err := parseLine(line)
		if err != nil {
			log.Malformed = append(log.Malformed, types.NewMalformed(name, lineNum, "%v", err))
			continue
		}
		entry.Line = lineNum

		if prev, dup := log.Entries[entry.Key]; dup {
			log.Malformed = append(log.Malformed, types.NewMalformed(name, lineNum,
				"%s: duplicate entry (first seen on line %d)", entry.Name, prev.Line))
			continue
		}
		log.Entries[entry.Key] = entry
		log.Order = append(log.Order, entry.Key)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return log, nil
}

// parseLine splits one non-comment line into an Entry. Empty fields are
// ignored; dates must precede any annotation or sponsor.
func parseLine(line string) (*Entry, error) {
	parts := strings.Split(line, fieldSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	name := parts[0]
	key, err := member.KeyFromName(name)
	if err != nil {
		return nil, err
	}
	e := &Entry{Name: strings.Join(strings.Fields(name), " "), Key: key}

	slots := 0
	textSeen := false
	for _, field := range parts[1:] {
		if field == "" {
			continue
		}

		if isDateField(field) {
			if textSeen {
				return nil, fmt.Errorf("%s: date %q follows a text field", e.Name, field)
			}
			if slots == MaxDates {
				return nil, fmt.Errorf("%s: more than %d dates", e.Name, MaxDates)
			}
			if field != UnknownDate {
				if _, err := time.Parse(dateLayout, field); err != nil {
					return nil, fmt.Errorf("%s: %q is not a valid YYMMDD date", e.Name, field)
				}
				e.DateCount++
			}
			e.Dates[slots] = field
			slots++
			continue
		}

		textSeen = true
		if a, ok := parseAnnotation(field); ok {
			if e.Annotation != NoAnnotation {
				return nil, fmt.Errorf("%s: more than one annotation", e.Name)
			}
			e.Annotation = a
			continue
		}
		if len(e.Sponsors) == MaxSponsors {
			return nil, fmt.Errorf("%s: more than %d sponsors", e.Name, MaxSponsors)
		}
		e.Sponsors = append(e.Sponsors, field)
	}

	status, err := Derive(e.DateCount, e.Annotation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name, err)
	}
	e.Status = status
	return e, nil
}

func isDateField(field string) bool {
	return field == UnknownDate || dateRE.MatchString(field)
}
