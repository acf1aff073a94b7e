// =============================================================================
// Club Utilities - Contacts
// =============================================================================
//
// Reads the address-book export. Only six columns are used:
//   - Given Name, Additional Name, Family Name, Name Suffix
//   - E-mail 1 - Value
//   - Group Membership (labels joined by " ::: ")
//
// =============================================================================

package contacts

import (
	"fmt"
	"io"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/csvparser"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/types"
)

// Column names read from the export.
const (
	ColGivenName      = "Given Name"
	ColAdditionalName = "Additional Name"
	ColFamilyName     = "Family Name"
	ColNameSuffix     = "Name Suffix"
	ColEmail          = "E-mail 1 - Value"
	ColGroups         = "Group Membership"
)

// Group labels the checker relies on.
const (
	GroupApplicant = "applicant"
	GroupMembers   = "LIST"
	GroupOfficers  = "Officers"
	GroupSecretary = "Secretary"
	GroupDockUsers = "DockUsers"
	GroupKayak     = "Kayak"
	GroupMoorings  = "moorings"
)

const (
	groupSeparator = " ::: "
	sentinelGroup  = "* myContacts"
)

var requiredColumns = []string{ColGivenName, ColFamilyName, ColEmail, ColGroups}

// Contact is the projection of one address-book row.
type Contact struct {
	Name   string
	Key    member.Key
	Email  string
	Groups []string
	Line   int
}

// InGroup reports whether the contact carries a group label.
func (c *Contact) InGroup(group string) bool {
	for _, g := range c.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// Book is the parsed export.
type Book struct {
	Path     string
	Contacts []*Contact

	// ByName indexes every contact, with or without email.
	ByName map[member.Key][]*Contact

	// ByEmail indexes contacts that have an email, lower-cased.
	ByEmail map[string][]*Contact

	Malformed []types.Malformed
}

// Load reads the export at path.
func Load(path string) (*Book, error) {
	data, err := csvparser.Parse(path, csvparser.DefaultSettings())
	if err != nil {
		return nil, err
	}
	return FromCSV(data), nil
}

// Parse reads an export from r; name is used in findings.
func Parse(r io.Reader, name string) (*Book, error) {
	data, err := csvparser.ParseReader(r, csvparser.DefaultSettings())
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	data.SourceFile = name
	return FromCSV(data), nil
}

// FromCSV projects parsed rows onto contacts.
func FromCSV(data *csvparser.CSVData) *Book {
	b := &Book{
		Path:    data.SourceFile,
		ByName:  make(map[member.Key][]*Contact),
		ByEmail: make(map[string][]*Contact),
	}

	for _, col := range requiredColumns {
		if !data.HasHeader(col) {
			b.Malformed = append(b.Malformed, types.NewMalformed(data.SourceFile, data.HeaderLine,
				"missing column %q", col))
		}
	}

	for _, row := range data.Rows {
		first := data.Field(row, ColGivenName)
		last := data.Field(row, ColFamilyName)
		if first == "" && last == "" {
			continue
		}
		c := &Contact{
			Name: strings.Join(nonEmpty(first, data.Field(row, ColAdditionalName), last,
				data.Field(row, ColNameSuffix)), " "),
			Key:    member.Key{Last: last, First: first},
			Email:  data.Field(row, ColEmail),
			Groups: splitGroups(data.Field(row, ColGroups)),
			Line:   row.Line,
		}
		b.add(c)
	}
	return b
}

func (b *Book) add(c *Contact) {
	b.Contacts = append(b.Contacts, c)
	b.ByName[c.Key] = append(b.ByName[c.Key], c)
	if c.Email != "" {
		e := strings.ToLower(c.Email)
		b.ByEmail[e] = append(b.ByEmail[e], c)
	}
}

func splitGroups(field string) []string {
	var out []string
	for _, g := range strings.Split(field, groupSeparator) {
		g = strings.TrimSpace(g)
		if g == "" || g == sentinelGroup {
			continue
		}
		out = append(out, g)
	}
	return out
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Group returns the keys of contacts carrying a label.
func (b *Book) Group(group string) map[member.Key]*Contact {
	out := make(map[member.Key]*Contact)
	for _, c := range b.Contacts {
		if c.InGroup(group) {
			out[c.Key] = c
		}
	}
	return out
}

// HasEmail reports whether any contact uses the address.
func (b *Book) HasEmail(email string) bool {
	_, ok := b.ByEmail[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// SharedEmails returns addresses used by contacts with different names.
func (b *Book) SharedEmails() map[string][]*Contact {
	out := make(map[string][]*Contact)
	for e, cs := range b.ByEmail {
		names := make(map[string]bool)
		for _, c := range cs {
			names[c.Name] = true
		}
		if len(names) > 1 {
			out[e] = cs
		}
	}
	return out
}

// Groups returns every label in use, sorted.
func (b *Book) Groups() []string {
	set := make(map[string]bool)
	for _, c := range b.Contacts {
		for _, g := range c.Groups {
			set[g] = true
		}
	}
	return types.SortedKeys(set)
}
