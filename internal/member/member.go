// =============================================================================
// Club Utilities - Member Roster
// =============================================================================
//
// The roster is a single CSV file with one record per member or applicant.
// Loading it yields a typed view plus two indexes built in the same pass:
//   - ByName  : (last, first) -> record, iterable in key order
//   - ByEmail : address -> records sharing it
//
// Structural problems never abort loading. They are collected in
// Roster.Malformed and Roster.OutOfOrder for the consistency checker.
//
// =============================================================================

package member

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexKleider/Club-Utilities-sub000/internal/types"
)

// =============================================================================
// FIELD SET
// =============================================================================

// Fields is the fixed, ordered roster header.
var Fields = []string{
	"first", "last", "phone", "address", "town", "state", "postal_code",
	"country", "email", "dues", "dock", "kayak", "mooring", "status",
}

// EmailOnlyField is an optional trailing column present in some rosters.
const EmailOnlyField = "email_only"

// MoneyField names one of the four money columns.
type MoneyField string

// The money columns in roster order.
const (
	FieldDues    MoneyField = "dues"
	FieldDock    MoneyField = "dock"
	FieldKayak   MoneyField = "kayak"
	FieldMooring MoneyField = "mooring"
)

// MoneyFields lists the money columns in roster order.
var MoneyFields = []MoneyField{FieldDues, FieldDock, FieldKayak, FieldMooring}

// =============================================================================
// MEMBER RECORD
// =============================================================================

// Key identifies a record. Records sort by last name then first name.
type Key struct {
	Last  string
	First string
}

// Less orders keys by (last, first).
func (k Key) Less(o Key) bool {
	if k.Last != o.Last {
		return k.Last < o.Last
	}
	return k.First < o.First
}

// String renders the key as "first last", the form used by the text logs.
func (k Key) String() string {
	return k.First + " " + k.Last
}

// KeyFromName splits a free-text "first last" name. It fails unless the
// name has exactly two whitespace-separated tokens.
func KeyFromName(name string) (Key, error) {
	parts := strings.Fields(name)
	if len(parts) != 2 {
		return Key{}, fmt.Errorf("name %q does not resolve to exactly two tokens", strings.TrimSpace(name))
	}
	return Key{First: parts[0], Last: parts[1]}, nil
}

// Member is one roster record.
type Member struct {
	First      string
	Last       string
	Phone      string
	Address    string
	Town       string
	State      string
	PostalCode string
	Country    string
	Email      string

	Dues    Amount
	Dock    Amount
	Kayak   Amount
	Mooring Amount

	Status StatusSet

	// EmailOnly is only meaningful when the roster carries the optional
	// email_only column.
	EmailOnly bool

	// Line is the source line number, 0 for records built in memory.
	Line int
}

// Key returns the identity key.
func (m *Member) Key() Key { return Key{Last: m.Last, First: m.First} }

// Name returns "first last".
func (m *Member) Name() string { return m.First + " " + m.Last }

// Money returns the amount held in a money column.
func (m *Member) Money(f MoneyField) Amount {
	switch f {
	case FieldDues:
		return m.Dues
	case FieldDock:
		return m.Dock
	case FieldKayak:
		return m.Kayak
	case FieldMooring:
		return m.Mooring
	}
	return Amount{}
}

// SetMoney replaces the amount held in a money column.
func (m *Member) SetMoney(f MoneyField, a Amount) {
	switch f {
	case FieldDues:
		m.Dues = a
	case FieldDock:
		m.Dock = a
	case FieldKayak:
		m.Kayak = a
	case FieldMooring:
		m.Mooring = a
	}
}

// IsApplicant reports whether any status token marks an applicant.
func (m *Member) IsApplicant() bool {
	_, ok := m.Status.ApplicantToken()
	return ok
}

// IsMember reports whether the record is a member rather than an applicant
// or an expired application.
func (m *Member) IsMember() bool {
	return !m.IsApplicant() && !m.Status.Has(StatusExpired)
}

// HasEmail reports whether an address is on record.
func (m *Member) HasEmail() bool { return strings.TrimSpace(m.Email) != "" }

// HasUsableEmail reports whether the address on record can be mailed to:
// it is syntactically plausible and not flagged bad.
func (m *Member) HasUsableEmail() bool {
	return m.HasEmail() && strings.Contains(m.Email, "@") && !m.Status.Has(StatusBadEmail)
}

// AddressLines returns the postal address block without the name.
func (m *Member) AddressLines() []string {
	var lines []string
	if m.Address != "" {
		lines = append(lines, m.Address)
	}
	townLine := strings.TrimSpace(strings.Join(nonEmpty(m.Town, m.State), ", ") + " " + m.PostalCode)
	if townLine != "" {
		lines = append(lines, townLine)
	}
	if c := strings.TrimSpace(m.Country); c != "" && !isDomestic(c) {
		lines = append(lines, c)
	}
	return lines
}

// Clone returns a deep copy.
func (m *Member) Clone() *Member {
	c := *m
	c.Status = m.Status.Clone()
	return &c
}

// Values returns the record as roster cells in Fields order.
func (m *Member) Values() []string {
	return []string{
		m.First, m.Last, m.Phone, m.Address, m.Town, m.State, m.PostalCode,
		m.Country, m.Email, m.Dues.String(), m.Dock.String(),
		m.Kayak.String(), m.Mooring.String(), m.Status.String(),
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}

func isDomestic(country string) bool {
	switch strings.ToUpper(strings.ReplaceAll(country, ".", "")) {
	case "USA", "US", "UNITED STATES":
		return true
	}
	return false
}

// =============================================================================
// ROSTER
// =============================================================================

// OutOfOrder records a row whose key sorts before its predecessor.
type OutOfOrder struct {
	Line     int
	Key      Key
	Previous Key
}

// Roster is the typed view over the roster CSV.
type Roster struct {
	// Path is the file the roster was loaded from.
	Path string

	// Header is the header row as read; it equals Fields, optionally
	// followed by EmailOnlyField.
	Header []string

	// Members holds the well-formed records in file order.
	Members []*Member

	// ByName indexes records by key.
	ByName map[Key]*Member

	// ByEmail indexes records by lower-cased email address.
	ByEmail map[string][]*Member

	// Malformed lists structural problems found while loading.
	Malformed []types.Malformed

	// OutOfOrder lists rows that break ascending key order.
	OutOfOrder []OutOfOrder

	// HasEmailOnly reports whether the optional email_only column exists.
	// Its absence is schema drift; every record is then "not email-only".
	HasEmailOnly bool
}

// NewRoster builds an indexed roster from records already in memory.
func NewRoster(members []*Member) *Roster {
	r := &Roster{
		Header:  append([]string(nil), Fields...),
		ByName:  make(map[Key]*Member),
		ByEmail: make(map[string][]*Member),
	}
	for _, m := range members {
		r.add(m)
	}
	return r
}

func (r *Roster) add(m *Member) {
	r.Members = append(r.Members, m)
	r.ByName[m.Key()] = m
	if m.HasEmail() {
		e := strings.ToLower(strings.TrimSpace(m.Email))
		r.ByEmail[e] = append(r.ByEmail[e], m)
	}
}

// Keys returns all record keys in ascending order.
func (r *Roster) Keys() []Key {
	keys := make([]Key, 0, len(r.ByName))
	for k := range r.ByName {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Sorted returns the records in ascending key order.
func (r *Roster) Sorted() []*Member {
	keys := r.Keys()
	out := make([]*Member, len(keys))
	for i, k := range keys {
		out[i] = r.ByName[k]
	}
	return out
}

// Lookup finds a record by key.
func (r *Roster) Lookup(k Key) (*Member, bool) {
	m, ok := r.ByName[k]
	return m, ok
}

// Clone returns a deep copy of the records; findings are not copied.
func (r *Roster) Clone() *Roster {
	members := make([]*Member, len(r.Members))
	for i, m := range r.Members {
		members[i] = m.Clone()
	}
	c := NewRoster(members)
	c.Path = r.Path
	c.Header = append([]string(nil), r.Header...)
	c.HasEmailOnly = r.HasEmailOnly
	return c
}

// SharedEmails returns addresses used by more than one record.
func (r *Roster) SharedEmails() map[string][]*Member {
	out := make(map[string][]*Member)
	for e, ms := range r.ByEmail {
		if len(ms) > 1 {
			out[e] = ms
		}
	}
	return out
}
