// =============================================================================
// Club Utilities - Roster Snapshot Store
// =============================================================================
//
// Keeps point-in-time copies of the roster in a SQLite file so that the
// membership can be queried with ordinary SQL tools. Each export is a new
// snapshot with its own id; earlier snapshots are left untouched.
//
// =============================================================================

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
)

// ErrSnapshotNotFound is returned for an unknown snapshot id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Store is a snapshot database.
type Store struct {
	db   *sql.DB
	path string
}

// Snapshot describes one stored copy of the roster.
type Snapshot struct {
	ID          string
	TakenAt     time.Time
	Source      string
	MemberCount int
}

// Open creates or opens the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

func (s *Store) ensureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// =============================================================================
// WRITE
// =============================================================================

// Save stores the roster's records as a new snapshot.
//
// PARAMETERS:
//   - r: the roster; records are stored in roster order
//   - source: where the roster came from, usually its file path
//   - now: the snapshot time
//
// RETURNS:
//   - the new snapshot's description
func (s *Store) Save(ctx context.Context, r *member.Roster, source string, now time.Time) (Snapshot, error) {
	snap := Snapshot{
		ID:          uuid.NewString(),
		TakenAt:     now.UTC(),
		Source:      source,
		MemberCount: len(r.Members),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, taken_at, source, member_count) VALUES (?, ?, ?, ?)`,
		snap.ID, snap.TakenAt.Format(time.RFC3339Nano), snap.Source, snap.MemberCount,
	); err != nil {
		return Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO members (
            snapshot_id, position, first, last, phone, address, town, state,
            postal_code, country, email, dues, dock, kayak, mooring, status, email_only
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("prepare member insert: %w", err)
	}
	defer stmt.Close()

	for i, m := range r.Members {
		if _, err := stmt.ExecContext(ctx,
			snap.ID, i, m.First, m.Last, m.Phone, m.Address, m.Town, m.State,
			m.PostalCode, m.Country, m.Email,
			m.Dues.String(), m.Dock.String(), m.Kayak.String(), m.Mooring.String(),
			m.Status.String(), boolToInt(m.EmailOnly),
		); err != nil {
			return Snapshot{}, fmt.Errorf("insert %s: %w", m.Name(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Snapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}
	return snap, nil
}

// Delete removes a snapshot and its records.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", id, ErrSnapshotNotFound)
	}
	return nil
}

// =============================================================================
// READ
// =============================================================================

// List returns every snapshot, oldest first.
func (s *Store) List(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, taken_at, source, member_count FROM snapshots ORDER BY taken_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Get describes one snapshot.
func (s *Store) Get(ctx context.Context, id string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, taken_at, source, member_count FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%s: %w", id, ErrSnapshotNotFound)
	}
	return snap, err
}

// Roster rebuilds the roster stored under a snapshot id.
func (s *Store) Roster(ctx context.Context, id string) (*member.Roster, error) {
	snap, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT
            first, last, phone, address, town, state, postal_code, country,
            email, dues, dock, kayak, mooring, status, email_only
        FROM members WHERE snapshot_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []*member.Member
	for rows.Next() {
		var (
			m                       member.Member
			dues, dock, kayak, moor string
			status                  string
			emailOnly               int
		)
		if err := rows.Scan(&m.First, &m.Last, &m.Phone, &m.Address, &m.Town, &m.State,
			&m.PostalCode, &m.Country, &m.Email, &dues, &dock, &kayak, &moor, &status, &emailOnly); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		for f, cell := range map[member.MoneyField]string{
			member.FieldDues: dues, member.FieldDock: dock, member.FieldKayak: kayak, member.FieldMooring: moor,
		} {
			a, err := member.ParseAmount(cell)
			if err != nil {
				return nil, fmt.Errorf("%s: %s: %w", m.Name(), f, err)
			}
			m.SetMoney(f, a)
		}
		m.Status, _ = member.ParseStatusSet(status)
		m.EmailOnly = emailOnly != 0
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r := member.NewRoster(members)
	r.Path = snap.Source
	return r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var (
		snap    Snapshot
		takenAt string
	)
	if err := row.Scan(&snap.ID, &takenAt, &snap.Source, &snap.MemberCount); err != nil {
		return Snapshot{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, takenAt)
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: bad time %q: %w", snap.ID, takenAt, err)
	}
	snap.TakenAt = t
	return snap, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
