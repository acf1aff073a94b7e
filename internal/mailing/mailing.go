// =============================================================================
// Club Utilities - Mailing Pipeline
// =============================================================================
//
// Fans one mailing kind out over the roster:
//
//	for each record, in roster order:
//	  1. evaluate the kind's predicate, skip if false
//	  2. run the enrichment steps, any of which may skip the record
//	  3. render the email and the letter
//	  4. route by delivery policy to the spool and/or the letters directory
//
// A run owns its letters directory and its spool file exclusively. The
// letters directory must not exist unless overwrite was confirmed, in which
// case it is recreated. At most one spool file is written, and none when
// no email was produced.
//
// =============================================================================

package mailing

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mozillazg/go-unidecode"
	"github.com/rs/zerolog"

	"github.com/alexKleider/Club-Utilities-sub000/internal/config"
	"github.com/alexKleider/Club-Utilities-sub000/internal/content"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/spool"
)

// ErrLettersDirExists is returned when the letters directory is present and
// overwrite was not confirmed.
var ErrLettersDirExists = errors.New("letters directory already exists")

// =============================================================================
// RUN CONFIGURATION
// =============================================================================

// RunConfig carries every option of one mailing run.
type RunConfig struct {
	// OwingOnly skips members whose statement total is zero or less, for
	// kinds that assign a statement.
	OwingOnly bool

	// InputPath is the roster the run was loaded from; informational.
	InputPath string

	// EmailSpoolPath receives the spool when any email is produced.
	EmailSpoolPath string

	// LettersDir receives one file per printed letter.
	LettersDir string

	// PrinterProfile names the letter geometry in Profiles.
	PrinterProfile string
	Profiles       map[string]config.PrinterProfile

	// Attachments are attached to every email; they force the structured
	// spool shape.
	Attachments []string

	// Overwrite confirms removal of an existing LettersDir.
	Overwrite bool

	// Structured selects the structured spool shape even without
	// attachments.
	Structured bool

	// Now dates the letters and drives the inductee dues policy.
	Now time.Time

	YearlyDues          int
	HalfYearDues        int
	InducteeCutoffMonth int

	Payments        map[member.Key]int
	ReturnedLetters map[member.Key]bool

	Authors map[string]config.Author

	// Logger defaults to a disabled logger.
	Logger *zerolog.Logger
}

// Env projects the options predicates and steps may read.
func (c RunConfig) Env() content.Env {
	return content.Env{
		Now:                 c.Now,
		OwingOnly:           c.OwingOnly,
		YearlyDues:          c.YearlyDues,
		HalfYearDues:        c.HalfYearDues,
		InducteeCutoffMonth: c.InducteeCutoffMonth,
		Payments:            c.Payments,
		ReturnedLetters:     c.ReturnedLetters,
	}
}

// =============================================================================
// RESULT
// =============================================================================

// Letter is one file written to the letters directory.
type Letter struct {
	Key  member.Key
	Path string
}

// Result summarises a run.
type Result struct {
	RunID string
	Kind  string

	// Emails holds the spooled items in roster order.
	Emails []spool.Item

	// Letters holds the written files in roster order.
	Letters []Letter

	// BadEmail names recipients whose email is known bad; they were routed
	// as if they had none.
	BadEmail []string

	// Selected counts records passing the predicate, Skipped those a step
	// dropped afterwards.
	Selected int
	Skipped  int

	// SpoolPath is set when a spool file was written.
	SpoolPath string
}

// =============================================================================
// ROUTING
// =============================================================================

// Route decides the outputs for a recipient.
//
//	policy     has email   email  letter
//	email      yes         yes    no
//	email      no          no     yes
//	usps       any         no     yes
//	both       yes         yes    yes
//	both       no          no     yes
//	one_only   yes         yes    no
//	one_only   no          no     yes
func Route(policy content.Policy, hasEmail bool) (email, letter bool) {
	switch policy {
	case content.PolicyUSPS:
		return false, true
	case content.PolicyBoth:
		return hasEmail, true
	default:
		return hasEmail, !hasEmail
	}
}

// =============================================================================
// PIPELINE
// =============================================================================

// Prepare runs a mailing kind over the roster.
//
// PARAMETERS:
//   - roster: the records, visited in roster order
//   - kind: the mailing to produce
//   - cfg: run options
//
// RETURNS:
//   - the run summary
//   - ErrLettersDirExists when LettersDir exists and Overwrite is false;
//     nothing is written in that case
func Prepare(roster *member.Roster, kind *content.Kind, cfg RunConfig) (*Result, error) {
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	author, ok := cfg.Authors[kind.Author]
	if !ok {
		return nil, fmt.Errorf("mailing %s: unknown author %q", kind.Name, kind.Author)
	}
	profile, ok := cfg.Profiles[cfg.PrinterProfile]
	if !ok {
		return nil, fmt.Errorf("mailing %s: unknown printer profile %q", kind.Name, cfg.PrinterProfile)
	}
	if cfg.LettersDir == "" {
		return nil, fmt.Errorf("mailing %s: no letters directory", kind.Name)
	}

	lock, err := spool.Lock(cfg.LettersDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := spool.Release(lock); err != nil {
			log.Warn().Err(err).Msg("failed to release letters lock")
		}
	}()

	if err := prepareLettersDir(cfg.LettersDir, cfg.Overwrite); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Kind: kind.Name}
	log = log.With().Str("run_id", res.RunID).Str("kind", kind.Name).Logger()
	log.Info().Str("roster", cfg.InputPath).Str("letters_dir", cfg.LettersDir).Msg("preparing mailing")

	env := cfg.Env()
	r := renderer{kind: kind, author: author, profile: profile, now: cfg.Now}
	names := make(map[string]bool)

	for _, m := range roster.Members {
		selected, err := content.Evaluate(kind.Predicate, m, env)
		if err != nil {
			return nil, fmt.Errorf("mailing %s: %w", kind.Name, err)
		}
		if !selected {
			continue
		}
		res.Selected++

		fields := content.BaseFields(m)
		skip := false
		for _, step := range kind.Steps {
			if skip, err = content.Apply(step, m, fields, env); err != nil {
				return nil, fmt.Errorf("mailing %s: %s: %w", kind.Name, m.Name(), err)
			}
			if skip {
				break
			}
		}
		if skip {
			res.Skipped++
			log.Debug().Str("member", m.Name()).Msg("skipped by enrichment step")
			continue
		}

		if m.HasEmail() && m.Status.Has(member.StatusBadEmail) {
			res.BadEmail = append(res.BadEmail, m.Name())
		}
		wantEmail, wantLetter := Route(kind.Policy, m.HasUsableEmail())

		if wantEmail {
			item, err := r.email(m, fields, cfg.Attachments)
			if err != nil {
				return nil, fmt.Errorf("mailing %s: %s: %w", kind.Name, m.Name(), err)
			}
			res.Emails = append(res.Emails, item)
		}
		if wantLetter {
			text, err := r.letter(m, fields)
			if err != nil {
				return nil, fmt.Errorf("mailing %s: %s: %w", kind.Name, m.Name(), err)
			}
			path := filepath.Join(cfg.LettersDir, uniqueName(LetterFileName(m), names))
			if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
				return nil, fmt.Errorf("write letter: %w", err)
			}
			res.Letters = append(res.Letters, Letter{Key: m.Key(), Path: path})
		}
	}

	if len(res.Emails) > 0 {
		if cfg.EmailSpoolPath == "" {
			return nil, fmt.Errorf("mailing %s: %d emails but no spool path", kind.Name, len(res.Emails))
		}
		shape := spool.ShapeText
		if cfg.Structured || len(cfg.Attachments) > 0 {
			shape = spool.ShapeStructured
		}
		if err := spool.Write(cfg.EmailSpoolPath, res.Emails, shape); err != nil {
			return nil, fmt.Errorf("mailing %s: %w", kind.Name, err)
		}
		res.SpoolPath = cfg.EmailSpoolPath
	}

	log.Info().
		Int("selected", res.Selected).
		Int("skipped", res.Skipped).
		Int("emails", len(res.Emails)).
		Int("letters", len(res.Letters)).
		Int("bad_email", len(res.BadEmail)).
		Msg("mailing prepared")
	return res, nil
}

// prepareLettersDir enforces exclusive ownership of the letters directory.
func prepareLettersDir(dir string, overwrite bool) error {
	if _, err := os.Stat(dir); err == nil {
		if !overwrite {
			return fmt.Errorf("%s: %w", dir, ErrLettersDirExists)
		}
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("remove letters directory: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat letters directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create letters directory: %w", err)
	}
	return nil
}

// LetterFileName returns "{last}_{first}" folded to ASCII with anything
// outside [A-Za-z0-9-] replaced by '_'.
func LetterFileName(m *member.Member) string {
	raw := unidecode.Unidecode(m.Last + "_" + m.First)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, raw)
}

func uniqueName(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = fmt.Sprintf("%s_%d", name, i)
	}
	used[candidate] = true
	return candidate
}
