// =============================================================================
// Club Utilities - Configuration Module
// =============================================================================
//
// This module loads the single configuration file (config.yaml) and lays
// environment overrides on top of it.
//
// PRECEDENCE (lowest first):
//   1. Built-in defaults
//   2. config.yaml
//   3. CLUB_* environment variables (a .env file is loaded by the CLI)
//   4. Command-line flags, applied by the caller
//
// A missing config file is not an error: the defaults describe the layout
// the club has always used (Data/, Archives/).
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked for when none is given.
const DefaultPath = "config.yaml"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds every setting the commands need.
type Config struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// DataDir holds the roster, the logs and the mailing outputs.
	// Default: "Data"
	DataDir string `yaml:"data_dir" env:"CLUB_DATA_DIR"`

	// ArchiveDir receives the dated tarballs written by "archive".
	// Default: "Archives"
	ArchiveDir string `yaml:"archive_dir" env:"CLUB_ARCHIVE_DIR"`

	// Files names the data files relative to DataDir.
	Files Files `yaml:"files"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls verbosity.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" env:"CLUB_LOG_LEVEL"`

	// LogFormat selects the log encoding.
	// Valid values: "auto" (console on a terminal, JSON otherwise),
	// "console", "json"
	// Default: "auto"
	LogFormat string `yaml:"log_format" env:"CLUB_LOG_FORMAT"`

	// =========================================================================
	// CLUB SETTINGS
	// =========================================================================

	Club Club `yaml:"club"`

	Dues Dues `yaml:"dues"`

	// Authors maps an author key, as named by a mailing kind, to the
	// identity letters and emails are sent under.
	Authors map[string]Author `yaml:"authors"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// Printers maps a profile name to letter geometry.
	Printers map[string]PrinterProfile `yaml:"printers"`

	// DefaultPrinter is the profile used when --lpr is not given.
	// Default: "X6505"
	DefaultPrinter string `yaml:"default_printer" env:"CLUB_PRINTER"`

	Mail Mail `yaml:"mail"`

	Print Print `yaml:"print"`

	Intake Intake `yaml:"intake"`
}

// Files names the data files inside DataDir.
type Files struct {
	Roster     string `yaml:"roster"`
	Applicants string `yaml:"applicants"`
	ExtraFees  string `yaml:"extra_fees"`
	Receipts   string `yaml:"receipts"`
	Contacts   string `yaml:"contacts"`
	MailingDir string `yaml:"mailing_dir"`
	EmailSpool string `yaml:"email_spool"`
	Addendum   string `yaml:"addendum"`
	Database   string `yaml:"database"`
}

// Club identifies the club on reports and letters.
type Club struct {
	Name    string   `yaml:"name"`
	Address []string `yaml:"address"`
}

// Dues is the dues policy.
type Dues struct {
	// Yearly is the full-year dues amount.
	// Default: 200
	Yearly int `yaml:"yearly" env:"CLUB_YEARLY_DUES"`

	// HalfYear is charged to inductees admitted late in the club year.
	// Default: 100
	HalfYear int `yaml:"half_year"`

	// InducteeCutoffMonth: inductees are charged the full-year amount when
	// the current month is after this month, otherwise the half-year
	// amount.
	// Default: 4
	InducteeCutoffMonth int `yaml:"inductee_cutoff_month"`
}

// Author is the identity a mailing is sent under.
type Author struct {
	Name           string   `yaml:"name"`
	Email          string   `yaml:"email"`
	ReplyTo        string   `yaml:"reply_to"`
	ReturnAddress  []string `yaml:"return_address"`
	EmailSignature string   `yaml:"email_signature"`
	PostSignature  string   `yaml:"post_signature"`
}

// PrinterProfile is the geometry of a printed letter, in characters and
// lines, chosen so the addresses show through a windowed envelope.
type PrinterProfile struct {
	Indent          int `yaml:"indent"`
	TopMargin       int `yaml:"top_margin"`
	ReturnRows      int `yaml:"return_rows"`
	ReturnCol       int `yaml:"return_col"`
	DateOffset      int `yaml:"date_offset"`
	RecipientOffset int `yaml:"recipient_offset"`
	RecipientRows   int `yaml:"recipient_rows"`
	RecipientCol    int `yaml:"recipient_col"`
	SubjectOffset   int `yaml:"subject_offset"`
}

// Mail configures the external mail programs.
type Mail struct {
	// Agent is the submission agent command; the spool text is written to
	// its standard input.
	// Default: "msmtp -t"
	Agent string `yaml:"agent" env:"CLUB_MAIL_AGENT"`

	// AltAgent is used with -E.
	// Default: "msmtp -a alt -t"
	AltAgent string `yaml:"alt_agent" env:"CLUB_ALT_MAIL_AGENT"`

	// Composer sends items with attachments.
	// Default: "mutt"
	Composer string `yaml:"composer" env:"CLUB_MAIL_COMPOSER"`

	// MinSleep and MaxSleep bound the random pause between messages.
	// Default: 1s and 5s
	MinSleep time.Duration `yaml:"min_sleep"`
	MaxSleep time.Duration `yaml:"max_sleep"`
}

// Print configures the OS print utility.
type Print struct {
	// Command is run with the file path appended.
	// Default: "lpr"
	Command string `yaml:"command" env:"CLUB_PRINT_COMMAND"`
}

// Intake is the fixed column layout of the receipts file.
type Intake struct {
	// AmountStart and AmountEnd delimit the amount column, as a
	// half-open character range.
	// Default: 0 and 8
	AmountStart int `yaml:"amount_start"`
	AmountEnd   int `yaml:"amount_end"`
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// DataPath joins a file name onto DataDir.
func (c *Config) DataPath(name string) string { return filepath.Join(c.DataDir, name) }

// RosterPath returns the roster location.
func (c *Config) RosterPath() string { return c.DataPath(c.Files.Roster) }

// ApplicantsPath returns the applicant log location.
func (c *Config) ApplicantsPath() string { return c.DataPath(c.Files.Applicants) }

// ExtraFeesPath returns the extra-fees log location.
func (c *Config) ExtraFeesPath() string { return c.DataPath(c.Files.ExtraFees) }

// ReceiptsPath returns the receipts file location.
func (c *Config) ReceiptsPath() string { return c.DataPath(c.Files.Receipts) }

// ContactsPath returns the contacts export location.
func (c *Config) ContactsPath() string { return c.DataPath(c.Files.Contacts) }

// MailingDir returns the default letters directory.
func (c *Config) MailingDir() string { return c.DataPath(c.Files.MailingDir) }

// EmailSpoolPath returns the default email spool.
func (c *Config) EmailSpoolPath() string { return c.DataPath(c.Files.EmailSpool) }

// AddendumPath returns the membership report addendum.
func (c *Config) AddendumPath() string { return c.DataPath(c.Files.Addendum) }

// DatabasePath returns the roster snapshot database.
func (c *Config) DatabasePath() string { return c.DataPath(c.Files.Database) }

// Printer returns a printer profile by name; "" selects DefaultPrinter.
func (c *Config) Printer(name string) (PrinterProfile, error) {
	if name == "" {
		name = c.DefaultPrinter
	}
	p, ok := c.Printers[name]
	if !ok {
		return PrinterProfile{}, fmt.Errorf("unknown printer profile %q", name)
	}
	return p, nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file, applies environment overrides and
// defaults, and validates the result.
//
// PARAMETERS:
//   - path: the YAML file; "" means DefaultPath. A missing file yields the
//     defaults.
//
// RETURNS:
//   - the configuration
//   - an error if the file exists but cannot be parsed, or a value is
//     invalid
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults sets default values for any unset option.
func applyDefaults(c *Config) {
	setString(&c.DataDir, "Data")
	setString(&c.ArchiveDir, "Archives")

	setString(&c.Files.Roster, "memlist.csv")
	setString(&c.Files.Applicants, "applicants.txt")
	setString(&c.Files.ExtraFees, "extra_fees.txt")
	setString(&c.Files.Receipts, "receipts.txt")
	setString(&c.Files.Contacts, "contacts.csv")
	setString(&c.Files.MailingDir, "MailingDir")
	setString(&c.Files.EmailSpool, "emails.json")
	setString(&c.Files.Addendum, "addendum.txt")
	setString(&c.Files.Database, "roster.db")

	setString(&c.LogLevel, "info")
	setString(&c.LogFormat, "auto")

	setString(&c.Club.Name, "Bolinas Rod & Boat Club")
	if len(c.Club.Address) == 0 {
		c.Club.Address = []string{"PO Box 248", "Bolinas, CA 94924"}
	}

	setInt(&c.Dues.Yearly, 200)
	setInt(&c.Dues.HalfYear, 100)
	setInt(&c.Dues.InducteeCutoffMonth, 4)

	if len(c.Authors) == 0 {
		c.Authors = map[string]Author{
			"secretary": {
				Name:           "Membership Secretary",
				Email:          "secretary@example.org",
				ReturnAddress:  append([]string{c.Club.Name}, c.Club.Address...),
				EmailSignature: "Sincerely,\nMembership Secretary\nfor the Executive Committee",
				PostSignature:  "Sincerely,\n\n\nMembership Secretary\nfor the Executive Committee",
			},
		}
	}
	for k, a := range c.Authors {
		setString(&a.ReplyTo, a.Email)
		if len(a.ReturnAddress) == 0 {
			a.ReturnAddress = append([]string{c.Club.Name}, c.Club.Address...)
		}
		c.Authors[k] = a
	}

	if len(c.Printers) == 0 {
		c.Printers = map[string]PrinterProfile{
			"X6505": {
				Indent: 4, TopMargin: 2, ReturnRows: 5, ReturnCol: 0,
				DateOffset: 1, RecipientOffset: 2, RecipientRows: 6,
				RecipientCol: 4, SubjectOffset: 2,
			},
			"HL2170": {
				Indent: 3, TopMargin: 3, ReturnRows: 5, ReturnCol: 0,
				DateOffset: 1, RecipientOffset: 3, RecipientRows: 6,
				RecipientCol: 3, SubjectOffset: 1,
			},
		}
	}
	setString(&c.DefaultPrinter, "X6505")

	setString(&c.Mail.Agent, "msmtp -t")
	setString(&c.Mail.AltAgent, "msmtp -a alt -t")
	setString(&c.Mail.Composer, "mutt")
	if c.Mail.MinSleep == 0 {
		c.Mail.MinSleep = time.Second
	}
	if c.Mail.MaxSleep == 0 {
		c.Mail.MaxSleep = 5 * time.Second
	}

	setString(&c.Print.Command, "lpr")

	if c.Intake.AmountEnd == 0 {
		c.Intake.AmountEnd = 8
	}
}

func setString(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func setInt(field *int, value int) {
	if *field == 0 {
		*field = value
	}
}

var validLogLevels = []string{"debug", "info", "warn", "error"}
var validLogFormats = []string{"auto", "console", "json"}

// validate checks value ranges. Errors are collected so one run reports
// every problem.
func validate(c *Config) error {
	var problems []string

	if !contains(validLogLevels, c.LogLevel) {
		problems = append(problems, fmt.Sprintf("log_level %q is not one of %s", c.LogLevel, strings.Join(validLogLevels, ", ")))
	}
	if !contains(validLogFormats, c.LogFormat) {
		problems = append(problems, fmt.Sprintf("log_format %q is not one of %s", c.LogFormat, strings.Join(validLogFormats, ", ")))
	}
	if c.Dues.Yearly < 0 || c.Dues.HalfYear < 0 {
		problems = append(problems, "dues amounts must not be negative")
	}
	if m := c.Dues.InducteeCutoffMonth; m < 1 || m > 12 {
		problems = append(problems, fmt.Sprintf("inductee_cutoff_month %d is not a month", m))
	}
	if _, ok := c.Printers[c.DefaultPrinter]; !ok {
		problems = append(problems, fmt.Sprintf("default_printer %q has no profile", c.DefaultPrinter))
	}
	for name, p := range c.Printers {
		if p.ReturnRows < 0 || p.RecipientRows < 0 || p.Indent < 0 || p.TopMargin < 0 {
			problems = append(problems, fmt.Sprintf("printer %q has a negative dimension", name))
		}
	}
	if c.Mail.MinSleep < 0 || c.Mail.MaxSleep < c.Mail.MinSleep {
		problems = append(problems, "mail sleep window must satisfy 0 <= min_sleep <= max_sleep")
	}
	if c.Intake.AmountStart < 0 || c.Intake.AmountEnd <= c.Intake.AmountStart {
		problems = append(problems, "intake amount column must satisfy 0 <= amount_start < amount_end")
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
