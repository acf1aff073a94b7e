// =============================================================================
// Club Utilities - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (clubutil)
//   ├── ck_data, show, report, stati, usps           roster reports
//   ├── extra_charges, payables, restore_fees,
//   │   fees_intake                                  fees
//   ├── show_mailing_categories, prepare_mailing,
//   │   display_emails, send_emails, print_letters   mailings
//   ├── archive, export_xlsx, import_xlsx, export_db data files
//   └── version
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Loading a .env file into the environment
//   2. Loading the configuration file (--config)
//   3. Setting up logging (-v raises the level to debug)
//
// EXIT CODES:
//   0  success
//   1  general error, missing input file
//   2  refused precondition (restore_fees, existing letters directory)
//   n  the last non-zero exit status of an external program
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/alexKleider/Club-Utilities-sub000/internal/config"
	"github.com/alexKleider/Club-Utilities-sub000/internal/fees"
	"github.com/alexKleider/Club-Utilities-sub000/internal/logging"
	"github.com/alexKleider/Club-Utilities-sub000/internal/mailing"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// cfg and logger are set up before any subcommand runs.
var (
	cfg    *config.Config
	logger zerolog.Logger
)

// now is replaced in tests.
var now = time.Now

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	exitOK      = 0
	exitFailure = 1
	exitRefused = 2
)

// exitError carries a process exit code up to Execute.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if errors.Is(err, fees.ErrRefused) || errors.Is(err, mailing.ErrLettersDirExists) {
		return exitRefused
	}
	return exitFailure
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "clubutil",
	Short: "Club Utilities - membership records, fees, reports and mailings",
	Long: `Club Utilities keeps the membership records of the club: the roster,
the applicant log, the extra-fees log and the contacts export.

It checks the files against each other, prints the listings and reports
the executive committee needs, runs the annual fee restore, and prepares
and dispatches mailings as emails and printed letters.

Example Usage:
  clubutil ck_data                         # Cross-check the data files
  clubutil show -o roster.txt              # Membership listing to a file
  clubutil prepare_mailing --which thank   # Spool thank-you notes
  clubutil send_emails                     # Send the spooled emails`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},

	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print the help message.
		_ = cmd.Help()
	},
}

// initConfig loads .env, the configuration file and sets up logging.
func initConfig() error {
	// A missing .env is normal.
	_ = godotenv.Load()

	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg = c

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger = logging.New(logging.Options{Level: level, Format: cfg.LogFormat})
	logger.Debug().Str("data_dir", cfg.DataDir).Msg("configuration loaded")
	return nil
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the command line and exits with the mapped status.
// This is called by main.main().
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(exitCode(err))
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// Persistent flags are available to this command and all subcommands.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"Path to the configuration file (default is "+config.DefaultPath+")",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
