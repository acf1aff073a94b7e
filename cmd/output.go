// =============================================================================
// Club Utilities - Shared Command Plumbing
// =============================================================================
//
// Flags shared across commands, input loading and the output sink.
//
// OUTPUT SINK (-o):
//   stdout    write to standard output (default)
//   printer   hand the text to the print command
//   <path>    write to a file
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexKleider/Club-Utilities-sub000/internal/applicant"
	"github.com/alexKleider/Club-Utilities-sub000/internal/contacts"
	"github.com/alexKleider/Club-Utilities-sub000/internal/dispatch"
	"github.com/alexKleider/Club-Utilities-sub000/internal/fees"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/types"
)

// =============================================================================
// SHARED FLAGS
// =============================================================================

// inputPath overrides the command's default input file (-i).
var inputPath string

// outputPath selects the output sink (-o).
var outputPath string

// errorPath receives per-item failures and malformed-row findings (-e).
var errorPath string

const (
	sinkStdout  = "stdout"
	sinkPrinter = "printer"
)

func addInputFlag(c *cobra.Command, what string) {
	c.Flags().StringVarP(&inputPath, "input", "i", "", "Input file (default is the configured "+what+")")
}

func addOutputFlag(c *cobra.Command) {
	c.Flags().StringVarP(&outputPath, "output", "o", sinkStdout, "Output: stdout, printer, or a file path")
}

func addErrorFlag(c *cobra.Command) {
	c.Flags().StringVarP(&errorPath, "errors", "e", "", "Write failures and malformed rows to this file")
}

// input returns -i when given, otherwise def.
func input(def string) string {
	if inputPath != "" {
		return inputPath
	}
	return def
}

// =============================================================================
// EXTERNAL PROGRAMS
// =============================================================================

// newMailer and newPrinter are replaced in tests.
var (
	newMailer = func(agent, composer string) dispatch.Mailer {
		return dispatch.ExecMailer{Agent: agent, Composer: composer}
	}
	newPrinter = func(command string) dispatch.Printer {
		return dispatch.ExecPrinter{Command: command}
	}
)

// =============================================================================
// OUTPUT
// =============================================================================

// emit sends text to the -o sink.
func emit(cmd *cobra.Command, text string) error {
	switch outputPath {
	case "", sinkStdout:
		_, err := io.WriteString(cmd.OutOrStdout(), text)
		return err
	case sinkPrinter:
		return printText(cmd.Context(), text)
	default:
		if err := os.WriteFile(outputPath, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		logger.Info().Str("path", outputPath).Msg("output written")
		return nil
	}
}

// printText spools text to a temporary file and prints it.
func printText(ctx context.Context, text string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := os.CreateTemp("", "clubutil-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create print file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := io.WriteString(f, text); err != nil {
		f.Close()
		return fmt.Errorf("failed to write print file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	status, err := newPrinter(cfg.Print.Command).Print(ctx, f.Name())
	if err != nil || status != 0 {
		if err == nil {
			err = fmt.Errorf("print command exited with status %d", status)
		}
		return &exitError{code: max(status, exitFailure), err: err}
	}
	return nil
}

// writeErrors writes lines to the -e file, if one was given.
func writeErrors(lines []string) error {
	if errorPath == "" || len(lines) == 0 {
		return nil
	}
	text := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(errorPath, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write error file: %w", err)
	}
	return nil
}

func malformedLines(found []types.Malformed) []string {
	out := make([]string, len(found))
	for i, m := range found {
		out[i] = m.Error()
	}
	return out
}

// =============================================================================
// INPUTS
// =============================================================================

// loadRoster reads the roster from -i or the configured path. Row problems
// are logged; the consistency check reports them in full.
func loadRoster() (*member.Roster, error) {
	r, err := member.Load(input(cfg.RosterPath()))
	if err != nil {
		return nil, err
	}
	if n := len(r.Malformed); n > 0 {
		logger.Warn().Str("path", r.Path).Int("rows", n).Msg("roster has malformed rows; run ck_data")
	}
	return r, nil
}

// loadOptional runs load and treats a missing file as absent.
func loadOptional[T any](path, what string, load func(string) (*T, error)) (*T, error) {
	v, err := load(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn().Str("path", path).Msgf("no %s file; checks that need it are skipped", what)
		return nil, nil
	}
	return v, err
}

func loadContacts() (*contacts.Book, error) {
	return loadOptional(cfg.ContactsPath(), "contacts", contacts.Load)
}

func loadApplicants() (*applicant.Log, error) {
	return loadOptional(cfg.ApplicantsPath(), "applicant log", applicant.Load)
}

func loadFeeLog() (*fees.Log, error) {
	return loadOptional(cfg.ExtraFeesPath(), "extra fees", fees.Load)
}
