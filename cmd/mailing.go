// =============================================================================
// Club Utilities - Mailing Commands
// =============================================================================
//
// COMMAND USAGE:
//   clubutil show_mailing_categories
//   clubutil prepare_mailing --which <kind> [--oo] [--dir d] [-j spool]
//                            [--lpr profile] [--attach file]... [-y]
//   clubutil display_emails  [-j spool] [-o sink]
//   clubutil send_emails     [-j spool] [-E] [-e errors]
//   clubutil print_letters   [--dir d] [-e errors]
//
// WORKFLOW:
//   1. prepare_mailing writes the email spool and one letter file per
//      printed recipient
//   2. display_emails and the letter files are proof-read
//   3. send_emails and print_letters hand them to the mail agent and the
//      printer, one at a time
//
// An existing letters directory is only replaced after confirmation: -y, or
// an answer at the prompt when standard input is a terminal.
//
// =============================================================================

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexKleider/Club-Utilities-sub000/internal/content"
	"github.com/alexKleider/Club-Utilities-sub000/internal/dispatch"
	"github.com/alexKleider/Club-Utilities-sub000/internal/logging"
	"github.com/alexKleider/Club-Utilities-sub000/internal/mailing"
	"github.com/alexKleider/Club-Utilities-sub000/internal/reports"
	"github.com/alexKleider/Club-Utilities-sub000/internal/spool"
)

var (
	mailingKind  string
	owingOnly    bool
	lettersDir   string
	spoolPath    string
	printerName  string
	attachments  []string
	structured   bool
	assumeYes    bool
	paymentsPath string
	returnedPath string
	altAgent     bool
)

// stdinIsTerminal is replaced in tests.
var stdinIsTerminal = func() bool { return logging.IsTerminal(os.Stdin) }

func lettersDirOrDefault() string {
	if lettersDir != "" {
		return lettersDir
	}
	return cfg.MailingDir()
}

func spoolPathOrDefault() string {
	if spoolPath != "" {
		return spoolPath
	}
	return cfg.EmailSpoolPath()
}

// =============================================================================
// SHOW MAILING CATEGORIES
// =============================================================================

var showCategoriesCmd = &cobra.Command{
	Use:   "show_mailing_categories",
	Short: "List the mailing kinds prepare_mailing accepts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return emit(cmd, reports.MailingCategories(content.Default()))
	},
}

// =============================================================================
// PREPARE MAILING
// =============================================================================

var prepareMailingCmd = &cobra.Command{
	Use:   "prepare_mailing",
	Short: "Prepare emails and letters for one mailing kind",
	Long: `Selects the recipients of a mailing kind, fills in each message and
writes the emails to the spool and the letters to the letters directory.

Use show_mailing_categories to list the kinds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPrepareMailing(cmd)
	},
}

func runPrepareMailing(cmd *cobra.Command) error {
	kind, err := content.Default().Lookup(mailingKind)
	if err != nil {
		return err
	}
	r, err := loadRoster()
	if err != nil {
		return err
	}

	run := mailing.RunConfig{
		OwingOnly:           owingOnly,
		InputPath:           r.Path,
		EmailSpoolPath:      spoolPathOrDefault(),
		LettersDir:          lettersDirOrDefault(),
		PrinterProfile:      printerName,
		Profiles:            cfg.Printers,
		Attachments:         attachments,
		Structured:          structured,
		Now:                 now(),
		YearlyDues:          cfg.Dues.Yearly,
		HalfYearDues:        cfg.Dues.HalfYear,
		InducteeCutoffMonth: cfg.Dues.InducteeCutoffMonth,
		Authors:             cfg.Authors,
		Logger:              &logger,
	}
	if run.PrinterProfile == "" {
		run.PrinterProfile = cfg.DefaultPrinter
	}
	if paymentsPath != "" {
		if run.Payments, err = mailing.LoadPayments(paymentsPath); err != nil {
			return err
		}
	}
	if returnedPath != "" {
		if run.ReturnedLetters, err = mailing.LoadReturned(returnedPath); err != nil {
			return err
		}
	}

	if run.Overwrite, err = confirmOverwrite(cmd, run.LettersDir); err != nil {
		return err
	}

	res, err := mailing.Prepare(r, kind, run)
	if err != nil {
		return err
	}
	return emit(cmd, summarizeMailing(res))
}

// confirmOverwrite decides whether an existing letters directory may be
// replaced. Without -y the operator is asked when stdin is a terminal;
// otherwise the answer is no.
func confirmOverwrite(cmd *cobra.Command, dir string) (bool, error) {
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if assumeYes {
		return true, nil
	}
	if !stdinIsTerminal() {
		return false, nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s exists. Remove it and continue? [y/N] ", dir)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

func summarizeMailing(res *mailing.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Mailing %s (run %s)\n", res.Kind, res.RunID)
	fmt.Fprintf(&b, "  selected: %d\n", res.Selected)
	if res.Skipped > 0 {
		fmt.Fprintf(&b, "  skipped:  %d\n", res.Skipped)
	}
	fmt.Fprintf(&b, "  emails:   %d\n", len(res.Emails))
	fmt.Fprintf(&b, "  letters:  %d\n", len(res.Letters))
	if res.SpoolPath != "" {
		fmt.Fprintf(&b, "Emails spooled to %s\n", res.SpoolPath)
	}
	if len(res.BadEmail) > 0 {
		b.WriteString("Known bad email, sent a letter instead:\n")
		for _, name := range res.BadEmail {
			b.WriteString("    " + name + "\n")
		}
	}
	return b.String()
}

// =============================================================================
// DISPLAY EMAILS
// =============================================================================

var displayEmailsCmd = &cobra.Command{
	Use:   "display_emails",
	Short: "Pretty-print the email spool for proof-reading",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, _, err := spool.Read(spoolPathOrDefault())
		if err != nil {
			return err
		}
		return emit(cmd, formatSpool(items))
	},
}

func formatSpool(items []spool.Item) string {
	if len(items) == 0 {
		return "No emails\n"
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "==== %d of %d ====\n", i+1, len(items))
		b.WriteString(it.Text())
		if !strings.HasSuffix(it.Text(), "\n") {
			b.WriteString("\n")
		}
		for _, a := range it.Attachments {
			fmt.Fprintf(&b, "[attachment: %s]\n", a)
		}
	}
	return b.String()
}

// =============================================================================
// SEND EMAILS
// =============================================================================

var sendEmailsCmd = &cobra.Command{
	Use:   "send_emails",
	Short: "Hand each spooled email to the mail agent",
	Long: `Submits the spooled emails one at a time with a random pause between
them. A failed submission is reported and the batch carries on; the exit
status is the last failing agent's.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := spoolPathOrDefault()
		items, _, err := spool.Read(path)
		if err != nil {
			return err
		}
		lock, err := spool.Lock(path)
		if err != nil {
			return err
		}
		defer spool.Release(lock)

		agent := cfg.Mail.Agent
		if altAgent {
			agent = cfg.Mail.AltAgent
		}
		outcomes := dispatch.SendAll(cmd.Context(), items, newMailer(agent, cfg.Mail.Composer), dispatch.SendOptions{
			MinSleep: cfg.Mail.MinSleep,
			MaxSleep: cfg.Mail.MaxSleep,
			Logger:   &logger,
		})
		return finishBatch(cmd, "emails", len(items), outcomes)
	},
}

// =============================================================================
// PRINT LETTERS
// =============================================================================

var printLettersCmd = &cobra.Command{
	Use:   "print_letters",
	Short: "Send each letter file to the printer",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := lettersDirOrDefault()
		paths, err := letterFiles(dir)
		if err != nil {
			return err
		}
		lock, err := spool.Lock(dir)
		if err != nil {
			return err
		}
		defer spool.Release(lock)

		outcomes := dispatch.PrintAll(cmd.Context(), paths, newPrinter(cfg.Print.Command), &logger)
		return finishBatch(cmd, "letters", len(paths), outcomes)
	},
}

// letterFiles lists the regular files of dir in name order.
func letterFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read letters directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// finishBatch reports the failures of a dispatch batch and turns the last
// failing status into the exit code.
func finishBatch(cmd *cobra.Command, what string, total int, outcomes []dispatch.Outcome) error {
	var failed []string
	for _, o := range outcomes {
		if !o.OK() {
			failed = append(failed, fmt.Sprintf("%s: status %d: %v", o.Target, o.Status, o.Err))
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d of %d %s dispatched\n", len(outcomes)-len(failed), total, what)
	for _, f := range failed {
		fmt.Fprintln(cmd.ErrOrStderr(), f)
	}
	if err := writeErrors(failed); err != nil {
		return err
	}

	if code := dispatch.LastFailure(outcomes); code != 0 {
		return &exitError{code: code, err: fmt.Errorf("%d of %d %s failed", len(failed), total, what)}
	}
	if len(outcomes) < total {
		return fmt.Errorf("%s interrupted after %d of %d", what, len(outcomes), total)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(showCategoriesCmd, prepareMailingCmd, displayEmailsCmd, sendEmailsCmd, printLettersCmd)

	addOutputFlag(showCategoriesCmd)

	f := prepareMailingCmd.Flags()
	addInputFlag(prepareMailingCmd, "roster")
	addOutputFlag(prepareMailingCmd)
	f.StringVar(&mailingKind, "which", "", "Mailing kind (see show_mailing_categories)")
	f.BoolVar(&owingOnly, "oo", false, "Only members who owe money")
	f.StringVar(&lettersDir, "dir", "", "Letters directory (default is the configured mailing directory)")
	f.StringVarP(&spoolPath, "json", "j", "", "Email spool file (default is the configured spool)")
	f.StringVar(&printerName, "lpr", "", "Printer profile for letter layout")
	f.StringSliceVar(&attachments, "attach", nil, "Attach a file to every email (repeatable)")
	f.BoolVar(&structured, "structured", false, "Write the spool with separate header fields")
	f.BoolVarP(&assumeYes, "yes", "y", false, "Replace an existing letters directory without asking")
	f.StringVar(&paymentsPath, "payments", "", "Payments received, one \"First Last: amount\" per line")
	f.StringVar(&returnedPath, "returned", "", "Names whose letters were returned, one per line")
	_ = prepareMailingCmd.MarkFlagRequired("which")

	addOutputFlag(displayEmailsCmd)
	displayEmailsCmd.Flags().StringVarP(&spoolPath, "json", "j", "", "Email spool file (default is the configured spool)")

	sendEmailsCmd.Flags().StringVarP(&spoolPath, "json", "j", "", "Email spool file (default is the configured spool)")
	sendEmailsCmd.Flags().BoolVarP(&altAgent, "alt", "E", false, "Use the alternate mail agent")
	addErrorFlag(sendEmailsCmd)

	printLettersCmd.Flags().StringVar(&lettersDir, "dir", "", "Letters directory (default is the configured mailing directory)")
	addErrorFlag(printLettersCmd)
}
