// =============================================================================
// Club Utilities - Consistency Check Command
// =============================================================================
//
// COMMAND USAGE:
//   clubutil ck_data [flags]
//
// FLAGS:
//   -i   roster file (default Data/memlist.csv)
//   -o   output sink
//   -r   raw: omit section headers
//   -P   separate sections with form-feeds
//
// The roster is required. The contacts export, the applicant log and the
// extra-fees log are each optional; the checks that need a missing file
// are skipped with a warning.
//
// =============================================================================

package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexKleider/Club-Utilities-sub000/internal/validation"
)

var (
	rawOutput    bool
	pageSeparate bool
)

var checkCmd = &cobra.Command{
	Use:   "ck_data",
	Short: "Cross-check the roster, contacts, applicant log and fee log",
	Long: `Checks the data files against each other and reports every
inconsistency found: malformed rows, out-of-order records, shared emails,
contacts missing from the roster and vice versa, applicant status
disagreements and fee amounts that differ from the extra-fees log.

A clean data set prints "No problems".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCheck(cmd)
	},
}

func runCheck(cmd *cobra.Command) error {
	roster, err := loadRoster()
	if err != nil {
		return err
	}
	book, err := loadContacts()
	if err != nil {
		return err
	}
	apps, err := loadApplicants()
	if err != nil {
		return err
	}
	feeLog, err := loadFeeLog()
	if err != nil {
		return err
	}

	report := validation.Check(validation.Sources{
		Roster:     roster,
		Contacts:   book,
		Applicants: apps,
		Fees:       feeLog,
	})
	logger.Info().Int("sections", len(report.Sections)).Int("findings", report.Count()).Msg("check complete")

	var b strings.Builder
	if err := report.Render(&b, validation.RenderOptions{Raw: rawOutput, PageSeparate: pageSeparate}); err != nil {
		return err
	}
	return emit(cmd, b.String())
}

func init() {
	rootCmd.AddCommand(checkCmd)

	addInputFlag(checkCmd, "roster")
	addOutputFlag(checkCmd)
	checkCmd.Flags().BoolVarP(&rawOutput, "raw", "r", false, "Omit section headers")
	checkCmd.Flags().BoolVarP(&pageSeparate, "pages", "P", false, "Separate sections with form-feeds")
}
