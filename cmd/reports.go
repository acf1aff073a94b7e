// =============================================================================
// Club Utilities - Roster Report Commands
// =============================================================================
//
// COMMAND USAGE:
//   clubutil show    [-i roster] [-o sink] [-s]
//   clubutil report  [-i roster] [-o sink]
//   clubutil stati   [-i roster] [-o sink] [-A]
//   clubutil usps    [-i roster] [-o sink]
//
// =============================================================================

package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexKleider/Club-Utilities-sub000/internal/reports"
)

// reportAuthor signs the membership report.
const reportAuthor = "secretary"

var (
	withStatus     bool
	applicantsOnly bool
)

// =============================================================================
// SHOW
// =============================================================================

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the membership listing",
	Long: `Prints the members-only roster: members grouped by the first letter
of their last name, then applicants grouped by status. With -s each line
carries the record's status field.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRoster()
		if err != nil {
			return err
		}
		return emit(cmd, reports.RosterListing(r, reports.ListingOptions{
			Club:   cfg.Club.Name,
			Now:    now(),
			Status: withStatus,
		}))
	},
}

// =============================================================================
// REPORT
// =============================================================================

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the membership report for the monthly meeting",
	Long: `Prints the member count, the applicants with the meetings they have
attended, retiring members and the contents of the addendum file, signed
and dated for the next first Friday.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRoster()
		if err != nil {
			return err
		}
		log, err := loadApplicants()
		if err != nil {
			return err
		}

		addendum, err := os.ReadFile(cfg.AddendumPath())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		var signer []string
		if a, ok := cfg.Authors[reportAuthor]; ok {
			signer = strings.Split(a.Name, "\n")
		}
		return emit(cmd, reports.MembershipReport(r, log, reports.MembershipOptions{
			Club:     cfg.Club.Name,
			Now:      now(),
			Addendum: string(addendum),
			Signer:   signer,
		}))
	},
}

// =============================================================================
// STATI
// =============================================================================

var statiCmd = &cobra.Command{
	Use:   "stati",
	Short: "List records grouped by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRoster()
		if err != nil {
			return err
		}
		return emit(cmd, reports.Stati(r, applicantsOnly))
	},
}

// =============================================================================
// USPS
// =============================================================================

var uspsCmd = &cobra.Command{
	Use:   "usps",
	Short: "Write the postal mailing list as CSV",
	Long: `Writes first, last, address, town, state and postal code for every
record that does not take email only.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRoster()
		if err != nil {
			return err
		}
		if !r.HasEmailOnly {
			logger.Warn().Str("path", r.Path).Msg("roster has no email_only column; every record is listed")
		}
		var b strings.Builder
		if err := reports.USPSOnly(&b, r); err != nil {
			return err
		}
		return emit(cmd, b.String())
	},
}

func init() {
	for _, c := range []*cobra.Command{showCmd, reportCmd, statiCmd, uspsCmd} {
		rootCmd.AddCommand(c)
		addInputFlag(c, "roster")
		addOutputFlag(c)
	}
	showCmd.Flags().BoolVarP(&withStatus, "status", "s", false, "Include each record's status")
	statiCmd.Flags().BoolVarP(&applicantsOnly, "applicants", "A", false, "Applicant stati only")
}
