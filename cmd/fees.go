// =============================================================================
// Club Utilities - Fee Commands
// =============================================================================
//
// COMMAND USAGE:
//   clubutil extra_charges [-i fee-log] [--format table|listing|side] [-o sink]
//   clubutil payables      [-i roster] [-o sink]
//   clubutil restore_fees  [-i roster] [-t side-file]
//   clubutil fees_intake   [-i receipts] [-o sink] [-e errors]
//
// restore_fees never touches the roster itself: the new roster goes to the
// side file and renaming it into place is left to the operator.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexKleider/Club-Utilities-sub000/internal/fees"
	"github.com/alexKleider/Club-Utilities-sub000/internal/intake"
	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/reports"
	"github.com/alexKleider/Club-Utilities-sub000/pkg/utils"
)

var (
	extraFormat string
	sideFile    string
)

// =============================================================================
// EXTRA CHARGES
// =============================================================================

var extraChargesCmd = &cobra.Command{
	Use:   "extra_charges",
	Short: "Show the extra-fees log",
	Long: `Shows who is charged for dock, kayak and mooring use.

Formats:
  table    one row per member, one column per category
  listing  the same shape as the extra-fees log
  side     the category listings side by side`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := reports.ParseExtraFormat(extraFormat)
		if err != nil {
			return err
		}
		log, err := fees.Load(input(cfg.ExtraFeesPath()))
		if err != nil {
			return err
		}
		for _, w := range log.Warnings {
			logger.Warn().Str("finding", w.Error()).Msg("ignored section")
		}
		out, err := reports.ExtraCharges(log, format)
		if err != nil {
			return err
		}
		return emit(cmd, out)
	},
}

// =============================================================================
// PAYABLES
// =============================================================================

var payablesCmd = &cobra.Command{
	Use:   "payables",
	Short: "List members who owe money or are paid in advance",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRoster()
		if err != nil {
			return err
		}
		return emit(cmd, reports.PayablesReport(fees.ComputePayables(r)))
	},
}

// =============================================================================
// RESTORE FEES
// =============================================================================

var restoreFeesCmd = &cobra.Command{
	Use:   "restore_fees",
	Short: "Charge the new year's dues and extra fees",
	Long: `Adds the yearly dues to every member and the extra-fees log amounts
to the matching columns, writing the result to a side file.

Refuses, without writing anything, when any member still owes money or
when the extra-fees log names someone not on the roster.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRoster()
		if err != nil {
			return err
		}
		log, err := fees.Load(cfg.ExtraFeesPath())
		if err != nil {
			return err
		}

		restored, err := fees.RestoreFees(r, cfg.Dues.Yearly, log)
		if err != nil {
			return err
		}

		dst := sideFile
		if dst == "" {
			dst = r.Path + ".new"
		}
		if bak, err := utils.BackupFile(dst); err != nil {
			return err
		} else if bak != "" {
			logger.Info().Str("backup", bak).Msg("previous side file kept")
		}
		if err := member.WriteFile(dst, restored); err != nil {
			return err
		}
		logger.Info().Str("path", dst).Int("dues", cfg.Dues.Yearly).Msg("fees restored")
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Restored roster written to %s\n", dst)
		return err
	},
}

// =============================================================================
// FEES INTAKE
// =============================================================================

var feesIntakeCmd = &cobra.Command{
	Use:   "fees_intake",
	Short: "Total the receipts file",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := intake.Load(input(cfg.ReceiptsPath()), cfg.Intake)
		if err != nil {
			return err
		}
		if n := len(report.Malformed); n > 0 {
			logger.Warn().Int("lines", n).Msg("receipts lines without an amount were skipped")
			if err := writeErrors(malformedLines(report.Malformed)); err != nil {
				return err
			}
		}
		return emit(cmd, report.String())
	},
}

func init() {
	rootCmd.AddCommand(extraChargesCmd, payablesCmd, restoreFeesCmd, feesIntakeCmd)

	addInputFlag(extraChargesCmd, "extra-fees log")
	addOutputFlag(extraChargesCmd)
	extraChargesCmd.Flags().StringVar(&extraFormat, "format", string(reports.ExtraTable), "Output format: table, listing or side")

	addInputFlag(payablesCmd, "roster")
	addOutputFlag(payablesCmd)

	addInputFlag(restoreFeesCmd, "roster")
	restoreFeesCmd.Flags().StringVarP(&sideFile, "side-file", "t", "", "Write the new roster here (default is the roster path plus .new)")

	addInputFlag(feesIntakeCmd, "receipts file")
	addOutputFlag(feesIntakeCmd)
	addErrorFlag(feesIntakeCmd)
}
