// =============================================================================
// Club Utilities - Data File Commands
// =============================================================================
//
// COMMAND USAGE:
//   clubutil archive
//   clubutil export_xlsx [-i roster] [-o workbook] [--sheet name]
//   clubutil import_xlsx -i workbook [-o csv] [--sheet name] [-e errors]
//   clubutil export_db   [-i roster] [-o database] [--list | --delete id]
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexKleider/Club-Utilities-sub000/internal/member"
	"github.com/alexKleider/Club-Utilities-sub000/internal/store"
	"github.com/alexKleider/Club-Utilities-sub000/internal/xlsx"
	"github.com/alexKleider/Club-Utilities-sub000/pkg/utils"
)

var (
	sheetName      string
	listSnapshots  bool
	deleteSnapshot string
)

// outputFile returns -o, or def when -o was not given.
func outputFile(def string) string {
	if outputPath == "" || outputPath == sinkStdout {
		return def
	}
	return outputPath
}

func addFileOutputFlag(c *cobra.Command, what string) {
	c.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (default is "+what+")")
}

// =============================================================================
// ARCHIVE
// =============================================================================

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Write dated archives of the data and mailing files",
	Long: `Writes Archives/Data/YYMMDD_HHMM.tar.gz with the data files and
Archives/Mailing/YYMMDD_HHMM.tar.gz with the letters directory and the
email spool. Nothing is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fm := utils.NewFileManager(cfg.DataDir, cfg.ArchiveDir, cfg.MailingDir(), cfg.EmailSpoolPath())
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		t := now()

		data, err := fm.ArchiveData(t)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Data archived to %s\n", data)

		mail, err := fm.ArchiveMailing(t)
		switch {
		case errors.Is(err, utils.ErrNothingToArchive):
			logger.Info().Msg("no mailing files to archive")
		case err != nil:
			return err
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "Mailing archived to %s\n", mail)
		}
		return nil
	},
}

// =============================================================================
// SPREADSHEETS
// =============================================================================

var exportXLSXCmd = &cobra.Command{
	Use:   "export_xlsx",
	Short: "Write the roster to a spreadsheet",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := loadRoster()
		if err != nil {
			return err
		}
		dst := outputFile(replaceExt(r.Path, ".xlsx"))
		if err := xlsx.Export(dst, r, xlsx.Options{Sheet: sheetName}); err != nil {
			return err
		}
		logger.Info().Str("path", dst).Int("records", len(r.Members)).Msg("roster exported")
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Roster written to %s\n", dst)
		return err
	},
}

var importXLSXCmd = &cobra.Command{
	Use:   "import_xlsx",
	Short: "Convert a roster spreadsheet back to CSV",
	Long: `Reads a roster spreadsheet and writes it as roster CSV. Rows with
problems are reported the same way ck_data reports them for the CSV. An
existing output file is kept with a .bak suffix.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inputPath == "" {
			return errors.New("import_xlsx needs the workbook: -i path")
		}
		r, err := xlsx.Import(inputPath, xlsx.Options{Sheet: sheetName})
		if err != nil {
			return err
		}
		if n := len(r.Malformed); n > 0 {
			logger.Warn().Int("rows", n).Msg("workbook rows with problems were skipped")
			if err := writeErrors(malformedLines(r.Malformed)); err != nil {
				return err
			}
		}

		dst := outputFile(replaceExt(inputPath, ".csv"))
		if _, err := utils.BackupFile(dst); err != nil {
			return err
		}
		if err := member.WriteFile(dst, r); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d records written to %s\n", len(r.Members), dst)
		return err
	},
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// =============================================================================
// DATABASE
// =============================================================================

var exportDBCmd = &cobra.Command{
	Use:   "export_db",
	Short: "Save a snapshot of the roster to the SQLite database",
	Long: `Stores the roster as a new snapshot in the database so it can be
queried with SQL tools. Earlier snapshots are kept; --list shows them
and --delete removes one by id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		db, err := store.Open(ctx, outputFile(cfg.DatabasePath()))
		if err != nil {
			return err
		}
		defer db.Close()

		if listSnapshots {
			return printSnapshots(ctx, cmd, db)
		}
		if deleteSnapshot != "" {
			if err := db.Delete(ctx, deleteSnapshot); err != nil {
				return err
			}
			logger.Info().Str("snapshot", deleteSnapshot).Str("db", db.Path()).Msg("snapshot deleted")
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s deleted\n", deleteSnapshot)
			return err
		}

		r, err := loadRoster()
		if err != nil {
			return err
		}
		snap, err := db.Save(ctx, r, r.Path, now())
		if err != nil {
			return err
		}
		logger.Info().Str("snapshot", snap.ID).Str("db", db.Path()).Int("records", snap.MemberCount).Msg("snapshot saved")
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s: %d records\n", snap.ID, snap.MemberCount)
		return err
	},
}

func printSnapshots(ctx context.Context, cmd *cobra.Command, db *store.Store) error {
	snaps, err := db.List(ctx)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No snapshots")
		return err
	}
	for _, s := range snaps {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %4d  %s\n",
			s.ID, s.TakenAt.Local().Format("2006-01-02 15:04"), s.MemberCount, s.Source)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(archiveCmd, exportXLSXCmd, importXLSXCmd, exportDBCmd)

	addInputFlag(exportXLSXCmd, "roster")
	addFileOutputFlag(exportXLSXCmd, "the roster path with .xlsx")
	exportXLSXCmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet name")

	importXLSXCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Roster workbook")
	addFileOutputFlag(importXLSXCmd, "the workbook path with .csv")
	importXLSXCmd.Flags().StringVar(&sheetName, "sheet", "", "Worksheet name (default is the first sheet)")
	addErrorFlag(importXLSXCmd)

	addInputFlag(exportDBCmd, "roster")
	addFileOutputFlag(exportDBCmd, "the configured database")
	exportDBCmd.Flags().BoolVar(&listSnapshots, "list", false, "List the stored snapshots instead")
	exportDBCmd.Flags().StringVar(&deleteSnapshot, "delete", "", "Delete the snapshot with this id instead")
	exportDBCmd.MarkFlagsMutuallyExclusive("list", "delete")
}
