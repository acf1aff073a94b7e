// =============================================================================
// Club Utilities - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the commands:
//   - Directory management
//   - Dated tar.gz archives of the data and mailing files
//   - Backup copies of a file about to be replaced
//
// ARCHIVAL STRATEGY:
//   - "archive" writes two tarballs named YYMMDD_HHMM.tar.gz:
//       Archives/Data/     everything in the data directory except the
//                          mailing outputs
//       Archives/Mailing/  the letters directory and the email spool
//   - Sources are never moved or removed
//   - A second archive in the same minute gets a _2, _3... suffix
//
// =============================================================================

package utils

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveTimeLayout names archives by minute.
const ArchiveTimeLayout = "060102_1504"

// ErrNothingToArchive is returned when none of the archive sources exist.
var ErrNothingToArchive = errors.New("nothing to archive")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the commands.
type FileManager struct {
	// DataDir is the directory holding the roster and the logs.
	DataDir string

	// ArchiveDir receives the Data and Mailing archive subdirectories.
	ArchiveDir string

	// MailingPaths are the mailing outputs (letters directory, email
	// spool). They go to the Mailing archive and are left out of the
	// Data archive.
	MailingPaths []string
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(dataDir, archiveDir string, mailingPaths ...string) *FileManager {
	return &FileManager{
		DataDir:      dataDir,
		ArchiveDir:   archiveDir,
		MailingPaths: mailingPaths,
	}
}

// DataArchiveDir is where data archives are written.
func (fm *FileManager) DataArchiveDir() string { return filepath.Join(fm.ArchiveDir, "Data") }

// MailingArchiveDir is where mailing archives are written.
func (fm *FileManager) MailingArchiveDir() string { return filepath.Join(fm.ArchiveDir, "Mailing") }

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
//
// RETURNS:
//   - An error if any directory cannot be created.
func (fm *FileManager) EnsureDirectories() error {
	dirs := []string{
		fm.DataDir,
		fm.DataArchiveDir(),
		fm.MailingArchiveDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// =============================================================================
// ARCHIVES
// =============================================================================

// ArchiveData writes the data directory, less the mailing outputs, to a
// new archive.
//
// RETURNS:
//   - The path to the archive.
//   - ErrNothingToArchive if the data directory does not exist.
func (fm *FileManager) ArchiveData(now time.Time) (string, error) {
	if _, err := os.Stat(fm.DataDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", fm.DataDir, ErrNothingToArchive)
		}
		return "", err
	}

	skip := make(map[string]bool, len(fm.MailingPaths))
	for _, p := range fm.MailingPaths {
		skip[filepath.Clean(p)] = true
	}
	return fm.writeArchive(fm.DataArchiveDir(), now, []string{fm.DataDir}, skip)
}

// ArchiveMailing writes the mailing outputs that exist to a new archive.
//
// RETURNS:
//   - The path to the archive.
//   - ErrNothingToArchive if no mailing output exists.
func (fm *FileManager) ArchiveMailing(now time.Time) (string, error) {
	var present []string
	for _, p := range fm.MailingPaths {
		if _, err := os.Stat(p); err == nil {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		return "", fmt.Errorf("mailing: %w", ErrNothingToArchive)
	}
	return fm.writeArchive(fm.MailingArchiveDir(), now, present, nil)
}

func (fm *FileManager) writeArchive(dir string, now time.Time, sources []string, skip map[string]bool) (path string, err error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}
	path = availableName(dir, now.Format(ArchiveTimeLayout), ".tar.gz")

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(path)
			path = ""
		}
	}()

	gz := gzip.NewWriter(file)
	tw := tar.NewWriter(gz)
	for _, src := range sources {
		if err := addTree(tw, src, skip); err != nil {
			return "", err
		}
	}
	if err := tw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish archive: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("failed to finish archive: %w", err)
	}
	return path, nil
}

// addTree adds root and, for a directory, everything below it. Entry
// names are relative to root's parent so the archive unpacks to the same
// layout.
func addTree(tw *tar.Writer, root string, skip map[string]bool) error {
	base := filepath.Dir(filepath.Clean(root))
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if skip[filepath.Clean(p)] {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		// Lock files belong to a live run.
		if strings.HasSuffix(p, ".lock") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, p)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("archive %s: %w", p, err)
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(p)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("archive %s: %w", p, err)
		}
		return nil
	})
}

// availableName returns dir/stem+ext, or the first free dir/stem_N+ext.
func availableName(dir, stem, ext string) string {
	path := filepath.Join(dir, stem+ext)
	for n := 2; ; n++ {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return path
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
}

// =============================================================================
// BACKUPS
// =============================================================================

// BackupFile copies path to path+".bak", replacing an older backup. A
// missing source is not an error; there is nothing to protect.
//
// RETURNS:
//   - The backup path, or "" when the source does not exist.
func BackupFile(path string) (string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	dst := path + ".bak"
	if err := copyFile(path, dst); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}
	return dst, nil
}

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}

	return destFile.Close()
}
