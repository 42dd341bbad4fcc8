package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WeekKeyFunc returns a key identifying the week t falls in.
// Two times with the same key share one weekly backup.
// The key becomes part of the backup file name.
type WeekKeyFunc func(t time.Time) string

// ISOWeekKey keys by ISO 8601 year and week, e.g. "2026-W42"
func ISOWeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// MonthWeekKey keys by calendar year, month and ISO week, e.g. "2026-10-W42".
// A week spanning two months gets two backups.
func MonthWeekKey(t time.Time) string {
	_, week := t.ISOWeek()
	return fmt.Sprintf("%04d-%02d-W%02d", t.Year(), int(t.Month()), week)
}

// WeeklyBackupPath returns the path of the weekly backup for path
// e.g. History.xml => ${folder}/History-2026-W42.xml.zstd
func WeeklyBackupPath(path string, folder string, now time.Time, key WeekKeyFunc, c Compression) string {
	if key == nil {
		key = ISOWeekKey
	}
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	fileName := name + "-" + key(now) + ext + c.Ext()
	return filepath.Join(folder, fileName)
}

// WeeklyBackup copies path into folder unless a copy for the week of now
// already exists. Returns the backup path and true if a new copy was made.
// A missing source file is not an error, there's nothing to back up.
func WeeklyBackup(path string, folder string, now time.Time, key WeekKeyFunc, c Compression) (string, bool, error) {
	if path == "" || folder == "" {
		return "", false, nil
	}
	if !fileExists(path) {
		return "", false, nil
	}
	dst := WeeklyBackupPath(path, folder, now, key, c)
	if pathExists(dst) {
		return dst, false, nil
	}
	if err := copyFileAtomically(dst, path, c); err != nil {
		return dst, false, fmt.Errorf("weekly backup of '%s' to '%s' failed: %w", path, dst, err)
	}
	return dst, true, nil
}

// pathExists returns true if path exists
func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// fileExists returns true if path exists and is a regular file
func fileExists(path string) bool {
	st, err := os.Lstat(path)
	return err == nil && st.Mode().IsRegular()
}
