package logging

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// archiveStampLayout is appended to the log file's base name on rotation.
const archiveStampLayout = "20060102-150405"

// ArchiveName returns the path a log file is moved to when rotated at ts.
func ArchiveName(path string, ts time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + ts.UTC().Format(archiveStampLayout) + ext
}

// RotateLogFile archives path when it is at least maxBytes long and returns
// the archive path. Missing files and maxBytes <= 0 are no-ops.
func RotateLogFile(path string, maxBytes int64, now time.Time) (string, error) {
	if maxBytes <= 0 {
		return "", nil
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() || info.Size() < maxBytes {
		return "", nil
	}
	archive := ArchiveName(path, now)
	if _, err := os.Stat(archive); err == nil {
		// Two rotations inside one second; keep the older archive.
		return "", nil
	}
	if err := os.Rename(path, archive); err != nil {
		return "", fmt.Errorf("rotate log file: %w", err)
	}
	return archive, nil
}

// PruneArchives removes rotated archives of path whose stamp is older than
// retentionDays and returns the removed paths. Files without a parseable
// stamp are left alone.
func PruneArchives(logger *slog.Logger, path string, retentionDays int, now time.Time) []string {
	if retentionDays <= 0 || strings.TrimSpace(path) == "" {
		return nil
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	prefix := strings.TrimSuffix(filepath.Base(path), ext) + "-"
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var removed []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		stamp, err := time.Parse(archiveStampLayout, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext))
		if err != nil || !stamp.Before(cutoff) {
			continue
		}
		full := filepath.Join(dir, name)
		if err := os.Remove(full); err != nil {
			WarnWithContext(logger, "log archive remove failed; file remains", "log_retention_failed",
				String("path", full),
				Error(err),
				String(FieldErrorHint, "check file permissions and paths.log_dir ownership"),
				String(FieldImpact, "old log archive remains on disk"),
			)
			continue
		}
		removed = append(removed, full)
		if logger != nil {
			logger.Info("log archive pruned",
				String("path", full),
				String("archived_at", stamp.Format(time.RFC3339)),
				String(FieldEventType, "log_pruned"),
			)
		}
	}
	return removed
}
