package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RetentionTarget selects files to prune: names in Dir matching Pattern,
// except the paths in Exclude.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs removes targeted files whose modification time is more than
// retentionDays in the past and returns how many were removed. Zero or
// negative retentionDays disables pruning.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	removed := 0
	for _, target := range targets {
		for _, path := range expiredFiles(target, cutoff) {
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check permissions on paths.log_dir"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
			logger.Debug("log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}

func expiredFiles(target RetentionTarget, cutoff time.Time) []string {
	if target.Dir == "" {
		return nil
	}
	pattern := target.Pattern
	if pattern == "" {
		pattern = "*"
	}
	matches, err := filepath.Glob(filepath.Join(target.Dir, pattern))
	if err != nil {
		return nil
	}
	skip := make(map[string]bool, len(target.Exclude))
	for _, path := range target.Exclude {
		if abs, err := filepath.Abs(path); err == nil {
			skip[abs] = true
		}
	}

	var expired []string
	for _, path := range matches {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if skip[path] {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() || !info.ModTime().Before(cutoff) {
			continue
		}
		expired = append(expired, path)
	}
	return expired
}
