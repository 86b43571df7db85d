package recording

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/meetme/conferencebridge/internal/database"
)

// StartCleanupTicker runs a background goroutine that periodically removes
// recording files in spoolDir older than the configured recording.max_days
// setting. Conference recordings are plain WAV files on disk with no
// database-backed history, so retention is enforced by file modification
// time rather than a row scan. If recording.max_days is 0 or unset, no
// cleanup is performed. The goroutine stops when ctx is cancelled.
func StartCleanupTicker(ctx context.Context, spoolDir string, sysConfig database.SystemConfigRepository, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweepOnce(ctx, spoolDir, sysConfig)
			}
		}
	}()
}

func sweepOnce(ctx context.Context, spoolDir string, sysConfig database.SystemConfigRepository) {
	maxDaysStr, err := sysConfig.Get(ctx, "recording.max_days")
	if err != nil {
		slog.Error("recording retention: failed to read setting", "error", err)
		return
	}
	if maxDaysStr == "" || maxDaysStr == "0" {
		return
	}

	maxDays, err := strconv.Atoi(maxDaysStr)
	if err != nil || maxDays <= 0 {
		return
	}

	cutoff := time.Now().Add(-time.Duration(maxDays) * 24 * time.Hour)

	entries, err := os.ReadDir(spoolDir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("recording retention: failed to list spool directory", "dir", spoolDir, "error", err)
		}
		return
	}

	deleted := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".wav") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(spoolDir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove recording file", "path", path, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		slog.Info("recording retention cleanup", "deleted", deleted, "max_days", maxDays)
	}
}
