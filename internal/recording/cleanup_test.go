package recording

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meetme/conferencebridge/internal/database"
)

func writeFileAt(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.WriteFile(path, []byte("fake wav"), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("Chtimes(%s): %v", path, err)
	}
}

func TestSweepOnceDeletesOnlyExpired(t *testing.T) {
	spoolDir := t.TempDir()
	dbDir := t.TempDir()

	db, err := database.Open(dbDir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	sysConfig, err := database.NewSystemConfigRepository(ctx, db)
	if err != nil {
		t.Fatalf("NewSystemConfigRepository() error: %v", err)
	}
	if err := sysConfig.Set(ctx, "recording.max_days", "7"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	old := filepath.Join(spoolDir, "7000-old.wav")
	fresh := filepath.Join(spoolDir, "7000-fresh.wav")
	writeFileAt(t, old, time.Now().Add(-10*24*time.Hour))
	writeFileAt(t, fresh, time.Now().Add(-1*time.Hour))

	sweepOnce(ctx, spoolDir, sysConfig)

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("expected expired recording to be removed, stat err = %v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("expected fresh recording to survive, stat err = %v", err)
	}
}

func TestSweepOnceNoopWhenRetentionUnset(t *testing.T) {
	spoolDir := t.TempDir()
	dbDir := t.TempDir()

	db, err := database.Open(dbDir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	sysConfig, err := database.NewSystemConfigRepository(ctx, db)
	if err != nil {
		t.Fatalf("NewSystemConfigRepository() error: %v", err)
	}

	old := filepath.Join(spoolDir, "7000-old.wav")
	writeFileAt(t, old, time.Now().Add(-30*24*time.Hour))

	sweepOnce(ctx, spoolDir, sysConfig)

	if _, err := os.Stat(old); err != nil {
		t.Errorf("expected recording to survive when retention unset, stat err = %v", err)
	}
}
