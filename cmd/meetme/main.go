package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/meetme/conferencebridge/internal/api"
	"github.com/meetme/conferencebridge/internal/config"
	"github.com/meetme/conferencebridge/internal/database"
	"github.com/meetme/conferencebridge/internal/database/models"
	"github.com/meetme/conferencebridge/internal/meetme"
	"github.com/meetme/conferencebridge/internal/metrics"
	"github.com/meetme/conferencebridge/internal/prompts"
	"github.com/meetme/conferencebridge/internal/recording"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(cfg.SlogHandler(os.Stdout))
	slog.SetDefault(logger)

	slog.Info("starting conference bridge",
		"http_port", cfg.HTTPPort,
		"rtp_port_min", cfg.RTPPortMin,
		"rtp_port_max", cfg.RTPPortMax,
		"data_dir", cfg.DataDir,
	)

	db, err := database.Open(cfg.DataDir)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := prompts.ExtractToDataDir(cfg.DataDir); err != nil {
		slog.Error("failed to extract system prompts", "error", err)
		os.Exit(1)
	}

	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	sysConfig, err := database.NewSystemConfigRepository(appCtx, db)
	if err != nil {
		slog.Error("failed to load system config", "error", err)
		os.Exit(1)
	}

	rooms := database.NewRoomRepository(db)
	if err := loadStaticRooms(appCtx, cfg.StaticRoomConfig, rooms); err != nil {
		slog.Error("failed to load static room config", "error", err)
		os.Exit(1)
	}

	spoolDir := filepath.Join(cfg.DataDir, "recordings")
	if err := os.MkdirAll(spoolDir, 0o750); err != nil {
		slog.Error("failed to create recording spool directory", "error", err)
		os.Exit(1)
	}
	recording.StartCleanupTicker(appCtx, spoolDir, sysConfig, 1*time.Hour)

	device := meetme.NewUDPMixerDevice(cfg.RTPPortMin, cfg.RTPPortMax, logger)
	bus := meetme.NewCountingEventBus(meetme.NullEventBus{})
	registry := meetme.NewRegistry(device, bus, logger)

	collector := metrics.NewCollector(registry, bus, time.Now())

	handler := api.NewServer(cfg, rooms, registry, collector, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("admin http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		slog.Error("admin http server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	slog.Info("shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("admin http server shutdown error", "error", err)
		os.Exit(1)
	}

	slog.Info("conference bridge stopped")
}

// loadStaticRooms parses the meetme.conf-style room file and inserts each
// entry whose confno is not yet in the room registry; rooms already there
// are left unchanged, so the file seeds the registry and the registry is
// the source of truth across restarts.
func loadStaticRooms(ctx context.Context, path string, rooms database.RoomRepository) error {
	entries, err := config.LoadStaticRooms(path)
	if err != nil {
		return fmt.Errorf("parsing static room config: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	for _, entry := range entries {
		existing, err := rooms.GetByConfno(ctx, entry.Confno)
		if err != nil {
			return fmt.Errorf("looking up room %s: %w", entry.Confno, err)
		}
		if existing != nil {
			continue
		}

		room := &models.Room{Confno: entry.Confno, MaxMembers: 0}
		if entry.PIN != "" {
			hash, err := database.HashPassword(entry.PIN)
			if err != nil {
				return fmt.Errorf("hashing pin for room %s: %w", entry.Confno, err)
			}
			room.PINHash = hash
		}
		if entry.AdminPIN != "" {
			hash, err := database.HashPassword(entry.AdminPIN)
			if err != nil {
				return fmt.Errorf("hashing admin pin for room %s: %w", entry.Confno, err)
			}
			room.AdminPINHash = hash
		}

		if err := rooms.Create(ctx, room); err != nil {
			return fmt.Errorf("creating room %s: %w", entry.Confno, err)
		}
		slog.Info("loaded static room", "confno", entry.Confno)
	}
	return nil
}
