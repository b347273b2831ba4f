// Package main is the entry point for the EdgeLab prediction service.
// The application ingests daily NBA slates from the scoreboard feed,
// maintains a persisted self-updating team-strength rating, and serves
// per-game predictions over a JSON API.
//
// Startup sequence:
// 1. Load configuration from environment variables (.env supported)
// 2. Initialize structured logging
// 3. Open the brain database and load the persisted snapshot (fail-soft)
// 4. Wire feed client, prediction engine, learning engine, slate service
// 5. Start the HTTP server and the scheduled audit pass
// 6. Wait for shutdown signal and shut down gracefully
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aristath/edgelab/internal/config"
	"github.com/aristath/edgelab/internal/database"
	"github.com/aristath/edgelab/internal/feed"
	"github.com/aristath/edgelab/internal/learning"
	"github.com/aristath/edgelab/internal/prediction"
	"github.com/aristath/edgelab/internal/ratings"
	"github.com/aristath/edgelab/internal/server"
	"github.com/aristath/edgelab/internal/slate"
	"github.com/aristath/edgelab/pkg/logger"
	"github.com/aristath/edgelab/pkg/metrics"
)

func main() {
	// Load configuration first to get log level
	cfg, err := config.Load()
	if err != nil {
		// Use fallback logger if config fails
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger with config level
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting EdgeLab")

	// Open the brain database
	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "brain.db"),
		Name: "brain",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open brain database")
	}
	defer db.Close()
	log.Info().Str("database", db.Name()).Str("path", db.Path()).Msg("Database initialized")

	// Rating store: load the persisted snapshot, or start fresh when it
	// is missing or corrupt. Load never fails hard.
	store, err := ratings.New(db.Conn(), cfg.Model.DefaultRating, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize rating store")
	}
	store.Load()

	// Wire the engines
	m := metrics.New()
	feedClient := feed.New(cfg.FeedBaseURL, cfg.FeedTimeout, log)
	predictor := prediction.New(cfg.Model, uint64(time.Now().UnixNano()))
	learner := learning.New(feedClient, store, predictor, cfg.Model, m, log)
	slateSvc := slate.New(feedClient, store, learner, predictor, cfg.Model, m, log)

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		DevMode: cfg.DevMode,
		Log:     log,
		Config:  cfg,
		Slate:   slateSvc,
		Ratings: store,
		Metrics: m,
		DB:      db,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Scheduled audit: the background single writer. The HTTP path also
	// triggers audits for freshness; the learning engine's run lock makes
	// the two safe together.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.AuditSchedule, func() {
		auditCtx, auditCancel := context.WithTimeout(ctx, 2*time.Minute)
		defer auditCancel()
		learner.Audit(auditCtx)
	})
	if err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.AuditSchedule).Msg("Invalid audit schedule")
	}
	scheduler.Start()
	log.Info().Str("schedule", cfg.AuditSchedule).Msg("Scheduled audit started")

	// Run one pass at startup so the first render does not pay for it
	startupCtx, startupCancel := context.WithTimeout(ctx, 2*time.Minute)
	learner.Audit(startupCtx)
	startupCancel()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the scheduler and let an in-flight audit finish
	cronCtx := scheduler.Stop()
	<-cronCtx.Done()
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
