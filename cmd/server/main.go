package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlopez/flashdeck/internal/api"
	"github.com/mlopez/flashdeck/internal/config"
	"github.com/mlopez/flashdeck/internal/db"
	"github.com/mlopez/flashdeck/internal/logger"
	"github.com/mlopez/flashdeck/internal/repository/sqlite"
	"github.com/mlopez/flashdeck/internal/scheduler"
	"github.com/mlopez/flashdeck/internal/services"
)

func main() {
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("FlashDeck server starting")
	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("desired_retention=%.2f", cfg.DesiredRetention)
	log.Debug("max_interval_days=%d", cfg.MaxIntervalDays)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// One policy instance for the process; it is stateless and shared
	// safely across requests.
	policy, err := scheduler.New(scheduler.Config{
		DesiredRetention: cfg.DesiredRetention,
		MaximumInterval:  cfg.MaxIntervalDays,
	})
	if err != nil {
		log.Error("failed to build review policy: %v", err)
		os.Exit(1)
	}

	cardRepo := sqlite.NewCardRepository(database.DB)
	scheduleRepo := sqlite.NewScheduleRepository(database.DB)

	srv := &api.Server{
		StudyService: services.NewStudyService(cardRepo, scheduleRepo, policy),
		CardService:  services.NewCardService(cardRepo),
	}

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, shutting down", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("FlashDeck server stopped")
}
