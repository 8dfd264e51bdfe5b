package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/redboard/mentions-tracker/internal/api"
	"github.com/redboard/mentions-tracker/internal/classify"
	"github.com/redboard/mentions-tracker/internal/config"
	"github.com/redboard/mentions-tracker/internal/ingest"
	"github.com/redboard/mentions-tracker/internal/price"
	"github.com/redboard/mentions-tracker/internal/scheduler"
	"github.com/redboard/mentions-tracker/internal/store"
	"github.com/redboard/mentions-tracker/internal/twitter"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting RedBoard Mentions Tracker")
	if cfg.TwitterBearerToken == "" {
		logrus.Warn("TWITTER_BEARER_TOKEN not set - serving stored data only")
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." && cfg.DatabasePath != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logrus.Fatalf("Failed to create data directory: %v", err)
		}
	}

	st, err := store.Open(cfg.DatabasePath)
	if err != nil {
		logrus.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	twitterClient := twitter.NewClient(cfg.TwitterBearerToken)
	priceService := price.NewService(cfg.PriceCoinID)
	ingestService := ingest.NewService(cfg, twitterClient, st, classify.DefaultRules())

	schedulerService := scheduler.NewService(cfg, ingestService, priceService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	router := mux.NewRouter()
	api.NewHandler(st, priceService, ingestService).Register(router)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
