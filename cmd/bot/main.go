package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zACIID/investing-echo-chambers/internal/config"
	"github.com/zACIID/investing-echo-chambers/internal/interactions"
	"github.com/zACIID/investing-echo-chambers/internal/notifications"
	"github.com/zACIID/investing-echo-chambers/internal/pipeline"
	"github.com/zACIID/investing-echo-chambers/internal/pushshift"
	"github.com/zACIID/investing-echo-chambers/internal/reddit"
	"github.com/zACIID/investing-echo-chambers/internal/scheduler"
	"github.com/zACIID/investing-echo-chambers/internal/sentiment"
	"github.com/zACIID/investing-echo-chambers/internal/storage"
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

	logrus.Info("Starting echo-chambers harvest service")

	client := reddit.NewClient(cfg.RedditClientID, cfg.RedditClientSecret)
	if !client.IsEnabled() {
		logrus.Fatal("Reddit credentials are not configured")
	}

	var index interactions.HistoricalIndex
	if cfg.UseHistoricalIndex {
		index = pushshift.NewClient(cfg.PushshiftBaseURL)
	}
	fetcher := interactions.NewFetcher(client, index, cfg.Subreddit, cfg.Query, cfg.ReplaceMoreMin)

	var store storage.StorageInterface
	switch cfg.StorageBackend {
	case "azure":
		store, err = storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	default:
		store, err = storage.NewLocalStorage(cfg.OutputDir)
	}
	if err != nil {
		logrus.Fatalf("Failed to initialize storage: %v", err)
	}

	var notifier notifications.NotificationInterface
	if cfg.TeamsWebhookURL != "" || cfg.NotificationEmail != "" {
		notifier = notifications.NewService(cfg)
	}

	pipelineService := pipeline.NewService(fetcher, sentiment.NewVaderScorer(), store, notifier)

	schedulerService := scheduler.NewService(pipelineService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// Set up HTTP server for health checks and manual triggers
	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(pipelineService)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(pipelineService)).Methods("POST")

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

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
}

func metricsHandler(service *pipeline.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(service.GetMetrics()))
	}
}

func triggerHandler(service *pipeline.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		// The service guard is authoritative, but rejecting here gives the
		// caller an immediate answer instead of a silently discarded run.
		if service.Running() {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":"a harvest run is already in progress"}`))
			return
		}

		go func() {
			end := time.Now().UTC().Truncate(24 * time.Hour)
			start := end.AddDate(0, 0, -1)
			if _, err := service.RunWindow(context.Background(), start, end); err != nil {
				logrus.Errorf("Manual harvest trigger failed: %v", err)
			}
		}()

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"Harvest triggered successfully"}`))
	}
}
