package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/zACIID/investing-echo-chambers/internal/config"
	"github.com/zACIID/investing-echo-chambers/internal/interactions"
	"github.com/zACIID/investing-echo-chambers/internal/notifications"
	"github.com/zACIID/investing-echo-chambers/internal/pipeline"
	"github.com/zACIID/investing-echo-chambers/internal/pushshift"
	"github.com/zACIID/investing-echo-chambers/internal/reddit"
	"github.com/zACIID/investing-echo-chambers/internal/sentiment"
	"github.com/zACIID/investing-echo-chambers/internal/storage"
)

func main() {
	startFlag := flag.String("start", "", "window start date (YYYY-MM-DD, inclusive)")
	endFlag := flag.String("end", "", "window end date (YYYY-MM-DD, exclusive)")
	daysFlag := flag.Int("days", 0, "lookback in whole days ending at today's UTC midnight")
	outputFlag := flag.String("output", "", "artifact output directory")
	subredditFlag := flag.String("subreddit", "", "subreddit to harvest")
	queryFlag := flag.String("query", "", "historical search query")
	flag.Parse()

	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags win over environment configuration.
	if *startFlag != "" {
		cfg.StartDate = *startFlag
	}
	if *endFlag != "" {
		cfg.EndDate = *endFlag
	}
	if *daysFlag > 0 {
		cfg.StartDate = ""
		cfg.EndDate = ""
		cfg.LookbackDays = *daysFlag
	}
	if *outputFlag != "" {
		cfg.OutputDir = *outputFlag
	}
	if *subredditFlag != "" {
		cfg.Subreddit = *subredditFlag
	}
	if *queryFlag != "" {
		cfg.Query = *queryFlag
	}

	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	start, end, err := cfg.Window()
	if err != nil {
		log.Fatalf("Invalid harvest window: %v", err)
	}

	service, err := buildService(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize pipeline: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logrus.Infof("Harvesting r/%s in [%s, %s)", cfg.Subreddit,
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	report, err := service.RunWindow(ctx, start, end)
	if err != nil {
		logrus.Errorf("Pipeline run failed: %v", err)
		os.Exit(1)
	}
	if !report.Merged {
		logrus.Error("Pipeline run finished without completing the merge")
		os.Exit(1)
	}

	logrus.Infof("Run %s complete: %d interactions across %d users",
		report.RunID, report.TotalInteractions, report.TotalUsers)
}

func buildService(cfg *config.Config) (*pipeline.Service, error) {
	client := reddit.NewClient(cfg.RedditClientID, cfg.RedditClientSecret)
	if !client.IsEnabled() {
		return nil, fmt.Errorf("reddit credentials are not configured")
	}

	var index interactions.HistoricalIndex
	if cfg.UseHistoricalIndex {
		index = pushshift.NewClient(cfg.PushshiftBaseURL)
	}

	fetcher := interactions.NewFetcher(client, index, cfg.Subreddit, cfg.Query, cfg.ReplaceMoreMin)

	var store storage.StorageInterface
	var err error
	switch cfg.StorageBackend {
	case "azure":
		store, err = storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer)
	default:
		store, err = storage.NewLocalStorage(cfg.OutputDir)
	}
	if err != nil {
		return nil, err
	}

	var notifier notifications.NotificationInterface
	if cfg.TeamsWebhookURL != "" || cfg.NotificationEmail != "" {
		notifier = notifications.NewService(cfg)
	}

	return pipeline.NewService(fetcher, sentiment.NewVaderScorer(), store, notifier), nil
}
