package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const dateFormat = "2006-01-02"

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Harvest window: explicit dates win over the lookback
	StartDate    string
	EndDate      string
	LookbackDays int

	// What to harvest
	Subreddit string
	Query     string

	// Minimum comment batch worth a "load more" request
	ReplaceMoreMin int

	// Reddit API credentials
	RedditClientID     string
	RedditClientSecret string

	// Historical search index (Pushshift-style); empty disables the
	// historical strategy and the live listing is paged instead
	UseHistoricalIndex bool
	PushshiftBaseURL   string

	// Artifact storage: "local" or "azure"
	StorageBackend   string
	OutputDir        string
	StorageAccount   string
	StorageContainer string

	// Notification configuration (all optional)
	TeamsWebhookURL   string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		StartDate:    getEnv("START_DATE", ""),
		EndDate:      getEnv("END_DATE", ""),
		LookbackDays: getIntEnv("LOOKBACK_DAYS", 1),

		Subreddit: getEnv("SUBREDDIT", "wallstreetbets"),
		Query:     getEnv("SEARCH_QUERY", "(stocks)|(markets)|(stock market)|(investing)|(investment)"),

		ReplaceMoreMin: getIntEnv("REPLACE_MORE_MINIMUM", 35),

		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),

		UseHistoricalIndex: getBoolEnv("USE_HISTORICAL_INDEX", true),
		PushshiftBaseURL:   getEnv("PUSHSHIFT_BASE_URL", ""),

		StorageBackend:   getEnv("STORAGE_BACKEND", "local"),
		OutputDir:        getEnv("OUTPUT_DIR", "./output"),
		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "echo-chambers"),

		TeamsWebhookURL:   getEnv("TEAMS_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.RedditClientID == "" || c.RedditClientSecret == "" {
		return fmt.Errorf("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required")
	}

	if c.StorageBackend != "local" && c.StorageBackend != "azure" {
		return fmt.Errorf("STORAGE_BACKEND must be 'local' or 'azure'")
	}
	if c.StorageBackend == "azure" && c.StorageAccount == "" {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT is required when STORAGE_BACKEND is 'azure'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	if _, _, err := c.Window(); err != nil {
		return err
	}

	return nil
}

// Window resolves the harvest interval [start, end). Explicit START_DATE /
// END_DATE win; otherwise the window is LOOKBACK_DAYS whole days ending at
// today's UTC midnight.
func (c *Config) Window() (time.Time, time.Time, error) {
	if c.StartDate != "" || c.EndDate != "" {
		start, err := time.ParseInLocation(dateFormat, c.StartDate, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid START_DATE %q: %w", c.StartDate, err)
		}
		end, err := time.ParseInLocation(dateFormat, c.EndDate, time.UTC)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid END_DATE %q: %w", c.EndDate, err)
		}
		if !start.Before(end) {
			return time.Time{}, time.Time{}, fmt.Errorf("START_DATE must be before END_DATE")
		}
		return start, end, nil
	}

	if c.LookbackDays < 1 {
		return time.Time{}, time.Time{}, fmt.Errorf("LOOKBACK_DAYS must be at least 1")
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -c.LookbackDays)
	return start, end, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
