package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Persistence
	DatabasePath string

	// Twitter API credentials. An empty bearer token is allowed: ingestion
	// cycles then no-op and the read path serves whatever is stored.
	TwitterBearerToken string

	// Search queries issued every refresh cycle, in order.
	Queries []string

	// Ingestion schedule and rate limits
	RefreshInterval  time.Duration // between full refresh cycles
	StartupDelay     time.Duration // before the first cycle after boot
	RequestCooldown  time.Duration // between paginated upstream requests
	LookupCooldown   time.Duration // between cache-miss lookups (read path)
	MaxPagesPerQuery int

	// RefreshAuthorCounters enables the second ingestion pass that revisits
	// each active author's timeline to pick up counter changes.
	RefreshAuthorCounters bool

	// Price quote
	PriceCoinID          string
	PriceRefreshInterval time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DatabasePath: getEnv("DATABASE_PATH", "data/tweets.db"),

		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),

		Queries: getSliceEnv("SEARCH_QUERIES", []string{
			"@redstone_defi -is:retweet",
			`"RedStone Oracle" -is:retweet`,
			"redstone oracle crypto -minecraft -is:retweet",
			"#RedStone defi -is:retweet",
		}),

		RefreshInterval:  getDurationEnv("REFRESH_INTERVAL", 30*time.Minute),
		StartupDelay:     getDurationEnv("STARTUP_DELAY", 5*time.Second),
		RequestCooldown:  getDurationEnv("REQUEST_COOLDOWN", time.Second),
		LookupCooldown:   getDurationEnv("LOOKUP_COOLDOWN", 5*time.Second),
		MaxPagesPerQuery: getIntEnv("MAX_PAGES_PER_QUERY", 5),

		RefreshAuthorCounters: getBoolEnv("REFRESH_AUTHOR_COUNTERS", false),

		PriceCoinID:          getEnv("PRICE_COIN_ID", "redstone-oracles"),
		PriceRefreshInterval: getDurationEnv("PRICE_REFRESH_INTERVAL", 30*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Queries) == 0 {
		return fmt.Errorf("SEARCH_QUERIES must contain at least one query")
	}
	if c.MaxPagesPerQuery < 1 {
		return fmt.Errorf("MAX_PAGES_PER_QUERY must be at least 1")
	}
	if c.RequestCooldown <= 0 {
		return fmt.Errorf("REQUEST_COOLDOWN must be positive")
	}
	return nil
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

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
