package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// ApplyEnv overrides cfg with GAMINGNEWS_* environment variables. Unset or
// empty variables leave the current value.
func ApplyEnv(cfg *Config) error {
	var errs []error

	cfg.Site.BaseURL = getEnv("GAMINGNEWS_BASE_URL", cfg.Site.BaseURL)
	cfg.Site.FeedURL = getEnv("GAMINGNEWS_FEED_URL", cfg.Site.FeedURL)
	cfg.History.Type = getEnv("GAMINGNEWS_HISTORY_TYPE", cfg.History.Type)
	cfg.History.DSN = getEnv("GAMINGNEWS_HISTORY_DSN", cfg.History.DSN)
	cfg.Output.Dir = getEnv("GAMINGNEWS_OUTPUT_DIR", cfg.Output.Dir)
	cfg.Log.Level = getEnv("GAMINGNEWS_LOG_LEVEL", cfg.Log.Level)

	envInt(&errs, "GAMINGNEWS_NEWS_COUNT", &cfg.Crawl.NewsCount)
	envInt(&errs, "GAMINGNEWS_MAX_PAGES", &cfg.Crawl.MaxPages)

	if val := os.Getenv("GAMINGNEWS_REQUEST_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			errs = append(errs, fmt.Errorf("GAMINGNEWS_REQUEST_TIMEOUT: %w", err))
		} else {
			cfg.Crawl.RequestTimeout = Duration(d)
		}
	}

	if val := os.Getenv("GAMINGNEWS_SEED"); val != "" {
		seed, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("GAMINGNEWS_SEED: %w", err))
		} else {
			cfg.Crawl.Seed = seed
		}
	}

	return errors.Join(errs...)
}

func envInt(errs *[]error, key string, dst *int) {
	val := os.Getenv(key)
	if val == "" {
		return
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return
	}
	*dst = n
}
