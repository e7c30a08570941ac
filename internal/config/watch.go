package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvWatchInterval = "DOCKET_WATCH_INTERVAL"
	EnvWatchDir      = "DOCKET_WATCH_DIR"
	EnvWatchServe    = "DOCKET_WATCH_SERVE"
	EnvWatchDebounce = "DOCKET_WATCH_DEBOUNCE"
)

// WatchConfig controls the long-running watch command. Dir, when set, is
// watched for new PDFs in addition to the interval poll.
type WatchConfig struct {
	Interval string `toml:"interval"`
	Debounce string `toml:"debounce"`
	Dir      string `toml:"dir"`
	Serve    bool   `toml:"serve"`
}

// IntervalDuration returns Interval as a time.Duration.
func (c *WatchConfig) IntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.Interval)
	return d
}

// DebounceDuration returns Debounce as a time.Duration.
func (c *WatchConfig) DebounceDuration() time.Duration {
	d, _ := time.ParseDuration(c.Debounce)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WatchConfig) Finalize() error {
	if c.Interval == "" {
		c.Interval = "15m"
	}
	if c.Debounce == "" {
		c.Debounce = "2s"
	}

	if v := os.Getenv(EnvWatchInterval); v != "" {
		c.Interval = v
	}
	if v := os.Getenv(EnvWatchDebounce); v != "" {
		c.Debounce = v
	}
	if v := os.Getenv(EnvWatchDir); v != "" {
		c.Dir = v
	}
	if v := os.Getenv(EnvWatchServe); v != "" {
		serve, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWatchServe, err)
		}
		c.Serve = serve
	}

	if d, err := time.ParseDuration(c.Interval); err != nil || d <= 0 {
		return fmt.Errorf("invalid interval %q", c.Interval)
	}
	if _, err := time.ParseDuration(c.Debounce); err != nil {
		return fmt.Errorf("invalid debounce: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *WatchConfig) Merge(overlay *WatchConfig) {
	if overlay.Interval != "" {
		c.Interval = overlay.Interval
	}
	if overlay.Debounce != "" {
		c.Debounce = overlay.Debounce
	}
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Serve {
		c.Serve = true
	}
}
