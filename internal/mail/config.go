package mail

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Backend names accepted by Config.Backend.
const (
	BackendGraph = "graph"
	BackendDir   = "dir"
)

// Config selects and parameterizes the message store.
type Config struct {
	Backend         string `toml:"backend"`
	BaseURL         string `toml:"base_url"`
	Folder          string `toml:"folder"`
	PageSize        int    `toml:"page_size"`
	Dir             string `toml:"dir"`
	Timeout         string `toml:"timeout"`
	DownloadTimeout string `toml:"download_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend  string
	BaseURL  string
	Folder   string
	PageSize string
	Dir      string
}

// TimeoutDuration returns the listing call timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// DownloadTimeoutDuration returns the attachment download timeout.
func (c *Config) DownloadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.DownloadTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Folder != "" {
		c.Folder = overlay.Folder
	}
	if overlay.PageSize != 0 {
		c.PageSize = overlay.PageSize
	}
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.DownloadTimeout != "" {
		c.DownloadTimeout = overlay.DownloadTimeout
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendGraph
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://graph.microsoft.com/v1.0"
	}
	if c.Folder == "" {
		c.Folder = "inbox"
	}
	if c.PageSize == 0 {
		c.PageSize = 100
	}
	if c.Dir == "" {
		c.Dir = "inbox"
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.DownloadTimeout == "" {
		c.DownloadTimeout = "120s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = v
		}
	}
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Folder != "" {
		if v := os.Getenv(env.Folder); v != "" {
			c.Folder = v
		}
	}
	if env.PageSize != "" {
		if v := os.Getenv(env.PageSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.PageSize = n
			}
		}
	}
	if env.Dir != "" {
		if v := os.Getenv(env.Dir); v != "" {
			c.Dir = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendGraph, BackendDir:
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	if c.PageSize < 1 || c.PageSize > 1000 {
		return fmt.Errorf("page_size must be between 1 and 1000: %d", c.PageSize)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if _, err := time.ParseDuration(c.DownloadTimeout); err != nil {
		return fmt.Errorf("invalid download_timeout: %w", err)
	}
	return nil
}
