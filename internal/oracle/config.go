package oracle

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config parameterizes the OpenAI-compatible classification endpoint.
type Config struct {
	BaseURL      string `toml:"base_url"`
	Model        string `toml:"model"`
	APIKey       string `toml:"api_key"`
	Timeout      string `toml:"timeout"`
	MaxTextChars int    `toml:"max_text_chars"`
	MaxRetries   int    `toml:"max_retries"`
}

// Env maps config fields to environment variable names for override injection.
// APIKeyFallback is consulted when APIKey is unset.
type Env struct {
	BaseURL        string
	Model          string
	APIKey         string
	APIKeyFallback string
	Timeout        string
	MaxTextChars   string
}

// TimeoutDuration returns the per-request timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
// An absent API key is not a validation error; New reports it.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxTextChars != 0 {
		c.MaxTextChars = overlay.MaxTextChars
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
}

func (c *Config) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout == "" {
		c.Timeout = "60s"
	}
	if c.MaxTextChars == 0 {
		c.MaxTextChars = 60000
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.Model = v
		}
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if c.APIKey == "" && env.APIKeyFallback != "" {
		c.APIKey = os.Getenv(env.APIKeyFallback)
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.MaxTextChars != "" {
		if v := os.Getenv(env.MaxTextChars); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxTextChars = n
			}
		}
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.MaxTextChars < 1 {
		return fmt.Errorf("max_text_chars must be positive: %d", c.MaxTextChars)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid max_retries: %d", c.MaxRetries)
	}
	return nil
}
