package ledger

import (
	"fmt"
	"os"
)

const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config selects where processed marks are kept.
type Config struct {
	Backend string `toml:"backend"`
	File    string `toml:"file"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend string
	File    string
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
	if overlay.File != "" {
		c.File = overlay.File
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendFile
	}
	if c.File == "" {
		c.File = "processed.json"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Backend != "" {
		if v := os.Getenv(env.Backend); v != "" {
			c.Backend = v
		}
	}
	if env.File != "" {
		if v := os.Getenv(env.File); v != "" {
			c.File = v
		}
	}
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendFile, BackendPostgres:
		return nil
	default:
		return fmt.Errorf("invalid ledger backend %q: want %s or %s", c.Backend, BackendFile, BackendPostgres)
	}
}
