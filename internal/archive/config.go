package archive

import (
	"fmt"
	"os"
	"strconv"

	"github.com/JaimeStill/docket/pkg/formatting"
	"github.com/JaimeStill/docket/pkg/naming"
)

// Config holds archival and batch bookkeeping options.
type Config struct {
	RecordIDWidth   int    `toml:"record_id_width"`
	Resume          bool   `toml:"resume"`
	ReportDir       string `toml:"report_dir"`
	MaxDocumentSize string `toml:"max_document_size"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	RecordIDWidth   string
	Resume          string
	ReportDir       string
	MaxDocumentSize string
}

// MaxDocumentBytes returns MaxDocumentSize in bytes.
func (c *Config) MaxDocumentBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxDocumentSize)
	if err != nil {
		return 50 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		if err := c.loadEnv(env); err != nil {
			return err
		}
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.RecordIDWidth != 0 {
		c.RecordIDWidth = overlay.RecordIDWidth
	}
	if overlay.Resume {
		c.Resume = true
	}
	if overlay.ReportDir != "" {
		c.ReportDir = overlay.ReportDir
	}
	if overlay.MaxDocumentSize != "" {
		c.MaxDocumentSize = overlay.MaxDocumentSize
	}
}

func (c *Config) loadDefaults() {
	if c.RecordIDWidth == 0 {
		c.RecordIDWidth = naming.DefaultWidth
	}
	if c.ReportDir == "" {
		c.ReportDir = "."
	}
	if c.MaxDocumentSize == "" {
		c.MaxDocumentSize = "50MB"
	}
}

func (c *Config) loadEnv(env *Env) error {
	if env.RecordIDWidth != "" {
		if v := os.Getenv(env.RecordIDWidth); v != "" {
			width, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", env.RecordIDWidth, err)
			}
			c.RecordIDWidth = width
		}
	}
	if env.Resume != "" {
		if v := os.Getenv(env.Resume); v != "" {
			resume, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", env.Resume, err)
			}
			c.Resume = resume
		}
	}
	if env.ReportDir != "" {
		if v := os.Getenv(env.ReportDir); v != "" {
			c.ReportDir = v
		}
	}
	if env.MaxDocumentSize != "" {
		if v := os.Getenv(env.MaxDocumentSize); v != "" {
			c.MaxDocumentSize = v
		}
	}
	return nil
}

func (c *Config) validate() error {
	if c.RecordIDWidth < 1 {
		return fmt.Errorf("record_id_width must be positive: %d", c.RecordIDWidth)
	}
	if _, err := formatting.ParseBytes(c.MaxDocumentSize); err != nil {
		return fmt.Errorf("invalid max_document_size: %w", err)
	}
	return nil
}
