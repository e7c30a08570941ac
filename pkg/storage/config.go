package storage

import (
	"fmt"
	"os"
	"time"
)

// Backend names accepted by Config.Backend.
const (
	BackendLocal = "local"
	BackendDrive = "drive"
	BackendBlob  = "blob"
)

// Config selects and parameterizes the archive tree backend.
// Root is the archive base: a directory for local, a folder path inside
// the drive for drive, and a key prefix for blob.
type Config struct {
	Backend string      `toml:"backend"`
	Root    string      `toml:"root"`
	Drive   DriveConfig `toml:"drive"`
	Blob    BlobConfig  `toml:"blob"`
}

// DriveConfig holds Microsoft Graph drive parameters.
// DriveID is discovered from /me/drive when empty.
type DriveConfig struct {
	BaseURL       string `toml:"base_url"`
	DriveID       string `toml:"drive_id"`
	Timeout       string `toml:"timeout"`
	UploadTimeout string `toml:"upload_timeout"`
	MaxRetries    int    `toml:"max_retries"`
	MaxDelay      string `toml:"max_delay"`
}

// BlobConfig holds Azure Blob Storage connection parameters.
type BlobConfig struct {
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Backend              string
	Root                 string
	DriveBaseURL         string
	DriveID              string
	DriveTimeout         string
	DriveUploadTimeout   string
	BlobContainerName    string
	BlobConnectionString string
}

// TimeoutDuration returns the metadata call timeout.
func (c *DriveConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// UploadTimeoutDuration returns the content upload timeout.
func (c *DriveConfig) UploadTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.UploadTimeout)
	return d
}

// MaxDelayDuration returns the retry backoff ceiling.
func (c *DriveConfig) MaxDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.MaxDelay)
	return d
}

// Remote reports whether the backend is not the local filesystem.
func (c *Config) Remote() bool {
	return c.Backend != BackendLocal
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
	if overlay.Root != "" {
		c.Root = overlay.Root
	}
	if overlay.Drive.BaseURL != "" {
		c.Drive.BaseURL = overlay.Drive.BaseURL
	}
	if overlay.Drive.DriveID != "" {
		c.Drive.DriveID = overlay.Drive.DriveID
	}
	if overlay.Drive.Timeout != "" {
		c.Drive.Timeout = overlay.Drive.Timeout
	}
	if overlay.Drive.UploadTimeout != "" {
		c.Drive.UploadTimeout = overlay.Drive.UploadTimeout
	}
	if overlay.Drive.MaxRetries != 0 {
		c.Drive.MaxRetries = overlay.Drive.MaxRetries
	}
	if overlay.Drive.MaxDelay != "" {
		c.Drive.MaxDelay = overlay.Drive.MaxDelay
	}
	if overlay.Blob.ContainerName != "" {
		c.Blob.ContainerName = overlay.Blob.ContainerName
	}
	if overlay.Blob.ConnectionString != "" {
		c.Blob.ConnectionString = overlay.Blob.ConnectionString
	}
}

func (c *Config) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendLocal
	}
	if c.Root == "" && c.Backend == BackendLocal {
		c.Root = "archive"
	}
	if c.Drive.BaseURL == "" {
		c.Drive.BaseURL = "https://graph.microsoft.com/v1.0"
	}
	if c.Drive.Timeout == "" {
		c.Drive.Timeout = "60s"
	}
	if c.Drive.UploadTimeout == "" {
		c.Drive.UploadTimeout = "120s"
	}
	if c.Drive.MaxRetries == 0 {
		c.Drive.MaxRetries = 3
	}
	if c.Drive.MaxDelay == "" {
		c.Drive.MaxDelay = "10s"
	}
	if c.Blob.ContainerName == "" {
		c.Blob.ContainerName = "archive"
	}
}

func (c *Config) loadEnv(env *Env) {
	set := func(name string, dst *string) {
		if name == "" {
			return
		}
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	set(env.Backend, &c.Backend)
	set(env.Root, &c.Root)
	set(env.DriveBaseURL, &c.Drive.BaseURL)
	set(env.DriveID, &c.Drive.DriveID)
	set(env.DriveTimeout, &c.Drive.Timeout)
	set(env.DriveUploadTimeout, &c.Drive.UploadTimeout)
	set(env.BlobContainerName, &c.Blob.ContainerName)
	set(env.BlobConnectionString, &c.Blob.ConnectionString)
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Root == "" {
			return fmt.Errorf("root required for local backend")
		}
	case BackendDrive:
		for name, v := range map[string]string{
			"timeout":        c.Drive.Timeout,
			"upload_timeout": c.Drive.UploadTimeout,
			"max_delay":      c.Drive.MaxDelay,
		} {
			if _, err := time.ParseDuration(v); err != nil {
				return fmt.Errorf("invalid drive %s: %w", name, err)
			}
		}
		if c.Drive.MaxRetries < 0 {
			return fmt.Errorf("invalid drive max_retries: %d", c.Drive.MaxRetries)
		}
	case BackendBlob:
		if c.Blob.ContainerName == "" {
			return fmt.Errorf("container_name required")
		}
		if c.Blob.ConnectionString == "" {
			return fmt.Errorf("connection_string required")
		}
	default:
		return fmt.Errorf("unknown backend: %q", c.Backend)
	}
	return nil
}
