// Package config assembles the docket configuration from config.toml, an
// optional environment overlay, and DOCKET_ environment variables.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/docket/internal/archive"
	"github.com/JaimeStill/docket/internal/ledger"
	"github.com/JaimeStill/docket/internal/mail"
	"github.com/JaimeStill/docket/internal/oracle"
	"github.com/JaimeStill/docket/pkg/auth"
	"github.com/JaimeStill/docket/pkg/database"
	"github.com/JaimeStill/docket/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvDocketEnv             = "DOCKET_ENV"
	EnvDocketLogLevel        = "DOCKET_LOG_LEVEL"
	EnvDocketShutdownTimeout = "DOCKET_SHUTDOWN_TIMEOUT"
	EnvDocketVersion         = "DOCKET_VERSION"
	EnvDocketRecords         = "DOCKET_RECORDS"
)

var logLevels = []string{"debug", "info", "warn", "error"}

var archiveEnv = &archive.Env{
	RecordIDWidth:   "DOCKET_ARCHIVE_RECORD_ID_WIDTH",
	Resume:          "DOCKET_ARCHIVE_RESUME",
	ReportDir:       "DOCKET_ARCHIVE_REPORT_DIR",
	MaxDocumentSize: "DOCKET_ARCHIVE_MAX_DOCUMENT_SIZE",
}

var storageEnv = &storage.Env{
	Backend:              "DOCKET_STORAGE_BACKEND",
	Root:                 "DOCKET_STORAGE_ROOT",
	DriveBaseURL:         "DOCKET_STORAGE_DRIVE_BASE_URL",
	DriveID:              "DOCKET_STORAGE_DRIVE_ID",
	DriveTimeout:         "DOCKET_STORAGE_DRIVE_TIMEOUT",
	DriveUploadTimeout:   "DOCKET_STORAGE_DRIVE_UPLOAD_TIMEOUT",
	BlobContainerName:    "DOCKET_STORAGE_BLOB_CONTAINER_NAME",
	BlobConnectionString: "DOCKET_STORAGE_BLOB_CONNECTION_STRING",
}

var mailEnv = &mail.Env{
	Backend:  "DOCKET_MAIL_BACKEND",
	BaseURL:  "DOCKET_MAIL_BASE_URL",
	Folder:   "DOCKET_MAIL_FOLDER",
	PageSize: "DOCKET_MAIL_PAGE_SIZE",
	Dir:      "DOCKET_MAIL_DIR",
}

var oracleEnv = &oracle.Env{
	BaseURL:        "DOCKET_ORACLE_BASE_URL",
	Model:          "DOCKET_ORACLE_MODEL",
	APIKey:         "DOCKET_ORACLE_API_KEY",
	APIKeyFallback: "OPENAI_API_KEY",
	Timeout:        "DOCKET_ORACLE_TIMEOUT",
	MaxTextChars:   "DOCKET_ORACLE_MAX_TEXT_CHARS",
}

var authEnv = &auth.Env{
	ClientID:     "DOCKET_AUTH_CLIENT_ID",
	TenantID:     "DOCKET_AUTH_TENANT_ID",
	ClientSecret: "DOCKET_AUTH_CLIENT_SECRET",
	Scopes:       "DOCKET_AUTH_SCOPES",
	RecordFile:   "DOCKET_AUTH_RECORD_FILE",
}

var databaseEnv = &database.Env{
	Host:            "DOCKET_DB_HOST",
	Port:            "DOCKET_DB_PORT",
	Name:            "DOCKET_DB_NAME",
	User:            "DOCKET_DB_USER",
	Password:        "DOCKET_DB_PASSWORD",
	SSLMode:         "DOCKET_DB_SSL_MODE",
	MaxOpenConns:    "DOCKET_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "DOCKET_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "DOCKET_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "DOCKET_DB_CONN_TIMEOUT",
}

var ledgerEnv = &ledger.Env{
	Backend: "DOCKET_LEDGER_BACKEND",
	File:    "DOCKET_LEDGER_FILE",
}

// Config is the root configuration for docket.
type Config struct {
	Archive  archive.Config  `toml:"archive"`
	Storage  storage.Config  `toml:"storage"`
	Mail     mail.Config     `toml:"mail"`
	Oracle   oracle.Config   `toml:"oracle"`
	Auth     auth.Config     `toml:"auth"`
	Database database.Config `toml:"database"`
	Ledger   ledger.Config   `toml:"ledger"`
	Server   ServerConfig    `toml:"server"`
	API      APIConfig       `toml:"api"`
	Watch    WatchConfig     `toml:"watch"`

	// Records enables the Postgres archive ledger.
	Records         bool   `toml:"records"`
	LogLevel        string `toml:"log_level"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	Version         string `toml:"version"`
}

// Env returns the DOCKET_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvDocketEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// NeedsDatabase reports whether any configured component reads or writes Postgres.
func (c *Config) NeedsDatabase() bool {
	return c.Records || c.Ledger.Backend == ledger.BackendPostgres
}

// NeedsToken reports whether any configured component calls Microsoft Graph.
func (c *Config) NeedsToken() bool {
	return c.Storage.Backend == storage.BackendDrive || c.Mail.Backend == mail.BackendGraph
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.Records {
		c.Records = true
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Archive.Merge(&overlay.Archive)
	c.Storage.Merge(&overlay.Storage)
	c.Mail.Merge(&overlay.Mail)
	c.Oracle.Merge(&overlay.Oracle)
	c.Auth.Merge(&overlay.Auth)
	c.Database.Merge(&overlay.Database)
	c.Ledger.Merge(&overlay.Ledger)
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Watch.Merge(&overlay.Watch)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	if err := c.loadEnv(); err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	steps := []struct {
		name     string
		finalize func() error
	}{
		{"archive", func() error { return c.Archive.Finalize(archiveEnv) }},
		{"storage", func() error { return c.Storage.Finalize(storageEnv) }},
		{"mail", func() error { return c.Mail.Finalize(mailEnv) }},
		{"oracle", func() error { return c.Oracle.Finalize(oracleEnv) }},
		{"auth", func() error { return c.Auth.Finalize(authEnv) }},
		{"database", func() error { return c.Database.Finalize(databaseEnv) }},
		{"ledger", func() error { return c.Ledger.Finalize(ledgerEnv) }},
		{"server", c.Server.Finalize},
		{"api", c.API.Finalize},
		{"watch", c.Watch.Finalize},
	}
	for _, step := range steps {
		if err := step.finalize(); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() error {
	if v := os.Getenv(EnvDocketRecords); v != "" {
		records, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvDocketRecords, err)
		}
		c.Records = records
	}
	if v := os.Getenv(EnvDocketLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvDocketShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvDocketVersion); v != "" {
		c.Version = v
	}
	return nil
}

func (c *Config) validate() error {
	c.LogLevel = strings.ToLower(c.LogLevel)
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvDocketEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
