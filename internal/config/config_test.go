package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/ledger"
	"github.com/JaimeStill/docket/pkg/storage"
)

const baseConfig = `
log_level = "debug"
shutdown_timeout = "20s"
version = "0.2.0"

[archive]
record_id_width = 6
report_dir = "reports"

[storage]
backend = "local"
root = "/srv/archive"

[mail]
backend = "dir"
dir = "/srv/inbox"

[oracle]
model = "gpt-4o"
api_key = "sk-file"

[database]
host = "localhost"
port = 5432

[server]
port = 8080

[api.pagination]
default_page_size = 25
max_page_size = 50

[watch]
interval = "5m"
`

const overlayConfig = `
records = true

[server]
port = 9090

[ledger]
backend = "postgres"

[database]
host = "prodhost"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	t.Chdir(dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	checks := []struct {
		name      string
		got, want any
	}{
		{"log level", cfg.LogLevel, "debug"},
		{"shutdown", cfg.ShutdownTimeoutDuration(), 20 * time.Second},
		{"record id width", cfg.Archive.RecordIDWidth, 6},
		{"storage root", cfg.Storage.Root, "/srv/archive"},
		{"mail dir", cfg.Mail.Dir, "/srv/inbox"},
		{"oracle model", cfg.Oracle.Model, "gpt-4o"},
		{"oracle key", cfg.Oracle.APIKey, "sk-file"},
		{"page size", cfg.API.Pagination.DefaultPageSize, 25},
		{"watch interval", cfg.Watch.IntervalDuration(), 5 * time.Minute},
		{"api base path", cfg.API.BasePath, "/api"},
		{"ledger default", cfg.Ledger.Backend, ledger.BackendFile},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}

	if cfg.NeedsDatabase() {
		t.Error("file ledger without records should not need a database")
	}
	if cfg.NeedsToken() {
		t.Error("local storage with dir mail should not need a token")
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	writeConfig(t, dir, "config.prod.toml", overlayConfig)
	t.Chdir(dir)
	t.Setenv(config.EnvDocketEnv, "prod")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" || cfg.Database.Port != 5432 {
		t.Errorf("database: got %s:%d", cfg.Database.Host, cfg.Database.Port)
	}
	if cfg.Archive.RecordIDWidth != 6 {
		t.Errorf("record id width: got %d, want 6 (from base)", cfg.Archive.RecordIDWidth)
	}
	if !cfg.NeedsDatabase() {
		t.Error("records with postgres ledger should need a database")
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	t.Chdir(dir)

	t.Setenv("DOCKET_SERVER_PORT", "3000")
	t.Setenv("DOCKET_STORAGE_BACKEND", "drive")
	t.Setenv("DOCKET_MAIL_BACKEND", "graph")
	t.Setenv("DOCKET_ORACLE_API_KEY", "sk-env")
	t.Setenv("DOCKET_ARCHIVE_RESUME", "true")
	t.Setenv("DOCKET_LOG_LEVEL", "WARN")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Storage.Backend != storage.BackendDrive {
		t.Errorf("storage backend: got %s", cfg.Storage.Backend)
	}
	if cfg.Oracle.APIKey != "sk-env" {
		t.Errorf("oracle key: got %s", cfg.Oracle.APIKey)
	}
	if !cfg.Archive.Resume {
		t.Error("resume should be true")
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level: got %s, want warn", cfg.LogLevel)
	}
	if !cfg.NeedsToken() {
		t.Error("drive storage should need a token")
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "sk-fallback")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Backend != storage.BackendLocal {
		t.Errorf("storage backend default: got %s", cfg.Storage.Backend)
	}
	if cfg.Oracle.APIKey != "sk-fallback" {
		t.Errorf("oracle key fallback: got %q", cfg.Oracle.APIKey)
	}
	if cfg.Archive.MaxDocumentBytes() != 50*1024*1024 {
		t.Errorf("max document bytes: got %d", cfg.Archive.MaxDocumentBytes())
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{"malformed toml", "server = [", nil},
		{"bad log level", `log_level = "loud"`, nil},
		{"bad shutdown", `shutdown_timeout = "soon"`, nil},
		{"unknown storage backend", "[storage]\nbackend = \"ftp\"", nil},
		{"blob without connection", "[storage]\nbackend = \"blob\"", nil},
		{"bad port", "[server]\nport = 70000", nil},
		{"bad watch interval", "[watch]\ninterval = \"0s\"", nil},
		{"auth without issuer", "[api.auth]\nenabled = true", nil},
		{"bad records env", "", map[string]string{config.EnvDocketRecords: "maybe"}},
		{"bad ledger backend", "[ledger]\nbackend = \"redis\"", nil},
		{"nested base path", "[api]\nbase_path = \"/api/v1\"", nil},
		{"bad db pool env", "", map[string]string{"DOCKET_DB_MAX_OPEN_CONNS": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, config.BaseConfigFile, tt.content)
			t.Chdir(dir)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if _, err := config.Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestEnv(t *testing.T) {
	cfg := &config.Config{}
	if got := cfg.Env(); got != "local" {
		t.Errorf("default env: got %s", got)
	}

	t.Setenv(config.EnvDocketEnv, "staging")
	if got := cfg.Env(); got != "staging" {
		t.Errorf("env: got %s, want staging", got)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := config.ServerConfig{Host: "127.0.0.1", Port: 8081}
	if got := cfg.Addr(); got != "127.0.0.1:8081" {
		t.Errorf("addr: got %s", got)
	}
}

func TestWatchMerge(t *testing.T) {
	base := config.WatchConfig{Interval: "15m", Dir: "inbox"}
	base.Merge(&config.WatchConfig{Interval: "1m", Serve: true})

	if base.Interval != "1m" || base.Dir != "inbox" || !base.Serve {
		t.Errorf("merged: %+v", base)
	}
}
