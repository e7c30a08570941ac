package infrastructure_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/JaimeStill/docket/internal/config"
	"github.com/JaimeStill/docket/internal/infrastructure"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("DOCKET_STORAGE_ROOT", t.TempDir())
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(context.Background(), loadConfig(t, nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Close()

	if infra.Lifecycle == nil || infra.Logger == nil || infra.Tokens == nil || infra.Registry == nil {
		t.Fatalf("incomplete infrastructure: %+v", infra)
	}
	if infra.Storage.Backend() != "local" {
		t.Errorf("storage backend: got %s", infra.Storage.Backend())
	}
	if infra.Database != nil {
		t.Error("database should be nil without records or a postgres ledger")
	}
	if err := infra.Start(); err != nil {
		t.Errorf("Start() error = %v", err)
	}
}

func TestNewWithDatabase(t *testing.T) {
	cfg := loadConfig(t, map[string]string{"DOCKET_RECORDS": "true"})

	infra, err := infrastructure.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Close()

	if infra.Database == nil {
		t.Fatal("database should be initialized when records are enabled")
	}
	if infra.Database.Connection() == nil {
		t.Error("Database.Connection() returned nil")
	}
}

func TestNewInvalidBlobConnection(t *testing.T) {
	cfg := loadConfig(t, map[string]string{
		"DOCKET_STORAGE_BACKEND":                "blob",
		"DOCKET_STORAGE_BLOB_CONNECTION_STRING": "not-a-connection-string",
	})

	if _, err := infrastructure.New(context.Background(), cfg); err == nil {
		t.Fatal("expected error for invalid blob connection string")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := infrastructure.NewLogger("warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("log output: %q", out)
	}
}
