package storage_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JaimeStill/docket/pkg/storage"
)

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := &storage.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	checks := []struct {
		name      string
		got, want any
	}{
		{"backend", cfg.Backend, storage.BackendLocal},
		{"root", cfg.Root, "archive"},
		{"remote", cfg.Remote(), false},
		{"drive base url", cfg.Drive.BaseURL, "https://graph.microsoft.com/v1.0"},
		{"drive retries", cfg.Drive.MaxRetries, 3},
		{"blob container", cfg.Blob.ContainerName, "archive"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_STORAGE_BACKEND", "blob")
	t.Setenv("TEST_STORAGE_BLOB_CONN", "UseDevelopmentStorage=true")

	cfg := &storage.Config{}
	err := cfg.Finalize(&storage.Env{
		Backend:              "TEST_STORAGE_BACKEND",
		BlobConnectionString: "TEST_STORAGE_BLOB_CONN",
	})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if cfg.Backend != storage.BackendBlob || !cfg.Remote() {
		t.Errorf("backend = %q", cfg.Backend)
	}
	if cfg.Root != "" {
		t.Errorf("root = %q, want empty prefix for blob", cfg.Root)
	}
}

func TestConfigFinalizeInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  storage.Config
	}{
		{"unknown backend", storage.Config{Backend: "ftp"}},
		{"blob without connection", storage.Config{Backend: storage.BackendBlob}},
		{"drive bad timeout", storage.Config{Backend: storage.BackendDrive, Drive: storage.DriveConfig{Timeout: "soon"}}},
		{"drive negative retries", storage.Config{Backend: storage.BackendDrive, Drive: storage.DriveConfig{MaxRetries: -2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Finalize(nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	cfg := storage.Config{Backend: storage.BackendLocal, Root: "archive"}
	cfg.Merge(&storage.Config{
		Backend: storage.BackendDrive,
		Drive:   storage.DriveConfig{DriveID: "b!abc", MaxRetries: 5},
	})

	if cfg.Backend != storage.BackendDrive || cfg.Root != "archive" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Drive.DriveID != "b!abc" || cfg.Drive.MaxRetries != 5 {
		t.Errorf("drive = %+v", cfg.Drive)
	}
}

func TestNewBlobInvalidConnectionString(t *testing.T) {
	cfg := &storage.Config{Backend: storage.BackendBlob, Blob: storage.BlobConfig{ConnectionString: "not-a-connection-string"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := storage.New(cfg, nil, discardLogger()); err == nil {
		t.Error("expected error for malformed connection string")
	}
}

func TestRemoteErrorUnwrap(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusConflict, storage.ErrConflict},
		{http.StatusNotFound, storage.ErrNotFound},
		{http.StatusServiceUnavailable, storage.ErrRemote},
		{http.StatusForbidden, storage.ErrRemote},
	}

	for _, tt := range tests {
		err := fmt.Errorf("put: %w", &storage.RemoteError{Op: "PUT", Path: "2024/3", Status: tt.status})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: %v does not unwrap to %v", tt.status, err, tt.want)
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{storage.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("list: %w", storage.ErrInvalidKey), http.StatusBadRequest},
		{storage.ErrEmptyKey, http.StatusBadRequest},
		{storage.ErrConflict, http.StatusConflict},
		{&storage.RemoteError{Status: http.StatusInternalServerError}, http.StatusBadGateway},
		{errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := storage.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
