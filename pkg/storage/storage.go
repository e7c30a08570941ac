// Package storage provides the archive tree: a path-addressed hierarchical
// store with a uniform contract across a local filesystem, a Microsoft Graph
// drive, and an Azure Blob Storage container.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
)

// Entry is an immediate child of a container path.
type Entry struct {
	Name   string `json:"name"`
	Folder bool   `json:"folder"`
}

// TokenProvider returns a bearer token for remote backends.
type TokenProvider func(ctx context.Context) (string, error)

// System is the archive tree contract. Paths are slash-separated and
// relative to the configured root.
type System interface {
	// Backend returns the backend name.
	Backend() string
	// EnsurePath creates every missing level of the joined segments.
	// A level created concurrently by another writer is not an error.
	EnsurePath(ctx context.Context, segments ...string) error
	// Exists reports whether an item exists at path and returns its public locator.
	Exists(ctx context.Context, path string) (bool, string, error)
	// ListChildren returns the immediate children of container.
	// A missing container yields an empty list.
	ListChildren(ctx context.Context, container string) ([]Entry, error)
	// Put writes data at path and returns its public locator.
	// Callers skip Put when Exists reports the item is present.
	Put(ctx context.Context, path string, data []byte) (string, error)
	// Rename renames the child oldName of container to newName.
	// Equal names are a no-op.
	Rename(ctx context.Context, container, oldName, newName string) error
	// Locator returns the public locator for path without a remote call.
	Locator(path string) string
}

// New creates the storage system selected by cfg.Backend. The token
// provider is only consulted by the drive backend.
func New(cfg *Config, tokens TokenProvider, logger *slog.Logger) (System, error) {
	logger = logger.With("system", "storage", "backend", cfg.Backend)

	switch cfg.Backend {
	case BackendLocal:
		return newLocal(cfg.Root, logger)
	case BackendDrive:
		return newDrive(cfg, tokens, logger)
	case BackendBlob:
		return newAzure(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Backend)
	}
}

// Join joins path elements into a clean slash-separated storage path.
func Join(elem ...string) string {
	return strings.TrimPrefix(path.Join(elem...), "/")
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	for seg := range strings.SplitSeq(key, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

func validateSegments(segments []string) error {
	if len(segments) == 0 {
		return ErrEmptyKey
	}
	for _, s := range segments {
		if s == "" {
			return ErrEmptyKey
		}
		if s == ".." || strings.Contains(s, "/") {
			return ErrInvalidKey
		}
	}
	return nil
}
