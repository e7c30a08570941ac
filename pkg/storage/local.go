package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

type local struct {
	root   string
	logger *slog.Logger
}

func newLocal(root string, logger *slog.Logger) (System, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve archive root %s: %w", root, err)
	}
	return &local{root: abs, logger: logger}, nil
}

func (l *local) Backend() string {
	return BackendLocal
}

func (l *local) EnsurePath(ctx context.Context, segments ...string) error {
	if err := validateSegments(segments); err != nil {
		return err
	}

	dir := l.abs(Join(segments...))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrRemote, dir, err)
	}
	return nil
}

func (l *local) Exists(ctx context.Context, key string) (bool, string, error) {
	if err := validateKey(key); err != nil {
		return false, "", err
	}

	p := l.abs(key)
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("%w: stat %s: %w", ErrRemote, p, err)
	}
	return true, p, nil
}

func (l *local) ListChildren(ctx context.Context, container string) ([]Entry, error) {
	if err := validateKey(container); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(l.abs(container))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", ErrRemote, container, err)
	}

	children := make([]Entry, 0, len(entries))
	for _, e := range entries {
		children = append(children, Entry{Name: e.Name(), Folder: e.IsDir()})
	}
	return children, nil
}

// Put writes through a temp file in the destination directory so a partial
// write never appears under the final name.
func (l *local) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	p := l.abs(key)
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrRemote, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp in %s: %w", ErrRemote, dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w: write %s: %w", ErrRemote, p, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %w", ErrRemote, p, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", fmt.Errorf("%w: commit %s: %w", ErrRemote, p, err)
	}

	l.logger.Debug("file written", "path", p, "size", len(data))
	return p, nil
}

func (l *local) Rename(ctx context.Context, container, oldName, newName string) error {
	if oldName == newName {
		return nil
	}
	if err := validateSegments([]string{oldName, newName}); err != nil {
		return err
	}

	from := l.abs(Join(container, oldName))
	to := l.abs(Join(container, newName))

	if _, err := os.Stat(to); err == nil {
		return fmt.Errorf("rename %s: %w", to, ErrConflict)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrRemote, from, err)
	}
	return nil
}

func (l *local) Locator(key string) string {
	return l.abs(key)
}

func (l *local) abs(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}
