package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

type document struct {
	Processed []Mark `json:"processed"`
}

type file struct {
	set
	path   string
	logger *slog.Logger
}

// NewFile creates a Store backed by a JSON file of the form
// {"processed":[{"message_id":..,"attachment_id":..}]}.
func NewFile(path string, logger *slog.Logger) Store {
	return &file{
		set:    newSet(),
		path:   path,
		logger: logger.With("system", "ledger", "backend", BackendFile),
	}
}

// Load reads the file. A missing file is an empty set.
func (f *file) Load(ctx context.Context) error {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.mu.Lock()
		f.reset(nil)
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read processed set: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode processed set %s: %w", f.path, err)
	}

	f.mu.Lock()
	f.reset(doc.Processed)
	f.mu.Unlock()

	f.logger.InfoContext(ctx, "processed set loaded", "path", f.path, "marks", len(doc.Processed))
	return nil
}

func (f *file) Add(ctx context.Context, m Mark) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.insert(m) {
		return nil
	}

	if err := f.write(); err != nil {
		delete(f.marks, m)
		f.order = f.order[:len(f.order)-1]
		return err
	}
	return nil
}

// write replaces the file atomically. Caller holds mu.
func (f *file) write() error {
	data, err := json.MarshalIndent(document{Processed: f.order}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode processed set: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create processed set dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".processed-*.json")
	if err != nil {
		return fmt.Errorf("create temp processed set: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write processed set: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close processed set: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replace processed set: %w", err)
	}
	return nil
}
