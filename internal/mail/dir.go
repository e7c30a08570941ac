package mail

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// dir presents every PDF below a directory as a message with one
// attachment. Message IDs are slash-separated relative paths and
// attachment IDs are the SHA-256 of the file content, so a replaced file
// is seen as a new attachment.
type dir struct {
	root   string
	logger *slog.Logger
}

type dirEntry struct {
	rel  string
	info fs.FileInfo
}

func newDir(root string, logger *slog.Logger) (Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve inbox dir %s: %w", root, err)
	}
	return &dir{root: abs, logger: logger}, nil
}

// NewDir creates a directory store rooted at root.
func NewDir(root string, logger *slog.Logger) (Store, error) {
	return newDir(root, logger.With("system", "mail", "backend", BackendDir))
}

func (d *dir) Messages(ctx context.Context) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		entries, err := d.scan(ctx)
		if err != nil {
			yield(Message{}, err)
			return
		}

		for _, e := range entries {
			msg := Message{
				ID:         e.rel,
				Subject:    e.info.Name(),
				ReceivedAt: e.info.ModTime().UTC(),
			}
			if !yield(msg, nil) {
				return
			}
		}
	}
}

func (d *dir) Attachments(ctx context.Context, messageID string) ([]Attachment, error) {
	data, err := d.read(messageID)
	if err != nil {
		return nil, err
	}

	return []Attachment{{
		ID:          contentID(data),
		Name:        filepath.Base(filepath.FromSlash(messageID)),
		ContentType: PDFContentType,
		Size:        int64(len(data)),
		File:        true,
	}}, nil
}

func (d *dir) Download(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	data, err := d.read(messageID)
	if err != nil {
		return nil, err
	}
	if contentID(data) != attachmentID {
		return nil, fmt.Errorf("%w: %s changed since listing", ErrNotFound, messageID)
	}
	return data, nil
}

// scan lists PDFs newest first; ties break on path for a stable order.
func (d *dir) scan(ctx context.Context) ([]dirEntry, error) {
	var entries []dirEntry

	err := filepath.WalkDir(d.root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if de.IsDir() || !strings.EqualFold(filepath.Ext(p), ".pdf") {
			return nil
		}

		info, err := de.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		entries = append(entries, dirEntry{rel: filepath.ToSlash(rel), info: info})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			d.logger.Warn("inbox directory missing", "dir", d.root)
			return nil, nil
		}
		return nil, fmt.Errorf("%w: scan %s: %w", ErrRemote, d.root, err)
	}

	slices.SortFunc(entries, func(a, b dirEntry) int {
		if c := b.info.ModTime().Compare(a.info.ModTime()); c != 0 {
			return c
		}
		return cmp.Compare(a.rel, b.rel)
	})
	return entries, nil
}

func (d *dir) read(messageID string) ([]byte, error) {
	clean := filepath.Clean(filepath.FromSlash(messageID))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return nil, fmt.Errorf("%w: invalid message id %q", ErrNotFound, messageID)
	}

	data, err := os.ReadFile(filepath.Join(d.root, clean))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, messageID)
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrRemote, messageID, err)
	}
	return data, nil
}

func contentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
