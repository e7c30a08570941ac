// Package mail provides the message store: a lazy, newest-first sequence of
// inbox messages with their attachments. The Graph store reads a Microsoft
// 365 mailbox; the directory store treats each PDF under a folder as a
// single-attachment message.
package mail

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"path"
	"strings"
	"time"
)

// PDFContentType is the content type of archivable attachments.
const PDFContentType = "application/pdf"

// Message is one inbox entry.
type Message struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	FromName    string    `json:"from_name"`
	FromAddress string    `json:"from_address"`
	ReceivedAt  time.Time `json:"received_at"`
	Preview     string    `json:"preview"`
}

// Attachment describes a message attachment. File is false for item and
// reference attachments, which carry no downloadable bytes.
type Attachment struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Inline      bool   `json:"inline"`
	File        bool   `json:"file"`
}

// Archivable reports whether the attachment is a PDF file attachment,
// judged by content type or filename suffix.
func (a Attachment) Archivable() bool {
	if !a.File || a.Inline {
		return false
	}
	if strings.EqualFold(strings.TrimSpace(a.ContentType), PDFContentType) {
		return true
	}
	return strings.EqualFold(path.Ext(a.Name), ".pdf")
}

// TokenSource returns a bearer token for the Graph store.
type TokenSource func(ctx context.Context) (string, error)

// Store is the message store contract.
type Store interface {
	// Messages yields messages newest first, fetching pages on demand.
	// Iteration stops after the first error is yielded.
	Messages(ctx context.Context) iter.Seq2[Message, error]
	// Attachments lists the attachments of a message.
	Attachments(ctx context.Context, messageID string) ([]Attachment, error)
	// Download returns the raw bytes of an attachment.
	Download(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// New creates the store selected by cfg.Backend. The token source is only
// consulted by the Graph store.
func New(cfg *Config, tokens TokenSource, logger *slog.Logger) (Store, error) {
	logger = logger.With("system", "mail", "backend", cfg.Backend)

	switch cfg.Backend {
	case BackendGraph:
		if tokens == nil {
			return nil, fmt.Errorf("graph mail store requires a token source")
		}
		return newGraph(cfg, tokens, nil, logger), nil
	case BackendDir:
		return newDir(cfg.Dir, logger)
	default:
		return nil, fmt.Errorf("unknown mail backend: %q", cfg.Backend)
	}
}
