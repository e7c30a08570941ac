// Package ledger persists the set of processed (message, attachment) pairs
// so resumed runs skip documents that were already archived.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
)

// Mark identifies one archived attachment.
type Mark struct {
	MessageID    string `json:"message_id"`
	AttachmentID string `json:"attachment_id"`
}

// Store is an append-only processed set. Add persists before returning.
type Store interface {
	Load(ctx context.Context) error
	Has(m Mark) bool
	Add(ctx context.Context, m Mark) error
	Len() int
}

// New creates the Store selected by cfg.Backend. The postgres backend
// requires db.
func New(cfg *Config, db *sql.DB, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendFile:
		return NewFile(cfg.File, logger), nil
	case BackendPostgres:
		if db == nil {
			return nil, fmt.Errorf("ledger backend %q requires a database connection", cfg.Backend)
		}
		return NewPostgres(db, logger), nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

type set struct {
	mu    sync.RWMutex
	marks map[Mark]struct{}
	order []Mark
}

func newSet() set {
	return set{marks: make(map[Mark]struct{})}
}

func (s *set) Has(m Mark) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.marks[m]
	return ok
}

func (s *set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.marks)
}

// insert reports whether m was new. Caller holds mu.
func (s *set) insert(m Mark) bool {
	if _, ok := s.marks[m]; ok {
		return false
	}
	s.marks[m] = struct{}{}
	s.order = append(s.order, m)
	return true
}

func (s *set) reset(marks []Mark) {
	s.marks = make(map[Mark]struct{}, len(marks))
	s.order = s.order[:0]
	for _, m := range marks {
		s.insert(m)
	}
}
