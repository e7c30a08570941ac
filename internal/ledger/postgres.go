package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/docket/pkg/repository"
)

type postgres struct {
	set
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres creates a Store over the processed_marks table.
func NewPostgres(db *sql.DB, logger *slog.Logger) Store {
	return &postgres{
		set:    newSet(),
		db:     db,
		logger: logger.With("system", "ledger", "backend", BackendPostgres),
	}
}

func scanMark(s repository.Scanner) (Mark, error) {
	var m Mark
	err := s.Scan(&m.MessageID, &m.AttachmentID)
	return m, err
}

func (p *postgres) Load(ctx context.Context) error {
	marks, err := repository.QueryMany(
		ctx, p.db,
		"SELECT message_id, attachment_id FROM processed_marks ORDER BY processed_at",
		nil, scanMark,
	)
	if err != nil {
		return fmt.Errorf("load processed marks: %w", err)
	}

	p.mu.Lock()
	p.reset(marks)
	p.mu.Unlock()

	p.logger.InfoContext(ctx, "processed set loaded", "marks", len(marks))
	return nil
}

func (p *postgres) Add(ctx context.Context, m Mark) error {
	if p.Has(m) {
		return nil
	}

	_, err := p.db.ExecContext(
		ctx,
		`INSERT INTO processed_marks(message_id, attachment_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id, attachment_id) DO NOTHING`,
		m.MessageID, m.AttachmentID,
	)
	if err != nil {
		return fmt.Errorf("insert processed mark: %w", err)
	}

	p.mu.Lock()
	p.insert(m)
	p.mu.Unlock()
	return nil
}
