package batch

import (
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/internal/archive"
)

// Failure records a document that could not be archived.
type Failure struct {
	MessageID  string `json:"message_id"`
	Attachment string `json:"attachment"`
	Error      string `json:"error"`
}

// Summary reports the counts and review entries of one run.
type Summary struct {
	RunID            uuid.UUID             `json:"run_id"`
	Found            int                   `json:"found"`
	Archived         int                   `json:"archived"`
	Deduplicated     int                   `json:"deduplicated"`
	SkippedInvalid   int                   `json:"skipped_invalid"`
	AlreadyProcessed int                   `json:"already_processed"`
	Failed           int                   `json:"failed"`
	Renamed          int                   `json:"renamed"`
	Reviews          []archive.ReviewEntry `json:"reviews"`
	Failures         []Failure             `json:"failures"`
	Report           string                `json:"report,omitempty"`
	StartedAt        time.Time             `json:"started_at"`
	FinishedAt       time.Time             `json:"finished_at"`
}

func newSummary(now time.Time) *Summary {
	return &Summary{
		RunID:     uuid.New(),
		Reviews:   []archive.ReviewEntry{},
		Failures:  []Failure{},
		StartedAt: now,
	}
}

// Attrs returns the counts as slog key/value pairs.
func (s *Summary) Attrs() []any {
	return []any{
		"run_id", s.RunID,
		"found", s.Found,
		"archived", s.Archived,
		"deduplicated", s.Deduplicated,
		"skipped_invalid", s.SkippedInvalid,
		"already_processed", s.AlreadyProcessed,
		"failed", s.Failed,
		"renamed", s.Renamed,
		"reviews", len(s.Reviews),
	}
}
