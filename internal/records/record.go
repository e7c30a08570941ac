// Package records implements the archive ledger: one row per document the
// batch runner placed into the archive tree, queryable over HTTP.
package records

import (
	"time"

	"github.com/google/uuid"
)

// Record describes one archived document and where it landed.
type Record struct {
	ID           uuid.UUID `json:"id"`
	RunID        uuid.UUID `json:"run_id"`
	RecordID     string    `json:"record_id"`
	RecordDate   string    `json:"record_date"`
	Folder       string    `json:"folder"`
	Path         string    `json:"path"`
	Locator      string    `json:"locator"`
	Backend      string    `json:"backend"`
	Filename     string    `json:"filename"`
	SizeBytes    int64     `json:"size_bytes"`
	PageCount    *int      `json:"page_count"`
	Renamed      bool      `json:"renamed"`
	ReviewReason *string   `json:"review_reason"`
	MessageID    string    `json:"message_id"`
	AttachmentID string    `json:"attachment_id"`
	ArchivedAt   time.Time `json:"archived_at"`
}

// CreateCommand carries an archival outcome to be recorded.
// PageCount and ReviewReason are stored as NULL when nil.
type CreateCommand struct {
	RunID        uuid.UUID
	RecordID     string
	RecordDate   string
	Folder       string
	Path         string
	Locator      string
	Backend      string
	Filename     string
	SizeBytes    int64
	PageCount    *int
	Renamed      bool
	ReviewReason *string
	MessageID    string
	AttachmentID string
}
