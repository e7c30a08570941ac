// Package archive reconciles resolved event records against the archive
// tree. It adopts an existing folder for the same record ID under the day
// bucket, skips files already present, writes new content, and renames
// adopted folders to their canonical name.
package archive

import (
	"github.com/JaimeStill/docket/internal/identity"
)

// State is the outcome of a single archival attempt.
type State string

const (
	StateRejected     State = "rejected"
	StateArchived     State = "archived"
	StateDeduplicated State = "deduplicated"
)

// Review reasons recorded for low-confidence display names.
const (
	ReasonContactFallback = "used_client_name_fallback"
	ReasonNoName          = "no_organization_or_client"
)

// Request carries a candidate identity and the document payload.
type Request struct {
	Identity identity.Identity
	Filename string
	Data     []byte
}

// ReviewEntry flags an archived document whose folder name came from a
// fallback source and may need manual correction.
type ReviewEntry struct {
	AttachmentName string `json:"attachment_name"`
	RecordID       string `json:"record_id"`
	RecordDate     string `json:"record_date"`
	FolderNameUsed string `json:"folder_name_used"`
	Reason         string `json:"reason"`
}

// Result reports what the reconciler did with a request.
// Rejection is set only for StateRejected.
type Result struct {
	State      State
	Rejection  error
	Resolution identity.Resolution
	Folder     string
	Path       string
	Locator    string
	Renamed    bool
	Planned    bool
	Review     *ReviewEntry
}

func newReview(filename string, res identity.Resolution, folder string) *ReviewEntry {
	reason := ""
	switch {
	case res.UsedUnknown:
		reason = ReasonNoName
	case res.UsedFallback:
		reason = ReasonContactFallback
	default:
		return nil
	}

	return &ReviewEntry{
		AttachmentName: filename,
		RecordID:       res.RecordID,
		RecordDate:     res.RecordDate,
		FolderNameUsed: folder,
		Reason:         reason,
	}
}
