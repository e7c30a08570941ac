package records

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/docket/pkg/query"
	"github.com/JaimeStill/docket/pkg/repository"
)

var projection = query.
	NewProjection("public", "records", "r").
	Project("id", "ID").
	Project("run_id", "RunID").
	Project("record_id", "RecordID").
	Project("record_date", "RecordDate").
	Project("folder", "Folder").
	Project("path", "Path").
	Project("locator", "Locator").
	Project("backend", "Backend").
	Project("filename", "Filename").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("renamed", "Renamed").
	Project("review_reason", "ReviewReason").
	Project("message_id", "MessageID").
	Project("attachment_id", "AttachmentID").
	Project("archived_at", "ArchivedAt")

var defaultSort = query.SortField{
	Field:      "ArchivedAt",
	Descending: true,
}

// Filters narrows record queries. RecordID, Reason, Backend, and RunID match
// exactly; Folder is a case-insensitive contains match. Review selects
// records with (true) or without (false) a review reason.
type Filters struct {
	RecordID *string `json:"record_id,omitempty"`
	Folder   *string `json:"folder,omitempty"`
	Reason   *string `json:"reason,omitempty"`
	Review   *bool   `json:"review,omitempty"`
	Backend  *string `json:"backend,omitempty"`
	RunID    *string `json:"run_id,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("RecordID", f.RecordID).
		WhereContains("Folder", f.Folder).
		WhereEquals("ReviewReason", f.Reason).
		WherePresent("ReviewReason", f.Review).
		WhereEquals("Backend", f.Backend).
		WhereEquals("RunID", f.RunID)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if v := values.Get("record_id"); v != "" {
		f.RecordID = &v
	}
	if v := values.Get("folder"); v != "" {
		f.Folder = &v
	}
	if v := values.Get("reason"); v != "" {
		f.Reason = &v
	}
	if v := values.Get("review"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Review = &b
		}
	}
	if v := values.Get("backend"); v != "" {
		f.Backend = &v
	}
	if v := values.Get("run_id"); v != "" {
		f.RunID = &v
	}

	return f
}

func scanRecord(s repository.Scanner) (Record, error) {
	var r Record
	err := s.Scan(
		&r.ID,
		&r.RunID,
		&r.RecordID,
		&r.RecordDate,
		&r.Folder,
		&r.Path,
		&r.Locator,
		&r.Backend,
		&r.Filename,
		&r.SizeBytes,
		&r.PageCount,
		&r.Renamed,
		&r.ReviewReason,
		&r.MessageID,
		&r.AttachmentID,
		&r.ArchivedAt,
	)
	return r, err
}
