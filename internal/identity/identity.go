// Package identity turns the candidate identity produced by the extraction
// oracle into canonical archive path segments. Resolution is a pure function:
// the same identity always yields the same segments.
package identity

import (
	"fmt"
	"path"
)

// Identity is the structured, untrusted result of classifying one document.
// Nil and empty fields are treated the same way.
type Identity struct {
	Valid       bool    `json:"valid"`
	RecordID    *string `json:"record_id"`
	RecordDate  *string `json:"record_date"`
	OrgName     *string `json:"org_name"`
	ContactName *string `json:"contact_name"`
}

// DateParts is a calendar date derived from the record date.
type DateParts struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Segments is the canonical destination key: a day bucket plus the record folder.
type Segments struct {
	Year   string `json:"year"`
	Month  string `json:"month"`
	Day    string `json:"day"`
	Folder string `json:"folder"`
}

// Bucket returns the "{year}/{month}/{day}" day-bucket path.
func (s Segments) Bucket() string {
	return path.Join(s.Year, s.Month, s.Day)
}

// Path returns the full folder path below the archive root.
func (s Segments) Path() string {
	return path.Join(s.Bucket(), s.Folder)
}

// List returns the segments in hierarchy order.
func (s Segments) List() []string {
	return []string{s.Year, s.Month, s.Day, s.Folder}
}

// Resolution is an accepted identity with its canonical segments and the
// confidence flags that drive review reporting.
type Resolution struct {
	Segments
	RecordID     string    `json:"record_id"`
	RecordDate   string    `json:"record_date"`
	DisplayName  string    `json:"display_name"`
	Date         DateParts `json:"date"`
	UsedFallback bool      `json:"used_fallback"`
	UsedUnknown  bool      `json:"used_unknown"`
}

func newSegments(date DateParts, folder string) Segments {
	return Segments{
		Year:   fmt.Sprint(date.Year),
		Month:  fmt.Sprint(date.Month),
		Day:    fmt.Sprint(date.Day),
		Folder: folder,
	}
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
