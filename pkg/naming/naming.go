// Package naming sanitizes free-text names and record identifiers into
// path-safe, comparable tokens. Every function is pure and deterministic;
// the results are used directly as equality keys for deduplication.
package naming

import (
	"regexp"
	"strings"
)

const (
	// DefaultWidth is the zero-padded width of a normalized record ID.
	DefaultWidth = 5
	// Unknown replaces names that sanitize to nothing.
	Unknown = "Unknown"
	// DefaultFilename is used when an attachment name sanitizes to nothing.
	DefaultFilename = "document.pdf"
	// FolderSeparator joins the record ID and display name in a folder name.
	FolderSeparator = " - "
)

var invalidChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// Display replaces characters that are invalid in folder names with "_"
// and trims surrounding whitespace. Empty results collapse to Unknown.
// Display is idempotent.
func Display(raw string) string {
	s := strings.TrimSpace(invalidChars.ReplaceAllString(raw, "_"))
	if s == "" {
		return Unknown
	}
	return s
}

// RecordID strips any leading run of non-digit characters, keeps every
// digit after it, and left-pads the digits with zeros to width. Separators
// inside the ID are dropped, so "2024-0017" becomes "20240017". Raw IDs
// with no digits fall back to the sanitized original so the key is never
// empty. A width below one uses DefaultWidth.
func RecordID(raw string, width int) string {
	if width < 1 {
		width = DefaultWidth
	}

	trimmed := strings.TrimSpace(raw)
	digits := strings.Map(func(r rune) rune {
		if isDigit(r) {
			return r
		}
		return -1
	}, trimmed)

	if digits == "" {
		return Display(trimmed)
	}
	if len(digits) < width {
		digits = strings.Repeat("0", width-len(digits)) + digits
	}
	return digits
}

// Folder builds the canonical "{id} - {display}" folder name.
func Folder(recordID, display string) string {
	return recordID + FolderSeparator + display
}

// idToken matches the ID part of a record folder: an optional letter
// prefix, then digits possibly split by separators.
var idToken = regexp.MustCompile(`^[A-Za-z#]*[ ._#-]*[0-9][0-9 ._#/-]*$`)

// LeadingRecordID returns the normalized ID of an existing record folder,
// the text before the first separator. Folders without a separator, or
// whose leading token is not an ID, report false and are never adopted.
func LeadingRecordID(folder string, width int) (string, bool) {
	token, _, found := strings.Cut(folder, FolderSeparator)
	token = strings.TrimSpace(token)
	if !found || !idToken.MatchString(token) {
		return "", false
	}
	return RecordID(token, width), true
}

// Filename sanitizes an attachment name for storage and forces a .pdf
// extension. Path separators become "_" so distinct paths stay distinct.
func Filename(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.Trim(trimmed, ".") == "" {
		return DefaultFilename
	}

	name := Display(trimmed)
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
