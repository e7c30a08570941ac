package batch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/JaimeStill/docket/internal/archive"
)

var reportHeader = []string{"attachment_name", "record_id", "record_date", "folder_name_used", "reason"}

// WriteReport writes entries to dir/review_{YYYYMMDD_HHMMSS}.csv and returns
// the file path.
func WriteReport(dir string, entries []archive.ReviewEntry, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, "review_"+at.Format("20060102_150405")+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create review report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(reportHeader); err != nil {
		return "", fmt.Errorf("write review report: %w", err)
	}
	for _, e := range entries {
		row := []string{e.AttachmentName, e.RecordID, e.RecordDate, e.FolderNameUsed, e.Reason}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write review report: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush review report: %w", err)
	}
	return path, f.Close()
}
