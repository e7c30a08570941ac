package identity

import (
	"fmt"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/JaimeStill/docket/pkg/naming"
)

// Resolve validates an identity and derives its canonical segments.
// The display name prefers the organization, then the contact name. A name
// that is itself the Unknown sentinel is flagged with UsedUnknown rather than
// UsedFallback. Both names absent is a rejection, not an Unknown folder.
func Resolve(id Identity, width int) (Resolution, error) {
	if !id.Valid {
		return Resolution{}, ErrNotValidated
	}

	rawID := strings.TrimSpace(value(id.RecordID))
	org := strings.TrimSpace(value(id.OrgName))
	contact := strings.TrimSpace(value(id.ContactName))

	if rawID == "" || (org == "" && contact == "") {
		return Resolution{}, ErrMissingIdentity
	}

	rawDate := strings.TrimSpace(value(id.RecordDate))
	date, err := ParseDate(rawDate)
	if err != nil {
		return Resolution{}, err
	}

	res := Resolution{
		RecordID:   naming.RecordID(rawID, width),
		RecordDate: rawDate,
		Date:       date,
	}

	switch {
	case org != "":
		res.DisplayName = naming.Display(org)
	case contact != "":
		res.DisplayName = naming.Display(contact)
		res.UsedFallback = true
	}

	if strings.EqualFold(res.DisplayName, naming.Unknown) {
		res.DisplayName = naming.Unknown
		res.UsedFallback = false
		res.UsedUnknown = true
	}

	res.Segments = newSegments(date, naming.Folder(res.RecordID, res.DisplayName))
	return res, nil
}

// ParseDate parses a free-form record date into calendar parts. Ambiguous
// numeric dates are always read month-first ("03/05/2024" is March 5).
// Times and offsets are ignored; the date is taken as written.
func ParseDate(raw string) (DateParts, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DateParts{}, fmt.Errorf("%w: empty", ErrUnparseableDate)
	}

	t, err := dateparse.ParseAny(raw)
	if err != nil {
		return DateParts{}, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
	}

	return DateParts{
		Year:  t.Year(),
		Month: int(t.Month()),
		Day:   t.Day(),
	}, nil
}
