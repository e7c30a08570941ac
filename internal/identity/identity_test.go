package identity_test

import (
	"errors"
	"testing"

	"github.com/JaimeStill/docket/internal/identity"
)

func str(s string) *string { return &s }

func TestResolveContactFallback(t *testing.T) {
	id := identity.Identity{
		Valid:       true,
		RecordID:    str("L43105"),
		RecordDate:  str("03/05/2024"),
		OrgName:     str(""),
		ContactName: str("Jane Doe"),
	}

	res, err := identity.Resolve(id, 5)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	want := identity.Segments{Year: "2024", Month: "3", Day: "5", Folder: "43105 - Jane Doe"}
	if res.Segments != want {
		t.Errorf("Segments = %+v, want %+v", res.Segments, want)
	}
	if !res.UsedFallback {
		t.Error("UsedFallback = false, want true")
	}
	if res.UsedUnknown {
		t.Error("UsedUnknown = true, want false")
	}
	if res.RecordID != "43105" {
		t.Errorf("RecordID = %q, want 43105", res.RecordID)
	}
	if got := res.Bucket(); got != "2024/3/5" {
		t.Errorf("Bucket = %q, want 2024/3/5", got)
	}
	if got := res.Path(); got != "2024/3/5/43105 - Jane Doe" {
		t.Errorf("Path = %q", got)
	}
}

func TestResolvePrefersOrganization(t *testing.T) {
	id := identity.Identity{
		Valid:       true,
		RecordID:    str("42"),
		RecordDate:  str("2024-11-30"),
		OrgName:     str("Guardian Scholars: Program"),
		ContactName: str("Jane Doe"),
	}

	res, err := identity.Resolve(id, 5)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if res.Folder != "00042 - Guardian Scholars_ Program" {
		t.Errorf("Folder = %q", res.Folder)
	}
	if res.UsedFallback || res.UsedUnknown {
		t.Errorf("flags = (%v, %v), want (false, false)", res.UsedFallback, res.UsedUnknown)
	}
}

func TestResolveUnknownSentinel(t *testing.T) {
	id := identity.Identity{
		Valid:      true,
		RecordID:   str("43105"),
		RecordDate: str("2024-03-05"),
		OrgName:    str("unknown"),
	}

	res, err := identity.Resolve(id, 5)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if !res.UsedUnknown {
		t.Error("UsedUnknown = false, want true")
	}
	if res.Folder != "43105 - Unknown" {
		t.Errorf("Folder = %q", res.Folder)
	}
}

func TestResolveRejections(t *testing.T) {
	tests := []struct {
		name string
		id   identity.Identity
		want error
	}{
		{
			name: "not valid",
			id:   identity.Identity{Valid: false, RecordID: str("1"), RecordDate: str("2024-01-01"), OrgName: str("A")},
			want: identity.ErrNotValidated,
		},
		{
			name: "missing record id",
			id:   identity.Identity{Valid: true, RecordDate: str("2024-01-01"), OrgName: str("A")},
			want: identity.ErrMissingIdentity,
		},
		{
			name: "both names missing",
			id:   identity.Identity{Valid: true, RecordID: str("1"), RecordDate: str("2024-01-01"), OrgName: str(" ")},
			want: identity.ErrMissingIdentity,
		},
		{
			name: "missing date",
			id:   identity.Identity{Valid: true, RecordID: str("1"), OrgName: str("A")},
			want: identity.ErrUnparseableDate,
		},
		{
			name: "garbage date",
			id:   identity.Identity{Valid: true, RecordID: str("1"), RecordDate: str("sometime soon"), OrgName: str("A")},
			want: identity.ErrUnparseableDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := identity.Resolve(tt.id, 5)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Resolve error = %v, want %v", err, tt.want)
			}
			if !identity.IsRejection(err) {
				t.Errorf("IsRejection(%v) = false", err)
			}
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	id := identity.Identity{
		Valid:      true,
		RecordID:   str("B7"),
		RecordDate: str("March 5, 2024"),
		OrgName:    str("Acme / Events"),
	}

	first, err := identity.Resolve(id, 5)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	second, err := identity.Resolve(id, 5)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if first != second {
		t.Errorf("Resolve not deterministic: %+v vs %+v", first, second)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want identity.DateParts
	}{
		{raw: "2024-03-05", want: identity.DateParts{Year: 2024, Month: 3, Day: 5}},
		{raw: "03/05/2024", want: identity.DateParts{Year: 2024, Month: 3, Day: 5}},
		{raw: "3/5/2024", want: identity.DateParts{Year: 2024, Month: 3, Day: 5}},
		{raw: "12/01/2023", want: identity.DateParts{Year: 2023, Month: 12, Day: 1}},
		{raw: "March 5, 2024", want: identity.DateParts{Year: 2024, Month: 3, Day: 5}},
		{raw: "2024-03-05T23:30:00Z", want: identity.DateParts{Year: 2024, Month: 3, Day: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := identity.ParseDate(tt.raw)
			if err != nil {
				t.Fatalf("ParseDate(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseDate(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseDateRejects(t *testing.T) {
	for _, raw := range []string{"", "   ", "not a date"} {
		if _, err := identity.ParseDate(raw); !errors.Is(err, identity.ErrUnparseableDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrUnparseableDate", raw, err)
		}
	}
}
