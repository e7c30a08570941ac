package naming_test

import (
	"testing"

	"github.com/JaimeStill/docket/pkg/naming"
)

func TestRecordID(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		width int
		want  string
	}{
		{name: "letter prefix stripped", raw: "L43105", width: 5, want: "43105"},
		{name: "short id padded", raw: "123", width: 5, want: "00123"},
		{name: "prefix and padding", raw: "BEO-42", width: 5, want: "00042"},
		{name: "surrounding whitespace", raw: "  L43105 ", width: 5, want: "43105"},
		{name: "longer than width kept", raw: "1234567", width: 5, want: "1234567"},
		{name: "inner separator kept as digits", raw: "2024-0017", width: 5, want: "20240017"},
		{name: "prefix and inner separator", raw: "BEO 12-345", width: 5, want: "12345"},
		{name: "trailing letter dropped", raw: "43105a", width: 5, want: "43105"},
		{name: "zero width uses default", raw: "7", width: 0, want: "00007"},
		{name: "custom width", raw: "7", width: 3, want: "007"},
		{name: "no digits falls back to sanitized", raw: "A/B", width: 5, want: "A_B"},
		{name: "empty never empty", raw: "", width: 5, want: naming.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := naming.RecordID(tt.raw, tt.width); got != tt.want {
				t.Errorf("RecordID(%q, %d) = %q, want %q", tt.raw, tt.width, got, tt.want)
			}
		})
	}
}

func TestRecordIDPrefixInvariant(t *testing.T) {
	ids := []string{"1", "42", "00042", "43105", "999999"}
	prefixes := []string{"L", "B", "#", "x", "-"}

	for _, id := range ids {
		for _, p := range prefixes {
			if got, want := naming.RecordID(p+id, 5), naming.RecordID(id, 5); got != want {
				t.Errorf("RecordID(%q) = %q, want %q", p+id, got, want)
			}
		}
	}
}

func TestRecordIDDistinctRecordsStayDistinct(t *testing.T) {
	pairs := [][2]string{
		{"2024-0017", "2024-0018"},
		{"123-456", "123-457"},
		{"L1.2", "L1.3"},
	}
	for _, p := range pairs {
		a, b := naming.RecordID(p[0], 5), naming.RecordID(p[1], 5)
		if a == b {
			t.Errorf("RecordID(%q) == RecordID(%q) == %q", p[0], p[1], a)
		}
	}
}

func TestRecordIDIdempotent(t *testing.T) {
	for _, raw := range []string{"L43105", "7", "2024-0017", "ABC", ""} {
		once := naming.RecordID(raw, 5)
		if twice := naming.RecordID(once, 5); twice != once {
			t.Errorf("RecordID not idempotent for %q: %q then %q", raw, once, twice)
		}
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "Guardian Scholars Program", want: "Guardian Scholars Program"},
		{raw: `A<B>C:D"E/F\G|H?I*J`, want: "A_B_C_D_E_F_G_H_I_J"},
		{raw: "  padded  ", want: "padded"},
		{raw: "", want: naming.Unknown},
		{raw: "   ", want: naming.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := naming.Display(tt.raw); got != tt.want {
				t.Errorf("Display(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestDisplayIdempotent(t *testing.T) {
	inputs := []string{"", " ", "Jane Doe", `a/b\c`, " *?* ", "Unknown", "x:y "}
	for _, in := range inputs {
		once := naming.Display(in)
		if twice := naming.Display(once); twice != once {
			t.Errorf("Display not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestLeadingRecordID(t *testing.T) {
	tests := []struct {
		folder string
		want   string
		ok     bool
	}{
		{folder: "43105 - Jane Doe", want: "43105", ok: true},
		{folder: "L43105 - Guardian Scholars", want: "43105", ok: true},
		{folder: "123 - Acme", want: "00123", ok: true},
		{folder: "20240017 - Acme", want: "20240017", ok: true},
		{folder: "2024-0017 - Acme", want: "20240017", ok: true},
		{folder: "43105", ok: false},
		{folder: "2024 Gala", ok: false},
		{folder: "2024 Gala - Dinner", ok: false},
		{folder: "Misc - notes", ok: false},
		{folder: "Misc notes 2024 - Acme", ok: false},
		{folder: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.folder, func(t *testing.T) {
			got, ok := naming.LeadingRecordID(tt.folder, 5)
			if ok != tt.ok || got != tt.want {
				t.Errorf("LeadingRecordID(%q) = (%q, %v), want (%q, %v)", tt.folder, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "BEO 43105.pdf", want: "BEO 43105.pdf"},
		{raw: "Scan.PDF", want: "Scan.PDF"},
		{raw: "signed form", want: "signed form.pdf"},
		{raw: "dir/sub/file.pdf", want: "dir_sub_file.pdf"},
		{raw: `C:\Users\me\file.pdf`, want: "C__Users_me_file.pdf"},
		{raw: "..", want: naming.DefaultFilename},
		{raw: "   ", want: naming.DefaultFilename},
		{raw: "what?.pdf", want: "what_.pdf"},
		{raw: "", want: naming.DefaultFilename},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := naming.Filename(tt.raw); got != tt.want {
				t.Errorf("Filename(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFilenameKeepsPathsDistinct(t *testing.T) {
	if a, b := naming.Filename("a/doc.pdf"), naming.Filename("b/doc.pdf"); a == b {
		t.Errorf("Filename collapsed distinct paths to %q", a)
	}
}

func TestFolder(t *testing.T) {
	if got := naming.Folder("43105", "Jane Doe"); got != "43105 - Jane Doe" {
		t.Errorf("Folder = %q", got)
	}
}
