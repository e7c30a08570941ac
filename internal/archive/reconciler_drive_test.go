package archive_test

import (
	"context"
	"testing"

	"github.com/JaimeStill/docket/internal/archive"
	"github.com/JaimeStill/docket/pkg/storage"
	"github.com/JaimeStill/docket/pkg/storage/storagetest"
)

// staleListing hides named folders from ListChildren, as a listing taken
// just before another writer created them would.
type staleListing struct {
	storage.System
	hidden map[string]bool
}

func (s *staleListing) ListChildren(ctx context.Context, p string) ([]storage.Entry, error) {
	children, err := s.System.ListChildren(ctx, p)
	if err != nil {
		return nil, err
	}
	var kept []storage.Entry
	for _, c := range children {
		if !s.hidden[c.Name] {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

func TestDriveArchiveRenameThenResubmit(t *testing.T) {
	g := storagetest.NewGraph()
	store := storagetest.NewDrive(t, g, "")
	r := newReconciler(t, store)
	ctx := context.Background()

	if err := store.EnsurePath(ctx, "2024", "3", "5", "43105 - Jane Doe"); err != nil {
		t.Fatal(err)
	}

	req := request("43105", "2024-03-05", "Guardian Scholars", "Jane Doe", "form.pdf")

	first, err := r.Archive(ctx, req)
	if err != nil {
		t.Fatalf("first Archive: %v", err)
	}
	if !first.Renamed || first.Folder != "43105 - Guardian Scholars" {
		t.Fatalf("first = (renamed %v, %q), want renamed to canonical", first.Renamed, first.Folder)
	}

	want := storagetest.WebURL("2024/3/5/43105 - Guardian Scholars/form.pdf")
	if first.Locator != want {
		t.Errorf("first Locator = %q, want %q", first.Locator, want)
	}

	second, err := r.Archive(ctx, req)
	if err != nil {
		t.Fatalf("second Archive: %v", err)
	}
	if second.State != archive.StateDeduplicated {
		t.Errorf("second State = %s, want deduplicated", second.State)
	}
	if second.Locator != first.Locator {
		t.Errorf("locators differ: %q vs %q", first.Locator, second.Locator)
	}
	if g.Folders["2024/3/5/43105 - Jane Doe"] {
		t.Error("adopted folder still present after rename")
	}
}

func TestDriveArchiveRenameConflictKeepsAdoptedFolder(t *testing.T) {
	g := storagetest.NewGraph()
	drive := storagetest.NewDrive(t, g, "")
	ctx := context.Background()

	for _, f := range []string{"43105 - Old", "43105 - New"} {
		if err := drive.EnsurePath(ctx, "2024", "3", "5", f); err != nil {
			t.Fatal(err)
		}
	}

	store := &staleListing{System: drive, hidden: map[string]bool{"43105 - New": true}}
	r := newReconciler(t, store)

	result, err := r.Archive(ctx, request("43105", "2024-03-05", "New", "", "form.pdf"))
	if err != nil {
		t.Fatalf("Archive returned rename conflict: %v", err)
	}
	if result.State != archive.StateArchived || result.Renamed {
		t.Errorf("result = (%s, renamed %v)", result.State, result.Renamed)
	}
	if result.Folder != "43105 - Old" {
		t.Errorf("Folder = %q, want adopted name", result.Folder)
	}
	if want := storagetest.WebURL("2024/3/5/43105 - Old/form.pdf"); result.Locator != want {
		t.Errorf("Locator = %q, want %q", result.Locator, want)
	}
	if _, ok := g.Files["2024/3/5/43105 - Old/form.pdf"]; !ok {
		t.Errorf("file not in adopted folder: %v", g.Files)
	}
	if !g.Folders["2024/3/5/43105 - New"] {
		t.Error("canonical folder disturbed")
	}
}

func TestDriveArchiveFolderSelection(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		reqs     []archive.Request
		folders  []string
		files    []string
	}{
		{
			name: "hyphenated ids stay distinct",
			reqs: []archive.Request{
				request("2024-0017", "2024-06-01", "Acme", "", "a.pdf"),
				request("2024-0018", "2024-06-01", "Globex", "", "b.pdf"),
			},
			folders: []string{"20240017 - Acme", "20240018 - Globex"},
			files:   []string{"20240017 - Acme/a.pdf", "20240018 - Globex/b.pdf"},
		},
		{
			name:     "free-text folder not adopted",
			existing: []string{"2024 Gala"},
			reqs: []archive.Request{
				request("2024", "2024-06-01", "Acme", "", "a.pdf"),
			},
			folders: []string{"2024 Gala", "02024 - Acme"},
			files:   []string{"02024 - Acme/a.pdf"},
		},
		{
			name: "same base name from different paths",
			reqs: []archive.Request{
				request("7", "2024-06-01", "Acme", "", "a/doc.pdf"),
				request("7", "2024-06-01", "Acme", "", "b/doc.pdf"),
			},
			folders: []string{"00007 - Acme"},
			files:   []string{"00007 - Acme/a_doc.pdf", "00007 - Acme/b_doc.pdf"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := storagetest.NewGraph()
			store := storagetest.NewDrive(t, g, "")
			r := newReconciler(t, store)
			ctx := context.Background()

			for _, f := range tt.existing {
				if err := store.EnsurePath(ctx, "2024", "6", "1", f); err != nil {
					t.Fatal(err)
				}
			}

			for _, req := range tt.reqs {
				result, err := r.Archive(ctx, req)
				if err != nil {
					t.Fatalf("Archive %s: %v", req.Filename, err)
				}
				if result.State != archive.StateArchived || result.Renamed {
					t.Errorf("%s = (%s, renamed %v), want archived in place", req.Filename, result.State, result.Renamed)
				}
			}

			for _, f := range tt.folders {
				if !g.Folders["2024/6/1/"+f] {
					t.Errorf("folder %q missing", f)
				}
			}
			for _, f := range tt.files {
				if _, ok := g.Files["2024/6/1/"+f]; !ok {
					t.Errorf("file %q missing", f)
				}
			}
			if len(g.Files) != len(tt.files) {
				t.Errorf("files = %d, want %d", len(g.Files), len(tt.files))
			}
		})
	}
}
