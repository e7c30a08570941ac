package storage_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/JaimeStill/docket/pkg/storage"
	"github.com/JaimeStill/docket/pkg/storage/storagetest"
)

func TestDriveEnsurePath(t *testing.T) {
	g := storagetest.NewGraph()
	s := storagetest.NewDrive(t, g, "BEO Archive")
	ctx := context.Background()

	if err := s.EnsurePath(ctx, "2024", "3", "5", "43105 - Jane Doe"); err != nil {
		t.Fatalf("EnsurePath: %v", err)
	}
	if err := s.EnsurePath(ctx, "2024", "3", "5", "43105 - Jane Doe"); err != nil {
		t.Fatalf("EnsurePath repeat: %v", err)
	}

	want := []string{
		"BEO Archive",
		"BEO Archive/2024",
		"BEO Archive/2024/3",
		"BEO Archive/2024/3/5",
		"BEO Archive/2024/3/5/43105 - Jane Doe",
	}
	var got []string
	for f := range g.Folders {
		got = append(got, f)
	}
	sort.Strings(got)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("folders = %v, want %v", got, want)
	}
	if g.Creates != len(want) {
		t.Errorf("creates = %d, want %d", g.Creates, len(want))
	}
}

func TestDriveEnsurePathConcurrentCreate(t *testing.T) {
	g := storagetest.NewGraph()
	s := storagetest.NewDrive(t, g, "")
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for range 4 {
		wg.Go(func() {
			errs <- s.EnsurePath(ctx, "2024", "3")
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("concurrent EnsurePath: %v", err)
		}
	}
	if !g.Folders["2024/3"] {
		t.Error("folder 2024/3 not created")
	}
}

func TestDrivePutExistsList(t *testing.T) {
	g := storagetest.NewGraph()
	s := storagetest.NewDrive(t, g, "BEO Archive")
	ctx := context.Background()

	p := "2024/3/5/43105 - Jane Doe/form.pdf"

	found, _, err := s.Exists(ctx, p)
	if err != nil || found {
		t.Fatalf("Exists before Put = (%v, %v)", found, err)
	}

	if err := s.EnsurePath(ctx, "2024", "3", "5", "43105 - Jane Doe"); err != nil {
		t.Fatal(err)
	}

	locator, err := s.Put(ctx, p, []byte("%PDF"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if want := storagetest.WebURL("BEO Archive/" + p); locator != want {
		t.Errorf("locator = %q, want %q", locator, want)
	}

	found, existing, err := s.Exists(ctx, p)
	if err != nil || !found || existing != locator {
		t.Errorf("Exists after Put = (%v, %q, %v)", found, existing, err)
	}

	children, err := s.ListChildren(ctx, "2024/3/5")
	if err != nil {
		t.Fatalf("ListChildren: %v", err)
	}
	if len(children) != 1 || children[0].Name != "43105 - Jane Doe" || !children[0].Folder {
		t.Errorf("children = %+v", children)
	}

	missing, err := s.ListChildren(ctx, "2023/1/1")
	if err != nil || len(missing) != 0 {
		t.Errorf("ListChildren missing = (%v, %v), want empty", missing, err)
	}
}

func TestDriveRename(t *testing.T) {
	g := storagetest.NewGraph()
	s := storagetest.NewDrive(t, g, "")
	ctx := context.Background()

	if err := s.EnsurePath(ctx, "2024", "3", "5", "43105 - Jane Doe"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(ctx, "2024/3/5/43105 - Jane Doe/a.pdf", []byte("a")); err != nil {
		t.Fatal(err)
	}

	if err := s.Rename(ctx, "2024/3/5", "43105 - Jane Doe", "43105 - Guardian Scholars"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, ok := g.Files["2024/3/5/43105 - Guardian Scholars/a.pdf"]; !ok {
		t.Errorf("file not moved: %v", g.Files)
	}

	if err := s.EnsurePath(ctx, "2024", "3", "5", "43105 - Other"); err != nil {
		t.Fatal(err)
	}
	err := s.Rename(ctx, "2024/3/5", "43105 - Other", "43105 - Guardian Scholars")
	if !errors.Is(err, storage.ErrConflict) {
		t.Errorf("rename conflict = %v, want ErrConflict", err)
	}
}

func TestDriveRetriesThrottling(t *testing.T) {
	g := storagetest.NewGraph()
	g.Fail["PUT content"] = 2
	s := storagetest.NewDrive(t, g, "")

	if _, err := s.Put(context.Background(), "a.pdf", []byte("a")); err != nil {
		t.Fatalf("Put after throttling: %v", err)
	}
	if _, ok := g.Files["a.pdf"]; !ok {
		t.Error("file not stored")
	}
}

func TestDriveRetriesExhausted(t *testing.T) {
	g := storagetest.NewGraph()
	g.Fail["PUT content"] = 10
	s := storagetest.NewDrive(t, g, "")

	_, err := s.Put(context.Background(), "a.pdf", []byte("a"))
	if !errors.Is(err, storage.ErrRemote) {
		t.Fatalf("err = %v, want ErrRemote", err)
	}

	var remote *storage.RemoteError
	if !errors.As(err, &remote) || remote.Status != http.StatusTooManyRequests {
		t.Errorf("remote error = %+v", remote)
	}
}

func TestDriveResolvesDriveID(t *testing.T) {
	g := storagetest.NewGraph()
	s := storagetest.NewDrive(t, g, "")

	found, _, err := s.Exists(context.Background(), "missing.pdf")
	if err != nil || found {
		t.Fatalf("Exists = (%v, %v)", found, err)
	}
	if g.Calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 (drive lookup then item)", g.Calls.Load())
	}
}

func TestDriveTokenFailure(t *testing.T) {
	srv := httptest.NewServer(storagetest.NewGraph())
	t.Cleanup(srv.Close)

	cfg := &storage.Config{Backend: storage.BackendDrive, Drive: storage.DriveConfig{BaseURL: srv.URL, DriveID: "drive-1"}}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("no cached account")
	tokens := func(context.Context) (string, error) { return "", boom }
	s, err := storage.NewDrive(cfg, tokens, srv.Client(), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := s.Exists(context.Background(), "a.pdf"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want token error", err)
	}
}
