// Package storagetest provides an in-memory Microsoft Graph drive for
// tests of code built on the drive backend.
package storagetest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/JaimeStill/docket/pkg/storage"
)

// Token is the bearer token Graph accepts.
const Token = "test-token"

// Graph serves the subset of the Graph drive API the drive backend uses,
// keyed by drive-relative path. Files report "https://drive.test/{path}"
// as their web URL. Fail counts down injected 429s per "METHOD action"
// key, for example "PUT content".
type Graph struct {
	mu      sync.Mutex
	Folders map[string]bool
	Files   map[string][]byte
	Creates int
	Fail    map[string]int
	Calls   atomic.Int32
}

func NewGraph() *Graph {
	return &Graph{
		Folders: map[string]bool{},
		Files:   map[string][]byte{},
		Fail:    map[string]int{},
	}
}

// WebURL is the locator Graph reports for the file at p.
func WebURL(p string) string {
	return "https://drive.test/" + p
}

func (g *Graph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.Calls.Add(1)

	if r.Header.Get("Authorization") != "Bearer "+Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if r.URL.Path == "/me/drive" {
		writeJSON(w, http.StatusOK, map[string]string{"id": "drive-1"})
		return
	}

	rest, ok := strings.CutPrefix(r.URL.Path, "/drives/drive-1/root")
	if !ok {
		http.NotFound(w, r)
		return
	}

	item, action := "", ""
	switch {
	case rest == "/children":
		action = "children"
	case strings.HasPrefix(rest, ":/"):
		item = strings.TrimPrefix(rest, ":/")
		if p, a, found := strings.Cut(item, ":/"); found {
			item, action = p, a
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	key := r.Method + " " + action
	if n := g.Fail[key]; n > 0 {
		g.Fail[key] = n - 1
		w.Header().Set("Retry-After", "0")
		http.Error(w, "throttled", http.StatusTooManyRequests)
		return
	}

	switch {
	case r.Method == http.MethodGet && action == "":
		if g.Folders[item] {
			writeJSON(w, http.StatusOK, map[string]any{"name": path.Base(item), "folder": map[string]any{}})
			return
		}
		if _, ok := g.Files[item]; ok {
			writeJSON(w, http.StatusOK, map[string]any{"name": path.Base(item), "webUrl": WebURL(item)})
			return
		}
		http.NotFound(w, r)

	case r.Method == http.MethodPost && action == "children":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["@microsoft.graph.conflictBehavior"] != "fail" {
			http.Error(w, "missing conflict behavior", http.StatusBadRequest)
			return
		}
		name, _ := body["name"].(string)
		p := storage.Join(item, name)
		if g.Folders[p] {
			http.Error(w, "nameAlreadyExists", http.StatusConflict)
			return
		}
		g.Folders[p] = true
		g.Creates++
		writeJSON(w, http.StatusCreated, map[string]any{"name": name})

	case r.Method == http.MethodGet && action == "children":
		if item != "" && !g.Folders[item] {
			http.NotFound(w, r)
			return
		}
		var value []map[string]any
		for f := range g.Folders {
			if path.Dir(f) == item {
				value = append(value, map[string]any{"name": path.Base(f), "folder": map[string]any{"childCount": 0}})
			}
		}
		for f := range g.Files {
			if path.Dir(f) == item {
				value = append(value, map[string]any{"name": path.Base(f)})
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"value": value})

	case r.Method == http.MethodPut && action == "content":
		buf, _ := io.ReadAll(r.Body)
		g.Files[item] = buf
		writeJSON(w, http.StatusCreated, map[string]any{"name": path.Base(item), "webUrl": WebURL(item)})

	case r.Method == http.MethodPatch && action == "":
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		target := storage.Join(path.Dir(item), body.Name)
		if g.Folders[target] {
			http.Error(w, "nameAlreadyExists", http.StatusConflict)
			return
		}
		g.move(item, target)
		writeJSON(w, http.StatusOK, map[string]any{"name": body.Name})

	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func (g *Graph) move(from, to string) {
	for f := range g.Folders {
		if f == from || strings.HasPrefix(f, from+"/") {
			delete(g.Folders, f)
			g.Folders[to+strings.TrimPrefix(f, from)] = true
		}
	}
	for f, data := range g.Files {
		if strings.HasPrefix(f, from+"/") {
			delete(g.Files, f)
			g.Files[to+strings.TrimPrefix(f, from)] = data
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// NewDrive starts g on a test server and returns a drive backend rooted
// at root that talks to it. The server closes with the test.
func NewDrive(t testing.TB, g *Graph, root string) storage.System {
	t.Helper()

	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)

	cfg := &storage.Config{
		Backend: storage.BackendDrive,
		Root:    root,
		Drive:   storage.DriveConfig{BaseURL: srv.URL, MaxDelay: "1ms"},
	}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	tokens := func(context.Context) (string, error) { return Token, nil }
	s, err := storage.NewDrive(cfg, tokens, srv.Client(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("NewDrive: %v", err)
	}
	return s
}
