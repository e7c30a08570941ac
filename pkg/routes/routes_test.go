package routes_test

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/JaimeStill/docket/pkg/openapi"
	"github.com/JaimeStill/docket/pkg/routes"
)

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body + ":" + r.PathValue("id")))
	}
}

func recordRoutes() routes.Group {
	return routes.Group{
		Prefix: "/records",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: reply("list")},
			{Method: "GET", Pattern: "/{id}", Handler: reply("find")},
			{Method: "POST", Pattern: "/search", Handler: reply("search")},
		},
	}
}

func TestPatterns(t *testing.T) {
	want := []string{"GET /records", "GET /records/{id}", "POST /records/search"}
	if got := recordRoutes().Patterns(); !slices.Equal(got, want) {
		t.Errorf("Patterns = %v, want %v", got, want)
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	routes.Register(mux, recordRoutes(), routes.Group{
		Prefix: "/archive",
		Routes: []routes.Route{{Method: "GET", Pattern: "/item", Handler: reply("item")}},
	})

	tests := []struct {
		method, path string
		wantStatus   int
		wantBody     string
	}{
		{"GET", "/records", http.StatusOK, "list:"},
		{"GET", "/records/abc", http.StatusOK, "find:abc"},
		{"POST", "/records/search", http.StatusOK, "search:"},
		{"GET", "/archive/item", http.StatusOK, "item:"},
		{"DELETE", "/records/abc", http.StatusMethodNotAllowed, ""},
		{"GET", "/documents", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	group := recordRoutes()
	group.Routes[0].Doc = &openapi.Operation{Summary: "List records"}
	group.Routes[2].Doc = &openapi.Operation{Summary: "Search records"}

	spec := openapi.NewSpec("Docket API", "test")
	if err := routes.Describe(spec, group); err != nil {
		t.Fatalf("Describe: %v", err)
	}

	if len(spec.Paths) != 2 {
		t.Fatalf("paths = %d, want 2 (undocumented route skipped)", len(spec.Paths))
	}
	if op := spec.Paths["/records"].Get; op == nil || op.Summary != "List records" {
		t.Errorf("GET /records = %+v", op)
	}
	if op := spec.Paths["/records/search"].Post; op == nil || op.Summary != "Search records" {
		t.Errorf("POST /records/search = %+v", op)
	}
}

func TestDescribeUnsupportedMethod(t *testing.T) {
	group := routes.Group{Prefix: "/records", Routes: []routes.Route{
		{Method: "DELETE", Pattern: "/{id}", Handler: reply("delete"), Doc: &openapi.Operation{}},
	}}
	if err := routes.Describe(openapi.NewSpec("Docket API", "test"), group); err == nil {
		t.Error("expected error for undocumentable method")
	}
}
