package api

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/openapi"
	"github.com/JaimeStill/docket/pkg/routes"
	"github.com/JaimeStill/docket/pkg/storage"
)

type archiveHandler struct {
	store  storage.System
	logger *slog.Logger
}

type listing struct {
	Backend string          `json:"backend"`
	Path    string          `json:"path"`
	Entries []storage.Entry `json:"entries"`
}

type item struct {
	Path    string `json:"path"`
	Locator string `json:"locator"`
}

var archiveSchemas = map[string]*openapi.Schema{
	"Listing": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"backend": {Type: "string"},
			"path":    {Type: "string"},
			"entries": {Type: "array", Items: &openapi.Schema{
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"name":   {Type: "string"},
					"folder": {Type: "boolean"},
				},
			}},
		},
	},
	"Item": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"path":    {Type: "string"},
			"locator": {Type: "string"},
		},
	},
}

var (
	pathParam = openapi.QueryParam("path", "string", "Archive tree path, e.g. 2024/3/5", true)

	listDoc = &openapi.Operation{
		Summary:    "List the children of an archive folder",
		Tags:       []string{"archive"},
		Parameters: []*openapi.Parameter{pathParam},
		Responses: openapi.Responses(map[int]*openapi.Response{
			http.StatusOK:         openapi.ResponseJSON("Folder children", openapi.SchemaRef("Listing")),
			http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
			http.StatusBadGateway: openapi.ResponseRef("BadGateway"),
		}),
	}

	itemDoc = &openapi.Operation{
		Summary:    "Resolve an archived item",
		Tags:       []string{"archive"},
		Parameters: []*openapi.Parameter{pathParam},
		Responses: openapi.Responses(map[int]*openapi.Response{
			http.StatusOK:         openapi.ResponseJSON("Item locator", openapi.SchemaRef("Item")),
			http.StatusBadRequest: openapi.ResponseRef("BadRequest"),
			http.StatusNotFound:   openapi.ResponseRef("NotFound"),
		}),
	}
)

func newArchiveHandler(store storage.System, logger *slog.Logger) *archiveHandler {
	return &archiveHandler{
		store:  store,
		logger: logger.With("handler", "archive"),
	}
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/archive",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.list, Doc: listDoc},
			{Method: "GET", Pattern: "/item", Handler: h.find, Doc: itemDoc},
		},
	}
}

// list returns the immediate children of ?path= in the archive tree.
func (h *archiveHandler) list(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")

	entries, err := h.store.ListChildren(r.Context(), p)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, listing{
		Backend: h.store.Backend(),
		Path:    p,
		Entries: entries,
	})
}

func (h *archiveHandler) find(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")

	found, locator, err := h.store.Exists(r.Context(), p)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	if !found {
		handlers.RespondError(w, h.logger, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, item{Path: p, Locator: locator})
}
