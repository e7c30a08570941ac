package records

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/pkg/handlers"
	"github.com/JaimeStill/docket/pkg/pagination"
	"github.com/JaimeStill/docket/pkg/routes"
)

// Handler serves read-only views of the archive ledger.
type Handler struct {
	sys    System
	logger *slog.Logger
	pages  pagination.Config
}

// SearchRequest is the body of POST /records/search.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

func NewHandler(sys System, logger *slog.Logger, pages pagination.Config) *Handler {
	return &Handler{sys: sys, logger: logger.With("handler", "records"), pages: pages}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/records",
		Routes: []routes.Route{
			{Method: http.MethodGet, Pattern: "", Handler: h.List, Doc: docs.list},
			{Method: http.MethodGet, Pattern: "/{id}", Handler: h.Find, Doc: docs.find},
			{Method: http.MethodPost, Pattern: "/search", Handler: h.Search, Doc: docs.search},
		},
	}
}

// List pages records using query-string filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.page(w, r, pagination.PageRequestFromQuery(q, h.pages), FiltersFromQuery(q))
}

// Search pages records using a JSON body.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}
	req.Normalize(h.pages)
	h.page(w, r, req.PageRequest, req.Filters)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}
	if rec, err := h.sys.Find(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
	} else {
		handlers.RespondJSON(w, http.StatusOK, rec)
	}
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, page pagination.PageRequest, filters Filters) {
	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, result)
}
