// Package handler contains the HTTP handlers. Handlers parse requests,
// call a service, and write JSON; they hold no business rules.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/intellicrawl/internal/model"
)

// Searcher runs a candidate search. *service.SearchService implements it.
type Searcher interface {
	Search(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error)
}

// SearchHandler serves POST /api/search.
type SearchHandler struct {
	svc    Searcher
	logger *slog.Logger
}

// NewSearchHandler creates a SearchHandler.
func NewSearchHandler(svc Searcher, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{svc: svc, logger: logger}
}

// HandleSearch runs one search.
//
// HTTP: POST /api/search
// REQUEST BODY: {"query": "rust compilers", "location": "Berlin", "languages": ["Rust"], "maxResults": 5}
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	var q model.SearchQuery
	if err := decodeJSON(w, r, &q); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.svc.Search(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
