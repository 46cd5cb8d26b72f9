package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/service"
)

// DeveloperStore is the saved-candidate API. *service.DeveloperService
// implements it.
type DeveloperStore interface {
	List(ctx context.Context, f service.ListFilter) (*model.DeveloperList, error)
	Create(ctx context.Context, dev *model.Developer) (*model.Developer, error)
	Delete(ctx context.Context, id string) error
}

// DeveloperHandler serves /api/developers.
type DeveloperHandler struct {
	svc    DeveloperStore
	logger *slog.Logger
}

// NewDeveloperHandler creates a DeveloperHandler.
func NewDeveloperHandler(svc DeveloperStore, logger *slog.Logger) *DeveloperHandler {
	return &DeveloperHandler{svc: svc, logger: logger}
}

type developerResponse struct {
	Developer *model.Developer `json:"developer"`
}

// HandleList returns saved candidates.
//
// HTTP: GET /api/developers?q=<text>&language=<tag>
func (h *DeveloperHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), service.ListFilter{
		Query:    r.URL.Query().Get("q"),
		Language: r.URL.Query().Get("language"),
	})
	if err != nil {
		h.logger.Error("listing developers failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleCreate saves one candidate.
//
// HTTP: POST /api/developers
// REQUEST BODY: a developer record; only githubUsername is required.
func (h *DeveloperHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var dev model.Developer
	if err := decodeJSON(w, r, &dev); err != nil {
		writeError(w, err)
		return
	}

	saved, err := h.svc.Create(r.Context(), &dev)
	if err != nil {
		h.logger.Error("saving developer failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, developerResponse{Developer: saved})
}

// HandleDelete removes one candidate.
//
// HTTP: DELETE /api/developers/{id} or DELETE /api/developers?id=<id>
//
// The path parameter wins when both are present.
func (h *DeveloperHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
