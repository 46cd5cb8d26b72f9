package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/intellicrawl/internal/model"
)

// AgentRunner runs one recruiter-assist workflow. *service.AgentService
// implements it.
type AgentRunner interface {
	Run(ctx context.Context, req model.AgentRequest) (string, error)
}

// AgentHandler serves POST /api/agent-workflow.
type AgentHandler struct {
	svc    AgentRunner
	logger *slog.Logger
}

// NewAgentHandler creates an AgentHandler.
func NewAgentHandler(svc AgentRunner, logger *slog.Logger) *AgentHandler {
	return &AgentHandler{svc: svc, logger: logger}
}

// HandleRun generates an email, an analysis, or a similar-candidate strategy.
//
// HTTP: POST /api/agent-workflow
// REQUEST BODY: {"type": "email", "developer": {...}}
func (h *AgentHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var req model.AgentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.svc.Run(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.AgentResponse{Result: result})
}
