package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/intellicrawl/internal/agent"
	"github.com/sakif/intellicrawl/internal/apperror"
	"github.com/sakif/intellicrawl/internal/metrics"
	"github.com/sakif/intellicrawl/internal/model"
)

// Result sources, used as the metrics label.
const (
	sourceTemplate    = "template"
	sourceModel       = "model"
	sourceEmpty       = "empty"
	sourceUnavailable = "unavailable"
)

// AgentService runs the recruiter-assist workflows.
type AgentService struct {
	completer agent.Completer
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewAgentService creates an AgentService. A nil completer means every
// request is answered from the offline templates.
func NewAgentService(completer agent.Completer, m *metrics.Metrics, logger *slog.Logger) *AgentService {
	return &AgentService{completer: completer, metrics: m, logger: logger}
}

// Run produces the text for req.
//
// A completion failure is not an error: the caller gets a fixed
// "temporarily unavailable" message and the failure is logged.
func (s *AgentService) Run(ctx context.Context, req model.AgentRequest) (string, error) {
	if !req.Type.Valid() {
		return "", apperror.ValidationFailed("type", "Invalid agent type")
	}
	if req.Developer == nil {
		return "", apperror.ValidationFailed("developer", "Developer data is required")
	}
	dev := *req.Developer

	if s.completer == nil {
		out, err := agent.Fallback(req.Type, dev)
		if err != nil {
			return "", err
		}
		s.metrics.AgentRun(string(req.Type), sourceTemplate)
		return out, nil
	}

	prompt, err := agent.Prompt(req.Type, dev)
	if err != nil {
		return "", err
	}

	out, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.logger.Warn("completion failed",
			slog.String("type", string(req.Type)),
			slog.String("username", dev.GitHubUsername),
			slog.String("error", err.Error()),
		)
		s.metrics.AgentRun(string(req.Type), sourceUnavailable)
		return agent.UnavailableMessage, nil
	}

	if strings.TrimSpace(out) == "" {
		s.metrics.AgentRun(string(req.Type), sourceEmpty)
		return agent.EmptyMessage, nil
	}

	s.metrics.AgentRun(string(req.Type), sourceModel)
	return out, nil
}
