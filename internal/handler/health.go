package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Component is one dependency reported by /healthz.
type Component struct {
	Name       string
	Configured bool
	// Required components fail the whole check when they are down.
	Required bool
	// Check, when set, is called on every request to test liveness.
	Check func(ctx context.Context) error
}

// ComponentStatus is the reported state of one component.
type ComponentStatus struct {
	Configured bool   `json:"configured"`
	Status     string `json:"status"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status     string                     `json:"status"`
	Version    string                     `json:"version"`
	Components map[string]ComponentStatus `json:"components"`
	Breaker    string                     `json:"breaker"`
}

// HealthHandler serves GET /healthz.
type HealthHandler struct {
	components []Component
	breaker    func() string
	version    string
	logger     *slog.Logger
}

// NewHealthHandler creates a HealthHandler. breaker reports the completion
// circuit-breaker state; nil means "disabled".
func NewHealthHandler(version string, components []Component, breaker func() string, logger *slog.Logger) *HealthHandler {
	if breaker == nil {
		breaker = func() string { return "disabled" }
	}
	return &HealthHandler{
		components: components,
		breaker:    breaker,
		version:    version,
		logger:     logger,
	}
}

// HandleHealth reports component status. It answers 503 only when a
// required component is down; an unconfigured optional one is normal.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:     "ok",
		Version:    h.version,
		Components: make(map[string]ComponentStatus, len(h.components)),
		Breaker:    h.breaker(),
	}
	status := http.StatusOK

	for _, c := range h.components {
		cs := ComponentStatus{Configured: c.Configured, Status: "up"}
		switch {
		case !c.Configured:
			cs.Status = "not_configured"
		case c.Check != nil:
			if err := c.Check(ctx); err != nil {
				// The cause goes to the log only.
				cs.Status = "down"
				h.logger.Warn("health check failed",
					slog.String("component", c.Name),
					slog.String("error", err.Error()),
				)
				if c.Required {
					resp.Status = "unavailable"
					status = http.StatusServiceUnavailable
				} else if resp.Status == "ok" {
					resp.Status = "degraded"
				}
			}
		}
		resp.Components[c.Name] = cs
	}

	writeJSON(w, status, resp)
}
