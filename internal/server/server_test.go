package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/intellicrawl/internal/config"
	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/service"
)

const testSecret = "server-test-secret-0123456789"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 0, ShutdownTimeout: time.Second},
		Log:    config.LogConfig{Level: "error", Format: "text"},
		Store:  config.StoreConfig{SQLitePath: ":memory:"},
		RateLimit: config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 60,
			Burst:          100,
		},
		Reconcile: config.ReconcileConfig{Enabled: true, Schedule: "@every 5m", Timeout: time.Minute},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *App) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	app, err := NewApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	srv, err := New(app, "test")
	require.NoError(t, err)
	t.Cleanup(func() {
		if srv.limiter != nil {
			srv.limiter.Close()
		}
	})
	return srv, app
}

func do(t *testing.T, h http.Handler, method, target, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestServer_DeveloperLifecycle(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	h := srv.Handler()

	rr := do(t, h, http.MethodPost, "/api/developers", `{"githubUsername":"ada","languages":["Rust"]}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		Developer model.Developer `json:"developer"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	id := created.Developer.ID
	require.NotEmpty(t, id)

	rr = do(t, h, http.MethodGet, "/api/developers?language=rust", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list model.DeveloperList
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	require.Len(t, list.Developers, 1)
	assert.Equal(t, id, list.Developers[0].ID)
	assert.Equal(t, []string{"Rust"}, list.Languages)

	rr = do(t, h, http.MethodDelete, "/api/developers/"+id, "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, h, http.MethodDelete, "/api/developers?id="+id, "", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code, "deleting twice is fine")

	rr = do(t, h, http.MethodDelete, "/api/developers", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/api/developers", "", nil)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Empty(t, list.Developers)
}

func TestServer_SearchWithoutKey(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rr := do(t, srv.Handler(), http.MethodPost, "/api/search", `{"query":"go"}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Tavily API key not configured","code":"unavailable"}`, rr.Body.String())
}

func TestServer_SearchValidationBeforeKeyCheck(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rr := do(t, srv.Handler(), http.MethodPost, "/api/search", `{"query":""}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_AgentTemplateFallback(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rr := do(t, srv.Handler(), http.MethodPost, "/api/agent-workflow",
		`{"type":"similar","developer":{"name":"Ada","githubUsername":"ada","languages":["Go"]}}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var body model.AgentResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Contains(t, body.Result, "SEARCH KEYWORDS")
	assert.Contains(t, body.Result, "Demo Mode")

	rr = do(t, srv.Handler(), http.MethodPost, "/api/agent-workflow", `{"type":"poem","developer":{}}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServer_AuthGuardsMutations(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Secret = testSecret
	srv, app := newTestServer(t, cfg)
	h := srv.Handler()

	rr := do(t, h, http.MethodPost, "/api/developers", `{"githubUsername":"ada"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, h, http.MethodDelete, "/api/developers/x", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Reads and searches stay public.
	rr = do(t, h, http.MethodGet, "/api/developers", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	token, err := app.Tokens.Generate("tests")
	require.NoError(t, err)
	authz := http.Header{"Authorization": {"Bearer " + token}}

	rr = do(t, h, http.MethodPost, "/api/developers", `{"githubUsername":"ada"}`, authz)
	assert.Equal(t, http.StatusCreated, rr.Code)
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Burst = 2
	srv, _ := newTestServer(t, cfg)
	h := srv.Handler()

	body := `{"type":"email","developer":{"name":"Ada","githubUsername":"ada"}}`
	for i := 0; i < 2; i++ {
		rr := do(t, h, http.MethodPost, "/api/agent-workflow", body, nil)
		require.Equal(t, http.StatusOK, rr.Code)
	}
	rr := do(t, h, http.MethodPost, "/api/agent-workflow", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// The list route is not limited.
	rr = do(t, h, http.MethodGet, "/api/developers", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	h := srv.Handler()

	rr := do(t, h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var health struct {
		Status     string `json:"status"`
		Breaker    string `json:"breaker"`
		Components map[string]struct {
			Configured bool   `json:"configured"`
			Status     string `json:"status"`
		} `json:"components"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "disabled", health.Breaker)
	assert.Equal(t, "up", health.Components["fallback_store"].Status)
	assert.Equal(t, "not_configured", health.Components["primary_store"].Status)
	assert.Equal(t, "not_configured", health.Components["search"].Status)

	do(t, h, http.MethodGet, "/api/developers", "", nil)

	rr = do(t, h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	text := rr.Body.String()
	assert.Contains(t, text, `intellicrawl_http_requests_total{method="GET",route="/api/developers",status="200"}`)
	assert.Contains(t, text, "intellicrawl_store_operations_total")
}

func TestServer_CreateNeverReplacesExistingRecord(t *testing.T) {
	_, app := newTestServer(t, testConfig())
	ctx := context.Background()

	first, err := app.Developers.Create(ctx, &model.Developer{GitHubUsername: "alice"})
	require.NoError(t, err)
	firstID := first.ID

	second, err := app.Developers.Create(ctx, &model.Developer{ID: firstID, GitHubUsername: "mallory"})
	require.NoError(t, err)
	assert.NotEqual(t, firstID, second.ID)

	list, err := app.Developers.List(ctx, service.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list.Developers, 2)
	for _, d := range list.Developers {
		if d.ID == firstID {
			assert.Equal(t, "alice", d.GitHubUsername)
		}
	}
}

func TestNewApp_UnreachablePrimaryFlagsWritesPending(t *testing.T) {
	cfg := testConfig()
	cfg.Store.DatabaseURL = "postgres://u:p@127.0.0.1:1/db?connect_timeout=1"
	srv, app := newTestServer(t, cfg)
	ctx := context.Background()

	assert.False(t, app.Store.HasPrimary())
	assert.Nil(t, srv.scheduler)

	dev, err := app.Developers.Create(ctx, &model.Developer{GitHubUsername: "ada"})
	require.NoError(t, err)

	pending, err := app.Fallback.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, dev.ID, pending[0].ID)

	rr := do(t, srv.Handler(), http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var health struct {
		Status     string `json:"status"`
		Components map[string]struct {
			Configured bool   `json:"configured"`
			Status     string `json:"status"`
		} `json:"components"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	assert.Equal(t, "degraded", health.Status)
	assert.True(t, health.Components["primary_store"].Configured)
	assert.Equal(t, "down", health.Components["primary_store"].Status)
}

func TestNewApp_UnreachableNATSReportsNotConfigured(t *testing.T) {
	cfg := testConfig()
	cfg.Events.NATSURL = "nats://127.0.0.1:1"
	cfg.Events.Subject = "candidates.saved"
	srv, _ := newTestServer(t, cfg)

	rr := do(t, srv.Handler(), http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var health struct {
		Components map[string]struct {
			Configured bool   `json:"configured"`
			Status     string `json:"status"`
		} `json:"components"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&health))
	assert.False(t, health.Components["events"].Configured)
	assert.Equal(t, "not_configured", health.Components["events"].Status)
}

func TestServer_NoSchedulerWithoutPrimary(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	assert.Nil(t, srv.scheduler)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	srv, _ := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewApp_BadFallbackPath(t *testing.T) {
	cfg := testConfig()
	// A path under a regular file can't be created.
	cfg.Store.SQLitePath = "/dev/null/intellicrawl.db"

	_, err := NewApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}

