// Package server wires the HTTP router and runs the process.
//
// DEPENDENCY INJECTION FLOW:
//
//	NewApp creates:  config → stores → clients → services
//	New creates:     services → handlers → chi routes
//
// This is the "composition root" pattern: all dependencies are wired in
// one place rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/intellicrawl/internal/auth"
	"github.com/sakif/intellicrawl/internal/handler"
	"github.com/sakif/intellicrawl/internal/middleware"
	"github.com/sakif/intellicrawl/internal/reconcile"
)

// Server is the HTTP server plus the background reconciler.
type Server struct {
	app       *App
	router    *chi.Mux
	limiter   *middleware.RateLimiter
	scheduler *reconcile.Scheduler
	version   string
}

// New builds the router on top of app.
func New(app *App, version string) (*Server, error) {
	s := &Server{app: app, router: chi.NewRouter(), version: version}

	if rl := app.Config.RateLimit; rl.Enabled {
		s.limiter = middleware.NewRateLimiter(rl.RequestsPerMin, rl.Burst, app.Logger)
	}

	if rc := app.Config.Reconcile; rc.Enabled && app.Store.HasPrimary() {
		sched, err := reconcile.NewScheduler(app.Reconciler, rc.Schedule, rc.Timeout, app.Logger)
		if err != nil {
			return nil, err
		}
		s.scheduler = sched
	}

	s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// routes configures middleware and handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /api/search            → search (rate limited)
//	POST   /api/agent-workflow    → agent assist (rate limited)
//	GET    /api/developers        → list saved candidates
//	POST   /api/developers        → save (bearer token when auth is on)
//	DELETE /api/developers/{id}   → delete (bearer token when auth is on)
//	DELETE /api/developers?id=    → delete, query form
//	GET    /healthz               → component status
//	GET    /metrics               → Prometheus
//
// MIDDLEWARE ORDER MATTERS: RequestID first so every log line has it,
// RealIP before anything that keys on the client address, Recoverer
// innermost of the globals so its 500 is still logged and counted.
func (s *Server) routes() {
	app := s.app
	logger := app.Logger

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(logger))
	s.router.Use(middleware.Metrics(app.Metrics))
	s.router.Use(chimiddleware.Recoverer)

	searchHandler := handler.NewSearchHandler(app.Search, logger)
	developerHandler := handler.NewDeveloperHandler(app.Developers, logger)
	agentHandler := handler.NewAgentHandler(app.Agent, logger)
	healthHandler := handler.NewHealthHandler(s.version, app.HealthComponents(), app.Breaker.State, logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)
	s.router.Method(http.MethodGet, "/metrics", app.Metrics.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(s.limiter))
			r.Post("/search", searchHandler.HandleSearch)
			r.Post("/agent-workflow", agentHandler.HandleRun)
		})

		r.Get("/developers", developerHandler.HandleList)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireBearer(app.Tokens, logger))
			r.Post("/developers", developerHandler.HandleCreate)
			r.Delete("/developers", developerHandler.HandleDelete)
			r.Delete("/developers/{id}", developerHandler.HandleDelete)
		})
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully:
//  1. stop accepting connections and wait for in-flight requests
//  2. stop the reconciler, letting a running pass finish
//  3. close the rate limiter
//
// The App's connections are the caller's to close.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.app.Config.Server
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if s.scheduler != nil {
		s.scheduler.Start()
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.app.Logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("version", s.version),
			slog.String("fallback_store", s.app.Config.Store.SQLitePath),
			slog.Bool("primary_store", s.app.Store.HasPrimary()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		s.app.Logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if s.scheduler != nil {
		s.scheduler.Stop(shutdownCtx)
	}
	if s.limiter != nil {
		s.limiter.Close()
	}

	if runErr == nil {
		s.app.Logger.Info("server stopped gracefully")
	}
	return runErr
}
