package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/intellicrawl/internal/agent"
	"github.com/sakif/intellicrawl/internal/auth"
	"github.com/sakif/intellicrawl/internal/cache"
	"github.com/sakif/intellicrawl/internal/config"
	"github.com/sakif/intellicrawl/internal/events"
	"github.com/sakif/intellicrawl/internal/github"
	"github.com/sakif/intellicrawl/internal/handler"
	"github.com/sakif/intellicrawl/internal/metrics"
	"github.com/sakif/intellicrawl/internal/reconcile"
	"github.com/sakif/intellicrawl/internal/repository"
	"github.com/sakif/intellicrawl/internal/repository/postgres"
	sqliteRepo "github.com/sakif/intellicrawl/internal/repository/sqlite"
	"github.com/sakif/intellicrawl/internal/repository/tiered"
	"github.com/sakif/intellicrawl/internal/search"
	"github.com/sakif/intellicrawl/internal/service"
)

// App is the fully wired dependency graph. The HTTP server and the CLI
// commands share it.
//
// COMPOSITION ROOT:
// Every concrete client is created here and nowhere else. Optional
// collaborators that are unconfigured, or that fail to connect at startup,
// are left nil and the services skip them.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics

	Fallback *sqliteRepo.DB
	Primary  *postgres.DB
	Store    *tiered.Store
	Cache    *cache.Redis
	Events   events.Publisher
	Breaker  *agent.Breaker
	Tokens   *auth.TokenService

	Search     *service.SearchService
	Developers *service.DeveloperService
	Agent      *service.AgentService
	Reconciler *reconcile.Job

	eventsOn bool
	closers  []func()
}

// NewApp builds the App from cfg. Only the fallback store is mandatory.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}

	// === STORAGE ===
	fallback, err := sqliteRepo.New(cfg.Store.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening fallback store: %w", err)
	}
	a.Fallback = fallback
	a.onClose(func() { fallback.Close() })

	if n, err := fallback.CountPending(ctx); err == nil && n > 0 {
		logger.Warn("fallback store holds unsynced records", slog.Int("pending", n))
	}

	// A nil interface, not a nil *postgres.DB, marks "no primary".
	var primary repository.DeveloperRepository
	if cfg.Store.DatabaseURL != "" {
		pg, err := postgres.New(ctx, postgres.Config{
			URL:             cfg.Store.DatabaseURL,
			MaxConns:        cfg.Store.MaxConns,
			MinConns:        cfg.Store.MinConns,
			MaxConnLifetime: cfg.Store.MaxConnLifetime,
			MaxConnIdleTime: cfg.Store.MaxConnIdleTime,
		})
		if err != nil {
			logger.Warn("primary store unavailable, using fallback only", slog.String("error", err.Error()))
		} else {
			a.Primary = pg
			primary = pg
			a.onClose(pg.Close)
		}
	}
	var storeOpts []tiered.Option
	if cfg.Store.DatabaseURL != "" && primary == nil {
		storeOpts = append(storeOpts, tiered.WithPrimaryExpected())
	}
	a.Store = tiered.New(primary, fallback, logger, a.Metrics, storeOpts...)
	a.Reconciler = reconcile.New(primary, fallback, logger, a.Metrics)

	// === SEARCH ===
	var searcher search.Searcher
	if cfg.Search.APIKey != "" {
		searcher = search.NewTavilyClient(search.TavilyConfig{
			APIKey:  cfg.Search.APIKey,
			BaseURL: cfg.Search.BaseURL,
			Timeout: cfg.Search.Timeout,
		})
	} else {
		logger.Warn("TAVILY_API_KEY not set, search is disabled")
	}

	var searchCache cache.SearchCache
	if cfg.Cache.RedisURL != "" {
		if rc, err := a.connectCache(ctx); err != nil {
			logger.Warn("search cache unavailable", slog.String("error", err.Error()))
		} else {
			a.Cache = rc
			searchCache = rc
		}
	}

	var enricher service.Enricher
	if cfg.GitHub.Token != "" {
		e := github.New(cfg.GitHub.Token, logger)
		if cfg.GitHub.BaseURL != "" {
			if e, err = e.WithBaseURL(cfg.GitHub.BaseURL); err != nil {
				a.Close()
				return nil, err
			}
		}
		enricher = e
	}

	// === EVENTS ===
	a.Events = events.Noop{}
	if cfg.Events.NATSURL != "" {
		nc, err := events.NewNATS(cfg.Events.NATSURL, cfg.Events.Subject)
		if err != nil {
			logger.Warn("event publishing disabled", slog.String("error", err.Error()))
		} else {
			a.Events = nc
			a.eventsOn = true
			a.onClose(nc.Close)
		}
	}

	// === AGENT ===
	var completer agent.Completer
	if cfg.AI.APIKey != "" {
		cb := cfg.AI.CircuitBreaker
		a.Breaker = agent.NewBreaker("gemini", agent.BreakerConfig{
			Enabled:          cb.Enabled,
			MaxRequests:      cb.MaxRequests,
			Interval:         cb.Interval,
			Timeout:          cb.Timeout,
			MinRequests:      cb.MinRequests,
			FailureThreshold: cb.FailureThreshold,
		}, logger)

		g, err := agent.NewGemini(ctx, agent.GeminiConfig{
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout,
			BaseURL:     cfg.AI.BaseURL,
		}, a.Breaker)
		if err != nil {
			logger.Warn("completion provider unavailable, using templates", slog.String("error", err.Error()))
		} else {
			completer = g
		}
	}

	// === AUTH ===
	if cfg.Auth.Secret != "" {
		tokens, err := auth.NewTokenService(cfg.Auth.Secret, cfg.Auth.TokenTTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Tokens = tokens
	}

	// === SERVICES ===
	a.Search = service.NewSearchService(service.SearchDeps{
		Searcher:  searcher,
		Extractor: search.NewExtractor(logger),
		Cache:     searchCache,
		Enricher:  enricher,
		Store:     a.Store,
		Events:    a.Events,
		Metrics:   a.Metrics,
		Logger:    logger,
	})
	a.Developers = service.NewDeveloperService(a.Store, a.Events, logger)
	a.Agent = service.NewAgentService(completer, a.Metrics, logger)

	logger.Info("application wired",
		slog.Bool("search", searcher != nil),
		slog.Bool("primary_store", primary != nil),
		slog.Bool("cache", searchCache != nil),
		slog.Bool("github", enricher != nil),
		slog.Bool("events", a.eventsOn),
		slog.Bool("ai", completer != nil),
		slog.Bool("auth", a.Tokens != nil),
	)
	return a, nil
}

func (a *App) connectCache(ctx context.Context) (*cache.Redis, error) {
	rc, err := cache.NewRedis(cache.RedisConfig{URL: a.Config.Cache.RedisURL, TTL: a.Config.Cache.TTL})
	if err != nil {
		return nil, err
	}
	if err := rc.Ping(ctx); err != nil {
		rc.Close()
		return nil, err
	}
	a.onClose(func() { rc.Close() })
	return rc, nil
}

// HealthComponents describes every collaborator for /healthz.
func (a *App) HealthComponents() []handler.Component {
	cfg := a.Config
	components := []handler.Component{
		{
			Name:       "fallback_store",
			Configured: true,
			Required:   true,
			Check:      func(context.Context) error { return a.Fallback.Ping() },
		},
		{Name: "primary_store", Configured: cfg.Store.DatabaseURL != ""},
		{Name: "search", Configured: cfg.Search.APIKey != ""},
		{Name: "ai", Configured: cfg.AI.APIKey != ""},
		{Name: "github", Configured: cfg.GitHub.Token != ""},
		{Name: "cache", Configured: a.Cache != nil},
		{Name: "events", Configured: a.eventsOn},
	}
	if a.Primary != nil {
		components[1].Check = a.Primary.Ping
	} else {
		components[1].Check = func(context.Context) error {
			return errors.New("postgres: unreachable at startup")
		}
	}
	if a.Cache != nil {
		components[5].Check = a.Cache.Ping
	}
	if nc, ok := a.Events.(*events.NATS); ok {
		components[6].Check = func(context.Context) error {
			if !nc.Connected() {
				return fmt.Errorf("nats: not connected")
			}
			return nil
		}
	}
	return components
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases every connection in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
