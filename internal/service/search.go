// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes the candidate stores
//
// Services take interfaces, never concrete clients. The HTTP handlers and
// the CLI both call the same methods, and tests pass hand-written fakes.
//
// Every optional collaborator (cache, enricher, event publisher, completer)
// may be nil; the service simply skips that step.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/intellicrawl/internal/apperror"
	"github.com/sakif/intellicrawl/internal/cache"
	"github.com/sakif/intellicrawl/internal/events"
	"github.com/sakif/intellicrawl/internal/metrics"
	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/repository"
	"github.com/sakif/intellicrawl/internal/search"
)

// Enricher fills extracted candidates with live profile data, in place.
type Enricher interface {
	EnrichAll(ctx context.Context, devs []model.Developer)
}

// SearchDeps are the collaborators of SearchService. Only Extractor and
// Logger are required.
type SearchDeps struct {
	Searcher  search.Searcher
	Extractor *search.Extractor
	Cache     cache.SearchCache
	Enricher  Enricher
	Store     repository.DeveloperRepository
	Events    events.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Now       func() time.Time
}

// SearchService runs candidate searches.
type SearchService struct {
	searcher  search.Searcher
	extractor *search.Extractor
	cache     cache.SearchCache
	enricher  Enricher
	store     repository.DeveloperRepository
	events    events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewSearchService creates a SearchService.
func NewSearchService(d SearchDeps) *SearchService {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	return &SearchService{
		searcher:  d.Searcher,
		extractor: d.Extractor,
		cache:     d.Cache,
		enricher:  d.Enricher,
		store:     d.Store,
		events:    d.Events,
		metrics:   d.Metrics,
		logger:    d.Logger,
		now:       d.Now,
	}
}

// Search validates q, queries the search API (or the cache), and turns the
// hits into candidates. Enrichment and saving run only when q asks for them
// and the collaborator exists; their failures never fail the search.
func (s *SearchService) Search(ctx context.Context, q model.SearchQuery) (*model.SearchResult, error) {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return nil, apperror.ValidationFailed("query", "Search query is required")
	}
	if q.MaxResults != nil && *q.MaxResults < 0 {
		return nil, apperror.ValidationFailed("maxResults", "maxResults must not be negative")
	}
	if q.MinFollowers != nil && *q.MinFollowers < 0 {
		return nil, apperror.ValidationFailed("minFollowers", "minFollowers must not be negative")
	}
	if s.searcher == nil {
		s.metrics.Search("unavailable")
		return nil, apperror.Unavailable("Tavily API key not configured")
	}

	maxResults := normalizeMaxResults(q.MaxResults)
	built := search.BuildQuery(q)

	results, err := s.fetch(ctx, built, maxResults)
	if err != nil {
		s.metrics.Search("error")
		s.logger.Error("search failed",
			slog.String("query", built),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("Failed to search developers", err)
	}

	developers := s.extractor.ParseAll(results)

	if q.Enrich && s.enricher != nil && len(developers) > 0 {
		s.enricher.EnrichAll(ctx, developers)
	}
	if q.Save && s.store != nil {
		s.saveAll(ctx, developers)
	}

	s.metrics.Search("ok")
	s.logger.Info("search completed",
		slog.String("query", built),
		slog.Int("results", len(results)),
		slog.Int("developers", len(developers)),
	)

	return &model.SearchResult{
		Developers:  developers,
		TotalFound:  len(developers),
		SearchQuery: built,
		Timestamp:   s.now().UTC(),
	}, nil
}

// fetch returns cached results when present, otherwise calls the search
// API and caches what it returns. Cache errors are logged and ignored.
func (s *SearchService) fetch(ctx context.Context, built string, maxResults int) ([]search.Result, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, built, maxResults)
		switch {
		case err != nil:
			s.logger.Warn("search cache read failed", slog.String("error", err.Error()))
		case ok:
			s.logger.Debug("search cache hit", slog.String("query", built))
			return cached, nil
		}
	}

	results, err := s.searcher.Search(ctx, built, maxResults)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, built, maxResults, results); err != nil {
			s.logger.Warn("search cache write failed", slog.String("error", err.Error()))
		}
	}
	return results, nil
}

func (s *SearchService) saveAll(ctx context.Context, developers []model.Developer) {
	for i := range developers {
		dev := &developers[i]
		if err := s.store.Create(ctx, dev); err != nil {
			s.logger.Warn("saving search result failed",
				slog.String("username", dev.GitHubUsername),
				slog.String("error", err.Error()),
			)
			continue
		}
		publish(ctx, s.events, s.logger, *dev)
	}
}

// normalizeMaxResults applies the default and the upper bound. Zero and
// absent both mean the default.
func normalizeMaxResults(n *int) int {
	if n == nil || *n <= 0 {
		return search.DefaultMaxResults
	}
	if *n > search.MaxResultsLimit {
		return search.MaxResultsLimit
	}
	return *n
}

func publish(ctx context.Context, p events.Publisher, logger *slog.Logger, dev model.Developer) {
	if err := p.PublishSaved(ctx, dev); err != nil {
		logger.Warn("publishing saved event failed",
			slog.String("id", dev.ID),
			slog.String("error", err.Error()),
		)
	}
}
