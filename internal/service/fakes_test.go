package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/search"
)

// =========================================================================
// FAKES
// =========================================================================
//
// Hand-written fakes for every collaborator. Each records what it was
// asked so tests can assert on the calls, and each can be told to fail.

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

var errBoom = errors.New("boom")

type fakeSearcher struct {
	results []search.Result
	err     error

	calls      int
	lastQuery  string
	lastMaxRes int
}

func (f *fakeSearcher) Search(_ context.Context, query string, maxResults int) ([]search.Result, error) {
	f.calls++
	f.lastQuery = query
	f.lastMaxRes = maxResults
	return f.results, f.err
}

type fakeCache struct {
	entries map[string][]search.Result
	getErr  error
	setErr  error
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]search.Result)}
}

func (c *fakeCache) Get(_ context.Context, query string, _ int) ([]search.Result, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.entries[query]
	return r, ok, nil
}

func (c *fakeCache) Set(_ context.Context, query string, _ int, results []search.Result) error {
	c.sets++
	if c.setErr != nil {
		return c.setErr
	}
	c.entries[query] = results
	return nil
}

type fakeEnricher struct {
	calls int
}

func (e *fakeEnricher) EnrichAll(_ context.Context, devs []model.Developer) {
	e.calls++
	for i := range devs {
		devs[i].Company = "Enriched Inc"
	}
}

// fakeStore is an in-memory DeveloperRepository that keeps insertion order.
type fakeStore struct {
	mu        sync.Mutex
	devs      []model.Developer
	nextID    int
	createErr error
	listErr   error
	deleteErr error
	deleted   []string
}

func (s *fakeStore) Create(_ context.Context, dev *model.Developer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	if dev.ID == "" {
		s.nextID++
		dev.ID = "dev-" + string(rune('0'+s.nextID))
	}
	s.devs = append(s.devs, *dev)
	return nil
}

func (s *fakeStore) List(context.Context) ([]model.Developer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]model.Developer, len(s.devs))
	copy(out, s.devs)
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	kept := s.devs[:0]
	for _, d := range s.devs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	s.devs = kept
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []model.Developer
	err       error
}

func (p *fakePublisher) PublishSaved(_ context.Context, dev model.Developer) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, dev)
	return nil
}

func (p *fakePublisher) Close() {}

type fakeCompleter struct {
	out        string
	err        error
	lastPrompt string
}

func (c *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	c.lastPrompt = prompt
	return c.out, c.err
}
