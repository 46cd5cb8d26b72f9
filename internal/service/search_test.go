package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/intellicrawl/internal/apperror"
	"github.com/sakif/intellicrawl/internal/metrics"
	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/search"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

var sampleResults = []search.Result{
	{
		URL:     "https://github.com/ada",
		Title:   "Ada Lovelace · GitHub",
		Content: "Location: London. Python and Rust. 42 followers",
	},
	{
		URL:   "https://github.com/topics/rust",
		Title: "rust · GitHub Topics",
	},
	{
		URL:     "https://github.com/grace",
		Title:   "Grace Hopper · GitHub",
		Content: "COBOL pioneer, writes Go",
	},
}

func newTestSearchService(d SearchDeps) *SearchService {
	ids := 0
	if d.Extractor == nil {
		d.Extractor = &search.Extractor{
			Now: func() time.Time { return fixedNow },
			NewID: func() string {
				ids++
				return "id-" + string(rune('0'+ids))
			},
		}
	}
	d.Logger = discard
	d.Now = func() time.Time { return fixedNow }
	return NewSearchService(d)
}

func TestSearch_Validation(t *testing.T) {
	neg := -1
	tests := []struct {
		name  string
		query model.SearchQuery
		field string
	}{
		{"empty query", model.SearchQuery{}, "query"},
		{"blank query", model.SearchQuery{Query: "   "}, "query"},
		{"negative maxResults", model.SearchQuery{Query: "go", MaxResults: &neg}, "maxResults"},
		{"negative minFollowers", model.SearchQuery{Query: "go", MinFollowers: &neg}, "minFollowers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			svc := newTestSearchService(SearchDeps{Searcher: searcher})

			_, err := svc.Search(context.Background(), tt.query)

			require.ErrorIs(t, err, apperror.ErrValidation)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Zero(t, searcher.calls, "searcher must not be called on invalid input")
		})
	}
}

func TestSearch_NoSearcherConfigured(t *testing.T) {
	svc := newTestSearchService(SearchDeps{})

	_, err := svc.Search(context.Background(), model.SearchQuery{Query: "go"})

	require.ErrorIs(t, err, apperror.ErrUnavailable)
	assert.Equal(t, "Tavily API key not configured", err.Error())
}

func TestSearch_Success(t *testing.T) {
	searcher := &fakeSearcher{results: sampleResults}
	m := metrics.New()
	svc := newTestSearchService(SearchDeps{Searcher: searcher, Metrics: m})

	res, err := svc.Search(context.Background(), model.SearchQuery{
		Query:     "  compiler people ",
		Location:  "London",
		Languages: []string{"Python"},
	})
	require.NoError(t, err)

	assert.Equal(t, `site:github.com compiler people location:"London" language:Python`, searcher.lastQuery)
	assert.Equal(t, search.DefaultMaxResults, searcher.lastMaxRes)

	assert.Equal(t, searcher.lastQuery, res.SearchQuery)
	assert.Equal(t, fixedNow, res.Timestamp)
	require.Len(t, res.Developers, 2, "topics URL must be skipped")
	assert.Equal(t, 2, res.TotalFound)
	assert.Equal(t, "ada", res.Developers[0].GitHubUsername)
	assert.Equal(t, "Ada Lovelace", res.Developers[0].Name)
	assert.Equal(t, "London. Python and Rust. 42 followers", res.Developers[0].Location)
	assert.Equal(t, "grace", res.Developers[1].GitHubUsername)
}

func TestSearch_MaxResults(t *testing.T) {
	tests := []struct {
		name string
		in   *int
		want int
	}{
		{"absent", nil, 10},
		{"zero", model.IntPtr(0), 10},
		{"in range", model.IntPtr(5), 5},
		{"at limit", model.IntPtr(20), 20},
		{"over limit", model.IntPtr(50), 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{}
			svc := newTestSearchService(SearchDeps{Searcher: searcher})

			_, err := svc.Search(context.Background(), model.SearchQuery{Query: "go", MaxResults: tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, searcher.lastMaxRes)
		})
	}
}

func TestSearch_UpstreamError(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("tavily: unexpected status 401")}
	svc := newTestSearchService(SearchDeps{Searcher: searcher})

	_, err := svc.Search(context.Background(), model.SearchQuery{Query: "go"})

	require.ErrorIs(t, err, apperror.ErrUpstream)
	assert.Equal(t, "Failed to search developers", err.Error(), "cause must not leak into the message")
}

func TestSearch_EmptyResults(t *testing.T) {
	svc := newTestSearchService(SearchDeps{Searcher: &fakeSearcher{}})

	res, err := svc.Search(context.Background(), model.SearchQuery{Query: "nobody"})
	require.NoError(t, err)

	assert.NotNil(t, res.Developers)
	assert.Empty(t, res.Developers)
	assert.Zero(t, res.TotalFound)
}

func TestSearch_Cache(t *testing.T) {
	searcher := &fakeSearcher{results: sampleResults}
	c := newFakeCache()
	svc := newTestSearchService(SearchDeps{Searcher: searcher, Cache: c})
	q := model.SearchQuery{Query: "go"}

	first, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, searcher.calls, "second search should be served from the cache")
	assert.Equal(t, 1, c.sets)
	assert.Len(t, second.Developers, len(first.Developers))
	assert.NotEqual(t, first.Developers[0].ID, second.Developers[0].ID, "ids are minted per extraction")
}

func TestSearch_CacheErrorsIgnored(t *testing.T) {
	searcher := &fakeSearcher{results: sampleResults}
	c := newFakeCache()
	c.getErr = errBoom
	c.setErr = errBoom
	svc := newTestSearchService(SearchDeps{Searcher: searcher, Cache: c})

	res, err := svc.Search(context.Background(), model.SearchQuery{Query: "go"})

	require.NoError(t, err)
	assert.Len(t, res.Developers, 2)
	assert.Equal(t, 1, searcher.calls)
}

func TestSearch_Enrich(t *testing.T) {
	enricher := &fakeEnricher{}
	svc := newTestSearchService(SearchDeps{Searcher: &fakeSearcher{results: sampleResults}, Enricher: enricher})

	plain, err := svc.Search(context.Background(), model.SearchQuery{Query: "go"})
	require.NoError(t, err)
	assert.Zero(t, enricher.calls)
	assert.Empty(t, plain.Developers[0].Company)

	enriched, err := svc.Search(context.Background(), model.SearchQuery{Query: "go", Enrich: true})
	require.NoError(t, err)
	assert.Equal(t, 1, enricher.calls)
	assert.Equal(t, "Enriched Inc", enriched.Developers[0].Company)
}

func TestSearch_Save(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	svc := newTestSearchService(SearchDeps{
		Searcher: &fakeSearcher{results: sampleResults},
		Store:    store,
		Events:   pub,
	})

	_, err := svc.Search(context.Background(), model.SearchQuery{Query: "go"})
	require.NoError(t, err)
	assert.Empty(t, store.devs, "nothing is saved unless asked")

	res, err := svc.Search(context.Background(), model.SearchQuery{Query: "go", Save: true})
	require.NoError(t, err)

	require.Len(t, store.devs, 2)
	assert.Equal(t, res.Developers[0].ID, store.devs[0].ID)
	assert.Len(t, pub.published, 2)
}

func TestSearch_SaveFailureDoesNotFailSearch(t *testing.T) {
	store := &fakeStore{createErr: errBoom}
	pub := &fakePublisher{}
	svc := newTestSearchService(SearchDeps{
		Searcher: &fakeSearcher{results: sampleResults},
		Store:    store,
		Events:   pub,
	})

	res, err := svc.Search(context.Background(), model.SearchQuery{Query: "go", Save: true})

	require.NoError(t, err)
	assert.Len(t, res.Developers, 2)
	assert.Empty(t, pub.published, "failed saves are not announced")
}
