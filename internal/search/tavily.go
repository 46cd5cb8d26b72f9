package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the hosted Tavily API.
	DefaultBaseURL = "https://api.tavily.com"

	DefaultMaxResults = 10
	// DefaultTimeout bounds one Tavily call when the config leaves it unset.
	DefaultTimeout = 30 * time.Second
	// MaxResultsLimit is the most results Tavily returns for one query.
	MaxResultsLimit = 20
)

// Searcher runs one web search and returns the raw result items.
// The Tavily client implements it; tests use a fake.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// TavilyConfig configures the Tavily client.
type TavilyConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// TavilyClient calls the Tavily /search endpoint.
//
// There is no Go SDK for Tavily, so this is a plain net/http client: one
// POST, one JSON decode. No retries; a failed call is the caller's problem.
type TavilyClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

var _ Searcher = (*TavilyClient)(nil)

// NewTavilyClient creates a client. An empty BaseURL means DefaultBaseURL.
func NewTavilyClient(cfg TavilyConfig) *TavilyClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TavilyClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains"`
	MaxResults     int      `json:"max_results"`
}

type tavilyResponse struct {
	Query   string   `json:"query"`
	Results []Result `json:"results"`
}

// Search posts query to Tavily, restricted to github.com at advanced depth.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	body, err := json.Marshal(tavilyRequest{
		APIKey:         c.apiKey,
		Query:          query,
		SearchDepth:    "advanced",
		IncludeDomains: []string{"github.com"},
		MaxResults:     maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("tavily: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a little of the body for the log line; never the whole thing.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily: unexpected status %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	var out tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tavily: decoding response: %w", err)
	}

	return out.Results, nil
}
