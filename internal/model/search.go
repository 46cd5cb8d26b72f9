package model

import "time"

// SearchQuery is the structured search request accepted by POST /api/search.
//
// Query is required; everything else is optional. Enrich and Save are
// request-level switches: Enrich asks for real GitHub data on every hit,
// Save persists every hit through the candidate store.
type SearchQuery struct {
	Query        string   `json:"query"`
	Location     string   `json:"location,omitempty"`
	Languages    []string `json:"languages,omitempty"`
	MinFollowers *int     `json:"minFollowers,omitempty"`
	MaxResults   *int     `json:"maxResults,omitempty"`
	Enrich       bool     `json:"enrich,omitempty"`
	Save         bool     `json:"save,omitempty"`
}

// SearchResult is the response body of POST /api/search.
type SearchResult struct {
	Developers  []Developer `json:"developers"`
	TotalFound  int         `json:"totalFound"`
	SearchQuery string      `json:"searchQuery"`
	Timestamp   time.Time   `json:"timestamp"`
}
