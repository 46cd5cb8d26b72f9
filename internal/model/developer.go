// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data: plain values with JSON tags,
// no behaviour beyond small helpers.
package model

import "time"

// Developer is a candidate record built from one search result.
//
// The JSON field names are the wire format the frontend (and the document
// store) already speak, so they stay camelCase.
//
// WHY *int FOR THE COUNTS?
// A snippet that doesn't mention followers is different from one that says
// "0 followers". A nil pointer is omitted from JSON; a zero is not.
type Developer struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	GitHubUsername string       `json:"githubUsername"`
	Location       string       `json:"location,omitempty"`
	Bio            string       `json:"bio,omitempty"`
	Languages      []string     `json:"languages"`
	Repositories   []Repository `json:"repositories"`
	ProfileURL     string       `json:"profileUrl"`
	AvatarURL      string       `json:"avatarUrl,omitempty"`
	Followers      *int         `json:"followers,omitempty"`
	Following      *int         `json:"following,omitempty"`
	PublicRepos    *int         `json:"publicRepos,omitempty"`
	Company        string       `json:"company,omitempty"`
	Blog           string       `json:"blog,omitempty"`
	Email          string       `json:"email,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Repository is a lightweight repository summary attached to a Developer.
// Snippet extraction only recovers the name; GitHub enrichment fills the rest.
type Repository struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	URL         string    `json:"url"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// IntPtr returns a pointer to n. Handy for the optional count fields.
func IntPtr(n int) *int {
	return &n
}

// DeveloperList is the response body of GET /api/developers.
//
// Languages is the sorted set of tags across every saved candidate, not
// just the ones that survived filtering, so a UI can build its filter menu.
type DeveloperList struct {
	Developers []Developer `json:"developers"`
	Languages  []string    `json:"languages"`
}
