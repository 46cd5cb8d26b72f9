package search

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/intellicrawl/internal/model"
)

// Result is one item returned by the search API.
type Result struct {
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// MaxSnippetRepositories caps how many "repository: ..." lines become
// repository summaries.
const MaxSnippetRepositories = 5

// KnownLanguages is the fixed technology vocabulary detected in snippets.
// Detection order follows this slice, not the snippet.
var KnownLanguages = []string{
	"JavaScript", "TypeScript", "Python", "Java", "Go", "Rust", "C++", "C#",
	"PHP", "Ruby", "Swift", "Kotlin", "React", "Vue", "Angular", "Node.js",
}

// reservedSegments are github.com/<segment> paths that are never a person.
var reservedSegments = map[string]bool{
	"orgs":        true,
	"topics":      true,
	"collections": true,
	"marketplace": true,
}

// REGEX COMPILATION:
// regexp.MustCompile panics on a bad pattern, so these fail at init time
// rather than on the first request. Compile once, reuse forever.
var (
	profilePattern   = regexp.MustCompile(`github\.com/([^/?#]+)`)
	titleNamePattern = regexp.MustCompile(`^([^·]+)·`)
	namePattern      = regexp.MustCompile(`(?i)name[:\s]+([^\n\r,]+)`)
	locationPattern  = regexp.MustCompile(`(?i)location[:\s]+([^\n\r,]+)`)
	bioPattern       = regexp.MustCompile(`(?i)bio[:\s]+([^\n\r]+)`)
	companyPattern   = regexp.MustCompile(`(?i)company[:\s]+([^\n\r,]+)`)
	blogPattern      = regexp.MustCompile(`(?i)blog[:\s]+(https?://\S+)`)
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	repoPattern      = regexp.MustCompile(`(?i)repository[:\s]+([^\n\r]+)`)
	followersPattern = regexp.MustCompile(`(?i)(\d+)\s+followers?`)
	followingPattern = regexp.MustCompile(`(?i)(\d+)\s+following`)
	reposPattern     = regexp.MustCompile(`(?i)(\d+)\s+repositories?`)
)

// Extractor turns search results into candidate records.
//
// Now and NewID are injectable so tests can pin timestamps and ids.
// The zero value is usable: it falls back to time.Now and xid.
type Extractor struct {
	Now    func() time.Time
	NewID  func() string
	Logger *slog.Logger
}

// NewExtractor returns an Extractor with the production clock and id source.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{
		Now:    time.Now,
		NewID:  func() string { return xid.New().String() },
		Logger: logger,
	}
}

// Username returns the GitHub handle in url, or "" when url isn't an
// individual profile (no github.com/<segment>, or a reserved segment).
func Username(url string) string {
	m := profilePattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	if reservedSegments[m[1]] {
		return ""
	}
	return m[1]
}

// Parse builds a Developer from one result. It returns nil when the URL
// isn't a recognisable profile; every other field degrades to "absent".
func (e *Extractor) Parse(r Result) *model.Developer {
	username := Username(r.URL)
	if username == "" {
		return nil
	}

	now := e.now()
	followers, following, publicRepos := extractStats(r.Content)

	name := extractName(r.Title, r.Content)
	if name == "" {
		name = username
	}

	return &model.Developer{
		ID:             e.newID(),
		Name:           name,
		GitHubUsername: username,
		Location:       firstMatch(locationPattern, r.Content),
		Bio:            firstMatch(bioPattern, r.Content),
		Languages:      ExtractLanguages(r.Content),
		Repositories:   extractRepositories(r.Content, now),
		ProfileURL:     "https://github.com/" + username,
		AvatarURL:      "https://github.com/" + username + ".png",
		Followers:      followers,
		Following:      following,
		PublicRepos:    publicRepos,
		Company:        firstMatch(companyPattern, r.Content),
		Blog:           firstMatch(blogPattern, r.Content),
		Email:          emailPattern.FindString(r.Content),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// ParseAll parses every result and silently drops the ones that aren't profiles.
func (e *Extractor) ParseAll(results []Result) []model.Developer {
	developers := make([]model.Developer, 0, len(results))
	for _, r := range results {
		dev := e.Parse(r)
		if dev == nil {
			if e.Logger != nil {
				e.Logger.Debug("skipping non-profile result", slog.String("url", r.URL))
			}
			continue
		}
		developers = append(developers, *dev)
	}
	return developers
}

// ExtractLanguages returns the vocabulary entries that appear in content,
// case-insensitively, in vocabulary order. Plain substring search: "Java"
// also matches inside "JavaScript".
func ExtractLanguages(content string) []string {
	lower := strings.ToLower(content)
	languages := []string{}
	for _, lang := range KnownLanguages {
		if strings.Contains(lower, strings.ToLower(lang)) {
			languages = append(languages, lang)
		}
	}
	return languages
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Extractor) newID() string {
	if e.NewID != nil {
		return e.NewID()
	}
	return xid.New().String()
}

func extractName(title, content string) string {
	if m := titleNamePattern.FindStringSubmatch(title); m != nil {
		if name := strings.TrimSpace(m[1]); name != "" {
			return name
		}
	}
	return firstMatch(namePattern, content)
}

// firstMatch returns the trimmed first capture group of re in s, or "".
func firstMatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// extractRepositories builds placeholder summaries from "repository: <name>"
// lines. Only the name is known; stars, forks and the rest stay zero.
func extractRepositories(content string, now time.Time) []model.Repository {
	repos := []model.Repository{}
	for _, m := range repoPattern.FindAllStringSubmatch(content, MaxSnippetRepositories) {
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		repos = append(repos, model.Repository{
			Name:        name,
			LastUpdated: now,
		})
	}
	return repos
}

func extractStats(content string) (followers, following, publicRepos *int) {
	return matchInt(followersPattern, content),
		matchInt(followingPattern, content),
		matchInt(reposPattern, content)
}

func matchInt(re *regexp.Regexp, s string) *int {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Only overflow gets here; \d+ guarantees digits.
		return nil
	}
	return &n
}
