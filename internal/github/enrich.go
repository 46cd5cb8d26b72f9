// Package github replaces snippet-derived candidate fields with data from
// the GitHub REST API.
//
// The extractor only sees a search snippet, so followers, repositories and
// the like are guesses or placeholders. When a token is configured, the
// enricher looks each handle up and overwrites those fields with the real
// values.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/search"
)

const (
	// TopRepositories is how many recently updated repositories are kept.
	TopRepositories = 5
	// concurrency bounds parallel lookups; GitHub's secondary rate limits
	// punish bursts.
	concurrency = 4
)

// Enricher looks candidates up on GitHub.
type Enricher struct {
	client *gh.Client
	logger *slog.Logger
}

// New creates an Enricher authenticated with token.
func New(token string, logger *slog.Logger) *Enricher {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	return &Enricher{client: gh.NewClient(tc), logger: logger}
}

// WithBaseURL points the client at another API root, e.g. GitHub
// Enterprise or a test server. baseURL must end in a slash.
func (e *Enricher) WithBaseURL(baseURL string) (*Enricher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("github: parsing base url: %w", err)
	}
	e.client.BaseURL = u
	return e, nil
}

// Enrich fetches the profile and recent repositories for dev.GitHubUsername
// and merges them into dev. On error dev is left unchanged.
func (e *Enricher) Enrich(ctx context.Context, dev *model.Developer) error {
	user, _, err := e.client.Users.Get(ctx, dev.GitHubUsername)
	if err != nil {
		return fmt.Errorf("github: getting user %s: %w", dev.GitHubUsername, err)
	}

	repos, _, err := e.client.Repositories.List(ctx, dev.GitHubUsername, &gh.RepositoryListOptions{
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{PerPage: TopRepositories},
	})
	if err != nil {
		return fmt.Errorf("github: listing repositories for %s: %w", dev.GitHubUsername, err)
	}

	merge(dev, user, repos)
	return nil
}

// EnrichAll enriches devs in place. A failed lookup is logged and leaves
// that developer as extracted.
func (e *Enricher) EnrichAll(ctx context.Context, devs []model.Developer) {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range devs {
		wg.Add(1)
		sem <- struct{}{}
		go func(dev *model.Developer) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := e.Enrich(ctx, dev); err != nil {
				e.logger.Warn("enrichment failed",
					slog.String("username", dev.GitHubUsername),
					slog.String("error", err.Error()),
				)
			}
		}(&devs[i])
	}

	wg.Wait()
}

// merge overwrites dev's fields with the non-empty GitHub values.
func merge(dev *model.Developer, user *gh.User, repos []*gh.Repository) {
	setString(&dev.Name, user.GetName())
	setString(&dev.Bio, user.GetBio())
	setString(&dev.Location, user.GetLocation())
	setString(&dev.Company, user.GetCompany())
	setString(&dev.Blog, user.GetBlog())
	setString(&dev.Email, user.GetEmail())
	setString(&dev.AvatarURL, user.GetAvatarURL())
	setString(&dev.ProfileURL, user.GetHTMLURL())

	dev.Followers = model.IntPtr(user.GetFollowers())
	dev.Following = model.IntPtr(user.GetFollowing())
	dev.PublicRepos = model.IntPtr(user.GetPublicRepos())

	if len(repos) > TopRepositories {
		repos = repos[:TopRepositories]
	}
	summaries := make([]model.Repository, 0, len(repos))
	for _, r := range repos {
		summaries = append(summaries, model.Repository{
			Name:        r.GetName(),
			Description: r.GetDescription(),
			Language:    r.GetLanguage(),
			Stars:       r.GetStargazersCount(),
			Forks:       r.GetForksCount(),
			URL:         r.GetHTMLURL(),
			LastUpdated: r.GetUpdatedAt().Time,
		})
	}
	dev.Repositories = summaries
	dev.Languages = mergeLanguages(dev.Languages, summaries)
}

// mergeLanguages adds repository languages that belong to the known
// vocabulary, keeping vocabulary order.
func mergeLanguages(current []string, repos []model.Repository) []string {
	seen := map[string]bool{}
	for _, l := range current {
		seen[l] = true
	}
	for _, r := range repos {
		if slices.Contains(search.KnownLanguages, r.Language) {
			seen[r.Language] = true
		}
	}

	out := []string{}
	for _, l := range search.KnownLanguages {
		if seen[l] {
			out = append(out, l)
		}
	}
	return out
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
