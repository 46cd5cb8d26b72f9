package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/sakif/intellicrawl/internal/apperror"
	"github.com/sakif/intellicrawl/internal/events"
	"github.com/sakif/intellicrawl/internal/model"
	"github.com/sakif/intellicrawl/internal/repository"
)

// ListFilter narrows the saved-candidate list. Empty fields match everything.
type ListFilter struct {
	// Query matches name, GitHub username or location, case-insensitively.
	Query string
	// Language matches any language tag by case-insensitive substring.
	Language string
}

// DeveloperService manages saved candidates.
type DeveloperService struct {
	repo   repository.DeveloperRepository
	events events.Publisher
	logger *slog.Logger
}

// NewDeveloperService creates a DeveloperService. publisher may be nil.
func NewDeveloperService(repo repository.DeveloperRepository, publisher events.Publisher, logger *slog.Logger) *DeveloperService {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &DeveloperService{
		repo:   repo,
		events: publisher,
		logger: logger,
	}
}

// List returns the saved candidates matching f, newest first, along with
// the language facet of the whole unfiltered list.
func (s *DeveloperService) List(ctx context.Context, f ListFilter) (*model.DeveloperList, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing developers: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(f.Query))
	lang := strings.ToLower(strings.TrimSpace(f.Language))

	filtered := make([]model.Developer, 0, len(all))
	for _, dev := range all {
		if q != "" && !matchesQuery(dev, q) {
			continue
		}
		if lang != "" && !matchesLanguage(dev, lang) {
			continue
		}
		filtered = append(filtered, dev)
	}

	return &model.DeveloperList{
		Developers: filtered,
		Languages:  languageFacet(all),
	}, nil
}

// Create saves dev as a new record. Only the GitHub username is required.
// Any id or timestamps the caller sent are dropped: the store assigns
// them, so a request can never replace an existing record.
func (s *DeveloperService) Create(ctx context.Context, dev *model.Developer) (*model.Developer, error) {
	if dev == nil {
		return nil, apperror.ValidationFailed("developer", "Developer data is required")
	}
	dev.GitHubUsername = strings.TrimSpace(dev.GitHubUsername)
	if dev.GitHubUsername == "" {
		return nil, apperror.ValidationFailed("githubUsername", "githubUsername is required")
	}
	dev.ID = ""
	dev.CreatedAt = time.Time{}
	dev.UpdatedAt = time.Time{}
	if dev.Name == "" {
		dev.Name = dev.GitHubUsername
	}
	if dev.ProfileURL == "" {
		dev.ProfileURL = "https://github.com/" + dev.GitHubUsername
	}
	if dev.Languages == nil {
		dev.Languages = []string{}
	}
	if dev.Repositories == nil {
		dev.Repositories = []model.Repository{}
	}

	if err := s.repo.Create(ctx, dev); err != nil {
		return nil, fmt.Errorf("creating developer: %w", err)
	}

	s.logger.Info("developer saved",
		slog.String("id", dev.ID),
		slog.String("username", dev.GitHubUsername),
	)
	publish(ctx, s.events, s.logger, *dev)
	return dev, nil
}

// Delete removes the candidate with id. Deleting an unknown id succeeds.
func (s *DeveloperService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.ValidationFailed("id", "Developer ID is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting developer %s: %w", id, err)
	}
	s.logger.Info("developer deleted", slog.String("id", id))
	return nil
}

func matchesQuery(dev model.Developer, q string) bool {
	for _, field := range []string{dev.Name, dev.GitHubUsername, dev.Location} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func matchesLanguage(dev model.Developer, lang string) bool {
	for _, l := range dev.Languages {
		if strings.Contains(strings.ToLower(l), lang) {
			return true
		}
	}
	return false
}

// languageFacet returns the distinct language tags of devs, sorted.
func languageFacet(devs []model.Developer) []string {
	seen := make(map[string]bool)
	for _, dev := range devs {
		for _, l := range dev.Languages {
			seen[l] = true
		}
	}
	out := make([]string, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
