package catalog

import (
	"context"
	"strings"

	"review-sentiment/internal/common/errors"
	"review-sentiment/internal/common/logger"
	"review-sentiment/internal/models"
)

// Searcher is the catalog search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
}

// tier is one matching strategy. Tiers are tried in order and the first one
// with any match decides the result.
type tier struct {
	name  string
	match func(title, query string) bool
}

var tiers = []tier{
	{name: "exact", match: func(title, query string) bool { return title == query }},
	{name: "substring", match: strings.Contains},
	{name: "fallback", match: func(string, string) bool { return true }},
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// MostInstalled returns the candidate with the highest install count. Ties go
// to the earliest candidate. ok is false for an empty slice.
func MostInstalled(candidates []models.Candidate) (best models.Candidate, ok bool) {
	for i, c := range candidates {
		if i == 0 || c.Installs > best.Installs {
			best = c
		}
	}
	return best, len(candidates) > 0
}

// Pick applies the tiers to candidates for query and reports the winning tier.
func Pick(candidates []models.Candidate, query string) (models.Candidate, string, bool) {
	q := fold(query)
	for _, t := range tiers {
		matched := make([]models.Candidate, 0, len(candidates))
		for _, c := range candidates {
			if t.match(fold(c.Title), q) {
				matched = append(matched, c)
			}
		}
		if best, ok := MostInstalled(matched); ok {
			return best, t.name, true
		}
	}
	return models.Candidate{}, "", false
}

// ToCandidates parses install counts of raw search results, keeping order.
func ToCandidates(results []models.SearchResult) []models.Candidate {
	candidates := make([]models.Candidate, len(results))
	for i, r := range results {
		candidates[i] = models.Candidate{
			AppInfo:  models.AppInfo{AppID: r.AppID, Title: r.Title},
			Installs: ParseInstalls(r.Installs),
			Score:    r.Score,
		}
	}
	return candidates
}

// Resolver maps a free-text app name to a catalog identifier.
type Resolver struct {
	searcher Searcher
	logger   logger.Logger
}

func NewResolver(searcher Searcher, log logger.Logger) *Resolver {
	return &Resolver{searcher: searcher, logger: log}
}

// Resolve returns the identifier of the best candidate for appName.
func (r *Resolver) Resolve(ctx context.Context, appName string) (string, error) {
	results, err := r.searcher.Search(ctx, appName)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeSearchFailed) {
			return "", err
		}
		return "", errors.NewSearchFailedError(appName, err)
	}

	best, tierName, ok := Pick(ToCandidates(results), appName)
	if !ok {
		return "", errors.NewAppNotFoundError(appName)
	}

	r.logger.Debug("app resolved", map[string]interface{}{
		"appName":    appName,
		"appId":      best.AppID,
		"title":      best.Title,
		"tier":       tierName,
		"installs":   best.Installs,
		"candidates": len(results),
	})
	return best.AppID, nil
}
