package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	customerrors "github.com/teenyweeny/urlshortener/internal/errors"
	"github.com/teenyweeny/urlshortener/internal/models"
)

// SortKey orders a list of links.
type SortKey string

const (
	SortNewest     SortKey = "newest"
	SortOldest     SortKey = "oldest"
	SortMostClicks SortKey = "most-clicks"
)

// ParseSortKey validates a sort key. An empty string means newest first.
func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortMostClicks:
		return key, nil
	default:
		return "", fmt.Errorf("%w: %q", customerrors.ErrInvalidSortKey, s)
	}
}

// FilterLinks keeps links whose original URL or short code contains term, ignoring case.
func FilterLinks(links []models.Link, term string) []models.Link {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return links
	}
	out := make([]models.Link, 0, len(links))
	for _, l := range links {
		if strings.Contains(strings.ToLower(l.OriginalURL), term) ||
			strings.Contains(strings.ToLower(l.ShortCode), term) {
			out = append(out, l)
		}
	}
	return out
}

// SortLinks sorts links in place by key. Ties keep their input order.
func SortLinks(links []models.Link, key SortKey) {
	slices.SortStableFunc(links, func(a, b models.Link) int {
		switch key {
		case SortOldest:
			return compareInt64(a.CreatedAt, b.CreatedAt)
		case SortMostClicks:
			return compareInt64(b.Clicks, a.Clicks)
		default:
			return compareInt64(b.CreatedAt, a.CreatedAt)
		}
	})
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// ListAll returns every stored link, expired-but-not-purged ones included.
func (s *LinkService) ListAll(ctx context.Context) ([]models.Link, error) {
	links, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, storeFailure("list", err)
	}
	return links, nil
}

// Search returns the links matching term, see FilterLinks.
func (s *LinkService) Search(ctx context.Context, term string) ([]models.Link, error) {
	links, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return FilterLinks(links, term), nil
}

// SortBy returns every link ordered by key.
func (s *LinkService) SortBy(ctx context.Context, key SortKey) ([]models.Link, error) {
	links, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	SortLinks(links, key)
	return links, nil
}

// List combines Search and SortBy, the way the dashboard queries links.
func (s *LinkService) List(ctx context.Context, term string, key SortKey) ([]models.Link, error) {
	links, err := s.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	SortLinks(links, key)
	return links, nil
}
