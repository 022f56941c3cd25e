package services

import (
	"context"

	"github.com/teenyweeny/urlshortener/internal/models"
)

// topPerformersLimit is how many links Stats ranks.
const topPerformersLimit = 5

// Overview aggregates click counters across all links.
type Overview struct {
	TotalLinks    int           `json:"total_links"`
	TotalClicks   int64         `json:"total_clicks"`
	AverageClicks float64       `json:"average_clicks_per_link"`
	TopPerformers []models.Link `json:"top_performers"`
}

// Stats computes the overview from the current set of links.
func (s *LinkService) Stats(ctx context.Context) (*Overview, error) {
	links, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	o := &Overview{TotalLinks: len(links)}
	for _, l := range links {
		o.TotalClicks += l.Clicks
	}
	if o.TotalLinks > 0 {
		o.AverageClicks = float64(o.TotalClicks) / float64(o.TotalLinks)
	}

	SortLinks(links, SortMostClicks)
	o.TopPerformers = links[:min(topPerformersLimit, len(links))]
	return o, nil
}
