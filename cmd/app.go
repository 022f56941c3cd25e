package cmd

import (
	"context"

	"github.com/teenyweeny/urlshortener/internal/repository"
	"github.com/teenyweeny/urlshortener/internal/services"
)

// OpenLinkService opens the configured repository and builds the service on top of it.
// The returned function releases the repository.
func OpenLinkService(ctx context.Context) (*services.LinkService, func() error, error) {
	repo, closeRepo, err := repository.Open(ctx, Cfg, Log)
	if err != nil {
		return nil, nil, err
	}

	svc := services.NewLinkService(repo,
		services.WithLogger(Log),
		services.WithBaseURL(Cfg.Server.BaseURL),
	)
	return svc, closeRepo, nil
}
