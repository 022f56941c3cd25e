// Package services contains the business logic layer for the URL shortener application
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/teenyweeny/urlshortener/internal/codegen"
	customerrors "github.com/teenyweeny/urlshortener/internal/errors"
	"github.com/teenyweeny/urlshortener/internal/models"
	"github.com/teenyweeny/urlshortener/internal/repository"
	"github.com/teenyweeny/urlshortener/internal/shorturl"
)

// maxAttempts bounds the generate-and-claim loop for random codes.
const maxAttempts = 5

// After longCodeAfter failed attempts, generated codes grow by one character.
const (
	longCodeAfter  = 4
	longCodeLength = codegen.DefaultLength + 1
)

// DefaultBaseURL is used for short URLs when no base is configured.
const DefaultBaseURL = "http://localhost:8080"

// LinkService owns every stateful operation on links.
// It acts as an intermediary between the HTTP handlers or CLI and the injected repository.
type LinkService struct {
	repo     repository.LinkRepository
	generate func(length int) string
	now      func() time.Time
	log      zerolog.Logger
	baseURL  string
}

// Option configures a LinkService.
type Option func(*LinkService)

// WithGenerator replaces the random code generator.
func WithGenerator(gen func(length int) string) Option {
	return func(s *LinkService) { s.generate = gen }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *LinkService) { s.now = now }
}

// WithLogger sets the logger used for collisions, evictions and tracking failures.
func WithLogger(log zerolog.Logger) Option {
	return func(s *LinkService) { s.log = log }
}

// WithBaseURL sets the default base of generated short URLs.
func WithBaseURL(base string) Option {
	return func(s *LinkService) {
		if base != "" {
			s.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// NewLinkService creates and returns a new instance of LinkService.
func NewLinkService(repo repository.LinkRepository, opts ...Option) *LinkService {
	s := &LinkService{
		repo:     repo,
		generate: codegen.GenerateCode,
		now:      time.Now,
		log:      zerolog.Nop(),
		baseURL:  DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOptions are the optional parts of a creation request.
// Empty strings mean "not provided".
type CreateOptions struct {
	CustomCode   string
	CustomDomain string
	ExpiresAt    *int64 // epoch ms, stored as given even if already past
}

func storeFailure(op string, err error) error {
	return customerrors.ErrStoreFailure{Op: op, Err: err}
}

// CreateLink validates the request, reserves a short code and persists the new link.
// Every validation happens before the repository is touched.
func (s *LinkService) CreateLink(ctx context.Context, originalURL string, opts CreateOptions) (*models.Link, error) {
	originalURL = codegen.EnsureScheme(originalURL)
	if !codegen.IsValidURL(originalURL) {
		return nil, customerrors.ErrInvalidURL
	}
	if opts.CustomCode != "" && !codegen.IsValidCustomCode(opts.CustomCode) {
		return nil, customerrors.ErrInvalidShortCode
	}

	var customDomain *string
	if d := strings.TrimSpace(opts.CustomDomain); d != "" {
		normalized, ok := codegen.NormalizeDomain(d)
		if !ok {
			return nil, customerrors.ErrInvalidDomain
		}
		customDomain = &normalized
	}

	link := &models.Link{
		OriginalURL:  originalURL,
		CreatedAt:    models.Millis(s.now()),
		CustomDomain: customDomain,
	}
	if opts.ExpiresAt != nil {
		v := *opts.ExpiresAt
		link.ExpiresAt = &v
	}

	if opts.CustomCode != "" {
		link.ShortCode = opts.CustomCode
		link.CustomCode = true
		inserted, err := s.repo.PutIfAbsent(ctx, link)
		if err != nil {
			return nil, storeFailure("create", err)
		}
		if !inserted {
			return nil, customerrors.ErrCodeUnavailable
		}
		s.log.Info().Str("code", link.ShortCode).Str("id", link.ID).Msg("custom short link created")
		return link, nil
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		length := codegen.DefaultLength
		if attempt > longCodeAfter {
			length = longCodeLength
		}
		link.ID = ""
		link.ShortCode = s.generate(length)

		inserted, err := s.repo.PutIfAbsent(ctx, link)
		if err != nil {
			return nil, storeFailure("create", err)
		}
		if inserted {
			s.log.Info().Str("code", link.ShortCode).Str("id", link.ID).Int("attempt", attempt).Msg("short link created")
			return link, nil
		}
		s.log.Debug().Str("code", link.ShortCode).Int("attempt", attempt).Int("max", maxAttempts).
			Msg("short code already exists, retrying generation")
	}

	s.log.Warn().Int("attempts", maxAttempts).Msg("short code generation exhausted")
	return nil, customerrors.ErrShortCodeGenerationFailed
}

// lookup finds the record for code without any expiry handling.
func (s *LinkService) lookup(ctx context.Context, code string) (*models.Link, error) {
	links, err := s.repo.FindBy(ctx, repository.FieldShortCode, code)
	if err != nil {
		return nil, storeFailure("lookup", err)
	}
	if len(links) == 0 {
		return nil, customerrors.ErrShortCodeNotFound
	}
	return &links[0], nil
}

// live returns the record for code, evicting it with ErrLinkExpired once past its expiry.
func (s *LinkService) live(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.lookup(ctx, code)
	if err != nil {
		return nil, err
	}
	if link.IsExpired(models.Millis(s.now())) {
		if _, err := s.repo.Remove(ctx, link.ID); err != nil {
			s.log.Warn().Err(err).Str("code", code).Msg("failed to evict expired link")
		} else {
			s.log.Info().Str("code", code).Msg("expired link evicted")
		}
		return nil, customerrors.ErrLinkExpired
	}
	return link, nil
}

// hideExpiry folds ErrLinkExpired into ErrShortCodeNotFound.
func hideExpiry(err error) error {
	if errors.Is(err, customerrors.ErrLinkExpired) {
		return customerrors.ErrShortCodeNotFound
	}
	return err
}

// Resolve returns the live link for code. Expired links are evicted and reported as not found.
// Clicks are not touched.
func (s *LinkService) Resolve(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.live(ctx, code)
	return link, hideExpiry(err)
}

// TrackClick resolves code and atomically adds one click.
// A failed increment is logged and the pre-increment record is returned without error.
func (s *LinkService) TrackClick(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.Visit(ctx, code)
	return link, hideExpiry(err)
}

// Visit is TrackClick for the redirect route: an expired link is still evicted
// but reported as ErrLinkExpired so it can be told apart from a missing one.
func (s *LinkService) Visit(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.live(ctx, code)
	if err != nil {
		return nil, err
	}

	clicks, found, err := s.repo.IncrementClicks(ctx, link.ID, 1)
	if err != nil {
		s.log.Warn().
			Err(customerrors.ErrClickRecordingFailed{LinkID: link.ID, Reason: err.Error()}).
			Str("code", code).
			Msg("click not recorded")
		return link, nil
	}
	if !found {
		// Deleted between lookup and increment.
		return nil, customerrors.ErrShortCodeNotFound
	}
	link.Clicks = clicks
	return link, nil
}

// DeleteLink removes the link with the given id. Deleting an unknown id is not an error.
// The boolean reports whether something was removed.
func (s *LinkService) DeleteLink(ctx context.Context, id string) (bool, error) {
	existed, err := s.repo.Remove(ctx, id)
	if err != nil {
		return false, storeFailure("delete", err)
	}
	if existed {
		s.log.Info().Str("id", id).Msg("link deleted")
	}
	return existed, nil
}

// PurgeExpired removes every expired link and returns how many were deleted.
// Failed removals don't stop the sweep; they are returned joined.
func (s *LinkService) PurgeExpired(ctx context.Context) (int, error) {
	links, err := s.repo.GetAll(ctx)
	if err != nil {
		return 0, storeFailure("purge", err)
	}

	now := models.Millis(s.now())
	deleted := 0
	var errs []error
	for i := range links {
		if !links[i].IsExpired(now) {
			continue
		}
		existed, err := s.repo.Remove(ctx, links[i].ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if existed {
			deleted++
		}
	}

	if len(errs) > 0 {
		return deleted, storeFailure("purge", errors.Join(errs...))
	}
	return deleted, nil
}

// IsCodeAvailable reports whether code is a valid custom code nobody holds yet.
func (s *LinkService) IsCodeAvailable(ctx context.Context, code string) (bool, error) {
	if !codegen.IsValidCustomCode(code) {
		return false, customerrors.ErrInvalidShortCode
	}
	links, err := s.repo.FindBy(ctx, repository.FieldShortCode, code)
	if err != nil {
		return false, storeFailure("lookup", err)
	}
	return len(links) == 0, nil
}

// SetExpiry changes or, with nil, removes the expiry of link id.
func (s *LinkService) SetExpiry(ctx context.Context, id string, expiresAt *int64) (bool, error) {
	patch := repository.LinkPatch{ExpiresAt: expiresAt, ClearExpiresAt: expiresAt == nil}
	found, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return false, storeFailure("update", err)
	}
	return found, nil
}

// FullShortURL returns the public short URL of link.
func (s *LinkService) FullShortURL(link *models.Link) string {
	return shorturl.Full(s.baseURL, link.ShortCode, link.CustomDomain)
}

// BaseURL returns the default base of short URLs.
func (s *LinkService) BaseURL() string {
	return s.baseURL
}

// Now returns the service clock's current time.
func (s *LinkService) Now() time.Time {
	return s.now()
}
