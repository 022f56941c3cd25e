package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/teenyweeny/urlshortener/internal/codegen"
	customerrors "github.com/teenyweeny/urlshortener/internal/errors"
	"github.com/teenyweeny/urlshortener/internal/models"
	"github.com/teenyweeny/urlshortener/internal/services"
	"github.com/teenyweeny/urlshortener/internal/shorturl"
)

// SetupRoutes configures all Gin API routes and injects necessary dependencies
// Parameters:
//   - router: Gin engine instance to configure routes on
//   - linkService: business logic service for link operations
//   - log: base logger, attached to every request by RequestLogger
func SetupRoutes(router *gin.Engine, linkService *services.LinkService, log zerolog.Logger) {
	router.Use(RequestLogger(log), gin.Recovery())
	router.SetHTMLTemplate(pages)

	// Health Check Route - used for monitoring service availability
	router.GET("/health", HealthCheckHandler)

	// API Routes Group - all business logic endpoints under /api/v1 prefix
	api := router.Group("/api/v1")
	{
		api.POST("/links", CreateShortLinkHandler(linkService))
		api.GET("/links", ListLinksHandler(linkService))
		api.DELETE("/links/:id", DeleteLinkHandler(linkService))
		api.PATCH("/links/:id/expiry", SetExpiryHandler(linkService))
		api.GET("/links/:shortCode/stats", GetLinkStatsHandler(linkService))
		api.GET("/codes/:code/availability", CodeAvailabilityHandler(linkService))
		api.POST("/purge", PurgeHandler(linkService))
		api.GET("/stats", OverviewHandler(linkService))
	}

	// Redirection Route - where users access their short URLs (e.g., localhost:8080/r/abcd)
	router.GET(shorturl.RedirectPrefix+":shortCode", RedirectHandler(linkService))
}

// HealthCheckHandler handles the /health route to verify service status
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps service errors onto HTTP status codes and client safe messages.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, customerrors.ErrInvalidURL),
		errors.Is(err, customerrors.ErrInvalidShortCode),
		errors.Is(err, customerrors.ErrInvalidDomain),
		errors.Is(err, customerrors.ErrInvalidSortKey):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, customerrors.ErrCodeUnavailable):
		return http.StatusConflict, err.Error()
	case errors.Is(err, customerrors.ErrShortCodeGenerationFailed):
		return http.StatusServiceUnavailable, "Unable to generate unique short code. Please try again later."
	case errors.Is(err, customerrors.ErrShortCodeNotFound), errors.Is(err, customerrors.ErrLinkExpired):
		return http.StatusNotFound, "Short URL not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// abortWithError writes the mapped error response; server side failures are logged.
func abortWithError(c *gin.Context, err error, msg string) {
	status, text := statusFor(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg(msg)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": text})
}

// LinkResponse is the public representation of a stored link
type LinkResponse struct {
	ID           string  `json:"id"`
	ShortCode    string  `json:"short_code"`
	LongURL      string  `json:"long_url"`
	FullShortURL string  `json:"full_short_url"`
	Clicks       int64   `json:"total_clicks"`
	CreatedAt    int64   `json:"created_at"`
	CreatedAgo   string  `json:"created_ago"`
	ExpiresAt    *int64  `json:"expires_at"`
	ExpiresIn    string  `json:"expires_in"`
	CustomCode   bool    `json:"custom_code"`
	CustomDomain *string `json:"custom_domain,omitempty"`
}

func newLinkResponse(linkService *services.LinkService, link *models.Link) LinkResponse {
	now := linkService.Now()
	return LinkResponse{
		ID:           link.ID,
		ShortCode:    link.ShortCode,
		LongURL:      link.OriginalURL,
		FullShortURL: linkService.FullShortURL(link),
		Clicks:       link.Clicks,
		CreatedAt:    link.CreatedAt,
		CreatedAgo:   shorturl.TimeAgo(link.CreatedAt, now),
		ExpiresAt:    link.ExpiresAt,
		ExpiresIn:    shorturl.FormatExpiration(link.ExpiresAt, now),
		CustomCode:   link.CustomCode,
		CustomDomain: link.CustomDomain,
	}
}

func newLinkResponses(linkService *services.LinkService, links []models.Link) []LinkResponse {
	out := make([]LinkResponse, len(links))
	for i := range links {
		out[i] = newLinkResponse(linkService, &links[i])
	}
	return out
}

// expiryFields is shared by creation and expiry updates.
// At most one of the two fields may be set.
type expiryFields struct {
	ExpiresInMinutes int    `json:"expires_in_minutes" binding:"omitempty,gt=0"`
	ExpiresAt        *int64 `json:"expires_at"` // epoch milliseconds
}

var errAmbiguousExpiry = errors.New("only one of 'expires_in_minutes' or 'expires_at' may be provided")

func (f expiryFields) resolve(now time.Time) (*int64, error) {
	switch {
	case f.ExpiresInMinutes > 0 && f.ExpiresAt != nil:
		return nil, errAmbiguousExpiry
	case f.ExpiresInMinutes > 0:
		at := now.Add(time.Duration(f.ExpiresInMinutes) * time.Minute).UnixMilli()
		return &at, nil
	default:
		return f.ExpiresAt, nil
	}
}

// CreateLinkRequest represents the JSON request body for creating one or multiple links
// Supports both single URL and multiple URLs formats:
// Single: {"long_url": "https://example.com", "custom_code": "docs"}
// Multiple: {"long_urls": ["https://example.com", "https://google.com"]}
// custom_domain and the expiry apply to every URL of the request.
type CreateLinkRequest struct {
	LongURL      string   `json:"long_url"`
	LongURLs     []string `json:"long_urls"`
	CustomCode   string   `json:"custom_code"`
	CustomDomain string   `json:"custom_domain"`
	expiryFields
}

// CreateLinkResponse represents one element of a batch creation
type CreateLinkResponse struct {
	LongURL string        `json:"long_url"`
	Success bool          `json:"success"`
	Link    *LinkResponse `json:"link,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// CreateLinksResponse represents the response for multiple link creation
type CreateLinksResponse struct {
	Results []CreateLinkResponse `json:"results"`
	Summary struct {
		Total      int `json:"total"`
		Successful int `json:"successful"`
		Failed     int `json:"failed"`
	} `json:"summary"`
}

// CreateShortLinkHandler handles the creation of one or multiple shortened URLs
// It automatically detects the request format and routes to appropriate processing logic
func CreateShortLinkHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		var urlsToProcess []string
		if req.LongURL != "" {
			urlsToProcess = append(urlsToProcess, req.LongURL)
		}
		urlsToProcess = append(urlsToProcess, req.LongURLs...)

		if len(urlsToProcess) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Either 'long_url' or 'long_urls' must be provided"})
			return
		}
		// A custom code can only name one link.
		if req.CustomCode != "" && len(urlsToProcess) > 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "'custom_code' cannot be used with multiple URLs"})
			return
		}

		expiresAt, err := req.resolve(linkService.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		opts := services.CreateOptions{
			CustomCode:   req.CustomCode,
			CustomDomain: req.CustomDomain,
			ExpiresAt:    expiresAt,
		}

		if len(urlsToProcess) > 1 {
			handleMultipleURLs(c, linkService, urlsToProcess, opts)
			return
		}
		handleSingleURL(c, linkService, urlsToProcess[0], opts)
	}
}

func handleSingleURL(c *gin.Context, linkService *services.LinkService, longURL string, opts services.CreateOptions) {
	link, err := linkService.CreateLink(c.Request.Context(), longURL, opts)
	if err != nil {
		abortWithError(c, err, "error creating link")
		return
	}
	c.JSON(http.StatusCreated, newLinkResponse(linkService, link))
}

// handleMultipleURLs provides detailed results for each URL and aggregate statistics.
// Some URLs may succeed even if others fail, which is reported as 207 Multi-Status.
func handleMultipleURLs(c *gin.Context, linkService *services.LinkService, urls []string, opts services.CreateOptions) {
	var response CreateLinksResponse
	response.Results = make([]CreateLinkResponse, 0, len(urls))

	for _, longURL := range urls {
		result := CreateLinkResponse{LongURL: longURL}

		link, err := linkService.CreateLink(c.Request.Context(), longURL, opts)
		if err != nil {
			status, text := statusFor(err)
			if status >= http.StatusInternalServerError {
				zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("long_url", longURL).Msg("error creating link")
			}
			result.Error = text
			response.Summary.Failed++
		} else {
			resp := newLinkResponse(linkService, link)
			result.Success = true
			result.Link = &resp
			response.Summary.Successful++
		}
		response.Results = append(response.Results, result)
	}
	response.Summary.Total = len(urls)

	status := http.StatusCreated
	if response.Summary.Failed > 0 {
		status = http.StatusMultiStatus
	}
	c.JSON(status, response)
}

// ListLinksHandler lists links, optionally filtered by ?q= and ordered by ?sort=
func ListLinksHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := services.ParseSortKey(c.Query("sort"))
		if err != nil {
			abortWithError(c, err, "")
			return
		}

		links, err := linkService.List(c.Request.Context(), c.Query("q"), key)
		if err != nil {
			abortWithError(c, err, "error listing links")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"links": newLinkResponses(linkService, links),
			"count": len(links),
		})
	}
}

// DeleteLinkHandler removes a link by id. Deleting twice is fine, the second call reports deleted=false.
func DeleteLinkHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		removed, err := linkService.DeleteLink(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err, "error deleting link")
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "deleted": removed})
	}
}

// SetExpiryHandler changes the expiry of a link. An empty body removes it.
func SetExpiryHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req expiryFields
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
				return
			}
		}
		expiresAt, err := req.resolve(linkService.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id := c.Param("id")
		found, err := linkService.SetExpiry(c.Request.Context(), id, expiresAt)
		if err != nil {
			abortWithError(c, err, "error updating expiry")
			return
		}
		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":         id,
			"expires_at": expiresAt,
			"expires_in": shorturl.FormatExpiration(expiresAt, linkService.Now()),
		})
	}
}

// GetLinkStatsHandler handles the retrieval of statistics for a specific link
// Reading stats does not count as a click
func GetLinkStatsHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, err := linkService.Resolve(c.Request.Context(), c.Param("shortCode"))
		if err != nil {
			abortWithError(c, err, "error retrieving stats")
			return
		}
		c.JSON(http.StatusOK, newLinkResponse(linkService, link))
	}
}

// CodeAvailabilityHandler reports whether a custom code can still be claimed.
func CodeAvailabilityHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		available, err := linkService.IsCodeAvailable(c.Request.Context(), code)
		if err != nil {
			abortWithError(c, err, "error checking code availability")
			return
		}
		c.JSON(http.StatusOK, gin.H{"code": code, "available": available})
	}
}

// PurgeHandler deletes every expired link right away, without waiting for the sweeper.
func PurgeHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		deleted, err := linkService.PurgeExpired(c.Request.Context())
		if err != nil {
			abortWithError(c, err, "error purging expired links")
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}

// OverviewHandler returns aggregated click counters across all links.
func OverviewHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := linkService.Stats(c.Request.Context())
		if err != nil {
			abortWithError(c, err, "error computing stats")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"total_links":             o.TotalLinks,
			"total_clicks":            o.TotalClicks,
			"average_clicks_per_link": o.AverageClicks,
			"top_performers":          newLinkResponses(linkService, o.TopPerformers),
		})
	}
}

// RedirectHandler handles the redirection from short URL to original URL
// Every successful visit counts one click before the 302 is sent.
func RedirectHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		shortCode := c.Param("shortCode")

		link, err := linkService.Visit(c.Request.Context(), shortCode)
		switch {
		case errors.Is(err, customerrors.ErrLinkExpired):
			renderPage(c, http.StatusGone, expiredPage, shortCode)
			return
		case errors.Is(err, customerrors.ErrShortCodeNotFound):
			renderPage(c, http.StatusNotFound, notFoundPage, shortCode)
			return
		case err != nil:
			zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("code", shortCode).Msg("error resolving short code")
			renderPage(c, http.StatusInternalServerError, errorPage, shortCode)
			return
		}

		c.Redirect(http.StatusFound, codegen.EnsureScheme(link.OriginalURL))
	}
}
