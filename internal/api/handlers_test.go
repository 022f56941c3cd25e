package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teenyweeny/urlshortener/internal/models"
	"github.com/teenyweeny/urlshortener/internal/repository"
	"github.com/teenyweeny/urlshortener/internal/services"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	svc    *services.LinkService
	repo   *repository.MemoryLinkRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := repository.NewMemoryLinkRepository()
	svc := services.NewLinkService(repo,
		services.WithClock(func() time.Time { return fixedNow }),
		services.WithBaseURL("https://sho.rt"),
	)
	router := gin.New()
	SetupRoutes(router, svc, zerolog.Nop())
	return &testServer{router: router, svc: svc, repo: repo}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) create(t *testing.T, body string) LinkResponse {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/links", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp LinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateSingleLink(t *testing.T) {
	s := newTestServer(t)

	resp := s.create(t, `{"long_url":"example.com/docs"}`)
	assert.Len(t, resp.ShortCode, 4)
	assert.Equal(t, "https://example.com/docs", resp.LongURL)
	assert.Equal(t, "https://sho.rt/r/"+resp.ShortCode, resp.FullShortURL)
	assert.Equal(t, "Never", resp.ExpiresIn)
	assert.Equal(t, "just now", resp.CreatedAgo)
	assert.NotEmpty(t, resp.ID)
}

func TestCreateLinkWithOptions(t *testing.T) {
	s := newTestServer(t)

	resp := s.create(t, `{"long_url":"https://example.com","custom_code":"docs","custom_domain":"go.example.com","expires_in_minutes":90}`)
	assert.Equal(t, "docs", resp.ShortCode)
	assert.True(t, resp.CustomCode)
	assert.Equal(t, "https://go.example.com/r/docs", resp.FullShortURL)
	require.NotNil(t, resp.ExpiresAt)
	assert.Equal(t, fixedNow.Add(90*time.Minute).UnixMilli(), *resp.ExpiresAt)
	assert.Equal(t, "1 hour", resp.ExpiresIn)
}

func TestCreateLinkErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"long_url":`, http.StatusBadRequest},
		{"no url", `{}`, http.StatusBadRequest},
		{"invalid url", `{"long_url":"http://[::1"}`, http.StatusBadRequest},
		{"invalid custom code", `{"long_url":"https://example.com","custom_code":"a b"}`, http.StatusBadRequest},
		{"invalid domain", `{"long_url":"https://example.com","custom_domain":"nodot"}`, http.StatusBadRequest},
		{"negative minutes", `{"long_url":"https://example.com","expires_in_minutes":-5}`, http.StatusBadRequest},
		{"both expiries", `{"long_url":"https://example.com","expires_in_minutes":5,"expires_at":1}`, http.StatusBadRequest},
		{"custom code in batch", `{"long_urls":["https://a.com","https://b.com"],"custom_code":"x"}`, http.StatusBadRequest},
		{"taken custom code", `{"long_url":"https://example.com","custom_code":"taken"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			s.create(t, `{"long_url":"https://first.example.com","custom_code":"taken"}`)

			w := s.do(t, http.MethodPost, "/api/v1/links", tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestCreateMultipleLinks(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/links", `{"long_urls":["https://a.example.com","b.example.com"]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := decode[CreateLinksResponse](t, w)
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 2, resp.Summary.Successful)
	require.Len(t, resp.Results, 2)
	require.NotNil(t, resp.Results[1].Link)
	assert.Equal(t, "https://b.example.com", resp.Results[1].Link.LongURL)
}

func TestCreateMultipleLinksPartialFailure(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/links", `{"long_url":"https://ok.example.com","long_urls":["http://[::1"]}`)
	require.Equal(t, http.StatusMultiStatus, w.Code)

	resp := decode[CreateLinksResponse](t, w)
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Successful)
	assert.Equal(t, 1, resp.Summary.Failed)
	assert.True(t, resp.Results[0].Success)
	assert.False(t, resp.Results[1].Success)
	assert.Nil(t, resp.Results[1].Link)
	assert.NotEmpty(t, resp.Results[1].Error)
}

func TestRedirect(t *testing.T) {
	s := newTestServer(t)
	link := s.create(t, `{"long_url":"https://example.com/target","custom_code":"go"}`)

	w := s.do(t, http.MethodGet, "/r/go", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/target", w.Header().Get("Location"))

	w = s.do(t, http.MethodGet, "/api/v1/links/go/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[LinkResponse](t, w)
	assert.Equal(t, int64(1), stats.Clicks)
	assert.Equal(t, link.ID, stats.ID)

	// Stats reads don't count.
	w = s.do(t, http.MethodGet, "/api/v1/links/go/stats", "")
	assert.Equal(t, int64(1), decode[LinkResponse](t, w).Clicks)
}

func TestRedirectAddsSchemeToStoredURL(t *testing.T) {
	s := newTestServer(t)
	_, err := s.repo.Put(context.Background(), &models.Link{ShortCode: "old", OriginalURL: "example.com/legacy"})
	require.NoError(t, err)

	w := s.do(t, http.MethodGet, "/r/old", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://example.com/legacy", w.Header().Get("Location"))
}

func TestRedirectUnknownCode(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/r/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Link not found")
	assert.Contains(t, w.Body.String(), "nope")
}

func TestRedirectExpiredCode(t *testing.T) {
	s := newTestServer(t)
	past := fixedNow.Add(-time.Minute).UnixMilli()
	s.create(t, `{"long_url":"https://example.com","custom_code":"old","expires_at":`+jsonInt(past)+`}`)

	w := s.do(t, http.MethodGet, "/r/old", "")
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Contains(t, w.Body.String(), "Link expired")

	w = s.do(t, http.MethodGet, "/r/old", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRedirectEscapesCode(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/r/%3Cscript%3E", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, w.Body.String(), "<script>")
}

func TestStatsUnknownCode(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/links/nope/stats", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListLinks(t *testing.T) {
	s := newTestServer(t)
	s.create(t, `{"long_url":"https://golang.org","custom_code":"go"}`)
	s.create(t, `{"long_url":"https://example.com/blog","custom_code":"blog"}`)
	s.do(t, http.MethodGet, "/r/blog", "")

	type listResponse struct {
		Links []LinkResponse `json:"links"`
		Count int            `json:"count"`
	}

	w := s.do(t, http.MethodGet, "/api/v1/links?sort=most-clicks", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listResponse](t, w)
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, "blog", resp.Links[0].ShortCode)

	w = s.do(t, http.MethodGet, "/api/v1/links?q=GOLANG", "")
	resp = decode[listResponse](t, w)
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "go", resp.Links[0].ShortCode)

	w = s.do(t, http.MethodGet, "/api/v1/links?sort=random", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteLink(t *testing.T) {
	s := newTestServer(t)
	link := s.create(t, `{"long_url":"https://example.com","custom_code":"bye"}`)

	w := s.do(t, http.MethodDelete, "/api/v1/links/"+link.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+link.ID+`","deleted":true}`, w.Body.String())

	w = s.do(t, http.MethodDelete, "/api/v1/links/"+link.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"`+link.ID+`","deleted":false}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/r/bye", "").Code)
}

func TestSetExpiry(t *testing.T) {
	s := newTestServer(t)
	link := s.create(t, `{"long_url":"https://example.com","custom_code":"soon"}`)
	path := "/api/v1/links/" + link.ID + "/expiry"

	w := s.do(t, http.MethodPatch, path, `{"expires_in_minutes":30}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"expires_in":"30 minutes"`)

	w = s.do(t, http.MethodGet, "/api/v1/links/soon/stats", "")
	require.NotNil(t, decode[LinkResponse](t, w).ExpiresAt)

	w = s.do(t, http.MethodPatch, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodGet, "/api/v1/links/soon/stats", "")
	assert.Nil(t, decode[LinkResponse](t, w).ExpiresAt)

	w = s.do(t, http.MethodPatch, "/api/v1/links/missing/expiry", `{"expires_in_minutes":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, path, `{"expires_in_minutes":1,"expires_at":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCodeAvailability(t *testing.T) {
	s := newTestServer(t)
	s.create(t, `{"long_url":"https://example.com","custom_code":"mine"}`)

	w := s.do(t, http.MethodGet, "/api/v1/codes/mine/availability", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":"mine","available":false}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/codes/yours/availability", "")
	assert.JSONEq(t, `{"code":"yours","available":true}`, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/codes/no%20pe/availability", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurge(t *testing.T) {
	s := newTestServer(t)
	past := fixedNow.Add(-time.Hour).UnixMilli()
	s.create(t, `{"long_url":"https://old.example.com","expires_at":`+jsonInt(past)+`}`)
	s.create(t, `{"long_url":"https://live.example.com"}`)

	w := s.do(t, http.MethodPost, "/api/v1/purge", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"deleted":1}`, w.Body.String())

	all, err := s.repo.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestOverview(t *testing.T) {
	s := newTestServer(t)
	s.create(t, `{"long_url":"https://a.example.com","custom_code":"a"}`)
	s.create(t, `{"long_url":"https://b.example.com","custom_code":"b"}`)
	for i := 0; i < 3; i++ {
		s.do(t, http.MethodGet, "/r/b", "")
	}

	w := s.do(t, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		TotalLinks    int            `json:"total_links"`
		TotalClicks   int64          `json:"total_clicks"`
		AverageClicks float64        `json:"average_clicks_per_link"`
		TopPerformers []LinkResponse `json:"top_performers"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.TotalLinks)
	assert.Equal(t, int64(3), resp.TotalClicks)
	assert.InDelta(t, 1.5, resp.AverageClicks, 1e-9)
	require.Len(t, resp.TopPerformers, 2)
	assert.Equal(t, "b", resp.TopPerformers[0].ShortCode)
}

// brokenRepository fails every listing; other methods are never reached by the tests using it.
type brokenRepository struct {
	repository.LinkRepository
}

func (brokenRepository) GetAll(context.Context) ([]models.Link, error) {
	return nil, errors.New("connection reset")
}

func (brokenRepository) FindBy(context.Context, repository.Field, any) ([]models.Link, error) {
	return nil, errors.New("connection reset")
}

func TestStoreFailuresAreInternalErrors(t *testing.T) {
	var buf bytes.Buffer
	router := gin.New()
	SetupRoutes(router, services.NewLinkService(brokenRepository{}), zerolog.New(&buf))

	for _, path := range []string{"/api/v1/links", "/api/v1/stats", "/api/v1/links/abc/stats"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/r/abc", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong")

	assert.Contains(t, buf.String(), "connection reset")
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
