package shorturl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestFull(t *testing.T) {
	tests := []struct {
		name   string
		base   string
		domain *string
		want   string
	}{
		{"default base", "http://localhost:8080", nil, "http://localhost:8080/r/abcd"},
		{"base with trailing slash", "https://sho.rt/", nil, "https://sho.rt/r/abcd"},
		{"custom domain gets https", "http://localhost:8080", strPtr("example.com"), "https://example.com/r/abcd"},
		{"custom domain already qualified", "http://localhost:8080", strPtr("https://go.example.com"), "https://go.example.com/r/abcd"},
		{"invalid custom domain falls back", "http://localhost:8080", strPtr("not a domain"), "http://localhost:8080/r/abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Full(tt.base, "abcd", tt.domain))
		})
	}
}

func TestFormatExpiration(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *int64 {
		ms := now.Add(d).UnixMilli()
		return &ms
	}

	tests := []struct {
		name      string
		expiresAt *int64
		want      string
	}{
		{"never", nil, "Never"},
		{"past", at(-time.Minute), "Expired"},
		{"exactly now", at(0), "Expired"},
		{"one day", at(25 * time.Hour), "1 day"},
		{"several days", at(72*time.Hour + time.Minute), "3 days"},
		{"one hour", at(90 * time.Minute), "1 hour"},
		{"hours", at(5*time.Hour + 59*time.Minute), "5 hours"},
		{"one minute", at(time.Minute + 30*time.Second), "1 minute"},
		{"minutes", at(45 * time.Minute), "45 minutes"},
		{"under a minute", at(10 * time.Second), "0 minutes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatExpiration(tt.expiresAt, now))
		})
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }

	tests := []struct {
		name      string
		createdAt int64
		want      string
	}{
		{"just now", ago(5 * time.Second), "just now"},
		{"seconds", ago(42 * time.Second), "42 seconds ago"},
		{"one minute", ago(time.Minute), "1 minute ago"},
		{"hours", ago(3 * time.Hour), "3 hours ago"},
		{"one day", ago(30 * time.Hour), "1 day ago"},
		{"months", ago(65 * 24 * time.Hour), "2 months ago"},
		{"years", ago(800 * 24 * time.Hour), "2 years ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAgo(tt.createdAt, now))
		})
	}
}
