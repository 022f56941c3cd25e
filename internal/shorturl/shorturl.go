// Package shorturl formats links for display: the public short URL and a
// human readable remaining lifetime.
package shorturl

import (
	"fmt"
	"strings"
	"time"

	"github.com/teenyweeny/urlshortener/internal/codegen"
)

// RedirectPrefix is the path segment the redirect route is mounted under.
const RedirectPrefix = "/r/"

// Full returns {base}/r/{code}. A valid custom domain replaces base.
func Full(base, code string, customDomain *string) string {
	if customDomain != nil {
		if domain, ok := codegen.NormalizeDomain(*customDomain); ok {
			base = domain
		}
	}
	return strings.TrimSuffix(base, "/") + RedirectPrefix + code
}

// FormatExpiration describes how long a link has left.
func FormatExpiration(expiresAt *int64, now time.Time) string {
	if expiresAt == nil {
		return "Never"
	}
	left := time.UnixMilli(*expiresAt).Sub(now)
	if left <= 0 {
		return "Expired"
	}

	days := int(left / (24 * time.Hour))
	hours := int(left % (24 * time.Hour) / time.Hour)
	minutes := int(left % time.Hour / time.Minute)

	switch {
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	default:
		return plural(minutes, "minute")
	}
}

// TimeAgo describes how long ago createdAt (epoch ms) was, e.g. "3 days ago".
func TimeAgo(createdAt int64, now time.Time) string {
	seconds := int(now.Sub(time.UnixMilli(createdAt)) / time.Second)

	steps := []struct {
		unit string
		secs int
	}{
		{"year", 31536000},
		{"month", 2592000},
		{"day", 86400},
		{"hour", 3600},
		{"minute", 60},
	}
	for _, step := range steps {
		if n := seconds / step.secs; n >= 1 {
			return plural(n, step.unit) + " ago"
		}
	}
	if seconds <= 10 {
		return "just now"
	}
	return plural(seconds, "second") + " ago"
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
