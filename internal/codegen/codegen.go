// Package codegen generates candidate short codes and validates the user supplied
// parts of a link: destination URL, custom code and custom domain.
// Nothing in here touches storage.
package codegen

import (
	"math/rand"
	"net/url"
	"regexp"
	"strings"
)

// charset is the 62-character alphabet short codes are drawn from.
const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength is the length of a generated code when none is requested.
const DefaultLength = 4

var (
	customCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	domainPattern     = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)
	schemePattern     = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

// GenerateCode returns length random characters from the alphanumeric charset.
// A non-positive length falls back to DefaultLength.
// Collisions are the caller's problem; the randomness is not cryptographically secure.
func GenerateCode(length int) string {
	if length <= 0 {
		length = DefaultLength
	}
	code := make([]byte, length)
	for i := range code {
		code[i] = charset[rand.Intn(len(charset))]
	}
	return string(code)
}

// IsValidURL reports whether s is an absolute URL with both a scheme and a host.
func IsValidURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// EnsureScheme prefixes https:// when s has no scheme of its own.
func EnsureScheme(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || schemePattern.MatchString(s) {
		return s
	}
	return "https://" + s
}

// IsValidCustomCode reports whether s can be used as a user chosen short code.
func IsValidCustomCode(s string) bool {
	return s != "" && customCodePattern.MatchString(s)
}

// IsValidDomain reports whether s is a dotted hostname with an alphabetic last label.
func IsValidDomain(s string) bool {
	return domainPattern.MatchString(s)
}

// NormalizeDomain validates a custom domain and returns it scheme-qualified.
// An explicit http:// is kept, anything else is served over https://.
func NormalizeDomain(s string) (string, bool) {
	host := strings.TrimSuffix(strings.TrimSpace(s), "/")
	scheme := "https://"
	switch lower := strings.ToLower(host); {
	case strings.HasPrefix(lower, "https://"):
		host = host[len("https://"):]
	case strings.HasPrefix(lower, "http://"):
		host = host[len("http://"):]
		scheme = "http://"
	}
	if !IsValidDomain(host) {
		return "", false
	}
	return scheme + host, true
}
