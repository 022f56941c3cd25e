package errors

import (
	"errors"
	"fmt"
)

// Custom error types for the URL shortener application

// ErrShortCodeNotFound is returned when a short code doesn't resolve to a live link
var ErrShortCodeNotFound = errors.New("short code not found")

// ErrLinkExpired is returned when a short code resolved to a link past its expiry
var ErrLinkExpired = errors.New("short link has expired")

// ErrInvalidURL is returned when the provided URL is invalid
var ErrInvalidURL = errors.New("invalid URL format")

// ErrInvalidShortCode is returned when the short code format is invalid
var ErrInvalidShortCode = errors.New("invalid short code format")

// ErrCodeUnavailable is returned when a custom short code is already taken
var ErrCodeUnavailable = errors.New("short code is already in use")

// ErrInvalidDomain is returned when a custom domain is not a valid hostname
var ErrInvalidDomain = errors.New("invalid custom domain")

// ErrShortCodeGenerationFailed is returned when we can't generate a unique short code
var ErrShortCodeGenerationFailed = errors.New("failed to generate unique short code")

// ErrInvalidSortKey is returned for an unknown ordering of the link list
var ErrInvalidSortKey = errors.New("invalid sort key")

// ErrDatabaseConnection is returned when the store backend can't be reached
var ErrDatabaseConnection = errors.New("database connection failed")

// ErrStoreFailure wraps any error raised by the underlying link store
type ErrStoreFailure struct {
	Op  string
	Err error
}

func (e ErrStoreFailure) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e ErrStoreFailure) Unwrap() error {
	return e.Err
}

// ErrClickRecordingFailed is returned when click recording fails
type ErrClickRecordingFailed struct {
	LinkID string
	Reason string
}

func (e ErrClickRecordingFailed) Error() string {
	return fmt.Sprintf("failed to record click for link %s: %s", e.LinkID, e.Reason)
}

// ErrConfigLoad is returned when configuration loading fails
type ErrConfigLoad struct {
	Path   string
	Reason string
}

func (e ErrConfigLoad) Error() string {
	return fmt.Sprintf("failed to load config from %s: %s", e.Path, e.Reason)
}
