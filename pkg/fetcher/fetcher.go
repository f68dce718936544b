// Package fetcher retrieves raw page markup for the extraction pipeline.
//
// A fetch is a single best-effort GET: no retries, no JavaScript rendering.
// Implement the Fetcher interface to plug in a different transport.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// Fetcher abstracts page retrieval.
type Fetcher interface {
	// Fetch retrieves the page at rawURL. On any failure it returns a nil
	// page and an error wrapping one of the package sentinels or the
	// underlying transport error.
	Fetch(ctx context.Context, rawURL string) (*RawPage, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type identifies the fetcher implementation (e.g. "static").
	Type() string
}

// RawPage is a fetched document. It is not modified after Fetch returns.
type RawPage struct {
	URL         string    `json:"url"`
	HTML        string    `json:"html"`
	FetchedAt   time.Time `json:"fetchedAt"`
	StatusCode  int       `json:"statusCode"`
	ContentType string    `json:"contentType,omitempty"`
}

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, fetcher.ErrTooLarge).
var (
	// ErrInvalidURL indicates the URL could not be parsed or has no host.
	ErrInvalidURL = errors.New("invalid url")
	// ErrBadStatus indicates a status outside [200, 400).
	ErrBadStatus = errors.New("unacceptable status")
	// ErrTooLarge indicates the body exceeded the configured cap.
	ErrTooLarge = errors.New("response body too large")
	// ErrNotText indicates the response is not a text document.
	ErrNotText = errors.New("response is not text")
)

var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.\-]*://`)

// NormalizeURL trims rawURL and prefixes https:// when it has no scheme.
// Only http and https URLs with a host are accepted.
func NormalizeURL(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	if !schemePattern.MatchString(s) {
		s = "https://" + strings.TrimPrefix(s, "//")
	}

	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, rawURL)
	}
	return u.String(), nil
}

// AcceptableStatus reports whether code counts as a successful fetch.
func AcceptableStatus(code int) bool {
	return code >= 200 && code < 400
}

// IsText reports whether a Content-Type header describes a text document.
// An absent header is treated as text.
func IsText(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return true
	}
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return strings.HasPrefix(ct, "text/") ||
		strings.HasSuffix(ct, "+xml") ||
		ct == "application/xml"
}
