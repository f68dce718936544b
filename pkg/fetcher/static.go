package fetcher

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/larder/internal/logger"
)

// Fetch limits.
const (
	DefaultTimeout     = 15 * time.Second
	DefaultMaxBodySize = 10 << 20 // 10 MiB
)

// Browser-like user agent; many recipe sites refuse obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

// StaticConfig holds configuration for the static fetcher.
type StaticConfig struct {
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int
	Headers     map[string]string
}

// DefaultStaticConfig returns the pipeline defaults.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// StaticFetcher uses Colly for plain HTTP fetching.
// It implements the Fetcher interface and is safe for concurrent use:
// each Fetch builds its own collector.
type StaticFetcher struct {
	config StaticConfig
	now    func() time.Time
}

// NewStatic creates a new static fetcher. Zero fields take defaults.
func NewStatic(cfg StaticConfig) *StaticFetcher {
	defaults := DefaultStaticConfig()
	cfg.UserAgent = coalesce(cfg.UserAgent, defaults.UserAgent)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaults.MaxBodySize
	}
	return &StaticFetcher{config: cfg, now: time.Now}
}

// Fetch retrieves rawURL using Colly.
func (f *StaticFetcher) Fetch(ctx context.Context, rawURL string) (*RawPage, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}
	logger.Debug("static fetch starting", "url", target)

	ctx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	// One byte over the cap lets an oversized body be detected rather than
	// silently truncated.
	c := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
		colly.MaxBodySize(f.config.MaxBodySize+1),
		colly.ParseHTTPErrorResponse(),
		colly.DetectCharset(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.config.Timeout)

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", acceptHeader)
		for k, v := range f.config.Headers {
			r.Headers.Set(k, v)
		}
	})

	var (
		page     *RawPage
		rejected error
	)

	// Reject by status, type and declared length before reading the body.
	c.OnResponseHeaders(func(r *colly.Response) {
		switch {
		case !AcceptableStatus(r.StatusCode):
			rejected = fmt.Errorf("%w: %d", ErrBadStatus, r.StatusCode)
		case !IsText(r.Headers.Get("Content-Type")):
			rejected = fmt.Errorf("%w: %s", ErrNotText, r.Headers.Get("Content-Type"))
		case declaredLength(r) > int64(f.config.MaxBodySize):
			rejected = fmt.Errorf("%w: declared %s", ErrTooLarge, humanize.IBytes(uint64(declaredLength(r))))
		}
		if rejected != nil {
			r.Request.Abort()
		}
	})

	c.OnResponse(func(r *colly.Response) {
		if len(r.Body) > f.config.MaxBodySize {
			rejected = fmt.Errorf("%w: over %s", ErrTooLarge, humanize.IBytes(uint64(f.config.MaxBodySize)))
			return
		}
		page = &RawPage{
			URL:         r.Request.URL.String(),
			HTML:        string(r.Body),
			FetchedAt:   f.now(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
		}
		logger.Debug("static fetch response received",
			"status", r.StatusCode,
			"content_type", page.ContentType,
			"body_size", len(r.Body))
	})

	visitErr := c.Visit(target)
	if rejected != nil {
		logger.Debug("static fetch rejected", "url", target, "error", rejected)
		return nil, rejected
	}
	if visitErr != nil {
		logger.Debug("static fetch visit failed", "url", target, "error", visitErr)
		return nil, fmt.Errorf("fetch %s: %w", target, visitErr)
	}
	if page == nil {
		return nil, fmt.Errorf("fetch %s: no response", target)
	}

	logger.Debug("static fetch complete", "url", target, "html_size", len(page.HTML))
	return page, nil
}

// Close releases resources.
func (f *StaticFetcher) Close() error {
	return nil
}

// Type returns the fetcher type.
func (f *StaticFetcher) Type() string {
	return "static"
}

func declaredLength(r *colly.Response) int64 {
	n, err := strconv.ParseInt(r.Headers.Get("Content-Length"), 10, 64)
	if err != nil {
		return -1
	}
	return n
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
