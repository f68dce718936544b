// Package larder composes the recipe extraction pipeline:
// fetch, locate, sanitize, build prompt, extract, normalize.
package larder

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/jmylchreest/larder/internal/logger"
	"github.com/jmylchreest/larder/pkg/extractor"
	"github.com/jmylchreest/larder/pkg/fetcher"
	"github.com/jmylchreest/larder/pkg/llm"
	"github.com/jmylchreest/larder/pkg/locator"
	"github.com/jmylchreest/larder/pkg/prompt"
	"github.com/jmylchreest/larder/pkg/recipe"
	"github.com/jmylchreest/larder/pkg/sanitizer"
)

// excerptLen bounds how much of a rejected answer is logged.
const excerptLen = 200

// Version returns the module version of the larder library.
// Returns "(devel)" when built from source without version info.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		return info.Main.Version
	}
	return "(unknown)"
}

// Result is the outcome of one run started by ExtractMany.
type Result struct {
	URL    string
	Recipe *recipe.Recipe
	Error  error
	// Reason is the Reason label of Error, empty on success.
	Reason   string
	Duration time.Duration
}

// Larder runs the extraction pipeline. It holds no per-run state and is safe
// for concurrent use.
type Larder struct {
	fetcher    fetcher.Fetcher
	locator    *locator.Locator
	sanitizer  *sanitizer.Sanitizer
	builder    *prompt.Builder
	client     extractor.Client
	normalizer *recipe.Normalizer
	markdown   goldmark.Markdown
	config     Config
}

// New creates a new Larder.
func New(opts ...Option) (*Larder, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	// Use injected fetcher or create a default static one
	f := cfg.Fetcher
	if f == nil {
		f = fetcher.NewStatic(fetcher.StaticConfig{
			UserAgent:   cfg.UserAgent,
			Timeout:     cfg.Timeout,
			MaxBodySize: cfg.MaxBodySize,
		})
	}

	client := cfg.Client
	if client == nil {
		provider, err := newProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
		client = extractor.NewLLMClient(provider,
			extractor.WithTemperature(cfg.Temperature),
			extractor.WithMaxTokens(cfg.MaxTokens),
			extractor.WithObserver(cfg.Observer),
		)
	}

	normalizer := recipe.NewNormalizer()
	normalizer.Now = cfg.Now

	return &Larder{
		fetcher:    f,
		locator:    locator.New(),
		sanitizer:  sanitizer.New(),
		builder:    &prompt.Builder{MaxContent: cfg.MaxContentSize},
		client:     client,
		normalizer: normalizer,
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
		config:     cfg,
	}, nil
}

func newProvider(cfg Config) (llm.Provider, error) {
	name, key := cfg.Provider, cfg.APIKey
	if name == "" {
		var detected string
		name, detected = llm.DetectProvider()
		if key == "" {
			key = detected
		}
	}
	if key == "" {
		key = llm.APIKeyFromEnv(name)
	}

	logger.Debug("creating provider", "provider", name, "model", cfg.Model)
	return llm.NewProvider(name, llm.ProviderConfig{
		APIKey:  key,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.LLMTimeout,
	})
}

// Client returns the extraction client in use.
func (l *Larder) Client() extractor.Client {
	return l.client
}

// Extract fetches rawURL and extracts a recipe from it. On failure the
// recipe is nil and the error is classified by Reason.
func (l *Larder) Extract(ctx context.Context, rawURL string, tags []string) (*recipe.Recipe, error) {
	fetchStart := time.Now()
	page, err := l.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFetch, err)
		logger.WarnContext(ctx, "fetch failed", "url", rawURL, "error", err)
		return nil, err
	}
	logger.Debug("page fetched",
		"url", page.URL,
		"status", page.StatusCode,
		"size", len(page.HTML),
		"duration", time.Since(fetchStart))

	return l.ExtractHTML(ctx, page.HTML, page.URL, tags)
}

// ExtractHTML runs the pipeline on markup that was obtained elsewhere.
func (l *Larder) ExtractHTML(ctx context.Context, html, sourceURL string, tags []string) (*recipe.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidate := l.locator.Locate(html)
	if candidate.Empty() {
		logger.WarnContext(ctx, "no extractable content, continuing", "url", sourceURL, "source", candidate.Source)
	}
	logger.Debug("content located",
		"url", sourceURL,
		"source", candidate.Source,
		"score", candidate.Score,
		"text_length", candidate.TextLength)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fragment, stats := l.sanitizer.SanitizeWithStats(candidate.HTML)
	logger.Debug("content sanitized",
		"url", sourceURL,
		"input_size", stats.InputBytes,
		"output_size", stats.OutputBytes,
		"passes", stats.Passes)

	p := l.builder.Build(fragment, tags)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	extractStart := time.Now()
	raw, err := l.client.Extract(ctx, p)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEngine, err)
		logger.WarnContext(ctx, "extraction engine failed", "url", sourceURL, "error", err)
		return nil, err
	}
	if strings.TrimSpace(raw) == "" {
		err = fmt.Errorf("%w: %w", ErrEngine, extractor.ErrEmptyCompletion)
		logger.WarnContext(ctx, "extraction engine failed", "url", sourceURL, "error", err)
		return nil, err
	}
	logger.Debug("engine answered",
		"url", sourceURL,
		"size", len(raw),
		"duration", time.Since(extractStart))

	r, err := l.normalizer.Normalize(raw, sourceURL)
	if err != nil {
		l.logRejected(ctx, sourceURL, raw, err)
		return nil, err
	}

	logger.Debug("recipe extracted",
		"url", sourceURL,
		"title", r.Title,
		"ingredients", len(r.Ingredients),
		"instructions", len(r.Instructions))
	return r, nil
}

// ExtractMarkdown renders markdown or plain text to HTML and runs the pipeline.
func (l *Larder) ExtractMarkdown(ctx context.Context, markdown, sourceURL string, tags []string) (*recipe.Recipe, error) {
	var buf bytes.Buffer
	if err := l.markdown.Convert([]byte(markdown), &buf); err != nil {
		return nil, fmt.Errorf("markdown conversion failed: %w", err)
	}
	return l.ExtractHTML(ctx, "<html><body>"+buf.String()+"</body></html>", sourceURL, tags)
}

// ExtractMany extracts recipes from multiple URLs concurrently.
// Each URL is an independent run; the channel is closed once all finish.
func (l *Larder) ExtractMany(ctx context.Context, urls []string, tags []string, concurrency int) <-chan *Result {
	if concurrency < 1 {
		concurrency = 1
	}

	results := make(chan *Result, len(urls))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, url := range urls {
		wg.Add(1)
		go func(u string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			r, err := l.Extract(ctx, u, tags)
			results <- &Result{
				URL:      u,
				Recipe:   r,
				Error:    err,
				Reason:   Reason(err),
				Duration: time.Since(start),
			}
		}(url)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// Close releases the fetcher.
func (l *Larder) Close() error {
	return l.fetcher.Close()
}

// logRejected logs a normalization failure. A declared absence is expected
// and logged at Info; anything else carries an excerpt of the answer.
func (l *Larder) logRejected(ctx context.Context, sourceURL, raw string, err error) {
	reason := Reason(err)
	if reason == ReasonNoRecipe {
		logger.InfoContext(ctx, "no recipe found", "url", sourceURL)
		return
	}
	logger.WarnContext(ctx, "response rejected",
		"url", sourceURL,
		"reason", reason,
		"error", err,
		"raw", excerpt(raw))
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) <= excerptLen {
		return s
	}
	return string(r[:excerptLen]) + "..."
}
