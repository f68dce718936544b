package larder

import (
	"time"

	"github.com/jmylchreest/larder/pkg/extractor"
	"github.com/jmylchreest/larder/pkg/fetcher"
	"github.com/jmylchreest/larder/pkg/llm"
	"github.com/jmylchreest/larder/pkg/prompt"
)

// Config holds all pipeline configuration.
type Config struct {
	// Completion engine settings. Ignored when Client is set.
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	LLMTimeout  time.Duration
	Observer    llm.LLMObserver

	// Fetch settings. Ignored when Fetcher is set.
	UserAgent   string
	Timeout     time.Duration
	MaxBodySize int

	// MaxContentSize bounds the fragment embedded in the prompt, in characters.
	MaxContentSize int

	// Injected collaborators.
	Fetcher fetcher.Fetcher
	Client  extractor.Client

	// Now stamps recipes. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		Temperature:    extractor.DefaultTemperature,
		MaxTokens:      llm.DefaultMaxTokens,
		LLMTimeout:     llm.DefaultTimeout,
		UserAgent:      fetcher.DefaultUserAgent,
		Timeout:        fetcher.DefaultTimeout,
		MaxBodySize:    fetcher.DefaultMaxBodySize,
		MaxContentSize: prompt.DefaultMaxContent,
		Now:            time.Now,
	}
}

// Option configures a Larder.
type Option func(*Config)

// WithProvider sets the completion provider (anthropic, openai, openrouter,
// ollama). Empty detects one from the environment.
func WithProvider(provider string) Option {
	return func(c *Config) {
		c.Provider = provider
	}
}

// WithModel sets the model.
func WithModel(model string) Option {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithBaseURL sets a custom API base URL.
func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.BaseURL = url
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxTokens sets the maximum output tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

// WithObserver sets the completion call observer.
func WithObserver(obs llm.LLMObserver) Option {
	return func(c *Config) {
		c.Observer = obs
	}
}

// WithUserAgent sets the fetch user agent.
func WithUserAgent(ua string) Option {
	return func(c *Config) {
		c.UserAgent = ua
	}
}

// WithTimeout sets the fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithMaxBodySize sets the fetch body cap in bytes.
func WithMaxBodySize(n int) Option {
	return func(c *Config) {
		c.MaxBodySize = n
	}
}

// WithMaxContentSize sets the prompt content limit in characters.
func WithMaxContentSize(n int) Option {
	return func(c *Config) {
		c.MaxContentSize = n
	}
}

// WithFetcher injects a fetcher.
func WithFetcher(f fetcher.Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = f
	}
}

// WithClient injects an extraction client, bypassing provider setup.
func WithClient(client extractor.Client) Option {
	return func(c *Config) {
		c.Client = client
	}
}

// WithClock sets the function used to stamp recipes.
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		c.Now = now
	}
}

// WithLLMTimeout bounds a single completion call.
func WithLLMTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.LLMTimeout = d
	}
}
