package extractor

import (
	"github.com/jmylchreest/larder/pkg/llm"
)

// DefaultTemperature keeps answers close to deterministic.
const DefaultTemperature = 0.2

// LLMConfig holds configuration for LLM-backed clients.
type LLMConfig struct {
	// Temperature for responses (default: 0.2).
	Temperature float64

	// MaxTokens for responses (default: 4096).
	MaxTokens int

	// Observer receives notifications about calls for observability.
	// The observer is called after every call (success or failure).
	Observer llm.LLMObserver
}

// DefaultLLMConfig returns the extraction defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Temperature: DefaultTemperature,
		MaxTokens:   llm.DefaultMaxTokens,
	}
}

// Option configures an LLMClient.
type Option func(*LLMConfig)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *LLMConfig) { c.Temperature = t }
}

// WithMaxTokens sets the maximum output tokens.
func WithMaxTokens(n int) Option {
	return func(c *LLMConfig) { c.MaxTokens = n }
}

// WithObserver sets the call observer.
func WithObserver(obs llm.LLMObserver) Option {
	return func(c *LLMConfig) { c.Observer = obs }
}
