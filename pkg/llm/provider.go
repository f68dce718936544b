// Package llm provides a unified interface for completion-engine providers.
package llm

import (
	"context"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Request represents a single completion request.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// JSONObject constrains the answer to a single JSON object using the
	// provider's native mechanism (response_format, format, or prefill).
	JSONObject bool
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of a completion.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string // Actual model used (may differ from requested for auto-routing)
	Duration     time.Duration
}

// Provider is the interface every completion backend implements.
// Providers never retry internally.
type Provider interface {
	// Execute sends one completion request and returns the response.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g., "openrouter", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey  string
	BaseURL string // For custom endpoints or OpenRouter
	Model   string
	Timeout time.Duration
	// HTTPReferer and Title for OpenRouter attribution
	HTTPReferer string
	AppTitle    string
}

// DefaultTimeout bounds a single completion call.
const DefaultTimeout = 120 * time.Second

// DefaultMaxTokens is used when a request does not set MaxTokens.
const DefaultMaxTokens = 4096

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: DefaultTimeout,
	}
}

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return DefaultMaxTokens
}

func timeout(cfg ProviderConfig) time.Duration {
	if cfg.Timeout > 0 {
		return cfg.Timeout
	}
	return DefaultTimeout
}
