package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/larder/internal/logger"
	"github.com/jmylchreest/larder/pkg/llm"
	"github.com/jmylchreest/larder/pkg/prompt"
)

// LLMClient is a Client backed by an llm.Provider.
// It is safe for concurrent use if the provider is.
type LLMClient struct {
	provider llm.Provider
	config   LLMConfig
}

// NewLLMClient creates a client for provider.
func NewLLMClient(provider llm.Provider, opts ...Option) *LLMClient {
	config := DefaultLLMConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &LLMClient{provider: provider, config: config}
}

// Provider returns the underlying provider.
func (c *LLMClient) Provider() llm.Provider {
	return c.provider
}

// Extract sends p as a single JSON-mode request. No retries.
func (c *LLMClient) Extract(ctx context.Context, p prompt.Prompt) (string, error) {
	req := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: p.System},
			{Role: llm.RoleUser, Content: p.User},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
		JSONObject:  true,
	}

	logger.Debug("extraction request",
		"provider", c.provider.Name(),
		"model", c.provider.Model(),
		"prompt_size", len(p.User),
		"temperature", req.Temperature)

	start := time.Now()
	resp, err := c.provider.Execute(ctx, req)
	duration := time.Since(start)

	c.notify(ctx, req, resp, err, start, duration, len(p.User))

	if err != nil {
		logger.Debug("extraction request failed", "provider", c.provider.Name(), "duration", duration, "error", err)
		return "", fmt.Errorf("%w: %s: %w", ErrEngine, c.provider.Name(), err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		finish := ""
		if resp != nil {
			finish = resp.FinishReason
		}
		logger.Debug("extraction request returned no content", "provider", c.provider.Name(), "finish_reason", finish)
		return "", fmt.Errorf("%w from %s", ErrEmptyCompletion, c.provider.Name())
	}

	logger.Debug("extraction response",
		"provider", c.provider.Name(),
		"model", resp.Model,
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens,
		"finish_reason", resp.FinishReason,
		"duration", duration)

	return resp.Content, nil
}

func (c *LLMClient) notify(ctx context.Context, req llm.Request, resp *llm.Response, err error, start time.Time, duration time.Duration, promptSize int) {
	if c.config.Observer == nil {
		return
	}

	event := llm.LLMCallEvent{
		Provider: c.provider.Name(),
		Model:    c.provider.Model(),
		Request: llm.LLMCallRequest{
			MaxTokens:   req.MaxTokens,
			Temperature: req.Temperature,
			JSONObject:  req.JSONObject,
			PromptSize:  promptSize,
		},
		Error:     err,
		Duration:  duration,
		StartedAt: start,
	}
	if resp != nil {
		if resp.Model != "" {
			event.Model = resp.Model
		}
		event.Response = &llm.LLMCallResponse{
			Content:      resp.Content,
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			FinishReason: resp.FinishReason,
		}
	}
	c.config.Observer.OnLLMCall(ctx, event)
}

var _ Client = (*LLMClient)(nil)
