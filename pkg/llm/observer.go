package llm

import (
	"context"
	"time"
)

// LLMObserver receives a notification after every completion call,
// successful or not. Implementations should not block.
type LLMObserver interface {
	OnLLMCall(ctx context.Context, event LLMCallEvent)
}

// LLMCallEvent describes one completion call.
type LLMCallEvent struct {
	// Provider name (e.g., "anthropic", "openai", "openrouter")
	Provider string

	// Model used for the call (may differ from requested for auto-routing)
	Model string

	Request LLMCallRequest

	// Response details (nil if the call failed before getting a response)
	Response *LLMCallResponse

	// Error if the call failed (nil on success)
	Error error

	Duration  time.Duration
	StartedAt time.Time
}

// LLMCallRequest summarizes the request sent.
type LLMCallRequest struct {
	MaxTokens   int
	Temperature float64
	JSONObject  bool

	// Size in bytes of the user prompt
	PromptSize int
}

// LLMCallResponse summarizes the response received.
type LLMCallResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	FinishReason string
}

// ObserverFunc is a convenience type for using a function as an LLMObserver.
type ObserverFunc func(ctx context.Context, event LLMCallEvent)

// OnLLMCall implements LLMObserver.
func (f ObserverFunc) OnLLMCall(ctx context.Context, event LLMCallEvent) {
	f(ctx, event)
}

// MultiObserver combines multiple observers into one.
type MultiObserver struct {
	observers []LLMObserver
}

// NewMultiObserver creates an observer that dispatches to multiple observers.
func NewMultiObserver(observers ...LLMObserver) *MultiObserver {
	return &MultiObserver{observers: observers}
}

// OnLLMCall dispatches the event to all registered observers.
func (m *MultiObserver) OnLLMCall(ctx context.Context, event LLMCallEvent) {
	for _, obs := range m.observers {
		if obs != nil {
			obs.OnLLMCall(ctx, event)
		}
	}
}

// Add adds an observer to the multi-observer.
func (m *MultiObserver) Add(obs LLMObserver) {
	m.observers = append(m.observers, obs)
}
