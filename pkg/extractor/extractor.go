// Package extractor sends extraction prompts to a completion engine.
//
// A Client makes exactly one engine call per Extract and returns the raw
// answer text. Parsing and validation belong to pkg/recipe.
package extractor

import (
	"context"
	"errors"

	"github.com/jmylchreest/larder/pkg/prompt"
)

// Client turns a prompt into raw JSON text.
type Client interface {
	// Extract returns the engine's answer. An engine-side failure returns an
	// empty string and an error wrapping ErrEngine or ErrEmptyCompletion.
	Extract(ctx context.Context, p prompt.Prompt) (string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, p prompt.Prompt) (string, error)

// Extract implements Client.
func (f ClientFunc) Extract(ctx context.Context, p prompt.Prompt) (string, error) {
	return f(ctx, p)
}

// Static returns a Client that always answers with raw. Useful for tests and
// replaying stored engine answers.
func Static(raw string) Client {
	return ClientFunc(func(context.Context, prompt.Prompt) (string, error) {
		return raw, nil
	})
}

var (
	// ErrEngine indicates the engine call failed (transport, auth, rate
	// limit, timeout).
	ErrEngine = errors.New("completion engine failed")
	// ErrEmptyCompletion indicates the engine answered with no content.
	ErrEmptyCompletion = errors.New("empty completion")
)
