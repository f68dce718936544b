package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/jmylchreest/larder/pkg/llm"
	"github.com/jmylchreest/larder/pkg/prompt"
)

// fakeProvider records requests and returns a canned answer.
type fakeProvider struct {
	resp     *llm.Response
	err      error
	requests []llm.Request
}

func (f *fakeProvider) Execute(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	return f.resp, f.err
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-model" }

var testPrompt = prompt.Prompt{System: "system", User: "user content"}

func TestLLMClient_Extract(t *testing.T) {
	tests := []struct {
		name    string
		resp    *llm.Response
		err     error
		want    string
		wantErr error
	}{
		{
			name: "content returned",
			resp: &llm.Response{Content: `{"title":"X"}`, Model: "fake-model-1"},
			want: `{"title":"X"}`,
		},
		{
			name:    "empty content",
			resp:    &llm.Response{Content: "  \n", FinishReason: "length"},
			wantErr: ErrEmptyCompletion,
		},
		{
			name:    "nil response",
			wantErr: ErrEmptyCompletion,
		},
		{
			name:    "provider error",
			err:     errors.New("429 rate limited"),
			wantErr: ErrEngine,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{resp: tt.resp, err: tt.err}
			got, err := NewLLMClient(p).Extract(context.Background(), testPrompt)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Extract() = %q, want %q", got, tt.want)
			}
			if len(p.requests) != 1 {
				t.Fatalf("provider called %d times, want exactly 1", len(p.requests))
			}

			req := p.requests[0]
			if req.Temperature != DefaultTemperature || !req.JSONObject {
				t.Errorf("request temperature/json = %v/%v", req.Temperature, req.JSONObject)
			}
			if len(req.Messages) != 2 || req.Messages[0].Role != llm.RoleSystem || req.Messages[1].Content != "user content" {
				t.Errorf("request messages = %+v", req.Messages)
			}
		})
	}
}

func TestLLMClient_Observer(t *testing.T) {
	var events []llm.LLMCallEvent
	obs := llm.ObserverFunc(func(_ context.Context, e llm.LLMCallEvent) {
		events = append(events, e)
	})

	p := &fakeProvider{resp: &llm.Response{Content: "{}", Model: "routed", Usage: llm.Usage{InputTokens: 3, OutputTokens: 1}}}
	c := NewLLMClient(p, WithObserver(obs), WithTemperature(0.5), WithMaxTokens(100))
	if _, err := c.Extract(context.Background(), testPrompt); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("observer saw %d events", len(events))
	}
	e := events[0]
	if e.Provider != "fake" || e.Model != "routed" || e.Response == nil || e.Response.InputTokens != 3 {
		t.Errorf("event = %+v", e)
	}
	if e.Request.Temperature != 0.5 || e.Request.MaxTokens != 100 || e.Request.PromptSize != len(testPrompt.User) {
		t.Errorf("event request = %+v", e.Request)
	}
}

func TestStatic(t *testing.T) {
	got, err := Static(`{"error":"No recipe found"}`).Extract(context.Background(), testPrompt)
	if err != nil || got != `{"error":"No recipe found"}` {
		t.Errorf("Static().Extract() = %q, %v", got, err)
	}
}
