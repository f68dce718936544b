package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmylchreest/larder/pkg/fetcher"
	"github.com/jmylchreest/larder/pkg/larder"
	"github.com/jmylchreest/larder/pkg/prompt"
	"github.com/jmylchreest/larder/pkg/recipe"
)

const validAnswer = `{"title":"Soup","ingredients":["1 leek"],"instructions":["Simmer"]}`

type pageFetcher map[string]string

func (f pageFetcher) Fetch(_ context.Context, rawURL string) (*fetcher.RawPage, error) {
	if _, err := fetcher.NormalizeURL(rawURL); err != nil {
		return nil, err
	}
	html, ok := f[rawURL]
	if !ok {
		return nil, fmt.Errorf("%w: 404", fetcher.ErrBadStatus)
	}
	return &fetcher.RawPage{URL: rawURL, HTML: html, StatusCode: http.StatusOK}, nil
}

func (f pageFetcher) Close() error { return nil }
func (f pageFetcher) Type() string { return "memory" }

func newTestServer(t *testing.T, answer string, cfg Config) (*Server, *[]prompt.Prompt) {
	t.Helper()
	var seen []prompt.Prompt
	l, err := larder.New(
		larder.WithFetcher(pageFetcher{"https://example.com/soup": "<article><ul><li>1 leek</li></ul></article>"}),
		larder.WithClient(clientFunc(func(p prompt.Prompt) string {
			seen = append(seen, p)
			return answer
		})),
	)
	if err != nil {
		t.Fatal(err)
	}
	return New(l, slog.New(slog.NewTextHandler(io.Discard, nil)), cfg), &seen
}

type clientFunc func(prompt.Prompt) string

func (f clientFunc) Extract(_ context.Context, p prompt.Prompt) (string, error) {
	return f(p), nil
}

func postJSON(t *testing.T, h http.Handler, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/extract", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, validAnswer, Config{APIKey: "secret"})

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"status":"ok"}` {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestExtract_Inputs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"url", `{"url":"https://example.com/soup"}`},
		{"html", `{"html":"<article><ul><li>1 leek</li></ul></article>","sourceUrl":"https://example.com/soup"}`},
		{"markdown", `{"markdown":"- 1 leek\n\n1. Simmer","sourceUrl":"https://example.com/soup"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, seen := newTestServer(t, validAnswer, Config{})
			rec := postJSON(t, s, tt.body, nil)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var r recipe.Recipe
			if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if r.Title != "Soup" || r.SourceURL != "https://example.com/soup" {
				t.Errorf("recipe = %+v", r)
			}
			if len(*seen) != 1 || !strings.Contains((*seen)[0].User, "1 leek") {
				t.Errorf("engine prompts = %d", len(*seen))
			}
		})
	}
}

func TestExtract_NoRecipe(t *testing.T) {
	tests := []struct {
		name       string
		answer     string
		body       string
		wantReason string
	}{
		{"declared absence", `{"error":"No recipe found"}`, `{"html":"<p>hello</p>"}`, larder.ReasonNoRecipe},
		{"schema violation", `{"title":"X"}`, `{"html":"<p>hello</p>"}`, larder.ReasonSchemaViolation},
		{"malformed", `nope`, `{"html":"<p>hello</p>"}`, larder.ReasonMalformedResponse},
		{"fetch failed", validAnswer, `{"url":"https://example.com/missing"}`, larder.ReasonFetchFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, tt.answer, Config{})
			rec := postJSON(t, s, tt.body, nil)

			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			var resp NoRecipeResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error != "no recipe found" || resp.Reason != tt.wantReason {
				t.Errorf("response = %+v, want reason %s", resp, tt.wantReason)
			}
		})
	}
}

func TestExtract_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"nothing set", `{}`},
		{"two inputs", `{"url":"https://example.com/soup","html":"<p>x</p>"}`},
		{"invalid url", `{"url":"ftp://example.com/soup"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, seen := newTestServer(t, validAnswer, Config{})
			rec := postJSON(t, s, tt.body, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if len(*seen) != 0 {
				t.Error("engine should not be called")
			}
		})
	}
}

func TestExtract_BodyLimit(t *testing.T) {
	s, _ := newTestServer(t, validAnswer, Config{MaxRequestBytes: 64})
	body := `{"html":"` + strings.Repeat("x", 200) + `"}`

	rec := postJSON(t, s, body, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestExtract_DefaultTags(t *testing.T) {
	s, seen := newTestServer(t, validAnswer, Config{Tags: []string{"soup", "winter"}})

	postJSON(t, s, `{"html":"<p>x</p>"}`, nil)
	postJSON(t, s, `{"html":"<p>x</p>","tags":["quick"]}`, nil)

	if len(*seen) != 2 {
		t.Fatalf("engine prompts = %d", len(*seen))
	}
	if !strings.Contains((*seen)[0].User, "soup, winter") {
		t.Error("default vocabulary not used")
	}
	if strings.Contains((*seen)[1].User, "winter") || !strings.Contains((*seen)[1].User, "quick") {
		t.Error("request tags should replace the default vocabulary")
	}
}

func TestAuth(t *testing.T) {
	s, _ := newTestServer(t, validAnswer, Config{APIKey: "secret"})
	body := `{"html":"<p>x</p>"}`

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"basic scheme", "Basic c2VjcmV0", http.StatusUnauthorized},
		{"valid", "Bearer secret", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.header != "" {
				h.Set("Authorization", tt.header)
			}
			rec := postJSON(t, s, body, h)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	out := buf.String()
	for _, want := range []string{"method=GET", "path=/brew", "status=418"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}
}
