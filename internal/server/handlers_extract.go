package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmylchreest/larder/pkg/fetcher"
	"github.com/jmylchreest/larder/pkg/larder"
	"github.com/jmylchreest/larder/pkg/recipe"
)

// ExtractRequest is the body of POST /api/extract. Exactly one of URL, HTML
// and Markdown must be set.
type ExtractRequest struct {
	URL       string   `json:"url,omitempty"`
	HTML      string   `json:"html,omitempty"`
	Markdown  string   `json:"markdown,omitempty"`
	SourceURL string   `json:"sourceUrl,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

// NoRecipeResponse is returned with 422 when the pipeline yields no recipe.
type NoRecipeResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func (req ExtractRequest) validate() error {
	set := 0
	for _, v := range []string{req.URL, req.HTML, req.Markdown} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return errors.New("exactly one of url, html or markdown is required")
	}
	return nil
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxRequestBytes)

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			jsonError(w, fmt.Sprintf("request exceeds %d bytes", maxErr.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tags := req.Tags
	if len(tags) == 0 {
		tags = s.cfg.Tags
	}

	r2, err := s.run(r.Context(), req, tags)
	if err != nil {
		if errors.Is(err, fetcher.ErrInvalidURL) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, http.StatusUnprocessableEntity, NoRecipeResponse{
			Error:  "no recipe found",
			Reason: larder.Reason(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, r2)
}

func (s *Server) run(ctx context.Context, req ExtractRequest, tags []string) (*recipe.Recipe, error) {
	switch {
	case req.URL != "":
		return s.pipeline.Extract(ctx, req.URL, tags)
	case req.HTML != "":
		return s.pipeline.ExtractHTML(ctx, req.HTML, req.SourceURL, tags)
	default:
		return s.pipeline.ExtractMarkdown(ctx, req.Markdown, req.SourceURL, tags)
	}
}
