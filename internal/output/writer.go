// Package output writes extracted recipes as json, jsonl or yaml.
package output

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/larder/pkg/recipe"
)

// Format represents output format types.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatJSONL, FormatYAML}
}

// ParseFormat resolves a format name, case-insensitively. "yml" is accepted.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatJSONL, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", s)
	}
}

// Writer serializes recipes.
type Writer interface {
	// Write outputs or buffers a single recipe.
	Write(r *recipe.Recipe) error

	// Close writes anything buffered.
	Close() error
}

// WriterOption configures a writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	indent string
}

// WithIndent sets the JSON indentation. Empty produces compact output.
func WithIndent(indent string) WriterOption {
	return func(c *writerConfig) {
		c.indent = indent
	}
}

// NewWriter creates a writer for the specified format.
func NewWriter(w io.Writer, format Format, opts ...WriterOption) (Writer, error) {
	cfg := &writerConfig{indent: "  "}
	for _, opt := range opts {
		opt(cfg)
	}

	switch format {
	case FormatJSON:
		return &bufferedWriter{w: w, encode: jsonEncoder(cfg.indent)}, nil
	case FormatYAML:
		return &bufferedWriter{w: w, encode: yamlEncoder}, nil
	case FormatJSONL:
		return &lineWriter{w: bufio.NewWriter(w)}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// bufferedWriter collects recipes and encodes them on Close: a single recipe
// as an object, several as a list.
type bufferedWriter struct {
	w       io.Writer
	encode  func(io.Writer, any) error
	recipes []*recipe.Recipe
}

func (b *bufferedWriter) Write(r *recipe.Recipe) error {
	if r == nil {
		return nil
	}
	b.recipes = append(b.recipes, r)
	return nil
}

func (b *bufferedWriter) Close() error {
	if len(b.recipes) == 0 {
		return nil
	}
	var v any = b.recipes
	if len(b.recipes) == 1 {
		v = b.recipes[0]
	}
	bw := bufio.NewWriter(b.w)
	if err := b.encode(bw, v); err != nil {
		return err
	}
	b.recipes = nil
	return bw.Flush()
}

func jsonEncoder(indent string) func(io.Writer, any) error {
	return func(w io.Writer, v any) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		if indent != "" {
			enc.SetIndent("", indent)
		}
		return enc.Encode(v)
	}
}

func yamlEncoder(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// lineWriter streams one compact JSON document per line.
type lineWriter struct {
	w *bufio.Writer
}

func (l *lineWriter) Write(r *recipe.Recipe) error {
	if r == nil {
		return nil
	}
	enc := json.NewEncoder(l.w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return err
	}
	return l.w.Flush()
}

func (l *lineWriter) Close() error {
	return l.w.Flush()
}
