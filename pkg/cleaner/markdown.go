package cleaner

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// MarkdownCleaner converts markup to Markdown for human review of a
// fragment. It is not part of the extraction path.
type MarkdownCleaner struct {
	domain string
}

// MarkdownOption configures the markdown cleaner.
type MarkdownOption func(*MarkdownCleaner)

// WithDomain resolves relative links and image sources against domain.
func WithDomain(domain string) MarkdownOption {
	return func(c *MarkdownCleaner) {
		c.domain = domain
	}
}

// NewMarkdown creates a new Markdown cleaner.
func NewMarkdown(opts ...MarkdownOption) *MarkdownCleaner {
	c := &MarkdownCleaner{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean converts HTML to Markdown.
func (c *MarkdownCleaner) Clean(html string) (string, error) {
	var opts []converter.ConvertOptionFunc
	if c.domain != "" {
		opts = append(opts, converter.WithDomain(c.domain))
	}

	markdown, err := md.ConvertString(html, opts...)
	if err != nil {
		return "", err
	}
	return cleanWhitespace(markdown), nil
}

// Name returns the cleaner type.
func (c *MarkdownCleaner) Name() string {
	return "markdown"
}

// cleanWhitespace collapses runs of blank lines to one and trims the result.
func cleanWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	result := make([]string, 0, len(lines))
	blank := false

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if !blank {
				result = append(result, "")
			}
			blank = true
			continue
		}
		blank = false
		result = append(result, strings.TrimRight(line, " \t"))
	}

	return strings.TrimSpace(strings.Join(result, "\n"))
}
