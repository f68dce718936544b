// Package locator picks the part of a page most likely to hold a recipe.
//
// Location is a prioritized chain of rules evaluated against one parsed
// document. The first rule that produces a non-empty candidate wins. Rules
// may modify the document; later rules see those changes.
package locator

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/larder/internal/logger"
)

// Source names for candidates produced outside a rule.
const (
	SourceRaw = "raw"
)

// Candidate is a located sub-tree.
type Candidate struct {
	// HTML is the inner markup of the winning node.
	HTML string `json:"html"`
	// Score is rule specific: text length for articles and selectors,
	// boosted text density for the density rule, zero for fallbacks.
	Score float64 `json:"score"`
	// Source names the rule (and selector) that produced the candidate.
	Source string `json:"source"`
	// TextLength is the rune count of the candidate's whitespace-collapsed text.
	TextLength int `json:"text_length"`
}

// Empty reports whether the candidate has no visible text.
func (c Candidate) Empty() bool {
	return c.TextLength == 0
}

// Rule is one strategy in the chain. Apply returns false when the rule
// does not produce a candidate.
type Rule struct {
	Name  string
	Apply func(doc *goquery.Document) (Candidate, bool)
}

// Locator evaluates rules in order. It holds no per-call state and is safe
// for concurrent use.
type Locator struct {
	rules []Rule
}

// New creates a Locator. With no rules it uses DefaultRules.
func New(rules ...Rule) *Locator {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Locator{rules: rules}
}

// DefaultRules returns the standard chain: article, selector, density, body.
func DefaultRules() []Rule {
	return []Rule{
		ArticleRule(),
		SelectorRule(DefaultSelectors...),
		DensityRule(DefaultMinTextLength),
		BodyRule(),
	}
}

// Rules returns the names of the configured rules in evaluation order.
func (l *Locator) Rules() []string {
	names := make([]string, len(l.rules))
	for i, r := range l.rules {
		names[i] = r.Name
	}
	return names
}

// Locate returns the best candidate for markup. When markup cannot be
// parsed or no rule matches, the raw input is the candidate.
func (l *Locator) Locate(markup string) Candidate {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		logger.Debug("locator parse failed, using raw input", "error", err)
		return rawCandidate(markup)
	}

	for _, rule := range l.rules {
		c, ok := rule.Apply(doc)
		if !ok {
			logger.Debug("locator rule skipped", "rule", rule.Name)
			continue
		}
		logger.Debug("locator rule matched",
			"rule", rule.Name,
			"source", c.Source,
			"score", c.Score,
			"text_length", c.TextLength,
			"html_size", len(c.HTML))
		return c
	}

	return rawCandidate(markup)
}

var defaultLocator = New()

// Locate runs the default rule chain.
func Locate(markup string) Candidate {
	return defaultLocator.Locate(markup)
}

func rawCandidate(markup string) Candidate {
	text := markup
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup)); err == nil {
		text = doc.Text()
	}
	return Candidate{HTML: markup, Source: SourceRaw, TextLength: textLength(text)}
}

// textLength counts runes after collapsing whitespace runs to one space.
func textLength(s string) int {
	return utf8.RuneCountInString(strings.Join(strings.Fields(s), " "))
}

// innerHTML returns the inner markup of the first node in sel.
func innerHTML(sel *goquery.Selection) (string, bool) {
	h, err := sel.Html()
	if err != nil || strings.TrimSpace(h) == "" {
		return "", false
	}
	return h, true
}
