// Package sanitizer reduces located page content to a small markup dialect
// that is cheap to send to a completion engine.
//
// The output only contains the tags a, ul, ol, li, img and br. Links keep
// href, images keep src and alt, every other attribute is dropped. Other
// elements are replaced by their content, with a <br> marker after
// paragraphs, headings and divs so block boundaries survive flattening.
//
// Sanitize is idempotent. For well-formed serialized input (quoted
// attributes, escaped text and explicit end tags, which is what the locator
// emits) the output is never longer than the input.
package sanitizer

import (
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jmylchreest/larder/internal/logger"
)

// BreakMarker is appended after flattened block elements.
const BreakMarker = "<br>"

// DefaultMaxPasses bounds the fixed-point loop in Sanitize.
const DefaultMaxPasses = 4

// removedElements are dropped together with their content. Beyond the
// obvious script and style noise this covers inert or interactive
// containers whose text never belongs to a recipe.
var removedElements = []string{
	"script", "style", "svg", "iframe", "noscript", "form", "button",
	"template", "object", "embed", "noembed", "noframes", "xmp", "plaintext",
	"select", "textarea", "canvas", "title",
}

var removedSelector = strings.Join(removedElements, ", ")

var (
	wrapperTags = regexp.MustCompile(`(?i)<!DOCTYPE[^>]*>|</?(?:html|head|body)\b[^>]*>`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

// Sanitizer flattens markup to the preserved tag set. It holds no per-call
// state and is safe for concurrent use.
type Sanitizer struct {
	policy    *bluemonday.Policy
	maxPasses int
}

// New creates a Sanitizer.
func New() *Sanitizer {
	return &Sanitizer{
		policy:    newPolicy(),
		maxPasses: DefaultMaxPasses,
	}
}

// newPolicy is the allow-list every pass output is checked against.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("ul", "ol", "li", "br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.SkipElementsContent(removedElements...)
	return p
}

// Sanitize returns the cleaned fragment for markup.
func (s *Sanitizer) Sanitize(markup string) string {
	out, _ := s.SanitizeWithStats(markup)
	return out
}

// SanitizeWithStats is Sanitize with a report of what was removed.
func (s *Sanitizer) SanitizeWithStats(markup string) (string, *Stats) {
	start := time.Now()
	stats := NewStats()
	stats.InputBytes = len(markup)

	out := markup
	for stats.Passes < s.maxPasses {
		next := s.pass(out, stats)
		stats.Passes++
		if next == out {
			break
		}
		out = next
	}

	stats.OutputBytes = len(out)
	stats.Duration = time.Since(start)
	logger.Debug("sanitizer complete",
		"input_bytes", stats.InputBytes,
		"output_bytes", stats.OutputBytes,
		"passes", stats.Passes,
		"unwrapped", stats.ElementsUnwrapped,
		"removed", stats.TotalElementsRemoved())
	return out, stats
}

// Clean implements cleaner.Cleaner.
func (s *Sanitizer) Clean(html string) (string, error) {
	return s.Sanitize(html), nil
}

// Name returns the cleaner type.
func (s *Sanitizer) Name() string {
	return "sanitizer"
}

// pass flattens markup, checks it against the allow-list and renders the
// result again so parser re-nesting and escaping settle into one form.
func (s *Sanitizer) pass(markup string, stats *Stats) string {
	flat, err := flatten(markup, stats)
	if err != nil {
		logger.Debug("sanitizer parse failed, using allow-list only", "error", err)
		return finish(s.policy.Sanitize(markup))
	}
	enforced := s.policy.Sanitize(flat)
	out, err := flatten(enforced, nil)
	if err != nil {
		return finish(enforced)
	}
	return out
}

// flatten parses markup as a document and renders the body children.
func flatten(markup string, stats *Stats) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", err
	}

	removed := doc.Find(removedSelector)
	removed.Each(func(_ int, sel *goquery.Selection) {
		stats.RecordRemoval(goquery.NodeName(sel))
	})
	removed.Remove()

	w := &walker{stats: stats}
	var b strings.Builder
	for _, body := range doc.Find("body").Nodes {
		b.WriteString(w.children(body, renderContext{}))
	}
	return finish(b.String()), nil
}

// finish strips document wrappers and collapses whitespace.
func finish(s string) string {
	s = wrapperTags.ReplaceAllString(s, "")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

var defaultSanitizer = New()

// Sanitize cleans markup with a shared default Sanitizer.
func Sanitize(markup string) string {
	return defaultSanitizer.Sanitize(markup)
}
