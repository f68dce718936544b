package sanitizer

import (
	"strings"

	"golang.org/x/net/html"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&#34;")
)

// blockElements get a break marker after their content.
var blockElements = map[string]bool{
	"p": true, "div": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

type renderContext struct {
	inAnchor bool
}

// walker renders a parsed tree in the preserved dialect.
type walker struct {
	stats *Stats
}

func (w *walker) children(n *html.Node, ctx renderContext) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(w.node(c, ctx))
	}
	return b.String()
}

func (w *walker) node(n *html.Node, ctx renderContext) string {
	switch n.Type {
	case html.TextNode:
		return textEscaper.Replace(n.Data)
	case html.ElementNode:
		return w.element(n, ctx)
	case html.CommentNode:
		w.stats.RecordRemoval("#comment")
		return ""
	default:
		return ""
	}
}

func (w *walker) element(n *html.Node, ctx renderContext) string {
	tag := strings.ToLower(n.Data)
	w.stats.RecordAttributes(len(n.Attr))

	switch tag {
	case "br":
		return BreakMarker
	case "img":
		return w.image(n)
	case "a":
		return w.anchor(n, ctx)
	case "ul", "ol", "li":
		inner := w.children(n, ctx)
		if isBlank(inner) {
			w.stats.RecordEmpty(tag)
			return ""
		}
		return "<" + tag + ">" + inner + "</" + tag + ">"
	}

	w.stats.RecordUnwrap()
	inner := w.children(n, ctx)
	if blockElements[tag] && !isBlank(inner) {
		return inner + BreakMarker
	}
	return inner
}

// anchor keeps links with an href. Nested links and links wrapping list
// structure are unwrapped since the parser would split them apart.
func (w *walker) anchor(n *html.Node, ctx renderContext) string {
	inner := w.children(n, renderContext{inAnchor: true})
	href := attr(n, "href")
	if ctx.inAnchor || href == "" || containsList(n) {
		w.stats.RecordUnwrap()
		return inner
	}
	if isBlank(inner) {
		w.stats.RecordEmpty("a")
		return ""
	}
	w.stats.RecordAttributes(-1)
	return `<a href="` + attrEscaper.Replace(href) + `">` + inner + "</a>"
}

// image keeps src and alt. Lazy-loaded images carry the real URL in
// data-src with an absent or inline placeholder src.
func (w *walker) image(n *html.Node) string {
	src := attr(n, "src")
	if lazy := attr(n, "data-src"); lazy != "" && (src == "" || strings.HasPrefix(src, "data:")) {
		src = lazy
	}
	alt := attr(n, "alt")
	if src == "" && alt == "" {
		w.stats.RecordEmpty("img")
		return ""
	}

	var b strings.Builder
	b.WriteString("<img")
	if src != "" {
		w.stats.RecordAttributes(-1)
		b.WriteString(` src="` + attrEscaper.Replace(src) + `"`)
	}
	if alt != "" {
		w.stats.RecordAttributes(-1)
		b.WriteString(` alt="` + attrEscaper.Replace(alt) + `"`)
	}
	b.WriteString(">")
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func containsList(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch strings.ToLower(c.Data) {
		case "ul", "ol", "li":
			return true
		}
		if containsList(c) {
			return true
		}
	}
	return false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
