package sanitizer

import (
	"io"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "paragraphs flatten with markers",
			in:   `<div class="x"><p>Hello <b>world</b></p><!-- note --><script>track()</script></div>`,
			want: `Hello world<br><br>`,
		},
		{
			name: "headings and lists",
			in:   `<h1>Title</h1><ul><li>1 cup flour</li></ul><ol><li>Mix</li></ol>`,
			want: `Title<br><ul><li>1 cup flour</li></ul><ol><li>Mix</li></ol>`,
		},
		{
			name: "list attributes stripped and empty items dropped",
			in:   `<ul class="ingredients"><li id="a" data-qty="1"> one </li><li>   </li></ul><ol></ol>`,
			want: `<ul><li> one </li></ul>`,
		},
		{
			name: "links keep href only",
			in:   `<a href="/x" class="c" rel="nofollow">link</a> <a>plain</a> <a href="/y"> </a>`,
			want: `<a href="/x">link</a> plain`,
		},
		{
			name: "images keep src and alt",
			in:   `<img src="/pie.jpg" alt="Pie" width="300" class="hero"/><img class="spacer"/>`,
			want: `<img src="/pie.jpg" alt="Pie">`,
		},
		{
			name: "lazy image falls back to data-src",
			in:   `<img data-src="/real.jpg" alt="Cake"/><img src="data:image/gif;base64,R0lGOD" data-src="/lazy.jpg"/>`,
			want: `<img src="/real.jpg" alt="Cake"><img src="/lazy.jpg">`,
		},
		{
			name: "removed wholesale",
			in:   `<form><input name="q"/><button>Go</button></form><svg><title>icon</title></svg><iframe src="x"></iframe><noscript>enable js</noscript><style>p{}</style>ok`,
			want: `ok`,
		},
		{
			name: "whitespace collapsed and trimmed",
			in:   "\n  <p>a\n\n   b</p>\n\t<p>c</p>  \n",
			want: `a b<br> c<br>`,
		},
		{
			name: "break variants normalized",
			in:   `one<br/>two<br>three`,
			want: `one<br>two<br>three`,
		},
		{
			name: "entities decoded where safe",
			in:   `<p>Don&#39;t &amp; &lt;stir&gt;</p>`,
			want: `Don't &amp; &lt;stir><br>`,
		},
		{
			name: "document wrappers dropped",
			in:   `<!DOCTYPE html><html><head><title>T</title></head><body><span>Body text</span></body></html>`,
			want: `Body text`,
		},
		{
			name: "nested anchors unwrap the inner link",
			in:   `<a href="/outer"><table><tr><td><a href="/inner">x</a></td></tr></table></a>`,
			want: `<a href="/outer">x</a>`,
		},
		{
			name: "link around a list is unwrapped",
			in:   `<a href="/list"><ul><li>item</li></ul></a>`,
			want: `<ul><li>item</li></ul>`,
		},
		{
			name: "empty input",
			in:   ``,
			want: ``,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if got != tt.want {
				t.Errorf("Sanitize() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

// corpus is well-formed serialized markup of the kind the locator emits.
var corpus = []string{
	`<h1>Title</h1><ul><li>1 cup flour</li></ul><ol><li>Mix</li></ol>`,
	`<div class="recipe"><h2 class="title">Lemon Drizzle</h2><p>A classic bake.</p><div class="ingredients"><h3>Sponge</h3><ul><li><span class="qty">225g</span> butter (softened)</li><li>225g caster sugar</li></ul><h3>Drizzle</h3><ul><li>1 lemon, juiced</li></ul></div><ol class="steps"><li><p>Heat the oven.</p></li><li><p>Beat &amp; fold.</p></li></ol></div>`,
	`<section><figure><img src="/a.jpg" alt="A" loading="lazy"/><figcaption>Caption</figcaption></figure><p>Serve with <a href="/cream" target="_blank">cream</a>.</p></section>`,
	`<div><!-- ad slot --><script type="text/javascript">var x = "<p>";</script><p id="intro">It&#39;s &#34;easy&#34;.</p><form action="/s"><input type="text"/></form></div>`,
	`<table><tbody><tr><td>Prep</td><td>10 min</td></tr><tr><td>Cook</td><td>20 min</td></tr></tbody></table>`,
	`<ul><li><ul><li>nested</li><li></li></ul></li><li>   </li></ul>`,
	`<a href="/outer"><div><a href="/inner">text</a></div></a><p><a href="/p">para link</a></p>`,
	`<p>   </p><div>   <span>  </span>  </div><ol><li><a href="/x">  </a></li></ol>`,
	`<img data-src="/lazy.png"/><img src="" alt=""/><br/><br/>text`,
	`<h2>Method</h2><ol><li>Step one<br/>continued</li><li>Step two</li></ol><p>Enjoy</p>`,
	`<div><div><div><p>deep</p></div></div></div>`,
	`plain text with no markup at all`,
}

func TestSanitize_Idempotent(t *testing.T) {
	for i, in := range corpus {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("corpus[%d]: not idempotent\nonce:  %q\ntwice: %q", i, once, twice)
		}
	}
}

func TestSanitize_SizeNonIncreasing(t *testing.T) {
	for i, in := range corpus {
		out := Sanitize(in)
		if len(out) > len(in) {
			t.Errorf("corpus[%d]: output %d bytes > input %d bytes\n%q", i, len(out), len(in), out)
		}
	}
}

func TestSanitize_TagWhitelist(t *testing.T) {
	allowed := map[string]map[string]bool{
		"a":   {"href": true},
		"ul":  {},
		"ol":  {},
		"li":  {},
		"br":  {},
		"img": {"src": true, "alt": true},
	}

	for i, in := range corpus {
		out := Sanitize(in)
		z := html.NewTokenizer(strings.NewReader(out))
		for {
			tt := z.Next()
			if tt == html.ErrorToken {
				if z.Err() != io.EOF {
					t.Fatalf("corpus[%d]: tokenize: %v", i, z.Err())
				}
				break
			}
			tok := z.Token()
			switch tt {
			case html.CommentToken, html.DoctypeToken:
				t.Errorf("corpus[%d]: unexpected %v in %q", i, tt, out)
			case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
				attrs, ok := allowed[tok.Data]
				if !ok {
					t.Errorf("corpus[%d]: disallowed tag <%s> in %q", i, tok.Data, out)
					continue
				}
				for _, a := range tok.Attr {
					if !attrs[a.Key] {
						t.Errorf("corpus[%d]: disallowed attribute %s on <%s>", i, a.Key, tok.Data)
					}
				}
			}
		}
	}
}

func TestSanitize_NoEmptyPreservedElements(t *testing.T) {
	for i, in := range corpus {
		out := Sanitize(in)
		for _, empty := range []string{"<a></a>", "<ul></ul>", "<ol></ol>", "<li></li>", "<li> </li>"} {
			if strings.Contains(out, empty) {
				t.Errorf("corpus[%d]: output contains %s: %q", i, empty, out)
			}
		}
	}
}

func TestSanitizeWithStats(t *testing.T) {
	s := New()
	in := `<div class="a"><script>x()</script><p>Hi</p><ul><li></li></ul></div>`

	out, stats := s.SanitizeWithStats(in)
	if out != "Hi<br><br>" {
		t.Errorf("output = %q", out)
	}
	if stats.InputBytes != len(in) || stats.OutputBytes != len(out) {
		t.Errorf("bytes = %d -> %d, want %d -> %d", stats.InputBytes, stats.OutputBytes, len(in), len(out))
	}
	if stats.ElementsRemoved["script"] != 1 {
		t.Errorf("ElementsRemoved[script] = %d, want 1", stats.ElementsRemoved["script"])
	}
	if stats.EmptyElementRemovals < 2 {
		t.Errorf("EmptyElementRemovals = %d, want >= 2", stats.EmptyElementRemovals)
	}
	if stats.Passes < 1 || stats.Passes > DefaultMaxPasses {
		t.Errorf("Passes = %d", stats.Passes)
	}
	if stats.ReductionPercent() <= 0 {
		t.Errorf("ReductionPercent() = %f, want > 0", stats.ReductionPercent())
	}
}

func TestSanitizer_Cleaner(t *testing.T) {
	s := New()
	if s.Name() != "sanitizer" {
		t.Errorf("Name() = %q", s.Name())
	}
	got, err := s.Clean(`<p>x</p>`)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if got != "x<br>" {
		t.Errorf("Clean() = %q", got)
	}
}
