package locator

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMinTextLength is the text length a selector match must exceed and
// a density candidate must reach.
const DefaultMinTextLength = 200

// KeywordBoost multiplies the density of blocks mentioning recipe terms.
const KeywordBoost = 1.5

// DefaultSelectors are tried in order after noise removal. Recipe markers
// come before generic content containers.
var DefaultSelectors = []string{
	`[itemtype*="Recipe"]`,
	`[class*="recipe-container"]`,
	`[id*="recipe-container"]`,
	`[class*="recipe-content"]`,
	`[id*="recipe-content"]`,
	`[itemprop="recipeInstructions"]`,
	"main",
	".main-content",
	".post-content",
	".entry-content",
	".content",
	"#content",
}

// noiseElements are removed before selector matching.
const noiseElements = "script, style, nav, footer, header, svg, button, dialog"

// noisePatterns match class or id values of page furniture. Matching is by
// plain substring, so "ad-" also hits names such as "bread-recipe" or
// "salad-list" and removes them along with their content.
var noisePatterns = []string{
	"social", "share", "comment", "widget", "sidebar", "banner", "ad-",
	"navigation", "menu", "popup", "modal", "newsletter", "related",
	"recommended", "promo", "subscribe",
}

var recipeKeywords = regexp.MustCompile(`(?i)ingredients|instructions|preparation|directions|recipe|method|cook|bake|serve`)

// ArticleRule picks the <article> with the longest text.
func ArticleRule() Rule {
	return Rule{
		Name: "article",
		Apply: func(doc *goquery.Document) (Candidate, bool) {
			var best *goquery.Selection
			bestLen := -1
			doc.Find("article").Each(func(_ int, s *goquery.Selection) {
				if n := textLength(s.Text()); n > bestLen {
					best, bestLen = s, n
				}
			})
			if best == nil {
				return Candidate{}, false
			}
			h, ok := innerHTML(best)
			if !ok {
				return Candidate{}, false
			}
			return Candidate{HTML: h, Score: float64(bestLen), Source: "article", TextLength: bestLen}, true
		},
	}
}

// SelectorRule removes page furniture, then returns the first element
// matched by selectors, in order, whose text exceeds DefaultMinTextLength.
func SelectorRule(selectors ...string) Rule {
	return Rule{
		Name: "selector",
		Apply: func(doc *goquery.Document) (Candidate, bool) {
			RemoveNoise(doc)
			for _, selector := range selectors {
				var found Candidate
				doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
					n := textLength(s.Text())
					if n <= DefaultMinTextLength {
						return true
					}
					h, ok := innerHTML(s)
					if !ok {
						return true
					}
					found = Candidate{HTML: h, Score: float64(n), Source: "selector:" + selector, TextLength: n}
					return false
				})
				if found.Source != "" {
					return found, true
				}
			}
			return Candidate{}, false
		},
	}
}

// RemoveNoise deletes navigation, scripts and elements whose class or id
// names page furniture such as share bars, ads and comment threads.
func RemoveNoise(doc *goquery.Document) int {
	removed := doc.Find(noiseElements)
	count := removed.Length()
	removed.Remove()

	var noisy []*goquery.Selection
	doc.Find("[class], [id]").Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "html", "body":
			return
		}
		if isNoise(s) {
			noisy = append(noisy, s)
		}
	})
	for _, s := range noisy {
		s.Remove()
	}
	return count + len(noisy)
}

func isNoise(s *goquery.Selection) bool {
	names := strings.Fields(strings.ToLower(s.AttrOr("class", "")))
	if id := strings.ToLower(strings.TrimSpace(s.AttrOr("id", ""))); id != "" {
		names = append(names, id)
	}
	for _, name := range names {
		for _, pattern := range noisePatterns {
			if strings.Contains(name, pattern) {
				return true
			}
		}
	}
	return false
}

// DensityRule scores div, section and article blocks with at least
// minText characters by text length over markup length, boosted when the
// text mentions recipe terms. The highest score wins; ties keep the
// earliest block.
func DensityRule(minText int) Rule {
	return Rule{
		Name: "density",
		Apply: func(doc *goquery.Document) (Candidate, bool) {
			var best Candidate
			bestScore := 0.0
			doc.Find("div, section, article").Each(func(_ int, s *goquery.Selection) {
				text := s.Text()
				n := textLength(text)
				if n < minText {
					return
				}
				outer, err := goquery.OuterHtml(s)
				if err != nil || outer == "" {
					return
				}
				score := float64(n) / float64(utf8.RuneCountInString(outer))
				if recipeKeywords.MatchString(text) {
					score *= KeywordBoost
				}
				if score <= bestScore {
					return
				}
				h, ok := innerHTML(s)
				if !ok {
					return
				}
				bestScore = score
				best = Candidate{HTML: h, Score: score, Source: "density", TextLength: n}
			})
			if best.Source == "" {
				return Candidate{}, false
			}
			return best, true
		},
	}
}

// BodyRule returns the document body. It fails when the body has no
// markup, leaving the raw input as the last resort.
func BodyRule() Rule {
	return Rule{
		Name: "body",
		Apply: func(doc *goquery.Document) (Candidate, bool) {
			body := doc.Find("body").First()
			if body.Length() == 0 {
				return Candidate{}, false
			}
			h, ok := innerHTML(body)
			if !ok {
				return Candidate{}, false
			}
			return Candidate{HTML: h, Source: "body", TextLength: textLength(body.Text())}, true
		},
	}
}
