// Package prompt builds the instruction pair sent to the completion engine.
package prompt

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxContent is the largest fragment, in characters, embedded verbatim.
const DefaultMaxContent = 60000

// TruncationMarker is appended to fragments cut at the content limit.
const TruncationMarker = "\n\n[Content truncated due to length...]"

// Prompt is a system instruction and user message pair.
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// SystemInstruction fixes the engine's role.
const SystemInstruction = `You are a specialized recipe extraction assistant. You read cleaned webpage markup and return the recipe it contains as a single JSON object.

Respond with ONLY valid JSON. No explanations, no markdown code fences.`

const schemaDescription = `## Output Schema

Return one JSON object with these fields:

- "title" (string, required): the recipe name
- "description" (string, required): a short summary of the dish, or "" if the page has none
- "ingredients" (array, required): each element is either
  - a leaf: {"text": "1 cup flour", "optional": true}, where "optional" is included only when the page marks the ingredient as optional
  - a section: {"sectionTitle": "For the frosting", "ingredients": [ ...leaves or sections... ]}
- "instructions" (array, required): each element is {"text": "One step of the method"}, in order
- "cookingTime" (integer, optional): total time in minutes
- "servings" (integer, optional): number of servings
- "imageUrl" (string, optional): absolute URL of the main recipe image
`

const contentRules = `## Rules

1. Prefer imperial units over metric when the page gives both.
2. Compress preparation notes into minimal parenthetical text, e.g. "butter should be softened" becomes "butter (softened)".
3. Keep ingredient sections only when the page groups ingredients under headings.
4. Omit optional fields you cannot find. Never invent values.
5. If the page has no discoverable recipe, answer exactly {"error": "No recipe found"} and nothing else.
`

// Builder assembles prompts. The zero value never truncates.
type Builder struct {
	// MaxContent bounds the embedded fragment in characters. Zero or
	// negative disables truncation.
	MaxContent int
}

// NewBuilder returns a Builder with DefaultMaxContent.
func NewBuilder() *Builder {
	return &Builder{MaxContent: DefaultMaxContent}
}

// Build embeds fragment, and tags when non-empty, into an extraction prompt.
func (b *Builder) Build(fragment string, tags []string) Prompt {
	var user strings.Builder

	user.WriteString("Extract the recipe from the following webpage content.\n\n")
	user.WriteString(schemaDescription)

	if vocab := cleanTags(tags); len(vocab) > 0 {
		user.WriteString("- \"tags\" (array of strings, optional): choose only from this fixed list, never add others: ")
		user.WriteString(strings.Join(vocab, ", "))
		user.WriteString("\n")
	}

	user.WriteString("\n")
	user.WriteString(contentRules)

	user.WriteString("\n## Webpage Content\n")
	user.WriteString("```\n")
	user.WriteString(TruncateContent(fragment, b.MaxContent))
	user.WriteString("\n```\n")

	return Prompt{System: SystemInstruction, User: user.String()}
}

// Build uses a default Builder.
func Build(fragment string, tags []string) Prompt {
	return NewBuilder().Build(fragment, tags)
}

// TruncateContent keeps the first maxLen characters of content and appends
// TruncationMarker. Content within the limit, or a non-positive maxLen,
// returns content unchanged.
func TruncateContent(content string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(content) <= maxLen {
		return content
	}
	cut := 0
	for i := range content {
		if maxLen == 0 {
			cut = i
			break
		}
		maxLen--
	}
	return content[:cut] + TruncationMarker
}

// cleanTags trims, drops blanks and removes duplicates, keeping order.
func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
