package recipe

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Error types for distinguishing why an engine answer produced no recipe.
// Check with errors.Is(err, recipe.ErrNoRecipe).
var (
	// ErrMalformedResponse indicates the answer was not a single JSON object.
	ErrMalformedResponse = errors.New("malformed extraction response")
	// ErrNoRecipe indicates the engine declared there is no recipe on the page.
	ErrNoRecipe = errors.New("no recipe found")
	// ErrSchemaViolation indicates required fields were missing or empty after coercion.
	ErrSchemaViolation = errors.New("response violates recipe schema")
)

// DefaultMaxDepth bounds section nesting. Deeper sections collapse to a line.
const DefaultMaxDepth = 8

// Normalizer converts raw engine text into a Recipe.
type Normalizer struct {
	// Now stamps CreatedAt. Defaults to time.Now.
	Now func() time.Time

	// Placeholder replaces an absent image URL.
	Placeholder string

	// MaxDepth bounds section nesting (default: DefaultMaxDepth).
	MaxDepth int
}

// NewNormalizer returns a Normalizer with default settings.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		Now:         time.Now,
		Placeholder: PlaceholderImage,
		MaxDepth:    DefaultMaxDepth,
	}
}

// Normalize parses raw with default settings.
func Normalize(raw, sourceURL string) (*Recipe, error) {
	return NewNormalizer().Normalize(raw, sourceURL)
}

// Normalize parses raw, coerces loosely shaped fields into the Recipe shape
// and validates the result. It returns a nil recipe and an error wrapping
// ErrMalformedResponse, ErrNoRecipe or ErrSchemaViolation when no valid
// recipe can be produced.
func (n *Normalizer) Normalize(raw, sourceURL string) (*Recipe, error) {
	obj, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}

	if reason, ok := obj["error"]; ok {
		if s, isStr := reason.(string); isStr && s != "" {
			return nil, fmt.Errorf("%w: %s", ErrNoRecipe, s)
		}
		return nil, ErrNoRecipe
	}

	for _, field := range []string{"title", "ingredients", "instructions"} {
		if _, ok := obj[field]; !ok {
			return nil, fmt.Errorf("%w: missing required field %q", ErrSchemaViolation, field)
		}
	}

	title, ok := obj["title"].(string)
	if !ok {
		return nil, fmt.Errorf("%w: title must be a string", ErrSchemaViolation)
	}

	r := &Recipe{
		Title:        strings.TrimSpace(title),
		Description:  stringField(obj["description"]),
		Ingredients:  n.ingredients(asList(obj["ingredients"]), 0),
		Instructions: instructions(asList(obj["instructions"])),
		CookingTime:  positiveInt(obj["cookingTime"]),
		Servings:     positiveInt(obj["servings"]),
		ImageURL:     stringField(obj["imageUrl"]),
		Tags:         stringList(obj["tags"]),
		SourceURL:    strings.TrimSpace(sourceURL),
		CreatedAt:    n.now(),
	}
	if r.ImageURL == "" {
		r.ImageURL = n.placeholder()
	}

	if err := Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (n *Normalizer) now() time.Time {
	if n.Now == nil {
		return time.Now().UTC()
	}
	return n.Now().UTC()
}

func (n *Normalizer) placeholder() string {
	if n.Placeholder == "" {
		return PlaceholderImage
	}
	return n.Placeholder
}

func (n *Normalizer) maxDepth() int {
	if n.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return n.MaxDepth
}

// ingredients builds nodes top-down from decoded JSON. An element is a
// section when it has a non-blank sectionTitle or a child list; a null or
// blank sectionTitle alone leaves it a leaf. A section without a child list,
// or past the depth bound, becomes a leaf carrying its section title.
// Sections left without children are dropped.
func (n *Normalizer) ingredients(items []any, depth int) []IngredientNode {
	var nodes []IngredientNode
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if text := strings.TrimSpace(v); text != "" {
				nodes = append(nodes, Leaf(text))
			}
		case map[string]any:
			title := stringField(v["sectionTitle"])
			children := v["ingredients"]
			if title != "" || children != nil {
				if children != nil && depth < n.maxDepth() {
					kids := n.ingredients(asList(children), depth+1)
					if len(kids) > 0 && title != "" {
						nodes = append(nodes, Section(title, kids...))
					} else if len(kids) > 0 {
						nodes = append(nodes, kids...)
					}
					continue
				}
				if title != "" {
					nodes = append(nodes, Leaf(title))
				}
				continue
			}
			text := stringField(v["text"])
			if text == "" {
				continue
			}
			if optional, _ := v["optional"].(bool); optional {
				nodes = append(nodes, OptionalLeaf(text))
			} else {
				nodes = append(nodes, Leaf(text))
			}
		}
	}
	return nodes
}

// instructions keeps steps in order. A section-shaped step is flattened to
// its title since instructions carry no grouping.
func instructions(items []any) []InstructionItem {
	var steps []InstructionItem
	for _, item := range items {
		var text string
		switch v := item.(type) {
		case string:
			text = strings.TrimSpace(v)
		case map[string]any:
			text = stringField(v["text"])
			if text == "" {
				text = stringField(v["sectionTitle"])
			}
		}
		if text != "" {
			steps = append(steps, InstructionItem{Text: text})
		}
	}
	return steps
}

// decodeObject parses raw as exactly one JSON object, tolerating a
// surrounding markdown code fence.
func decodeObject(raw string) (map[string]any, error) {
	body := StripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedResponse)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a JSON object, got %T", ErrMalformedResponse, v)
	}
	return obj, nil
}

// StripCodeFence removes a markdown code block wrapper from a JSON answer.
// Some models wrap their output in ```json ... ``` blocks.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// asList wraps a scalar or object in a single element list.
func asList(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	default:
		return []any{t}
	}
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// positiveInt accepts JSON numbers and numeric strings. Anything that does
// not yield a whole number of at least one is reported as absent.
func positiveInt(v any) *int {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 || f > math.MaxInt32 {
		return nil
	}
	i := int(f)
	return &i
}
