// Package recipe defines the canonical Recipe shape and turns raw completion
// engine answers into validated recipes.
package recipe

import (
	"encoding/json"
	"fmt"
	"time"
)

// PlaceholderImage is used for ImageURL when the engine reports none.
const PlaceholderImage = "recipe-placeholder.png"

// Recipe is the structured result of one extraction run.
type Recipe struct {
	Title        string            `json:"title" yaml:"title" validate:"required"`
	Description  string            `json:"description" yaml:"description"`
	Ingredients  []IngredientNode  `json:"ingredients" yaml:"ingredients" validate:"required,min=1,dive"`
	Instructions []InstructionItem `json:"instructions" yaml:"instructions" validate:"required,min=1,dive"`
	CookingTime  *int              `json:"cookingTime,omitempty" yaml:"cookingTime,omitempty" validate:"omitempty,gt=0"`
	Servings     *int              `json:"servings,omitempty" yaml:"servings,omitempty" validate:"omitempty,gt=0"`
	ImageURL     string            `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	Tags         []string          `json:"tags,omitempty" yaml:"tags,omitempty"`
	SourceURL    string            `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty"`
	CreatedAt    time.Time         `json:"createdAt" yaml:"createdAt" validate:"required"`
}

// InstructionItem is a single ordered step.
type InstructionItem struct {
	Text string `json:"text" yaml:"text" validate:"required"`
}

// NodeKind discriminates the IngredientNode variants.
type NodeKind string

const (
	KindLeaf    NodeKind = "leaf"
	KindSection NodeKind = "section"
)

// IngredientNode is either a leaf ingredient line or a titled section that
// groups further nodes. Use Leaf and Section to build one.
type IngredientNode struct {
	Kind NodeKind `json:"-" yaml:"-"`

	// Leaf fields.
	Text     string `json:"-" yaml:"-"`
	Optional bool   `json:"-" yaml:"-"`

	// Section fields.
	SectionTitle string           `json:"-" yaml:"-"`
	Ingredients  []IngredientNode `json:"-" yaml:"-" validate:"omitempty,dive"`
}

// Leaf returns an ingredient line.
func Leaf(text string) IngredientNode {
	return IngredientNode{Kind: KindLeaf, Text: text}
}

// OptionalLeaf returns an ingredient line flagged as optional.
func OptionalLeaf(text string) IngredientNode {
	return IngredientNode{Kind: KindLeaf, Text: text, Optional: true}
}

// Section returns a titled group of ingredients.
func Section(title string, children ...IngredientNode) IngredientNode {
	return IngredientNode{Kind: KindSection, SectionTitle: title, Ingredients: children}
}

// IsSection reports whether n is a section node.
func (n IngredientNode) IsSection() bool {
	return n.Kind == KindSection
}

// Leaves returns every leaf under n in document order.
func (n IngredientNode) Leaves() []IngredientNode {
	if !n.IsSection() {
		return []IngredientNode{n}
	}
	var out []IngredientNode
	for _, child := range n.Ingredients {
		out = append(out, child.Leaves()...)
	}
	return out
}

type leafWire struct {
	Text     string `json:"text" yaml:"text"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
}

type sectionWire struct {
	SectionTitle string           `json:"sectionTitle" yaml:"sectionTitle"`
	Ingredients  []IngredientNode `json:"ingredients" yaml:"ingredients"`
}

// MarshalJSON writes a leaf as {text, optional?} and a section as
// {sectionTitle, ingredients}.
func (n IngredientNode) MarshalJSON() ([]byte, error) {
	if n.IsSection() {
		children := n.Ingredients
		if children == nil {
			children = []IngredientNode{}
		}
		return json.Marshal(sectionWire{SectionTitle: n.SectionTitle, Ingredients: children})
	}
	return json.Marshal(leafWire{Text: n.Text, Optional: n.Optional})
}

// UnmarshalJSON reads either wire form. The presence of sectionTitle selects
// the section variant.
func (n *IngredientNode) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("ingredient node: %w", err)
	}
	if _, ok := probe["sectionTitle"]; ok {
		var s sectionWire
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("ingredient section: %w", err)
		}
		*n = Section(s.SectionTitle, s.Ingredients...)
		return nil
	}
	var l leafWire
	if err := json.Unmarshal(data, &l); err != nil {
		return fmt.Errorf("ingredient leaf: %w", err)
	}
	*n = IngredientNode{Kind: KindLeaf, Text: l.Text, Optional: l.Optional}
	return nil
}

// MarshalYAML mirrors the JSON wire shape.
func (n IngredientNode) MarshalYAML() (interface{}, error) {
	if n.IsSection() {
		return sectionWire{SectionTitle: n.SectionTitle, Ingredients: n.Ingredients}, nil
	}
	return leafWire{Text: n.Text, Optional: n.Optional}, nil
}
