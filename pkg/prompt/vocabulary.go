package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vocabulary is a tag allow-list file. Either form is accepted:
//
//	tags: [vegetarian, dessert]
//
// or a bare sequence:
//
//	- vegetarian
//	- dessert
type Vocabulary struct {
	Tags []string `yaml:"tags"`
}

// ParseVocabulary decodes a tag list from YAML.
func ParseVocabulary(data []byte) ([]string, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to parse tag vocabulary: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	var tags []string
	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&tags); err != nil {
			return nil, fmt.Errorf("failed to decode tag list: %w", err)
		}
	case yaml.MappingNode:
		var v Vocabulary
		if err := root.Decode(&v); err != nil {
			return nil, fmt.Errorf("failed to decode tag vocabulary: %w", err)
		}
		tags = v.Tags
	default:
		return nil, fmt.Errorf("tag vocabulary must be a list or a mapping with a tags key")
	}
	return cleanTags(tags), nil
}

// LoadVocabulary reads a tag list from a YAML file.
func LoadVocabulary(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag vocabulary: %w", err)
	}
	return ParseVocabulary(data)
}

// SplitTags parses a comma separated tag list.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return cleanTags(strings.Split(s, ","))
}
