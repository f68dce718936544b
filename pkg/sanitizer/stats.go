package sanitizer

import (
	"fmt"
	"strings"
	"time"
)

// Stats captures metrics about what the sanitizer did. Methods are safe to
// call on a nil receiver.
type Stats struct {
	InputBytes  int `json:"input_bytes"`
	OutputBytes int `json:"output_bytes"`
	Passes      int `json:"passes"`

	// ElementsRemoved counts elements dropped with their content, by tag.
	ElementsRemoved map[string]int `json:"elements_removed"`
	// ElementsUnwrapped counts elements replaced by their content.
	ElementsUnwrapped int `json:"elements_unwrapped"`
	// EmptyElementRemovals counts preserved elements dropped for having no content.
	EmptyElementRemovals int `json:"empty_element_removals"`
	AttributesRemoved    int `json:"attributes_removed"`

	Duration time.Duration `json:"duration_ms"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{ElementsRemoved: make(map[string]int)}
}

// RecordRemoval records that an element was removed with its content.
func (s *Stats) RecordRemoval(tag string) {
	if s == nil {
		return
	}
	s.ElementsRemoved[strings.ToLower(tag)]++
}

// RecordUnwrap records that an element was replaced by its content.
func (s *Stats) RecordUnwrap() {
	if s == nil {
		return
	}
	s.ElementsUnwrapped++
}

// RecordEmpty records that an empty preserved element was dropped.
func (s *Stats) RecordEmpty(tag string) {
	if s == nil {
		return
	}
	s.EmptyElementRemovals++
}

// RecordAttributes adjusts the dropped attribute count. Kept attributes are
// recorded as -1.
func (s *Stats) RecordAttributes(n int) {
	if s == nil {
		return
	}
	s.AttributesRemoved += n
}

// TotalElementsRemoved returns the sum of all removed elements.
func (s *Stats) TotalElementsRemoved() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, count := range s.ElementsRemoved {
		total += count
	}
	return total
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s == nil || s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	if s == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Size: %d -> %d bytes (%.1f%% reduction)\n",
		s.InputBytes, s.OutputBytes, s.ReductionPercent()))
	sb.WriteString(fmt.Sprintf("Elements: %d removed, %d unwrapped, %d empty dropped\n",
		s.TotalElementsRemoved(), s.ElementsUnwrapped, s.EmptyElementRemovals))
	sb.WriteString(fmt.Sprintf("Attributes removed: %d\n", s.AttributesRemoved))
	sb.WriteString(fmt.Sprintf("Passes: %d in %v", s.Passes, s.Duration))
	return sb.String()
}
