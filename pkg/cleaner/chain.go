package cleaner

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/larder/internal/logger"
)

// StageReport records one stage of a chain run.
type StageReport struct {
	Name       string
	InputSize  int
	OutputSize int
	Duration   time.Duration
}

// ChainCleaner runs cleaners in order, feeding each the previous output.
//
//	chain := cleaner.NewChain(
//	    cleaner.NewLocator(nil),
//	    sanitizer.New(),
//	    cleaner.NewMarkdown(),
//	)
type ChainCleaner struct {
	stages []Cleaner
}

// NewChain builds a chain from stages.
func NewChain(stages ...Cleaner) *ChainCleaner {
	return &ChainCleaner{stages: stages}
}

// Clean implements Cleaner.
func (c *ChainCleaner) Clean(content string) (string, error) {
	out, _, err := c.Run(content)
	return out, err
}

// Run is Clean with a per-stage size report. The first failing stage stops
// the chain; its error is prefixed with the stage name.
func (c *ChainCleaner) Run(content string) (string, []StageReport, error) {
	reports := make([]StageReport, 0, len(c.stages))
	for _, stage := range c.stages {
		start := time.Now()
		out, err := stage.Clean(content)
		if err != nil {
			return "", reports, fmt.Errorf("%s: %w", stage.Name(), err)
		}
		r := StageReport{
			Name:       stage.Name(),
			InputSize:  len(content),
			OutputSize: len(out),
			Duration:   time.Since(start),
		}
		logger.Debug("cleaner stage complete",
			"cleaner", r.Name,
			"input_size", r.InputSize,
			"output_size", r.OutputSize,
			"duration", r.Duration)
		reports = append(reports, r)
		content = out
	}
	return content, reports, nil
}

// Name lists the stages, e.g. chain(locator->sanitizer).
func (c *ChainCleaner) Name() string {
	names := make([]string, len(c.stages))
	for i, stage := range c.stages {
		names[i] = stage.Name()
	}
	return "chain(" + strings.Join(names, "->") + ")"
}
