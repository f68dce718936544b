package config

import (
	"github.com/jmylchreest/larder/pkg/larder"
	"github.com/jmylchreest/larder/pkg/prompt"
)

// LarderOptions translates the configuration into pipeline options.
func (c *Config) LarderOptions() ([]larder.Option, error) {
	maxBody, err := c.Fetch.MaxBodyBytes()
	if err != nil {
		return nil, err
	}
	return []larder.Option{
		larder.WithProvider(c.LLM.Provider),
		larder.WithModel(c.LLM.Model),
		larder.WithAPIKey(c.LLM.APIKey),
		larder.WithBaseURL(c.LLM.BaseURL),
		larder.WithTemperature(c.LLM.Temperature),
		larder.WithMaxTokens(c.LLM.MaxTokens),
		larder.WithLLMTimeout(c.LLM.Timeout),
		larder.WithTimeout(c.Fetch.Timeout),
		larder.WithUserAgent(c.Fetch.UserAgent),
		larder.WithMaxBodySize(maxBody),
		larder.WithMaxContentSize(c.Prompt.MaxContent),
	}, nil
}

// Vocabulary returns the allowed tags: the tags file entries followed by
// the inline tags. Nil means the engine may choose freely.
func (p PromptConfig) Vocabulary() ([]string, error) {
	var tags []string
	if p.TagsFile != "" {
		loaded, err := prompt.LoadVocabulary(p.TagsFile)
		if err != nil {
			return nil, err
		}
		tags = append(tags, loaded...)
	}
	tags = append(tags, p.Tags...)
	if len(tags) == 0 {
		return nil, nil
	}
	return tags, nil
}
