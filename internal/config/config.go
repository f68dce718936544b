// Package config loads larder settings from flags, environment and
// .larder.yaml through viper, and validates them.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/larder/pkg/extractor"
	"github.com/jmylchreest/larder/pkg/fetcher"
	"github.com/jmylchreest/larder/pkg/llm"
	"github.com/jmylchreest/larder/pkg/prompt"
)

// EnvPrefix prefixes every environment override, e.g. LARDER_LLM_MODEL.
const EnvPrefix = "LARDER"

// DefaultMaxRequestSize bounds HTTP API request bodies.
const DefaultMaxRequestSize = "12MiB"

// Config is the complete larder configuration.
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
	Prompt PromptConfig `mapstructure:"prompt"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

// LLMConfig selects and tunes the completion engine.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider" validate:"omitempty,oneof=anthropic openai openrouter ollama"`
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url" validate:"omitempty,url"`
	Temperature float64       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"gte=1"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// FetchConfig tunes page retrieval.
type FetchConfig struct {
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxBodySize string        `mapstructure:"max_body_size" validate:"required,bytesize"`
	UserAgent   string        `mapstructure:"user_agent" validate:"required"`
}

// PromptConfig tunes prompt construction.
type PromptConfig struct {
	MaxContent int      `mapstructure:"max_content" validate:"gte=1"`
	Tags       []string `mapstructure:"tags"`
	TagsFile   string   `mapstructure:"tags_file"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string `mapstructure:"addr" validate:"required"`
	APIKey         string `mapstructure:"api_key"`
	MaxRequestSize string `mapstructure:"max_request_size" validate:"required,bytesize"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// SetDefaults registers every key with its default so that environment
// overrides reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", extractor.DefaultTemperature)
	v.SetDefault("llm.max_tokens", llm.DefaultMaxTokens)
	v.SetDefault("llm.timeout", llm.DefaultTimeout)

	v.SetDefault("fetch.timeout", fetcher.DefaultTimeout)
	v.SetDefault("fetch.max_body_size", humanize.IBytes(fetcher.DefaultMaxBodySize))
	v.SetDefault("fetch.user_agent", fetcher.DefaultUserAgent)

	v.SetDefault("prompt.max_content", prompt.DefaultMaxContent)
	v.SetDefault("prompt.tags", []string{})
	v.SetDefault("prompt.tags_file", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.max_request_size", DefaultMaxRequestSize)

	v.SetDefault("log.level", "")
	v.SetDefault("log.json", false)
}

// Setup installs defaults and environment handling on v.
func Setup(v *viper.Viper) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// New returns a viper instance prepared with Setup.
func New() *viper.Viper {
	v := viper.New()
	Setup(v)
	return v
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("bytesize", func(fl validator.FieldLevel) bool {
		_, err := humanize.ParseBytes(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// MaxBodyBytes returns the fetch body cap in bytes.
func (f FetchConfig) MaxBodyBytes() (int, error) {
	return parseSize(f.MaxBodySize)
}

// MaxRequestBytes returns the API request body limit in bytes.
func (s ServerConfig) MaxRequestBytes() (int64, error) {
	n, err := parseSize(s.MaxRequestSize)
	return int64(n), err
}

func parseSize(s string) (int, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int(n), nil
}
