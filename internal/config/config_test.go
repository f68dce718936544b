package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/larder/pkg/fetcher"
	"github.com/jmylchreest/larder/pkg/prompt"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Fetch.Timeout != 15*time.Second {
		t.Errorf("Fetch.Timeout = %v, want 15s", cfg.Fetch.Timeout)
	}
	maxBody, err := cfg.Fetch.MaxBodyBytes()
	if err != nil || maxBody != fetcher.DefaultMaxBodySize {
		t.Errorf("MaxBodyBytes() = %d, %v; want %d", maxBody, err, fetcher.DefaultMaxBodySize)
	}
	if cfg.LLM.Temperature != 0.2 {
		t.Errorf("LLM.Temperature = %v, want 0.2", cfg.LLM.Temperature)
	}
	if cfg.Prompt.MaxContent != prompt.DefaultMaxContent {
		t.Errorf("Prompt.MaxContent = %d", cfg.Prompt.MaxContent)
	}
	reqBytes, err := cfg.Server.MaxRequestBytes()
	if err != nil || reqBytes != 12<<20 {
		t.Errorf("MaxRequestBytes() = %d, %v", reqBytes, err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".larder.yaml")
	data := `
llm:
  provider: ollama
  model: llama3.2
  temperature: 0
fetch:
  timeout: 5s
  max_body_size: 2MiB
prompt:
  tags: [dessert, vegan]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	v := New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "llama3.2" {
		t.Errorf("LLM = %+v", cfg.LLM)
	}
	if cfg.LLM.Temperature != 0 {
		t.Errorf("explicit zero temperature lost: %v", cfg.LLM.Temperature)
	}
	if cfg.Fetch.Timeout != 5*time.Second {
		t.Errorf("Fetch.Timeout = %v", cfg.Fetch.Timeout)
	}
	if n, _ := cfg.Fetch.MaxBodyBytes(); n != 2<<20 {
		t.Errorf("MaxBodyBytes() = %d, want %d", n, 2<<20)
	}
	if strings.Join(cfg.Prompt.Tags, ",") != "dessert,vegan" {
		t.Errorf("Prompt.Tags = %v", cfg.Prompt.Tags)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("LARDER_LLM_PROVIDER", "openai")
	t.Setenv("LARDER_FETCH_MAX_BODY_SIZE", "512KiB")

	cfg, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.LLM.Provider != "openai" {
		t.Errorf("LLM.Provider = %q, want openai", cfg.LLM.Provider)
	}
	if n, _ := cfg.Fetch.MaxBodyBytes(); n != 512<<10 {
		t.Errorf("MaxBodyBytes() = %d", n)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{"unknown provider", "llm.provider", "bard", "Provider"},
		{"temperature too high", "llm.temperature", 3.5, "Temperature"},
		{"bad size", "fetch.max_body_size", "lots", "MaxBodySize"},
		{"zero timeout", "fetch.timeout", "0s", "Timeout"},
		{"bad base url", "llm.base_url", "not a url", "BaseURL"},
		{"bad log level", "log.level", "chatty", "Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestPromptConfig_Vocabulary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tags.yaml")
	if err := os.WriteFile(path, []byte("tags: [breakfast, quick]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  PromptConfig
		want []string
	}{
		{"none", PromptConfig{}, nil},
		{"inline", PromptConfig{Tags: []string{"vegan"}}, []string{"vegan"}},
		{"file then inline", PromptConfig{TagsFile: path, Tags: []string{"vegan"}}, []string{"breakfast", "quick", "vegan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.Vocabulary()
			if err != nil {
				t.Fatalf("Vocabulary() error = %v", err)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") || (got == nil) != (tt.want == nil) {
				t.Errorf("Vocabulary() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := (PromptConfig{TagsFile: filepath.Join(t.TempDir(), "missing.yaml")}).Vocabulary(); err == nil {
		t.Error("expected error for missing tags file")
	}
}

func TestLarderOptions(t *testing.T) {
	cfg, err := Load(New())
	if err != nil {
		t.Fatal(err)
	}
	opts, err := cfg.LarderOptions()
	if err != nil {
		t.Fatalf("LarderOptions() error = %v", err)
	}
	if len(opts) == 0 {
		t.Error("expected options")
	}

	cfg.Fetch.MaxBodySize = "huge"
	if _, err := cfg.LarderOptions(); err == nil {
		t.Error("expected error for invalid size")
	}
}
