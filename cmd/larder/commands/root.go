// Package commands implements the CLI commands for larder.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/larder/internal/config"
	"github.com/jmylchreest/larder/internal/logger"
	"github.com/jmylchreest/larder/pkg/larder"
	"github.com/jmylchreest/larder/pkg/llm"
)

var rootCmd = &cobra.Command{
	Use:   "larder",
	Short: "Extract structured recipes from web pages",
	Long: `Larder turns recipe pages into structured recipes.

It fetches a page, locates the recipe content, strips it down to a small
markup dialect and asks a completion engine for a single JSON recipe,
which is then validated.

Examples:
  # Extract a recipe from a page
  larder extract -u "https://example.com/banana-bread"

  # Restrict tags to a vocabulary and write YAML
  larder extract -u "https://example.com/soup" --tags-file tags.yaml --format yaml

  # Use local Ollama
  larder extract -u "https://example.com/soup" -p ollama -m llama3.2

  # Inspect what would be sent to the engine
  larder clean -u "https://example.com/soup" --format markdown`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.larder.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")

	// Completion engine
	flags.StringP("provider", "p", "", "provider: anthropic, openai, openrouter, ollama (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")

	// Fetching
	flags.Duration("timeout", 0, "fetch timeout (default 15s)")
	flags.String("max-body-size", "", "fetch body cap, e.g. 10MiB")
	flags.String("user-agent", "", "fetch user agent")

	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", flags.Lookup("quiet"))
	_ = viper.BindPFlag("log.json", flags.Lookup("log-json"))
	_ = viper.BindPFlag("llm.provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("llm.model", flags.Lookup("model"))
	_ = viper.BindPFlag("llm.api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("llm.base_url", flags.Lookup("base-url"))
	// Unchanged flags never shadow config defaults.
	_ = viper.BindPFlag("fetch.timeout", flags.Lookup("timeout"))
	_ = viper.BindPFlag("fetch.max_body_size", flags.Lookup("max-body-size"))
	_ = viper.BindPFlag("fetch.user_agent", flags.Lookup("user-agent"))
}

func initConfig() {
	v := viper.GetViper()
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".larder")
		v.SetConfigType("yaml")
	}

	config.Setup(v)

	// Read config file (ignore error if not found)
	_ = v.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig decodes the merged configuration and initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logError("%v", err)
		return nil, err
	}
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  cfg.Log.JSON,
		Level: cfg.Log.Level,
	})
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("config loaded", "file", f)
	}
	return cfg, nil
}

// newLarder builds the pipeline from cfg. Completion calls are logged at
// debug level.
func newLarder(cfg *config.Config) (*larder.Larder, error) {
	opts, err := cfg.LarderOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, larder.WithObserver(llm.ObserverFunc(logCall)))
	l, err := larder.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	return l, nil
}

func logCall(ctx context.Context, ev llm.LLMCallEvent) {
	args := []any{
		"provider", ev.Provider,
		"model", ev.Model,
		"prompt_size", ev.Request.PromptSize,
		"duration", ev.Duration,
	}
	if ev.Response != nil {
		args = append(args,
			"input_tokens", ev.Response.InputTokens,
			"output_tokens", ev.Response.OutputTokens,
			"finish_reason", ev.Response.FinishReason)
	}
	if ev.Error != nil {
		args = append(args, "error", ev.Error)
	}
	logger.DebugContext(ctx, "completion call", args...)
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
