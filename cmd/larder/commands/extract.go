package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/larder/internal/config"
	"github.com/jmylchreest/larder/internal/logger"
	"github.com/jmylchreest/larder/internal/output"
	"github.com/jmylchreest/larder/pkg/larder"
	"github.com/jmylchreest/larder/pkg/prompt"
	"github.com/jmylchreest/larder/pkg/recipe"
)

var errNothingExtracted = errors.New("no recipes extracted")

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract recipes from URLs or saved pages",
	Long: `Extract structured recipes from web pages or local files.

Files ending in .md, .markdown or .txt are treated as markdown or plain
text; anything else as HTML. Inputs that yield no recipe are reported
with the reason and skipped.

Examples:
  larder extract -u "https://example.com/banana-bread"
  larder extract -u URL1 -u URL2 -c 4 --format jsonl -o recipes.jsonl
  larder extract -f saved-page.html --tags vegetarian,dessert`,
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	flags := extractCmd.Flags()
	flags.StringSliceP("url", "u", nil, "URL(s) to extract (can be repeated)")
	flags.StringSliceP("file", "f", nil, "local HTML/markdown file(s) to extract (can be repeated)")
	flags.String("tags", "", "comma separated tag vocabulary")
	flags.String("tags-file", "", "YAML tag vocabulary file")
	flags.String("format", "json", "output format: json, jsonl, yaml")
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.IntP("concurrency", "c", 3, "concurrent URL extractions")
	flags.Int("max-content", 0, "max characters of page content sent to the engine")

	_ = viper.BindPFlag("prompt.tags_file", flags.Lookup("tags-file"))
	_ = viper.BindPFlag("prompt.max_content", flags.Lookup("max-content"))
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	urls, _ := cmd.Flags().GetStringSlice("url")
	files, _ := cmd.Flags().GetStringSlice("file")
	urls = append(urls, args...)
	if len(urls) == 0 && len(files) == 0 {
		return cmd.Help()
	}

	tags, err := vocabulary(cmd, cfg)
	if err != nil {
		logError("%v", err)
		return err
	}
	logger.Debug("extract command starting", "urls", len(urls), "files", len(files), "tags", len(tags))

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		logError("%v", err)
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	out, closeOut, err := openOutput(outPath)
	if err != nil {
		logError("%v", err)
		return err
	}
	defer closeOut()

	w, err := output.NewWriter(out, format)
	if err != nil {
		return err
	}

	l, err := newLarder(cfg)
	if err != nil {
		logError("%v", err)
		return err
	}
	defer l.Close()

	total, extracted := len(urls)+len(files), 0
	emit := func(source string, r *recipe.Recipe, err error) {
		if err != nil {
			reportMiss(source, err)
			return
		}
		if werr := w.Write(r); werr != nil {
			logger.Error("failed to write recipe", "source", source, "error", werr)
			return
		}
		extracted++
		logInfo("extracted %q from %s", r.Title, source)
	}

	for _, path := range files {
		r, err := extractFile(ctx, l, path, tags)
		emit(path, r, err)
	}

	if len(urls) > 0 {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		for res := range l.ExtractMany(ctx, urls, tags, concurrency) {
			emit(res.URL, res.Recipe, res.Error)
		}
	}

	if err := w.Close(); err != nil {
		logError("failed to write output: %v", err)
		return err
	}

	logInfo("%d/%d recipes extracted", extracted, total)
	if extracted == 0 {
		return errNothingExtracted
	}
	return nil
}

// vocabulary merges config tags with --tags.
func vocabulary(cmd *cobra.Command, cfg *config.Config) ([]string, error) {
	tags, err := cfg.Prompt.Vocabulary()
	if err != nil {
		return nil, err
	}
	inline, _ := cmd.Flags().GetString("tags")
	return append(tags, prompt.SplitTags(inline)...), nil
}

func extractFile(ctx context.Context, l *larder.Larder, path string, tags []string) (*recipe.Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		return l.ExtractMarkdown(ctx, string(data), "", tags)
	default:
		return l.ExtractHTML(ctx, string(data), "", tags)
	}
}

// reportMiss logs a run that produced no recipe. A declared absence is an
// expected outcome; everything else is a warning.
func reportMiss(source string, err error) {
	reason := larder.Reason(err)
	if reason == larder.ReasonNoRecipe {
		logger.Info("no recipe found", "source", source)
		return
	}
	logger.Warn("extraction failed", "source", source, "reason", reason, "error", err)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
