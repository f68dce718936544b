package commands

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/larder/internal/config"
	"github.com/jmylchreest/larder/internal/logger"
	"github.com/jmylchreest/larder/pkg/cleaner"
	"github.com/jmylchreest/larder/pkg/fetcher"
	"github.com/jmylchreest/larder/pkg/sanitizer"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Show the content that would be sent to the engine",
	Long: `Run the locate and sanitize stages without calling a completion engine.

Stages:
  located    the recipe candidate picked from the page
  sanitized  the candidate reduced to a, ul, ol, li, img and br (default)

Examples:
  larder clean -u "https://example.com/soup"
  larder clean -f page.html --stage located
  larder clean -u "https://example.com/soup" --format markdown`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)

	flags := cleanCmd.Flags()
	flags.StringP("url", "u", "", "URL to fetch")
	flags.StringP("file", "f", "", "local HTML file")
	flags.String("stage", "sanitized", "stage to print: located, sanitized")
	flags.String("format", "html", "output format: html, markdown")
	flags.Bool("no-stats", false, "don't print size statistics")
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rawURL, _ := cmd.Flags().GetString("url")
	file, _ := cmd.Flags().GetString("file")
	if (rawURL == "") == (file == "") {
		return fmt.Errorf("exactly one of --url or --file is required")
	}

	stage, _ := cmd.Flags().GetString("stage")
	format, _ := cmd.Flags().GetString("format")

	html, pageURL, err := loadPage(ctx, cfg, rawURL, file)
	if err != nil {
		logError("%v", err)
		return err
	}

	chain, err := cleanChain(stage, format, pageURL)
	if err != nil {
		return err
	}
	logger.Debug("cleaning", "chain", chain.Name(), "input_size", len(html))

	out, reports, err := chain.Run(html)
	if err != nil {
		logError("%v", err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)

	if noStats, _ := cmd.Flags().GetBool("no-stats"); !noStats {
		for _, r := range reports {
			logInfo("%-10s %9s -> %-9s (%s)", r.Name,
				humanize.Bytes(uint64(r.InputSize)),
				humanize.Bytes(uint64(r.OutputSize)),
				reduction(r.InputSize, r.OutputSize))
		}
	}
	return nil
}

func loadPage(ctx context.Context, cfg *config.Config, rawURL, file string) (string, string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		return string(data), "", err
	}

	maxBody, err := cfg.Fetch.MaxBodyBytes()
	if err != nil {
		return "", "", err
	}
	f := fetcher.NewStatic(fetcher.StaticConfig{
		UserAgent:   cfg.Fetch.UserAgent,
		Timeout:     cfg.Fetch.Timeout,
		MaxBodySize: maxBody,
	})
	defer f.Close()

	page, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return "", "", err
	}
	return page.HTML, page.URL, nil
}

func cleanChain(stage, format, pageURL string) (*cleaner.ChainCleaner, error) {
	stages := []cleaner.Cleaner{cleaner.NewLocator(nil)}
	switch stage {
	case "located":
	case "sanitized":
		stages = append(stages, sanitizer.New())
	default:
		return nil, fmt.Errorf("unknown stage: %s (use located or sanitized)", stage)
	}

	switch format {
	case "html":
	case "markdown", "md":
		var opts []cleaner.MarkdownOption
		if origin := siteOrigin(pageURL); origin != "" {
			opts = append(opts, cleaner.WithDomain(origin))
		}
		stages = append(stages, cleaner.NewMarkdown(opts...))
	default:
		return nil, fmt.Errorf("unknown format: %s (use html or markdown)", format)
	}
	return cleaner.NewChain(stages...), nil
}

func siteOrigin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

func reduction(in, out int) string {
	if in == 0 {
		return "0% smaller"
	}
	return fmt.Sprintf("%.1f%% smaller", 100*(1-float64(out)/float64(in)))
}
