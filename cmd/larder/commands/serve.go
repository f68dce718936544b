package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/larder/internal/logger"
	"github.com/jmylchreest/larder/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction API over HTTP",
	Long: `Start an HTTP server exposing the pipeline.

Endpoints:
  GET  /health        liveness check
  POST /api/extract   {"url"|"html"|"markdown": ..., "sourceUrl"?, "tags"?}

Set server.api_key (or LARDER_SERVER_API_KEY) to require a bearer token.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	maxRequest, err := cfg.Server.MaxRequestBytes()
	if err != nil {
		return err
	}
	tags, err := cfg.Prompt.Vocabulary()
	if err != nil {
		logError("%v", err)
		return err
	}

	l, err := newLarder(cfg)
	if err != nil {
		logError("%v", err)
		return err
	}
	defer l.Close()

	if cfg.Server.APIKey == "" {
		logger.Warn("server.api_key not set, API is unauthenticated")
	}

	srv := server.New(l, logger.Get(), server.Config{
		APIKey:          cfg.Server.APIKey,
		MaxRequestBytes: maxRequest,
		Tags:            tags,
	})
	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}
