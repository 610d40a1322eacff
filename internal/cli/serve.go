package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/credence/internal/logging"
	"github.com/ppiankov/credence/internal/metrics"
	"github.com/ppiankov/credence/internal/pipeline"
	"github.com/ppiankov/credence/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveAddr   string
	noMetrics   bool
	allowFetch  bool
	serveFormat string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzer over HTTP",
	Long: `Serve exposes credence as an HTTP API:
- POST /v1/analyze  analyze a claim {"text", "source_url", "media_key", "fetch"}
- GET  /healthz     liveness check
- GET  /metrics     Prometheus metrics

Example:
  credence serve
  credence serve --addr :9090 --log-format json`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
	serveCmd.Flags().BoolVar(&noMetrics, "no-metrics", false, "disable the /metrics endpoint")
	serveCmd.Flags().BoolVar(&allowFetch, "allow-fetch", true, "allow requests to fetch the source page")
	serveCmd.Flags().StringVar(&serveFormat, "log-format", "", "log format (text, json; default: log.format)")

	// Shared with analyze
	serveCmd.Flags().StringVar(&userAgent, "ua", "", "HTTP User-Agent (overrides http.user_agent)")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh lookups)")
	serveCmd.Flags().StringVar(&captionProvider, "caption-provider", "", "caption provider (none, openai, anthropic, ollama, static)")
	serveCmd.Flags().StringVar(&mediaDir, "media-dir", "", "directory holding local media files")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}
	if cmd.Flags().Changed("log-format") {
		cfg.Log.Format = serveFormat
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	var opts []pipeline.Option
	srvOpts := server.Options{Logger: logger}

	if !noMetrics {
		rec := metrics.NewRecorder()
		opts = append(opts, pipeline.WithObserver(rec))
		srvOpts.Recorder = rec
		srvOpts.MetricsHandler = rec.Handler()
	}
	if allowFetch {
		srvOpts.Enricher = pipeline.NewFetcherFromConfig(cfg)
	}

	analyzer, err := pipeline.Build(cfg, logger, opts...)
	if err != nil {
		return fmt.Errorf("build analyzer: %w", err)
	}

	logger.Info("listening", "addr", cfg.Server.Addr, "metrics", !noMetrics, "fetch", allowFetch)

	if err := server.New(analyzer, srvOpts).Run(cmd.Context(), cfg.Server.Addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
