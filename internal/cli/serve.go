package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/permitcheck/internal/httpapi"
	"github.com/ppiankov/permitcheck/internal/metrics"
	"github.com/ppiankov/permitcheck/internal/worker"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the compliance check HTTP API",
	Long: `Serve exposes the engine over HTTP:
  POST /v1/check      check one proposal (?narrative=true adds the LLM narrative)
  GET  /v1/classes    rule classes in the catalog
  GET  /v1/areas      Article 4 areas in the catalog
  GET  /healthz       liveness and catalog version
  GET  /metrics       Prometheus metrics

Requests under /v1 are rate limited per client address.

Example:
  permitcheck serve --addr :8080
  PERMITCHECK_SERVER_REQUESTS_PER_SECOND=50 permitcheck serve --areas areas.geojson`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().String("llm-provider", "", "LLM provider for ?narrative=true (openai, ollama)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("llm.provider", serveCmd.Flags().Lookup("llm-provider"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	var level slog.Level
	levelFlag, _ := cmd.Flags().GetString("log-level")
	if err := level.UnmarshalText([]byte(levelFlag)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", levelFlag, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	p, err := buildPipeline(cfg)
	if err != nil {
		return err
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	limiter := worker.NewLimiter(cfg.Server.RequestsPerSecond, cfg.Server.BurstSize)
	handler := httpapi.New(p, buildCache(cfg, p.Catalog().Version()), logger, m)

	router := httpapi.NewRouter(handler, httpapi.RouterOptions{
		Limiter:        limiter,
		RequestTimeout: cfg.Server.RequestTimeout,
		Gatherer:       prometheus.DefaultGatherer,
	})

	logger.Info("starting permitcheck API",
		"version", Version,
		"catalog_version", p.Catalog().Version(),
		"article4_areas", len(p.Catalog().Article4Areas()),
		"narrative", cfg.LLM.Provider != "",
		"cache", cfg.Cache.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return httpapi.Serve(ctx, httpapi.NewServer(cfg.Server.Addr, router), limiter, logger)
}
