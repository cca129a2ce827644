package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/tablechat/internal/ai"
	"github.com/KaramelBytes/tablechat/internal/cache"
	"github.com/KaramelBytes/tablechat/internal/engine"
	"github.com/KaramelBytes/tablechat/internal/ingest"
	"github.com/KaramelBytes/tablechat/internal/web"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI and JSON API",
	Long: `Starts the HTTP server with the upload/ask API and the embedded web UI.
The model endpoint is health-checked once at startup; if it is down the
server still runs, but analysis requests are refused until an explicit
re-check succeeds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.Listen = serveListen
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := newAIClient(cfg)

		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := client.Health(checkCtx)
		cancel()
		degraded := err != nil
		if degraded {
			fmt.Fprintln(os.Stderr, "⚠", ai.ConnectionFailedMessage(cfg.OllamaModel))
			logger.Warn("startup health check failed", zap.Error(err))
		} else {
			logger.Info("model endpoint reachable",
				zap.String("host", cfg.OllamaHost),
				zap.String("model", cfg.OllamaModel))
		}

		loader := ingest.NewLoader(logger, "")
		lru := cache.New(cfg.CacheEntries)
		dispatcher := engine.NewDispatcher(client, cfg.OllamaModel, cfg.AdvancedProcessing, cfg.Verbose, logger)
		app := web.New(cfg, logger, client, loader, lru, dispatcher, degraded)

		return app.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides config, e.g. :8501)")
}
