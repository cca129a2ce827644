package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/KaramelBytes/tablechat/internal/ai"
	cfgpkg "github.com/KaramelBytes/tablechat/internal/config"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	modelFlag string
	hostFlag  string

	// Loaded configuration and process logger
	cfg    *cfgpkg.Global
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tablechat",
	Short: "TableChat: chat with your data files through a local model",
	Long: `TableChat loads a tabular or document file and answers natural-language
questions about it using a locally running Ollama model. Nothing leaves the
machine: files are parsed in-process and only compact summaries are sent to
the local endpoint.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose = verbose
		}
		if cmd.Flags().Changed("model") {
			cfg.OllamaModel = modelFlag
		}
		if cmd.Flags().Changed("ollama-host") {
			cfg.OllamaHost = hostFlag
		}

		// The server logs structured JSON; one-shot commands log for a
		// terminal reader.
		zc := zap.NewProductionConfig()
		if cmd.Name() != "serve" {
			zc = zap.NewDevelopmentConfig()
			zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		if cfg.Verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.tablechat/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "model name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "ollama-host", "", "Ollama base URL (overrides config)")
}

// newAIClient builds the process's one model client from the loaded config.
func newAIClient(c *cfgpkg.Global) *ai.OllamaClient {
	return ai.NewOllamaClient(
		c.OllamaHost,
		ai.ModelOptions{
			Temperature: c.Temperature,
			NumCtx:      c.NumCtx,
			NumGPU:      c.NumGPU,
			Mirostat:    c.Mirostat,
		},
		time.Duration(c.OllamaTimeoutSec)*time.Second,
		c.RetryMaxAttempts,
		time.Duration(c.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(c.RetryMaxDelayMs)*time.Millisecond,
	)
}
