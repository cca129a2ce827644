package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tablechat/internal/ai"
	"github.com/KaramelBytes/tablechat/internal/engine"
	"github.com/KaramelBytes/tablechat/internal/format"
	"github.com/KaramelBytes/tablechat/internal/ingest"
)

var askFile string

var askCmd = &cobra.Command{
	Use:   "ask --file <path> \"<question>\"",
	Short: "Ask one question about a data file",
	Example: `  tablechat ask --file sales.csv "What is the total revenue per region?"
  tablechat ask --file report.pdf "What was the headline figure?"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := args[0]

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client := newAIClient(cfg)
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := client.Health(checkCtx)
		cancel()
		if err != nil {
			fmt.Fprintln(os.Stderr, ai.ConnectionFailedMessage(cfg.OllamaModel))
			return fmt.Errorf("model endpoint unreachable at %s", cfg.OllamaHost)
		}

		raw, err := os.ReadFile(askFile)
		if err != nil {
			return fmt.Errorf("read %s: %w", askFile, err)
		}

		display := format.NewConsoleDisplay(os.Stdout)
		loader := ingest.NewLoader(logger, "")
		ds, notices, err := loader.Load(askFile, raw)
		if err != nil {
			return err
		}
		for _, n := range notices {
			if n.Level == "warning" {
				display.Warning(n.Message)
			} else {
				display.Text(n.Message)
			}
		}

		dispatcher := engine.NewDispatcher(client, cfg.OllamaModel, cfg.AdvancedProcessing, cfg.Verbose, logger)
		answer, err := dispatcher.Dispatch(ctx, ds, question, format.NewFormatter(display))
		if errors.Is(err, engine.ErrEmptyPrompt) {
			display.Warning(engine.EmptyPromptMessage)
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Println("\n---")
		fmt.Println("Final Answer")
		fmt.Println(answer)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVar(&askFile, "file", "", "data file to analyze (csv, xlsx, xls, pdf, docx, pptx, txt, parquet)")
	_ = askCmd.MarkFlagRequired("file")
}
