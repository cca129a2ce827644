package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tablechat/internal/ai"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the local Ollama endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		client := newAIClient(cfg)
		models, err := client.ListModels(ctx)
		if err != nil {
			var unreachable *ai.UnreachableError
			if errors.As(err, &unreachable) {
				fmt.Fprintln(os.Stderr, ai.ConnectionFailedMessage(cfg.OllamaModel))
			}
			return err
		}
		if len(models) == 0 {
			fmt.Println("No models installed. Pull one with 'ollama pull <name>'.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tFAMILY\tPARAMS\tQUANT")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				m.Name, humanize.IBytes(uint64(m.Size)), m.Family, m.ParameterSize, m.Quantization)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
