package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/orderlens/orderlens/internal/output"
)

var (
	cfgFile      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "orderlens",
	Short: "Order extraction evaluation pipeline for German business emails",
	Long: `Orderlens extracts structured order data from German business emails and
their PDF attachments using a vision model, and scores the extractions
against known-correct answers on the tracking platform.

The pipeline includes:
  - PDF page rendering for vision input
  - DIN 5008-aware extraction prompting with strict structured output
  - Field-level and product-list scoring against expected answers
  - Per-item result and score reporting to the tracking platform`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.orderlens/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		output.SetFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the logger shared by all commands.
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
