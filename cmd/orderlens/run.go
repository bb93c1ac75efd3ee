package main

import (
	"github.com/spf13/cobra"

	"github.com/orderlens/orderlens/internal/config"
	"github.com/orderlens/orderlens/internal/experiment"
	"github.com/orderlens/orderlens/internal/extract"
	"github.com/orderlens/orderlens/internal/output"
	"github.com/orderlens/orderlens/internal/track"
)

var (
	runDataset string
	runPDFDir  string
	runModel   string
	runWorkers int
	runName    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the extraction experiment over a dataset",
	Long: `Run the order extraction experiment: for every dataset item, render the
PDF attachment, prompt the vision model, score the extraction against the
expected answer, and report result and scores to the tracking platform.

The command exits non-zero only if the dataset cannot be loaded. Individual
item failures are recorded in the run report and do not fail the run.

Examples:
  orderlens run
  orderlens run --dataset email_order_extraction --pdfs ./data/pdfs
  orderlens run --workers 8 --model gpt-4o`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		applyRunFlags(cfg)

		if err := cfg.ValidateExtraction(); err != nil {
			return err
		}
		if err := cfg.ValidateTracking(); err != nil {
			return err
		}

		client := track.NewClient(cfg.TrackClientConfig())
		if err := client.WaitReady(ctx); err != nil {
			return err
		}

		dataset, err := client.GetDataset(ctx, cfg.Dataset)
		if err != nil {
			return err
		}

		sink := track.NewSink(track.SinkConfig{Client: client, Logger: logger})
		sink.Start(ctx, cfg.Workers)
		defer sink.Stop()

		runner, err := experiment.NewRunner(experiment.RunnerConfig{
			Dataset:   dataset,
			PDFDir:    cfg.PDFDir,
			Extractor: extract.NewClient(cfg.ExtractClientConfig()),
			Sink:      sink,
			RunName:   runName,
			Model:     cfg.OpenAI.Model,
			Workers:   cfg.Workers,
			Logger:    logger,
		})
		if err != nil {
			return err
		}

		report, err := runner.Run(ctx)
		if err != nil {
			return err
		}

		// Flush before printing so the report reflects a completed run.
		sink.Stop()

		return output.Print(report)
	},
}

// applyRunFlags lets command-line flags override the loaded config.
func applyRunFlags(cfg *config.Config) {
	if runDataset != "" {
		cfg.Dataset = runDataset
	}
	if runPDFDir != "" {
		cfg.PDFDir = runPDFDir
	}
	if runModel != "" {
		cfg.OpenAI.Model = runModel
	}
	if runWorkers > 0 {
		cfg.Workers = runWorkers
	}
}

func init() {
	runCmd.Flags().StringVar(&runDataset, "dataset", "", "dataset name on the tracking platform")
	runCmd.Flags().StringVar(&runPDFDir, "pdfs", "", "directory containing the PDF attachments")
	runCmd.Flags().StringVar(&runModel, "model", "", "model to use for extraction")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "number of concurrent items")
	runCmd.Flags().StringVar(&runName, "name", "", "experiment run name")

	rootCmd.AddCommand(runCmd)
}
