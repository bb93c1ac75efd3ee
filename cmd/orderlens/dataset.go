package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orderlens/orderlens/internal/config"
	"github.com/orderlens/orderlens/internal/dataprep"
	"github.com/orderlens/orderlens/internal/track"
)

var (
	datasetCSV  string
	datasetName string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage datasets on the tracking platform",
}

var datasetCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a dataset from a matched CSV",
	Long: `Create the named dataset on the tracking platform and upload one item
per matched CSV row.

Examples:
  orderlens dataset create --csv data/matched_emails_output.csv
  orderlens dataset create --dataset email_order_extraction`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := newLogger()

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if datasetName != "" {
			cfg.Dataset = datasetName
		}
		if err := cfg.ValidateTracking(); err != nil {
			return err
		}

		f, err := os.Open(datasetCSV)
		if err != nil {
			return err
		}
		defer f.Close()

		records, err := dataprep.ReadCSV(f)
		if err != nil {
			return fmt.Errorf("failed to read CSV: %w", err)
		}

		client := track.NewClient(cfg.TrackClientConfig())
		if err := client.WaitReady(ctx); err != nil {
			return err
		}

		if err := client.CreateDataset(ctx, cfg.Dataset); err != nil {
			return err
		}

		for _, rec := range records {
			var expected json.RawMessage
			if rec.Expected != nil {
				expected, err = json.Marshal(rec.Expected)
				if err != nil {
					return fmt.Errorf("record %s: %w", rec.Filename, err)
				}
			}
			input := track.ItemInput{Filename: rec.Filename, Email: rec.Email}
			if err := client.CreateItem(ctx, cfg.Dataset, input, expected); err != nil {
				return fmt.Errorf("failed to upload item %s: %w", rec.Filename, err)
			}
		}

		logger.Info("dataset created", "dataset", cfg.Dataset, "items", len(records))
		return nil
	},
}

func init() {
	datasetCreateCmd.Flags().StringVar(&datasetCSV, "csv", "data/matched_emails_output.csv", "matched CSV path")
	datasetCreateCmd.Flags().StringVar(&datasetName, "dataset", "", "dataset name on the tracking platform")

	datasetCmd.AddCommand(datasetCreateCmd)
	rootCmd.AddCommand(datasetCmd)
}
