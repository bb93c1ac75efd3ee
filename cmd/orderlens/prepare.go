package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orderlens/orderlens/internal/dataprep"
)

var (
	prepareExpected string
	prepareEmails   string
	prepareOut      string
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build the matched dataset CSV from raw source files",
	Long: `Parse the expected-output dump and the email dump, match emails to
expected records by order number, and write the result as a CSV ready for
dataset upload.

Examples:
  orderlens prepare --expected data/expected_output.txt --emails data/emails.txt --out data/matched.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		ef, err := os.Open(prepareExpected)
		if err != nil {
			return err
		}
		defer ef.Close()

		expected, err := dataprep.ParseExpectedOutput(ef)
		if err != nil {
			return fmt.Errorf("failed to parse expected output: %w", err)
		}

		emailData, err := os.ReadFile(prepareEmails)
		if err != nil {
			return err
		}
		emails := dataprep.ParseEmails(string(emailData))

		records := dataprep.Match(emails, expected)

		out, err := os.Create(prepareOut)
		if err != nil {
			return err
		}
		defer out.Close()

		if err := dataprep.WriteCSV(out, records); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}

		matched := 0
		for _, rec := range records {
			if rec.Expected != nil {
				matched++
			}
		}
		logger.Info("dataset prepared",
			"records", len(records), "matched", matched, "out", prepareOut)
		return nil
	},
}

func init() {
	prepareCmd.Flags().StringVar(&prepareExpected, "expected", "data/expected_output.txt", "expected output dump")
	prepareCmd.Flags().StringVar(&prepareEmails, "emails", "data/emails.txt", "email dump")
	prepareCmd.Flags().StringVar(&prepareOut, "out", "data/matched_emails_output.csv", "output CSV path")

	rootCmd.AddCommand(prepareCmd)
}
