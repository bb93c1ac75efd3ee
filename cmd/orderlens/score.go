package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orderlens/orderlens/internal/output"
	"github.com/orderlens/orderlens/internal/schema"
	"github.com/orderlens/orderlens/internal/score"
)

var scoreCmd = &cobra.Command{
	Use:   "score <candidate.json> <expected.json>",
	Short: "Score a candidate extraction against an expected one",
	Long: `Score a candidate OrderExtraction JSON file against an expected one and
print the metric report. Useful for debugging the scoring rules offline.

Examples:
  orderlens score candidate.json expected.json
  orderlens score -o json candidate.json expected.json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		candidate, err := readExtraction(args[0])
		if err != nil {
			return err
		}
		expected, err := readExtraction(args[1])
		if err != nil {
			return err
		}
		if err := score.CheckExpected(expected); err != nil {
			return err
		}

		return output.Print(score.Evaluate(candidate, expected))
	},
}

func readExtraction(path string) (*schema.OrderExtraction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out schema.OrderExtraction
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &out, nil
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
