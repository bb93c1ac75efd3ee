package track

import (
	"encoding/json"

	"github.com/orderlens/orderlens/internal/schema"
)

// ItemInput is the input half of a dataset item.
type ItemInput struct {
	Filename string `json:"filename"`
	Email    string `json:"email"`
}

// DatasetItem is one (email, pdf, expected answer) triple from the tracking
// platform. ExpectedOutput is null for items without a known-correct answer.
type DatasetItem struct {
	ID             string          `json:"id"`
	Input          ItemInput       `json:"input"`
	ExpectedOutput json.RawMessage `json:"expectedOutput"`
}

// Expected decodes the item's expected output, or returns nil when absent.
func (it *DatasetItem) Expected() (*schema.OrderExtraction, error) {
	if len(it.ExpectedOutput) == 0 || string(it.ExpectedOutput) == "null" {
		return nil, nil
	}
	var out schema.OrderExtraction
	if err := json.Unmarshal(it.ExpectedOutput, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dataset is a named collection of dataset items.
type Dataset struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Items []DatasetItem `json:"items"`
}

// RunItem links one dataset item to an experiment run, carrying the
// candidate output (or the failure reason) for that item.
type RunItem struct {
	RunName        string          `json:"runName"`
	RunDescription string          `json:"runDescription,omitempty"`
	DatasetItemID  string          `json:"datasetItemId"`
	TraceID        string          `json:"traceId"`
	Output         json.RawMessage `json:"output,omitempty"`
	Error          string          `json:"error,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
}

// Score is a single named metric value attached to a trace.
type Score struct {
	TraceID string  `json:"traceId"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Comment string  `json:"comment,omitempty"`
}
