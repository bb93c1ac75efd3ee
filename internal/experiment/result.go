package experiment

import (
	"time"

	"github.com/orderlens/orderlens/internal/schema"
	"github.com/orderlens/orderlens/internal/score"
)

// FailureKind classifies why a dataset item failed.
type FailureKind string

const (
	// FailureDocument means the PDF could not be rendered.
	FailureDocument FailureKind = "document"
	// FailureTransport means the model call failed before producing output.
	FailureTransport FailureKind = "transport"
	// FailureSchema means the model responded but the payload was not
	// conformant.
	FailureSchema FailureKind = "schema"
	// FailurePrecondition means the dataset item itself is unusable
	// (missing expected output).
	FailurePrecondition FailureKind = "precondition"
)

// ItemResult is the outcome for one dataset item: either a scored candidate
// output or a classified failure. Exactly one of Output/Error is set.
type ItemResult struct {
	ItemID   string                  `json:"item_id"`
	Filename string                  `json:"filename"`
	TraceID  string                  `json:"trace_id"`
	Output   *schema.OrderExtraction `json:"output,omitempty"`
	Scores   *score.Report           `json:"scores,omitempty"`
	Failure  FailureKind             `json:"failure,omitempty"`
	Error    string                  `json:"error,omitempty"`
	Duration time.Duration           `json:"duration"`
}

// Failed reports whether the item failed.
func (r *ItemResult) Failed() bool {
	return r.Failure != ""
}

// RunReport summarizes an experiment run.
type RunReport struct {
	RunName    string       `json:"run_name"`
	Dataset    string       `json:"dataset"`
	Model      string       `json:"model"`
	Total      int          `json:"total"`
	Succeeded  int          `json:"succeeded"`
	Failed     int          `json:"failed"`
	Aggregates Aggregates   `json:"aggregates"`
	Items      []ItemResult `json:"items"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Aggregates are run-level means over the scored (successful) items.
type Aggregates struct {
	BuyerInfo   float64 `json:"buyer_info"`
	OrderInfo   float64 `json:"order_info"`
	AddressInfo float64 `json:"address_info"`
	Products    float64 `json:"products"`
	ExactMatch  float64 `json:"exact_match"`
	AvgScore    float64 `json:"avg_score"`
}

func aggregate(items []ItemResult) Aggregates {
	var agg Aggregates
	n := 0
	for i := range items {
		if items[i].Scores == nil {
			continue
		}
		s := items[i].Scores
		agg.BuyerInfo += s.BuyerInfo
		agg.OrderInfo += s.OrderInfo
		agg.AddressInfo += s.AddressInfo
		agg.Products += s.Products
		agg.ExactMatch += s.ExactMatch
		agg.AvgScore += s.AvgScore
		n++
	}
	if n == 0 {
		return Aggregates{}
	}
	f := float64(n)
	agg.BuyerInfo /= f
	agg.OrderInfo /= f
	agg.AddressInfo /= f
	agg.Products /= f
	agg.ExactMatch /= f
	agg.AvgScore /= f
	return agg
}
