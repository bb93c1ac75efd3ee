// Package score compares a candidate OrderExtraction against an expected one
// and produces the per-category metrics for a dataset item.
//
// Scoring is deterministic and pure: it never calls out and never fails. A
// malformed or missing candidate value is a mismatch, not an error.
package score

import (
	"errors"
	"strings"

	"github.com/orderlens/orderlens/internal/schema"
)

// Metric names reported to the tracking sink.
const (
	MetricBuyerInfo   = "buyer_info"
	MetricOrderInfo   = "order_info"
	MetricAddressInfo = "address_info"
	MetricProducts    = "products"
	MetricExactMatch  = "exact_match"
	MetricAvgScore    = "avg_score"
)

// ErrMissingExpected is returned by CheckExpected when a dataset item has no
// usable expected output. This is a dataset configuration problem, reported
// before any model call is made rather than silently scored as zero.
var ErrMissingExpected = errors.New("dataset item has no expected output")

// Report holds the scores for one dataset item. All values are in [0,1];
// Products and ExactMatch are binary.
type Report struct {
	BuyerInfo   float64 `json:"buyer_info"`
	OrderInfo   float64 `json:"order_info"`
	AddressInfo float64 `json:"address_info"`
	Products    float64 `json:"products"`
	ExactMatch  float64 `json:"exact_match"`
	AvgScore    float64 `json:"avg_score"`
}

// Values returns the report as a metric-name map for submission to the sink.
func (r Report) Values() map[string]float64 {
	return map[string]float64{
		MetricBuyerInfo:   r.BuyerInfo,
		MetricOrderInfo:   r.OrderInfo,
		MetricAddressInfo: r.AddressInfo,
		MetricProducts:    r.Products,
		MetricExactMatch:  r.ExactMatch,
		MetricAvgScore:    r.AvgScore,
	}
}

// CheckExpected verifies that an expected output is present. Items failing
// this precondition are recorded as failed, not scored.
func CheckExpected(expected *schema.OrderExtraction) error {
	if expected == nil {
		return ErrMissingExpected
	}
	return nil
}

// Evaluate scores candidate against expected.
//
// Category ratios use fixed denominators (3 buyer fields, 2 order fields,
// 3 address fields); a field null on one side only is a mismatch, null on
// both sides is a match. The products metric is all-or-nothing: one wrong
// line item invalidates the order. ExactMatch is 1 only when all four
// category metrics are perfect; AvgScore averages the four category metrics
// and deliberately excludes ExactMatch.
func Evaluate(candidate, expected *schema.OrderExtraction) Report {
	if candidate == nil {
		candidate = &schema.OrderExtraction{}
	}
	if expected == nil {
		expected = &schema.OrderExtraction{}
	}

	r := Report{
		BuyerInfo: ratio(
			fieldMatch(candidate.BuyerCompanyName, expected.BuyerCompanyName),
			fieldMatch(candidate.BuyerPersonName, expected.BuyerPersonName),
			fieldMatch(candidate.BuyerEmailAddress, expected.BuyerEmailAddress),
		),
		OrderInfo: ratio(
			fieldMatch(candidate.OrderNumber, expected.OrderNumber),
			fieldMatch(candidate.OrderDate, expected.OrderDate),
		),
		AddressInfo: ratio(
			fieldMatch(candidate.DeliveryAddressStreet, expected.DeliveryAddressStreet),
			fieldMatch(candidate.DeliveryAddressCity, expected.DeliveryAddressCity),
			fieldMatch(candidate.DeliveryAddressPostal, expected.DeliveryAddressPostal),
		),
	}

	if productsEqual(candidate.Products, expected.Products) {
		r.Products = 1.0
	}

	if r.BuyerInfo == 1.0 && r.OrderInfo == 1.0 && r.AddressInfo == 1.0 && r.Products == 1.0 {
		r.ExactMatch = 1.0
	}

	r.AvgScore = (r.BuyerInfo + r.OrderInfo + r.AddressInfo + r.Products) / 4.0

	return r
}

// ratio converts per-field match results into a fraction. The denominator is
// the fixed category size; it never shrinks for absent fields.
func ratio(matches ...bool) float64 {
	n := 0
	for _, m := range matches {
		if m {
			n++
		}
	}
	return float64(n) / float64(len(matches))
}

// fieldMatch compares two optional scalar fields: surrounding whitespace is
// trimmed, everything else is case-sensitive exact equality. Dates follow
// the same policy; "01.01.2024" and "1.1.2024" do not match.
func fieldMatch(candidate, expected *string) bool {
	if candidate == nil || expected == nil {
		return candidate == nil && expected == nil
	}
	return strings.TrimSpace(*candidate) == strings.TrimSpace(*expected)
}

// productsEqual reports whether two product lists are identical: same
// length, same order, every (position, article_code, quantity) triple equal.
func productsEqual(candidate, expected []schema.Product) bool {
	if len(candidate) != len(expected) {
		return false
	}
	for i := range candidate {
		if candidate[i] != expected[i] {
			return false
		}
	}
	return true
}
