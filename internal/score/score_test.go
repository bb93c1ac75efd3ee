package score

import (
	"math"
	"testing"

	"github.com/orderlens/orderlens/internal/schema"
)

func strptr(s string) *string { return &s }

func fullExtraction() *schema.OrderExtraction {
	return &schema.OrderExtraction{
		BuyerCompanyName:      strptr("Acme GmbH"),
		BuyerPersonName:       strptr("Max Muster"),
		BuyerEmailAddress:     strptr("a@acme.de"),
		OrderNumber:           strptr("1001"),
		OrderDate:             strptr("01.01.2024"),
		DeliveryAddressStreet: strptr("Musterstr. 1"),
		DeliveryAddressCity:   strptr("Berlin"),
		DeliveryAddressPostal: strptr("10115"),
		Products: []schema.Product{
			{Position: 1, ArticleCode: "X1", Quantity: 5},
			{Position: 2, ArticleCode: "Y2", Quantity: 3},
		},
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluate_Identity(t *testing.T) {
	a := fullExtraction()
	r := Evaluate(a, a)

	for name, got := range r.Values() {
		if got != 1.0 {
			t.Errorf("%s = %v, want 1.0", name, got)
		}
	}
}

func TestEvaluate_AllDifferent(t *testing.T) {
	candidate := &schema.OrderExtraction{
		BuyerCompanyName:      strptr("Other AG"),
		BuyerPersonName:       strptr("Erika Beispiel"),
		BuyerEmailAddress:     strptr("e@other.de"),
		OrderNumber:           strptr("2002"),
		OrderDate:             strptr("02.02.2024"),
		DeliveryAddressStreet: strptr("Andere Str. 9"),
		DeliveryAddressCity:   strptr("Hamburg"),
		DeliveryAddressPostal: strptr("20095"),
		Products: []schema.Product{
			{Position: 1, ArticleCode: "Z9", Quantity: 1},
		},
	}
	r := Evaluate(candidate, fullExtraction())

	for name, got := range r.Values() {
		if got != 0.0 {
			t.Errorf("%s = %v, want 0.0", name, got)
		}
	}
}

func TestEvaluate_EndToEndScenario(t *testing.T) {
	// Expected has a null buyer_person_name; the candidate hallucinates one.
	expected := &schema.OrderExtraction{
		BuyerCompanyName:      strptr("Acme GmbH"),
		BuyerPersonName:       nil,
		BuyerEmailAddress:     strptr("a@acme.de"),
		OrderNumber:           strptr("1001"),
		OrderDate:             strptr("01.01.2024"),
		DeliveryAddressStreet: strptr("Musterstr. 1"),
		DeliveryAddressCity:   strptr("Berlin"),
		DeliveryAddressPostal: strptr("10115"),
		Products: []schema.Product{
			{Position: 1, ArticleCode: "X1", Quantity: 5},
		},
	}
	candidate := &schema.OrderExtraction{
		BuyerCompanyName:      strptr("Acme GmbH"),
		BuyerPersonName:       strptr("Max Muster"),
		BuyerEmailAddress:     strptr("a@acme.de"),
		OrderNumber:           strptr("1001"),
		OrderDate:             strptr("01.01.2024"),
		DeliveryAddressStreet: strptr("Musterstr. 1"),
		DeliveryAddressCity:   strptr("Berlin"),
		DeliveryAddressPostal: strptr("10115"),
		Products: []schema.Product{
			{Position: 1, ArticleCode: "X1", Quantity: 5},
		},
	}

	r := Evaluate(candidate, expected)

	if !approxEqual(r.BuyerInfo, 2.0/3.0) {
		t.Errorf("buyer_info = %v, want 2/3", r.BuyerInfo)
	}
	if r.OrderInfo != 1.0 {
		t.Errorf("order_info = %v, want 1.0", r.OrderInfo)
	}
	if r.AddressInfo != 1.0 {
		t.Errorf("address_info = %v, want 1.0", r.AddressInfo)
	}
	if r.Products != 1.0 {
		t.Errorf("products = %v, want 1.0", r.Products)
	}
	if r.ExactMatch != 0.0 {
		t.Errorf("exact_match = %v, want 0.0", r.ExactMatch)
	}
	if want := (2.0/3.0 + 1.0 + 1.0 + 1.0) / 4.0; !approxEqual(r.AvgScore, want) {
		t.Errorf("avg_score = %v, want %v", r.AvgScore, want)
	}
}

func TestEvaluate_ProductsAllOrNothing(t *testing.T) {
	expected := fullExtraction()

	tests := []struct {
		name   string
		mutate func(*schema.OrderExtraction)
	}{
		{
			name: "extra line item",
			mutate: func(c *schema.OrderExtraction) {
				c.Products = append(c.Products, schema.Product{Position: 3, ArticleCode: "Q7", Quantity: 1})
			},
		},
		{
			name: "missing line item",
			mutate: func(c *schema.OrderExtraction) {
				c.Products = c.Products[:1]
			},
		},
		{
			name: "one wrong article code",
			mutate: func(c *schema.OrderExtraction) {
				c.Products[0].ArticleCode = "X2"
			},
		},
		{
			name: "one wrong quantity",
			mutate: func(c *schema.OrderExtraction) {
				c.Products[1].Quantity = 4
			},
		},
		{
			name: "positions swapped",
			mutate: func(c *schema.OrderExtraction) {
				c.Products[0], c.Products[1] = c.Products[1], c.Products[0]
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := fullExtraction()
			tt.mutate(candidate)

			r := Evaluate(candidate, expected)
			if r.Products != 0.0 {
				t.Errorf("products = %v, want 0.0 (no partial credit)", r.Products)
			}
			if r.ExactMatch != 0.0 {
				t.Errorf("exact_match = %v, want 0.0", r.ExactMatch)
			}
		})
	}
}

func TestEvaluate_Normalization(t *testing.T) {
	t.Run("whitespace trimmed", func(t *testing.T) {
		expected := fullExtraction()
		candidate := fullExtraction()
		candidate.DeliveryAddressCity = strptr(" Berlin ")

		r := Evaluate(candidate, expected)
		if r.AddressInfo != 1.0 {
			t.Errorf("address_info = %v, want 1.0 (trim-insensitive)", r.AddressInfo)
		}
	})

	t.Run("case sensitive", func(t *testing.T) {
		expected := fullExtraction()
		candidate := fullExtraction()
		candidate.DeliveryAddressCity = strptr("berlin")

		r := Evaluate(candidate, expected)
		if !approxEqual(r.AddressInfo, 2.0/3.0) {
			t.Errorf("address_info = %v, want 2/3 (case-sensitive)", r.AddressInfo)
		}
	})

	t.Run("strict date equality", func(t *testing.T) {
		expected := fullExtraction()
		candidate := fullExtraction()
		candidate.OrderDate = strptr("1.1.2024")

		r := Evaluate(candidate, expected)
		if r.OrderInfo != 0.5 {
			t.Errorf("order_info = %v, want 0.5 (no semantic date matching)", r.OrderInfo)
		}
	})
}

func TestEvaluate_NullHandling(t *testing.T) {
	t.Run("both null matches", func(t *testing.T) {
		expected := fullExtraction()
		expected.BuyerPersonName = nil
		candidate := fullExtraction()
		candidate.BuyerPersonName = nil

		r := Evaluate(candidate, expected)
		if r.BuyerInfo != 1.0 {
			t.Errorf("buyer_info = %v, want 1.0 (both null is a match)", r.BuyerInfo)
		}
	})

	t.Run("candidate null is a mismatch not an exclusion", func(t *testing.T) {
		expected := fullExtraction()
		candidate := fullExtraction()
		candidate.BuyerEmailAddress = nil

		// Denominator stays 3: one missing field costs exactly 1/3.
		r := Evaluate(candidate, expected)
		if !approxEqual(r.BuyerInfo, 2.0/3.0) {
			t.Errorf("buyer_info = %v, want 2/3", r.BuyerInfo)
		}
	})

	t.Run("nil candidate never panics", func(t *testing.T) {
		r := Evaluate(nil, fullExtraction())
		if r.BuyerInfo != 0.0 || r.Products != 0.0 || r.ExactMatch != 0.0 {
			t.Errorf("nil candidate should score zero categories, got %+v", r)
		}
	})
}

func TestEvaluate_AvgScoreExcludesExactMatch(t *testing.T) {
	// A perfect average forces exact_match; anything less forces it to zero.
	perfect := Evaluate(fullExtraction(), fullExtraction())
	if perfect.AvgScore != 1.0 || perfect.ExactMatch != 1.0 {
		t.Fatalf("perfect case: avg=%v exact=%v, want both 1.0", perfect.AvgScore, perfect.ExactMatch)
	}

	candidate := fullExtraction()
	candidate.OrderNumber = strptr("9999")
	partial := Evaluate(candidate, fullExtraction())

	if partial.ExactMatch != 0.0 {
		t.Errorf("exact_match = %v, want 0.0", partial.ExactMatch)
	}
	want := (1.0 + 0.5 + 1.0 + 1.0) / 4.0
	if !approxEqual(partial.AvgScore, want) {
		t.Errorf("avg_score = %v, want %v (mean of four categories, exact_match excluded)", partial.AvgScore, want)
	}
}

func TestCheckExpected(t *testing.T) {
	if err := CheckExpected(nil); err != ErrMissingExpected {
		t.Errorf("CheckExpected(nil) = %v, want ErrMissingExpected", err)
	}
	if err := CheckExpected(fullExtraction()); err != nil {
		t.Errorf("CheckExpected() = %v, want nil", err)
	}
}
