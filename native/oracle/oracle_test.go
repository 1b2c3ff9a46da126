package oracle

import (
	"errors"
	"math/big"
	"testing"
	"time"
)

func TestManualSourceRoundTrip(t *testing.T) {
	manual := NewManual()
	manual.Set("nhb", "usd", big.NewInt(125), 1_000)

	quote, err := manual.GetRate("NHB", "USD")
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if quote.Rate.String() != "125" || quote.PublishedAt != 1_000 {
		t.Fatalf("quote: %+v", quote)
	}
	if quote.Source != "manual" {
		t.Fatalf("source label: %q", quote.Source)
	}

	// The returned quote is a copy; mutating it must not poison the store.
	quote.Rate.SetInt64(1)
	again, err := manual.GetRate("nhb", "usd")
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if again.Rate.String() != "125" {
		t.Fatalf("stored quote mutated: %s", again.Rate)
	}

	if _, err := manual.GetRate("ZNHB", "USD"); err == nil {
		t.Fatalf("expected missing pair error")
	}
}

func TestAggregatorPriorityOrder(t *testing.T) {
	primary := NewManual()
	secondary := NewManual()
	primary.Set("NHB", "USD", big.NewInt(100), 1_000)
	secondary.Set("NHB", "USD", big.NewInt(200), 1_000)

	agg := NewAggregator([]string{"primary", "secondary"}, 0)
	agg.Register("primary", primary)
	agg.Register("secondary", secondary)
	agg.SetNowFunc(func() int64 { return 1_000 })

	quote, err := agg.GetRate("NHB", "USD")
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if quote.Rate.String() != "100" {
		t.Fatalf("expected primary quote, got %s", quote.Rate)
	}
}

func TestAggregatorFallsBackOnFailure(t *testing.T) {
	primary := NewManual() // no quote stored
	secondary := NewManual()
	secondary.Set("NHB", "USD", big.NewInt(200), 1_000)

	agg := NewAggregator([]string{"primary", "secondary"}, 0)
	agg.Register("primary", primary)
	agg.Register("secondary", secondary)
	agg.SetNowFunc(func() int64 { return 1_000 })

	quote, err := agg.GetRate("NHB", "USD")
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if quote.Rate.String() != "200" {
		t.Fatalf("expected secondary quote, got %s", quote.Rate)
	}
}

func TestAggregatorSkipsStaleQuotes(t *testing.T) {
	primary := NewManual()
	secondary := NewManual()
	primary.Set("NHB", "USD", big.NewInt(100), 1_000)
	secondary.Set("NHB", "USD", big.NewInt(200), 1_115)

	agg := NewAggregator([]string{"primary", "secondary"}, 120*time.Second)
	agg.Register("primary", primary)
	agg.Register("secondary", secondary)
	agg.SetNowFunc(func() int64 { return 1_200 })

	quote, err := agg.GetRate("NHB", "USD")
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if quote.Rate.String() != "200" {
		t.Fatalf("expected fresh secondary quote, got %s", quote.Rate)
	}

	agg.SetNowFunc(func() int64 { return 2_000 })
	if _, err := agg.GetRate("NHB", "USD"); !errors.Is(err, ErrNoFreshQuote) {
		t.Fatalf("all quotes stale: %v", err)
	}
}

func TestAggregatorValidatesInput(t *testing.T) {
	agg := NewAggregator(nil, 0)
	if _, err := agg.GetRate("", "USD"); err == nil {
		t.Fatalf("expected error for blank base symbol")
	}
	if _, err := agg.GetRate("NHB", "USD"); !errors.Is(err, ErrNoFreshQuote) {
		t.Fatalf("no sources registered: %v", err)
	}

	// Registering under a new name appends to the priority order.
	manual := NewManual()
	manual.Set("NHB", "USD", big.NewInt(50), 1_000)
	agg.Register("manual", manual)
	agg.SetNowFunc(func() int64 { return 1_000 })
	quote, err := agg.GetRate("NHB", "USD")
	if err != nil {
		t.Fatalf("get rate: %v", err)
	}
	if quote.Source != "manual" {
		t.Fatalf("source label: %q", quote.Source)
	}
}
