package model

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"btc", "BTC"},
		{"BTC", "BTC"},
		{"eTh", "ETH"},
		{" btc ", "BTC"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTicker(tt.in); got != tt.want {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFetchOutcome(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		o := FetchOutcome{Ticker: "BTC", IndexName: "btc_usd", Price: decimal.RequireFromString("12345.67")}
		if !o.OK() {
			t.Error("OK() = false, want true")
		}
		if o.Reason() != "" {
			t.Errorf("Reason() = %q, want empty", o.Reason())
		}
	})

	t.Run("failure", func(t *testing.T) {
		o := FetchOutcome{Ticker: "ETH", IndexName: "eth_usd", Err: errors.New("connection refused")}
		if o.OK() {
			t.Error("OK() = true, want false")
		}
		if o.Reason() != "connection refused" {
			t.Errorf("Reason() = %q, want %q", o.Reason(), "connection refused")
		}
	})
}

func TestSuccessful(t *testing.T) {
	outcomes := []FetchOutcome{
		{Ticker: "BTC", Price: decimal.NewFromInt(1)},
		{Ticker: "ETH", Err: errors.New("timeout")},
		{Ticker: "SOL", Price: decimal.NewFromInt(3)},
	}

	got := Successful(outcomes)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Ticker != "BTC" || got[1].Ticker != "SOL" {
		t.Errorf("tickers = %q, %q, want BTC, SOL", got[0].Ticker, got[1].Ticker)
	}

	if got := Successful(nil); len(got) != 0 {
		t.Errorf("Successful(nil) len = %d, want 0", len(got))
	}
}

func TestDefaultInstruments(t *testing.T) {
	want := map[string]string{"btc_usd": "BTC", "eth_usd": "ETH"}
	if len(DefaultInstruments) != len(want) {
		t.Fatalf("len = %d, want %d", len(DefaultInstruments), len(want))
	}
	for _, inst := range DefaultInstruments {
		if want[inst.IndexName] != inst.Ticker {
			t.Errorf("%s -> %q, want %q", inst.IndexName, inst.Ticker, want[inst.IndexName])
		}
	}
}
