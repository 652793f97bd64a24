package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Instruments
// -----------------------------------------------------------------------------

// Instrument maps an upstream index identifier to its canonical ticker.
type Instrument struct {
	IndexName string `yaml:"index_name"` // Upstream identifier (e.g., "btc_usd")
	Ticker    string `yaml:"ticker"`     // Canonical symbol (e.g., "BTC")
}

// DefaultInstruments is the static identifier -> ticker table.
var DefaultInstruments = []Instrument{
	{IndexName: "btc_usd", Ticker: "BTC"},
	{IndexName: "eth_usd", Ticker: "ETH"},
}

// NormalizeTicker returns the stored form of a user-supplied ticker.
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// -----------------------------------------------------------------------------
// Persisted Types
// -----------------------------------------------------------------------------

// PriceObservation is one row of the deribit_index table.
type PriceObservation struct {
	ID        int64           // Assigned by the database
	Ticker    string          // Upper case, one of the configured tickers
	Price     decimal.Decimal // Upstream index price
	CreatedAt int64           // Tick time (seconds since epoch)
}

// -----------------------------------------------------------------------------
// Transient Types
// -----------------------------------------------------------------------------

// FetchOutcome is the result of fetching one instrument in one tick.
type FetchOutcome struct {
	Ticker    string
	IndexName string
	Price     decimal.Decimal // Valid only when Err is nil
	Err       error
}

// OK reports whether the fetch succeeded.
func (o FetchOutcome) OK() bool {
	return o.Err == nil
}

// Reason returns a human-readable failure reason, or "" on success.
func (o FetchOutcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Batch is the set of observations committed by one write.
type Batch struct {
	CreatedAt    int64
	Observations []PriceObservation
}

// Successful returns the successful outcomes, preserving order.
func Successful(outcomes []FetchOutcome) []FetchOutcome {
	var out []FetchOutcome
	for _, o := range outcomes {
		if o.OK() {
			out = append(out, o)
		}
	}
	return out
}
