// Package model defines the data types shared across the index tracker.
//
// Conventions:
//   - Prices: exact decimals (shopspring/decimal), never float64
//   - Timestamps: int64 seconds since Unix epoch, assigned at write time
//   - Tickers: upper-case canonical symbols (e.g. "BTC")
package model
