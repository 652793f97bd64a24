// Package server implements the read API.
//
// Routes:
//   - GET /all_prices/{ticker}: every observation for a ticker, oldest first
//   - GET /latest-price/{ticker}: the most recent observation
//   - GET /prices/{ticker}?date=YYYY-MM-DD: the first observation of that day,
//     or the most recent one when date is omitted
//   - GET /health: database reachability, last tick and build info
//   - GET /metrics: Prometheus exposition
//   - GET /ws/prices?ticker=: live stream of committed batches
//
// Tickers are case-insensitive. Errors are returned as {"detail": "..."}.
package server
