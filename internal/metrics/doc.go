// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Per-instrument fetch outcomes and latency
//   - Tick duration and status
//   - Rows persisted per ticker
//   - Read API requests and live stream subscribers
package metrics
