// Package poller implements the tick scheduler.
//
// The poller:
//   - Runs one tick immediately on start, then once per interval
//   - Fetches every instrument concurrently, then persists the successes as one batch
//   - Publishes each committed batch to live subscribers
//   - Allows at most one tick in flight; an overlapping tick is skipped
package poller
