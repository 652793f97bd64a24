// Package writer implements the Persistence Writer.
//
// A Writer turns the successful outcomes of one tick into price observations
// that share a single created_at, and hands them to the store as one
// transactional batch. Writes are append-only (never update, never delete).
// Persistence failures are returned to the caller; an empty batch is not an error.
package writer
