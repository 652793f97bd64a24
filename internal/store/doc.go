// Package store reads and writes price observations in PostgreSQL.
//
// Writes are batched: every row of one tick is queued on a pgx.Batch inside a
// single transaction, so a batch is either fully visible or not at all.
// Reads back the three query shapes served by the HTTP API.
package store
