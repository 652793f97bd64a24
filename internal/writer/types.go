package writer

import (
	"context"
	"time"

	"github.com/rickgao/deribit-index/internal/model"
)

// BatchStore commits a batch of observations atomically.
type BatchStore interface {
	InsertBatch(ctx context.Context, rows []model.PriceObservation) ([]model.PriceObservation, error)
}

// Option configures a Writer.
type Option func(*Writer)

// WithClock overrides the time source used for created_at.
func WithClock(clock func() time.Time) Option {
	return func(w *Writer) {
		w.clock = clock
	}
}

// Stats holds counters for a writer.
type Stats struct {
	Batches int64 // Committed batches
	Inserts int64 // Committed rows
	Empty   int64 // Ticks with nothing to write
	Errors  int64 // Failed batches
}
