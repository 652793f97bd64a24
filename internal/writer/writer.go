package writer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/deribit-index/internal/metrics"
	"github.com/rickgao/deribit-index/internal/model"
)

// Writer persists the successful outcomes of a tick.
type Writer struct {
	store   BatchStore
	clock   func() time.Time
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a Writer. m may be nil.
func New(store BatchStore, m *metrics.Metrics, logger *slog.Logger, opts ...Option) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		store:   store,
		clock:   time.Now,
		metrics: m,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write commits every successful outcome as one batch stamped with the
// current second. It returns an empty Batch and nil when nothing succeeded.
func (w *Writer) Write(ctx context.Context, outcomes []model.FetchOutcome) (model.Batch, error) {
	successes := model.Successful(outcomes)
	if len(successes) == 0 {
		w.logger.Warn("no valid data to save", "outcomes", len(outcomes))
		w.bump(func(s *Stats) { s.Empty++ })
		return model.Batch{}, nil
	}

	createdAt := w.clock().Unix()
	rows := w.transform(successes, createdAt)

	saved, err := w.store.InsertBatch(ctx, rows)
	if err != nil {
		w.logger.Error("failed to save batch",
			"error", err,
			"count", len(rows),
			"created_at", createdAt,
		)
		w.bump(func(s *Stats) { s.Errors++ })
		return model.Batch{}, fmt.Errorf("save batch of %d: %w", len(rows), err)
	}

	tickers := make([]string, len(saved))
	for i, obs := range saved {
		tickers[i] = obs.Ticker
		w.logger.Info("saved index price",
			"ticker", obs.Ticker,
			"price", obs.Price.String(),
			"created_at", obs.CreatedAt,
		)
	}
	w.metrics.ObservePersisted(tickers, createdAt)
	w.bump(func(s *Stats) {
		s.Batches++
		s.Inserts += int64(len(saved))
	})

	return model.Batch{CreatedAt: createdAt, Observations: saved}, nil
}

// Stats returns current counters.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// transform converts successful outcomes to rows sharing createdAt.
func (w *Writer) transform(successes []model.FetchOutcome, createdAt int64) []model.PriceObservation {
	rows := make([]model.PriceObservation, len(successes))
	for i, o := range successes {
		rows[i] = model.PriceObservation{
			Ticker:    model.NormalizeTicker(o.Ticker),
			Price:     o.Price,
			CreatedAt: createdAt,
		}
	}
	return rows
}

func (w *Writer) bump(f func(*Stats)) {
	w.mu.Lock()
	f(&w.stats)
	w.mu.Unlock()
}
