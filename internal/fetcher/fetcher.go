// Package fetcher implements the Index Fetcher component.
//
// One request per configured instrument is issued concurrently; every request
// gets its own timeout and a failure only affects that instrument's outcome.
package fetcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/deribit-index/internal/metrics"
	"github.com/rickgao/deribit-index/internal/model"
)

// PriceSource returns the current index price for an upstream identifier.
type PriceSource interface {
	GetIndexPrice(ctx context.Context, indexName string) (decimal.Decimal, error)
}

// Config holds fetcher configuration.
type Config struct {
	Instruments []model.Instrument
	Timeout     time.Duration // Per-request timeout (default: 5s)
}

// DefaultConfig returns the BTC/ETH instrument table with a 5s timeout.
func DefaultConfig() Config {
	return Config{
		Instruments: model.DefaultInstruments,
		Timeout:     5 * time.Second,
	}
}

// Fetcher collects one FetchOutcome per instrument.
type Fetcher struct {
	cfg     Config
	source  PriceSource
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a Fetcher. m may be nil.
func New(cfg Config, source PriceSource, m *metrics.Metrics, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		cfg:     cfg,
		source:  source,
		metrics: m,
		logger:  logger,
	}
}

// Instruments returns the configured instruments.
func (f *Fetcher) Instruments() []model.Instrument {
	return f.cfg.Instruments
}

// FetchAll fetches every instrument concurrently and waits for all of them.
// The result has one outcome per instrument, in configuration order.
func (f *Fetcher) FetchAll(ctx context.Context) []model.FetchOutcome {
	outcomes := make([]model.FetchOutcome, len(f.cfg.Instruments))

	// Goroutines never return an error, so no fetch cancels its siblings.
	var g errgroup.Group
	for i, inst := range f.cfg.Instruments {
		i, inst := i, inst
		g.Go(func() error {
			outcomes[i] = f.fetchOne(ctx, inst)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// fetchOne fetches a single instrument under its own timeout.
func (f *Fetcher) fetchOne(ctx context.Context, inst model.Instrument) model.FetchOutcome {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	price, err := f.source.GetIndexPrice(ctx, inst.IndexName)
	elapsed := time.Since(start)

	f.metrics.ObserveFetch(inst.Ticker, err == nil, elapsed)

	if err != nil {
		f.logger.Error("failed to fetch index price",
			"index_name", inst.IndexName,
			"ticker", inst.Ticker,
			"duration", elapsed,
			"error", err,
		)
		return model.FetchOutcome{Ticker: inst.Ticker, IndexName: inst.IndexName, Err: err}
	}

	f.logger.Debug("fetched index price",
		"ticker", inst.Ticker,
		"price", price.String(),
		"duration", elapsed,
	)
	return model.FetchOutcome{Ticker: inst.Ticker, IndexName: inst.IndexName, Price: price}
}
