package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/deribit-index/internal/metrics"
	"github.com/rickgao/deribit-index/internal/model"
	"github.com/rickgao/deribit-index/internal/stream"
)

// ErrTickInFlight is returned by RunOnce when another tick is still running.
var ErrTickInFlight = errors.New("tick already in flight")

// Fetcher retrieves one outcome per configured instrument.
type Fetcher interface {
	FetchAll(ctx context.Context) []model.FetchOutcome
}

// Writer persists the successful outcomes of a tick.
type Writer interface {
	Write(ctx context.Context, outcomes []model.FetchOutcome) (model.Batch, error)
}

// Publisher receives every committed batch.
type Publisher interface {
	Publish(e stream.Event)
}

// Config holds poller configuration.
type Config struct {
	Interval           time.Duration // Tick interval (default: 1m)
	StopOnPersistError bool          // Stop the loop on the first persistence failure
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: time.Minute,
	}
}

// TickStatus describes the most recent completed tick.
type TickStatus struct {
	TickID    string        `json:"tick_id"`
	Status    string        `json:"status"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Fetched   int           `json:"fetched"`
	Failed    int           `json:"failed"`
	Persisted int           `json:"persisted"`
	Error     string        `json:"error,omitempty"`
}

// Poller runs fetch-then-persist once per interval.
type Poller struct {
	cfg       Config
	fetcher   Fetcher
	writer    Writer
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	tickMu sync.Mutex // held for the duration of a tick

	statusMu sync.RWMutex
	last     *TickStatus
	err      error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	done   chan struct{}
}

// New creates a new Poller. publisher and m may be nil.
func New(cfg Config, fetcher Fetcher, writer Writer, publisher Publisher, m *metrics.Metrics, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Poller{
		cfg:       cfg,
		fetcher:   fetcher,
		writer:    writer,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the tick loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("tick scheduler started",
		"interval", p.cfg.Interval,
		"stop_on_persist_error", p.cfg.StopOnPersistError,
	)

	return nil
}

// Stop cancels the loop and waits for the in-flight tick to drain.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("tick scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed when the loop exits.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Err returns the persistence error that stopped the loop, if any.
func (p *Poller) Err() error {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.err
}

// LastTick returns the status of the most recent tick, or nil before the first.
func (p *Poller) LastTick() *TickStatus {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	if p.last == nil {
		return nil
	}
	s := *p.last
	return &s
}

// run is the main tick loop.
func (p *Poller) run() {
	defer p.wg.Done()
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Tick immediately on start.
	if p.tickFromLoop() {
		return
	}

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if p.tickFromLoop() {
				return
			}
		}
	}
}

// tickFromLoop runs one scheduled tick and reports whether the loop must stop.
// The tick is not cancelled by Stop; it drains, bounded by the per-request
// fetch timeouts and the Stop deadline. p.ctx is only checked between ticks.
func (p *Poller) tickFromLoop() bool {
	err := p.RunOnce(context.WithoutCancel(p.ctx))
	if err == nil || errors.Is(err, ErrTickInFlight) {
		return false
	}
	if p.ctx.Err() != nil {
		return true
	}
	if !p.cfg.StopOnPersistError {
		return false
	}

	p.statusMu.Lock()
	p.err = err
	p.statusMu.Unlock()

	p.logger.Error("stopping tick scheduler after persistence failure", "error", err)
	return true
}

// RunOnce performs one tick: fetch every instrument, persist the successes
// and publish the committed batch. It returns the persistence error, if any,
// or ErrTickInFlight when another tick holds the lock.
func (p *Poller) RunOnce(ctx context.Context) error {
	if !p.tickMu.TryLock() {
		p.logger.Warn("skipping tick, previous tick still in flight")
		p.metrics.ObserveTick(metrics.TickSkipped, 0)
		return ErrTickInFlight
	}
	defer p.tickMu.Unlock()

	tickID := uuid.NewString()
	start := time.Now()
	logger := p.logger.With("tick_id", tickID)

	outcomes := p.fetcher.FetchAll(ctx)
	fetched := len(model.Successful(outcomes))

	batch, err := p.writer.Write(ctx, outcomes)
	duration := time.Since(start)

	status := TickStatus{
		TickID:    tickID,
		StartedAt: start,
		Duration:  duration,
		Fetched:   fetched,
		Failed:    len(outcomes) - fetched,
		Persisted: len(batch.Observations),
	}

	switch {
	case err != nil:
		status.Status = metrics.TickPersistError
		status.Error = err.Error()
	case len(batch.Observations) == 0:
		status.Status = metrics.TickEmpty
	default:
		status.Status = metrics.TickOK
	}

	p.metrics.ObserveTick(status.Status, duration)
	p.statusMu.Lock()
	p.last = &status
	p.statusMu.Unlock()

	if err != nil {
		logger.Error("tick failed",
			"error", err,
			"fetched", status.Fetched,
			"failed", status.Failed,
			"duration", duration,
		)
		return fmt.Errorf("tick %s: %w", tickID, err)
	}

	if status.Persisted > 0 && p.publisher != nil {
		p.publisher.Publish(stream.Event{TickID: tickID, Batch: batch})
	}

	logger.Info("tick complete",
		"status", status.Status,
		"fetched", status.Fetched,
		"failed", status.Failed,
		"persisted", status.Persisted,
		"duration", duration,
	)

	return nil
}
