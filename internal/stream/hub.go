package stream

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/rickgao/deribit-index/internal/metrics"
	"github.com/rickgao/deribit-index/internal/model"
)

// ErrClosed is returned by Subscribe after the hub is closed.
var ErrClosed = errors.New("stream hub closed")

// Event is one committed batch.
type Event struct {
	TickID string
	Batch  model.Batch
}

// Config holds per-subscriber queue sizes.
type Config struct {
	InitialBuffer int
	MaxBuffer     int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		InitialBuffer: 4,
		MaxBuffer:     64,
	}
}

// Hub broadcasts events to every subscriber.
type Hub struct {
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewHub creates a Hub. m may be nil.
func NewHub(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		subs:    make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a new subscriber.
func (h *Hub) Subscribe() (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	s := &Subscription{
		hub:   h,
		queue: NewQueue[Event](h.cfg.InitialBuffer, h.cfg.MaxBuffer),
	}
	h.subs[s] = struct{}{}
	h.metrics.SetSubscribers(len(h.subs))
	return s, nil
}

// Publish delivers e to every subscriber without blocking.
func (h *Hub) Publish(e Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for s := range h.subs {
		s.queue.Send(e)
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later Subscribe calls fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for s := range h.subs {
		s.queue.Close()
		delete(h.subs, s)
	}
	h.metrics.SetSubscribers(0)
	h.logger.Info("stream hub closed")
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	h.metrics.SetSubscribers(len(h.subs))

	if dropped := s.queue.Stats().Dropped; dropped > 0 {
		h.logger.Warn("subscriber dropped events", "dropped", dropped)
	}
}

// Subscription receives events from a Hub.
type Subscription struct {
	hub   *Hub
	queue *Queue[Event]
	once  sync.Once
}

// Next blocks until an event is available. It returns false once the
// subscription or the hub is closed.
func (s *Subscription) Next() (Event, bool) {
	return s.queue.Receive()
}

// Close unregisters the subscription and unblocks Next.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		s.queue.Close()
	})
}
