package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/rickgao/deribit-index/internal/metrics"
	"github.com/rickgao/deribit-index/internal/model"
	"github.com/rickgao/deribit-index/internal/poller"
	"github.com/rickgao/deribit-index/internal/stream"
)

// Querier reads persisted observations. Methods return store.ErrNotFound
// when nothing matches.
type Querier interface {
	ListByTicker(ctx context.Context, ticker string) ([]model.PriceObservation, error)
	Latest(ctx context.Context, ticker string) (model.PriceObservation, error)
	FirstBetween(ctx context.Context, ticker string, from, to int64) (model.PriceObservation, error)
}

// Pinger checks database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TickReporter exposes the most recent tick.
type TickReporter interface {
	LastTick() *poller.TickStatus
}

// Subscriber hands out live stream subscriptions.
type Subscriber interface {
	Subscribe() (*stream.Subscription, error)
}

// Config holds server configuration.
type Config struct {
	Addr         string
	Location     *time.Location // Day boundaries for ?date=
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MetricsPath  string // Empty disables /metrics
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8000",
		Location:     time.Local,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		MetricsPath:  "/metrics",
	}
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records per-route request counts and serves the registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithStream enables /ws/prices.
func WithStream(sub Subscriber) Option {
	return func(s *Server) {
		s.stream = sub
	}
}

// WithHealth wires the /health dependencies.
func WithHealth(db Pinger, ticks TickReporter) Option {
	return func(s *Server) {
		s.db = db
		s.ticks = ticks
	}
}

// Server serves the read API.
type Server struct {
	cfg     Config
	store   Querier
	db      Pinger
	ticks   TickReporter
	stream  Subscriber
	metrics *metrics.Metrics
	logger  *slog.Logger

	router *mux.Router
	http   *http.Server
}

// New creates a Server and registers its routes.
func New(cfg Config, store Querier, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.instrument)

	r.HandleFunc("/all_prices/{ticker}", s.handleAllPrices).Methods(http.MethodGet)
	r.HandleFunc("/latest-price/{ticker}", s.handleLatestPrice).Methods(http.MethodGet)
	r.HandleFunc("/prices/{ticker}", s.handlePrices).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.cfg.MetricsPath != "" && s.metrics != nil {
		r.Handle(s.cfg.MetricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}
	if s.stream != nil {
		r.HandleFunc("/ws/prices", s.handleStream).Methods(http.MethodGet)
	}

	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks until the server stops. It returns nil after Shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.logger.Info("http server stopped")
	return err
}
