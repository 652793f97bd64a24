package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/deribit-index/internal/api"
	"github.com/rickgao/deribit-index/internal/config"
	"github.com/rickgao/deribit-index/internal/database"
	"github.com/rickgao/deribit-index/internal/fetcher"
	"github.com/rickgao/deribit-index/internal/metrics"
	"github.com/rickgao/deribit-index/internal/poller"
	"github.com/rickgao/deribit-index/internal/server"
	"github.com/rickgao/deribit-index/internal/store"
	"github.com/rickgao/deribit-index/internal/stream"
	"github.com/rickgao/deribit-index/internal/version"
	"github.com/rickgao/deribit-index/internal/writer"
)

// Pool is the storage handle the app owns. *pgxpool.Pool satisfies it.
type Pool interface {
	store.DB
	Ping(ctx context.Context) error
	Close()
}

// App is the explicit application context.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	pool    Pool
	metrics *metrics.Metrics
	hub     *stream.Hub
	poller  *poller.Poller
	server  *server.Server
}

// New connects to the database, applies the schema when auto_migrate is
// set, and assembles every component.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Name,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("schema applied")
	}

	a, err := Assemble(cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

// Assemble builds the components on top of an open pool.
func Assemble(cfg *config.Config, pool Pool, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("instance_id", cfg.Instance.ID)

	loc, err := cfg.Server.Location()
	if err != nil {
		return nil, fmt.Errorf("server timezone: %w", err)
	}

	m := metrics.New()

	client := api.NewClient(cfg.Upstream.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.Upstream.RequestTimeout),
		api.WithUserAgent(api.DefaultUserAgent+" ("+version.Version+")"),
	)

	f := fetcher.New(fetcher.Config{
		Instruments: cfg.Upstream.Instruments,
		Timeout:     cfg.Upstream.RequestTimeout,
	}, client, m, logger.With("component", "fetcher"))

	st := store.New(pool, logger.With("component", "store"))
	w := writer.New(st, m, logger.With("component", "writer"))
	hub := stream.NewHub(stream.DefaultConfig(), m, logger.With("component", "stream"))

	p := poller.New(poller.Config{
		Interval:           cfg.Scheduler.Interval,
		StopOnPersistError: cfg.Scheduler.StopOnPersistError,
	}, f, w, hub, m, logger.With("component", "poller"))

	srvCfg := server.Config{
		Addr:         cfg.Server.Addr,
		Location:     loc,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if cfg.Metrics.IsEnabled() {
		srvCfg.MetricsPath = cfg.Metrics.Path
	}
	srv := server.New(srvCfg, st, logger.With("component", "server"),
		server.WithMetrics(m),
		server.WithStream(hub),
		server.WithHealth(pool, p),
	)

	return &App{
		cfg:     cfg,
		logger:  logger,
		pool:    pool,
		metrics: m,
		hub:     hub,
		poller:  p,
		server:  srv,
	}, nil
}

// Run starts the scheduler and the HTTP server and blocks until ctx is
// cancelled, the server fails, or the scheduler stops on a persistence
// error. It returns nil only for cancellation.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("starting deribit-index",
		"version", version.String(),
		"addr", a.cfg.Server.Addr,
		"instruments", len(a.cfg.Upstream.Instruments),
		"interval", a.cfg.Scheduler.Interval,
	)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- a.server.ListenAndServe()
	}()

	if err := a.poller.Start(ctx); err != nil {
		return fmt.Errorf("start poller: %w", err)
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down...")
		return nil
	case err := <-srvErr:
		if err == nil {
			err = errors.New("http server stopped unexpectedly")
		}
		return fmt.Errorf("http server: %w", err)
	case <-a.poller.Done():
		if err := a.poller.Err(); err != nil {
			return err
		}
		return nil
	}
}

// RunTick performs a single fetch-and-persist cycle.
func (a *App) RunTick(ctx context.Context) error {
	return a.poller.RunOnce(ctx)
}

// Close stops the scheduler and drains the in-flight tick, then shuts down
// the HTTP server, the stream hub and the pool, in that order.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if err := a.poller.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stop poller: %w", err))
	}
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http: %w", err))
	}
	a.hub.Close()
	a.pool.Close()

	a.logger.Info("deribit-index stopped")
	return errors.Join(errs...)
}
