package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/rickgao/deribit-index/internal/model"
)

// ErrNotFound is returned when a query matches no rows.
var ErrNotFound = errors.New("price observation not found")

// DB is the subset of *pgxpool.Pool used by Store.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists and queries the deribit_index table.
type Store struct {
	db     DB
	logger *slog.Logger
}

// New creates a Store.
func New(db DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

const (
	insertSQL = `
		INSERT INTO deribit_index (ticker, price, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`

	selectColumns = `SELECT id, ticker, price::text, created_at FROM deribit_index`

	listByTickerSQL = selectColumns + `
		WHERE ticker = $1
		ORDER BY created_at, id`

	latestSQL = selectColumns + `
		WHERE ticker = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	firstBetweenSQL = selectColumns + `
		WHERE ticker = $1 AND created_at >= $2 AND created_at <= $3
		ORDER BY created_at, id
		LIMIT 1`
)

// InsertBatch inserts all rows in one transaction and returns them with
// their assigned IDs. On any error the transaction is rolled back and no
// row of the batch is visible.
func (s *Store) InsertBatch(ctx context.Context, rows []model.PriceObservation) (_ []model.PriceObservation, err error) {
	if len(rows) == 0 {
		return nil, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Error("rollback failed", "error", rbErr, "count", len(rows))
		}
	}()

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertSQL, r.Ticker, r.Price.String(), r.CreatedAt)
	}

	results := tx.SendBatch(ctx, batch)

	out := make([]model.PriceObservation, len(rows))
	for i, r := range rows {
		var id int64
		if err := results.QueryRow().Scan(&id); err != nil {
			results.Close()
			return nil, fmt.Errorf("insert %s row %d/%d: %w", r.Ticker, i+1, len(rows), err)
		}
		r.ID = id
		out[i] = r
	}

	if err := results.Close(); err != nil {
		return nil, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return out, nil
}

// ListByTicker returns every observation for ticker, oldest first.
func (s *Store) ListByTicker(ctx context.Context, ticker string) ([]model.PriceObservation, error) {
	rows, err := s.db.Query(ctx, listByTickerSQL, ticker)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", ticker, err)
	}
	defer rows.Close()

	var out []model.PriceObservation
	for rows.Next() {
		obs, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", ticker, err)
	}

	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Latest returns the most recent observation for ticker.
func (s *Store) Latest(ctx context.Context, ticker string) (model.PriceObservation, error) {
	return s.queryOne(ctx, latestSQL, ticker)
}

// FirstBetween returns the earliest observation for ticker with
// from <= created_at <= to.
func (s *Store) FirstBetween(ctx context.Context, ticker string, from, to int64) (model.PriceObservation, error) {
	return s.queryOne(ctx, firstBetweenSQL, ticker, from, to)
}

func (s *Store) queryOne(ctx context.Context, sql string, args ...any) (model.PriceObservation, error) {
	obs, err := scanObservation(s.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.PriceObservation{}, ErrNotFound
	}
	return obs, err
}

func scanObservation(row pgx.Row) (model.PriceObservation, error) {
	var (
		obs   model.PriceObservation
		price string
	)
	if err := row.Scan(&obs.ID, &obs.Ticker, &price, &obs.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return obs, err
		}
		return obs, fmt.Errorf("scan observation: %w", err)
	}

	d, err := decimal.NewFromString(price)
	if err != nil {
		return obs, fmt.Errorf("parse price %q: %w", price, err)
	}
	obs.Price = d
	return obs, nil
}
