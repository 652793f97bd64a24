package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/deribit-index/internal/database"
	"github.com/rickgao/deribit-index/internal/model"
)

// testPool connects to the database named by DERIBIT_INDEX_TEST_DATABASE_URL
// and applies the schema. Tests are skipped when it is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("DERIBIT_INDEX_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("DERIBIT_INDEX_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, database.Migrate(ctx, pool))
	return pool
}

// uniqueTicker keeps tests independent of rows already in the table.
func uniqueTicker(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func countRows(t *testing.T, pool *pgxpool.Pool, tickers ...string) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(),
		`SELECT count(*) FROM deribit_index WHERE ticker = ANY($1)`, tickers).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestIntegration_InsertBatchIsAtomic(t *testing.T) {
	pool := testPool(t)
	s := New(pool, nil)

	btc, eth := uniqueTicker("B"), uniqueTicker("E")
	ts := time.Now().Unix()

	// The empty ticker violates the CHECK constraint on the last row.
	rows := []model.PriceObservation{
		{Ticker: btc, Price: decimal.RequireFromString("12345.67"), CreatedAt: ts},
		{Ticker: eth, Price: decimal.RequireFromString("2345.10"), CreatedAt: ts},
		{Ticker: "", Price: decimal.RequireFromString("1"), CreatedAt: ts},
	}

	_, err := s.InsertBatch(context.Background(), rows)
	require.Error(t, err)

	assert.Equal(t, 0, countRows(t, pool, btc, eth), "no row of a failed batch may be visible")
}

func TestIntegration_RoundTrip(t *testing.T) {
	pool := testPool(t)
	s := New(pool, nil)
	ctx := context.Background()

	ticker := uniqueTicker("T")
	inserted, err := s.InsertBatch(ctx, []model.PriceObservation{
		{Ticker: ticker, Price: decimal.RequireFromString("12345.67"), CreatedAt: 1700000000},
	})
	require.NoError(t, err)
	require.Len(t, inserted, 1)
	assert.NotZero(t, inserted[0].ID)

	_, err = s.InsertBatch(ctx, []model.PriceObservation{
		{Ticker: ticker, Price: decimal.RequireFromString("12400.5"), CreatedAt: 1700000060},
	})
	require.NoError(t, err)

	all, err := s.ListByTicker(ctx, ticker)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "12345.67", all[0].Price.String())

	latest, err := s.Latest(ctx, ticker)
	require.NoError(t, err)
	assert.Equal(t, int64(1700000060), latest.CreatedAt)

	day := time.Date(2023, 11, 14, 0, 0, 0, 0, time.UTC)
	first, err := s.FirstBetween(ctx, ticker, day.Unix(), day.Add(24*time.Hour-time.Second).Unix())
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), first.CreatedAt)

	_, err = s.FirstBetween(ctx, ticker, 0, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}
