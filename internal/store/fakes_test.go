package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB records transactions and serves canned query results.
type fakeDB struct {
	beginErr error
	tx       *fakeTx

	queryErr  error
	rows      [][]any // Served by Query
	row       []any   // Served by QueryRow; nil means no rows
	lastSQL   string
	lastArgs  []any
	beginCall int
}

func (f *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	f.beginCall++
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.lastSQL, f.lastArgs = sql, args
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.lastSQL, f.lastArgs = sql, args
	if f.row == nil {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: f.row}
}

// fakeTx implements the parts of pgx.Tx used by InsertBatch.
type fakeTx struct {
	pgx.Tx

	failAt    int // 1-based queued statement that fails; 0 means none
	commitErr error

	batch      *pgx.Batch
	committed  bool
	rolledBack bool
}

func (t *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	t.batch = b
	return &fakeBatchResults{tx: t}
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeBatchResults struct {
	tx     *fakeTx
	n      int
	closed bool
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (r *fakeBatchResults) Query() (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeBatchResults) QueryRow() pgx.Row {
	r.n++
	if r.tx.failAt == r.n {
		return fakeRow{err: fmt.Errorf("new row violates check constraint \"deribit_index_ticker_check\"")}
	}
	return fakeRow{values: []any{int64(100 + r.n)}}
}

func (r *fakeBatchResults) Close() error {
	r.closed = true
	return nil
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	pgx.Rows

	rows [][]any
	pos  int
}

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.rows[r.pos])
}

func (r *fakeRows) Err() error { return nil }
func (r *fakeRows) Close()     {}

func assign(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *int64:
			*p = values[i].(int64)
		case *string:
			*p = values[i].(string)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}
