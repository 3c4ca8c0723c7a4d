package postgres_test

import (
	"context"
	"errors"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowStub implements pgx.Row.
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

// scanInto copies stub values into scan destinations. A nil value leaves the
// destination at its zero value.
func scanInto(values []any, dest []any) error {
	if len(values) != len(dest) {
		return errors.New("stub: wrong number of scan destinations")
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		d := reflect.ValueOf(dest[i]).Elem()
		d.Set(reflect.ValueOf(v))
	}
	return nil
}

// rowsStub implements pgx.Rows over a fixed set of rows.
type rowsStub struct {
	rows [][]any
	idx  int
	err  error
}

func (r *rowsStub) Close()                                       {}
func (r *rowsStub) Err() error                                   { return r.err }
func (r *rowsStub) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *rowsStub) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *rowsStub) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}
func (r *rowsStub) Scan(dest ...any) error      { return scanInto(r.rows[r.idx-1], dest) }
func (r *rowsStub) Values() ([]any, error)      { return r.rows[r.idx-1], nil }
func (r *rowsStub) RawValues() [][]byte         { return nil }
func (r *rowsStub) Conn() *pgx.Conn             { return nil }

// poolStub implements postgres.PgxPool for tests. It records executed SQL and
// arguments so assertions can check what the repo sent.
type poolStub struct {
	execErr  error
	row      pgx.Row
	queryFn  func(sql string, args ...any) (pgx.Rows, error)
	tx       pgx.Tx
	beginErr error

	execSQL  []string
	execArgs [][]any
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execSQL = append(p.execSQL, sql)
	p.execArgs = append(p.execArgs, args)
	return pgconn.CommandTag{}, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if p.row == nil {
		return rowStub{scan: func(_ ...any) error { return errors.New("no row configured") }}
	}
	return p.row
}

func (p *poolStub) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	if p.queryFn == nil {
		return &rowsStub{}, nil
	}
	return p.queryFn(sql, args...)
}

func (p *poolStub) BeginTx(_ context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	return p.tx, nil
}

// txStub implements pgx.Tx, recording Exec calls and the final outcome.
type txStub struct {
	execErr    error
	execSQL    []string
	committed  bool
	rolledBack bool
}

func (t *txStub) Begin(context.Context) (pgx.Tx, error) { return t, nil }
func (t *txStub) Commit(context.Context) error {
	t.committed = true
	return nil
}
func (t *txStub) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}
func (t *txStub) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *txStub) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }
func (t *txStub) LargeObjects() pgx.LargeObjects                         { return pgx.LargeObjects{} }
func (t *txStub) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *txStub) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	t.execSQL = append(t.execSQL, sql)
	return pgconn.CommandTag{}, t.execErr
}
func (t *txStub) Query(context.Context, string, ...any) (pgx.Rows, error) { return &rowsStub{}, nil }
func (t *txStub) QueryRow(context.Context, string, ...any) pgx.Row {
	return rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}
}
func (t *txStub) Conn() *pgx.Conn { return nil }
