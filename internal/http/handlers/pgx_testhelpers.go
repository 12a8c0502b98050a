package handlers

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SimpleRow adapts a scan function to pgx.Row for handler tests.
type SimpleRow struct {
	scan func(dest ...any) error
}

func NewSimpleRow(scanner func(dest ...any) error) SimpleRow {
	return SimpleRow{scan: scanner}
}

func (r SimpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type TestRowsBase struct{}

func (TestRowsBase) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }

func (TestRowsBase) Conn() *pgx.Conn { return nil }

func (TestRowsBase) FieldDescriptions() []pgconn.FieldDescription { return nil }

func (TestRowsBase) Values() ([]any, error) {
	return nil, fmt.Errorf("values not supported in test rows")
}

func (TestRowsBase) RawValues() [][]byte { return nil }

// sliceRows replays a fixed set of scan functions as pgx.Rows.
type sliceRows struct {
	TestRowsBase
	rows []func(dest ...any) error
	idx  int
}

func (r *sliceRows) Close() {}

func (r *sliceRows) Err() error { return nil }

func (r *sliceRows) Next() bool {
	return r.idx < len(r.rows)
}

func (r *sliceRows) Scan(dest ...any) error {
	if r.idx >= len(r.rows) {
		return pgx.ErrNoRows
	}
	scan := r.rows[r.idx]
	r.idx++
	return scan(dest...)
}

// stubSQL dispatches queries to per-statement handlers registered by query
// constant. Unregistered statements behave like an empty result set.
type stubSQL struct {
	execs    map[string]func(args ...any) (pgconn.CommandTag, error)
	rows     map[string]func(args ...any) SimpleRow
	querySet map[string]func(args ...any) []func(dest ...any) error
	execLog  []string
}

func newStubSQL() *stubSQL {
	return &stubSQL{
		execs:    make(map[string]func(args ...any) (pgconn.CommandTag, error)),
		rows:     make(map[string]func(args ...any) SimpleRow),
		querySet: make(map[string]func(args ...any) []func(dest ...any) error),
	}
}

func (s *stubSQL) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.execLog = append(s.execLog, query)
	if fn, ok := s.execs[query]; ok {
		return fn(args...)
	}
	return pgconn.CommandTag{}, nil
}

func (s *stubSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	if fn, ok := s.rows[query]; ok {
		return fn(args...)
	}
	return SimpleRow{}
}

func (s *stubSQL) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	if fn, ok := s.querySet[query]; ok {
		return &sliceRows{rows: fn(args...)}, nil
	}
	return &sliceRows{}, nil
}
