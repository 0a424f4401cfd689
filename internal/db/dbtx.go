package db

import (
	"context"
	"database/sql"
)

// DBTX is what the repositories run their statements against: the pooled
// *sql.DB for single reads and writes, or the *sql.Tx handed out by
// UnitOfWork when a work item, its relations and the calendar must change
// together.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
