package testutil

import (
	"context"
	"database/sql"
	"strings"

	"github.com/alexanderramin/cadence/internal/db"
)

// FailingStatementUoW runs a real transaction but fails the Nth write whose
// SQL contains Statement, e.g. the second "INSERT INTO work_items" of an
// import. Nth counts from 1; zero means the first match. Reads and
// non-matching writes pass through.
type FailingStatementUoW struct {
	DB        *sql.DB
	Statement string
	Nth       int
	Err       error
}

func (u *FailingStatementUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &failingStatement{DBTX: tx, uow: u})
	})
}

type failingStatement struct {
	db.DBTX
	uow     *FailingStatementUoW
	matches int
}

func (f *failingStatement) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.uow.Statement) {
		f.matches++
		if f.matches == max(f.uow.Nth, 1) {
			return nil, f.uow.Err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
