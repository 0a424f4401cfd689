package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertHoliday(ctx context.Context, tx DBTX, date, reason string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO non_working_dates (date, reason) VALUES (?, ?)`, date, reason)
	return err
}

func holidays(t *testing.T, database *sql.DB) []string {
	t.Helper()
	rows, err := database.Query(`SELECT date FROM non_working_dates ORDER BY date`)
	require.NoError(t, err)
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		require.NoError(t, rows.Scan(&d))
		out = append(out, d)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestWithinTx_Commits(t *testing.T) {
	database := openTestDB(t)
	uow := NewSQLiteUnitOfWork(database)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		if err := insertHoliday(ctx, tx, "2025-12-25", "Christmas"); err != nil {
			return err
		}
		return insertHoliday(ctx, tx, "2025-12-26", "Boxing Day")
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-12-25", "2025-12-26"}, holidays(t, database))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	database := openTestDB(t)
	uow := NewSQLiteUnitOfWork(database)
	errRelation := errors.New("relation rejected")

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		if err := insertHoliday(ctx, tx, "2025-12-25", "Christmas"); err != nil {
			return err
		}
		return errRelation
	})
	assert.ErrorIs(t, err, errRelation)
	assert.Empty(t, holidays(t, database))
}

func TestWithinTx_RollsBackOnConstraintViolation(t *testing.T) {
	database := openTestDB(t)
	uow := NewSQLiteUnitOfWork(database)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
		if err := insertHoliday(ctx, tx, "2025-12-25", "Christmas"); err != nil {
			return err
		}
		return insertHoliday(ctx, tx, "2025-12-25", "again")
	})
	require.Error(t, err)
	assert.Empty(t, holidays(t, database))
}

func TestWithinTx_RollsBackOnPanic(t *testing.T) {
	database := openTestDB(t)
	uow := NewSQLiteUnitOfWork(database)

	assert.PanicsWithValue(t, "boom", func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx DBTX) error {
			_ = insertHoliday(ctx, tx, "2025-12-25", "Christmas")
			panic("boom")
		})
	})
	assert.Empty(t, holidays(t, database))
}

func TestWithinTx_CancelledContext(t *testing.T) {
	uow := NewSQLiteUnitOfWork(openTestDB(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := uow.WithinTx(ctx, func(context.Context, DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
