package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
)

// lockTimeLayout is fixed width so stored timestamps compare as strings.
const lockTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteJobLockRepo implements named, deployment-wide locks on the
// job_locks table. A lock past its expiry may be taken over.
type SQLiteJobLockRepo struct {
	db  db.DBTX
	now func() time.Time
}

// NewSQLiteJobLockRepo creates a new SQLiteJobLockRepo.
func NewSQLiteJobLockRepo(conn db.DBTX) *SQLiteJobLockRepo {
	return &SQLiteJobLockRepo{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

// TryAcquire takes the lock for holder unless another holder has it and it
// has not expired. It never waits.
func (r *SQLiteJobLockRepo) TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	now := r.now()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO job_locks (name, holder, acquired_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		     holder = excluded.holder,
		     acquired_at = excluded.acquired_at,
		     expires_at = excluded.expires_at
		 WHERE job_locks.expires_at <= ? OR job_locks.holder = excluded.holder`,
		name, holder, now.Format(lockTimeLayout), now.Add(ttl).Format(lockTimeLayout),
		now.Format(lockTimeLayout))
	if err != nil {
		return false, fmt.Errorf("acquiring job lock %s: %w", name, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquiring job lock %s: %w", name, err)
	}
	return n > 0, nil
}

// Release drops the lock if holder still owns it.
func (r *SQLiteJobLockRepo) Release(ctx context.Context, name, holder string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM job_locks WHERE name = ? AND holder = ?`, name, holder)
	if err != nil {
		return fmt.Errorf("releasing job lock %s: %w", name, err)
	}
	return nil
}
