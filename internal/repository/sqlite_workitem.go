package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

// workItemColumns is the canonical SELECT column list for work_items.
const workItemColumns = `id, subject, start_date, due_date, duration, schedule_mode,
		parent_id, ignore_non_working_days, lock_version, created_at, updated_at`

// SQLiteWorkItemRepo implements WorkItemRepo using a SQLite database.
type SQLiteWorkItemRepo struct {
	db db.DBTX
}

// NewSQLiteWorkItemRepo creates a new SQLiteWorkItemRepo.
func NewSQLiteWorkItemRepo(conn db.DBTX) *SQLiteWorkItemRepo {
	return &SQLiteWorkItemRepo{db: conn}
}

func (r *SQLiteWorkItemRepo) Create(ctx context.Context, w *domain.WorkItem) error {
	query := `INSERT INTO work_items (` + workItemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		w.ID,
		w.Subject,
		nullableTimeToString(w.StartDate, dateLayout),
		nullableTimeToString(w.DueDate, dateLayout),
		nullableIntToValue(w.Duration),
		string(w.ScheduleMode),
		nullableStringToValue(w.ParentID),
		boolToInt(w.IgnoreNonWorkingDays),
		w.LockVersion,
		w.CreatedAt.Format(time.RFC3339),
		w.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting work item: %w", err)
	}
	return nil
}

func (r *SQLiteWorkItemRepo) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanWorkItem(row)
}

// GetMany returns the items that exist among ids, ordered by id.
func (r *SQLiteWorkItemRepo) GetMany(ctx context.Context, ids []string) ([]*domain.WorkItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	in, args := inClause(ids)
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id IN ` + in + ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("loading work items: %w", err)
	}
	defer rows.Close()
	return r.scanWorkItems(rows)
}

func (r *SQLiteWorkItemRepo) List(ctx context.Context) ([]*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing work items: %w", err)
	}
	defer rows.Close()
	return r.scanWorkItems(rows)
}

// ListChildren returns the direct children of the given parents.
func (r *SQLiteWorkItemRepo) ListChildren(ctx context.Context, parentIDs []string) ([]*domain.WorkItem, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	in, args := inClause(parentIDs)
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE parent_id IN ` + in + ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing children: %w", err)
	}
	defer rows.Close()
	return r.scanWorkItems(rows)
}

// ListRescheduleCandidates returns automatically scheduled items that follow
// the working-day calendar, have a start date and no children. These are the
// items whose own span a calendar change can move.
func (r *SQLiteWorkItemRepo) ListRescheduleCandidates(ctx context.Context) ([]*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items w
		WHERE w.schedule_mode = 'automatic'
		  AND w.ignore_non_working_days = 0
		  AND w.start_date IS NOT NULL
		  AND NOT EXISTS (SELECT 1 FROM work_items c WHERE c.parent_id = w.id)
		ORDER BY w.id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing reschedule candidates: %w", err)
	}
	defer rows.Close()
	return r.scanWorkItems(rows)
}

// Update writes every mutable column. The row must still carry
// w.LockVersion; on success the version is incremented in w.
func (r *SQLiteWorkItemRepo) Update(ctx context.Context, w *domain.WorkItem) error {
	now := time.Now().UTC()
	query := `UPDATE work_items SET subject = ?, start_date = ?, due_date = ?, duration = ?,
		schedule_mode = ?, parent_id = ?, ignore_non_working_days = ?,
		lock_version = lock_version + 1, updated_at = ?
		WHERE id = ? AND lock_version = ?`
	result, err := r.db.ExecContext(ctx, query,
		w.Subject,
		nullableTimeToString(w.StartDate, dateLayout),
		nullableTimeToString(w.DueDate, dateLayout),
		nullableIntToValue(w.Duration),
		string(w.ScheduleMode),
		nullableStringToValue(w.ParentID),
		boolToInt(w.IgnoreNonWorkingDays),
		now.Format(time.RFC3339),
		w.ID,
		w.LockVersion,
	)
	if err != nil {
		return fmt.Errorf("updating work item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating work item: %w", err)
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, w.ID); errors.Is(getErr, ErrNotFound) {
			return getErr
		}
		return fmt.Errorf("work item %s: %w", w.ID, domain.ErrStaleObject)
	}
	w.LockVersion++
	w.UpdatedAt = now
	return nil
}

// SaveBatch updates each item independently. A failing item does not stop
// or roll back the others; failures are returned per item.
func (r *SQLiteWorkItemRepo) SaveBatch(ctx context.Context, items []*domain.WorkItem) []*domain.PersistenceFailure {
	var failures []*domain.PersistenceFailure
	for _, w := range items {
		if err := r.Update(ctx, w); err != nil {
			failures = append(failures, &domain.PersistenceFailure{ItemID: w.ID, Err: err})
		}
	}
	return failures
}

// Delete removes the item. Its relations are removed by cascade and its
// children are detached.
func (r *SQLiteWorkItemRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting work item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("work item: %w", ErrNotFound)
	}
	return nil
}

// scanWorkItem scans a single work item from a *sql.Row.
func (r *SQLiteWorkItemRepo) scanWorkItem(row *sql.Row) (*domain.WorkItem, error) {
	w, err := r.populateWorkItem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("work item: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning work item: %w", err)
	}
	return w, nil
}

// scanWorkItems scans multiple work items from *sql.Rows.
func (r *SQLiteWorkItemRepo) scanWorkItems(rows *sql.Rows) ([]*domain.WorkItem, error) {
	var items []*domain.WorkItem
	for rows.Next() {
		w, err := r.populateWorkItem(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning work item row: %w", err)
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work item rows: %w", err)
	}
	return items, nil
}

func (r *SQLiteWorkItemRepo) populateWorkItem(scan func(dest ...any) error) (*domain.WorkItem, error) {
	var (
		w                    domain.WorkItem
		startDate, dueDate   sql.NullString
		duration             sql.NullInt64
		mode                 string
		parentID             sql.NullString
		ignoreNonWorkingDays int
		createdAt, updatedAt string
	)
	err := scan(
		&w.ID,
		&w.Subject,
		&startDate,
		&dueDate,
		&duration,
		&mode,
		&parentID,
		&ignoreNonWorkingDays,
		&w.LockVersion,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	w.StartDate = parseNullableTime(startDate, dateLayout)
	w.DueDate = parseNullableTime(dueDate, dateLayout)
	w.Duration = nullableInt(duration)
	w.ScheduleMode = domain.ScheduleMode(mode)
	w.ParentID = nullableString(parentID)
	w.IgnoreNonWorkingDays = intToBool(ignoreNonWorkingDays)
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &w, nil
}
