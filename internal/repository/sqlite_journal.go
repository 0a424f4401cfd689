package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

// SQLiteJournalRepo records scheduler-derived date changes with their cause.
type SQLiteJournalRepo struct {
	db db.DBTX
}

// NewSQLiteJournalRepo creates a new SQLiteJournalRepo.
func NewSQLiteJournalRepo(conn db.DBTX) *SQLiteJournalRepo {
	return &SQLiteJournalRepo{db: conn}
}

func (r *SQLiteJournalRepo) Append(ctx context.Context, entries []domain.JournalEntry) error {
	for _, e := range entries {
		cause, err := json.Marshal(e.Cause)
		if err != nil {
			return fmt.Errorf("encoding journal cause: %w", err)
		}
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO journal_entries (work_item_id, cause_type, user_id, cause,
				old_start, old_due, new_start, new_due, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			e.WorkItemID,
			string(e.Cause.Type),
			e.Cause.UserID,
			string(cause),
			nullableTimeToString(e.OldStart, dateLayout),
			nullableTimeToString(e.OldDue, dateLayout),
			nullableTimeToString(e.NewStart, dateLayout),
			nullableTimeToString(e.NewDue, dateLayout),
			createdAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("inserting journal entry for %s: %w", e.WorkItemID, err)
		}
	}
	return nil
}

func (r *SQLiteJournalRepo) ListByWorkItem(ctx context.Context, workItemID string) ([]domain.JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, work_item_id, cause, old_start, old_due, new_start, new_due, created_at
		 FROM journal_entries WHERE work_item_id = ? ORDER BY id`, workItemID)
	if err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}
	defer rows.Close()

	var out []domain.JournalEntry
	for rows.Next() {
		var (
			e                                  domain.JournalEntry
			cause, createdAt                   string
			oldStart, oldDue, newStart, newDue sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.WorkItemID, &cause, &oldStart, &oldDue, &newStart, &newDue, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		if err := json.Unmarshal([]byte(cause), &e.Cause); err != nil {
			return nil, fmt.Errorf("decoding journal cause: %w", err)
		}
		e.OldStart = parseNullableTime(oldStart, dateLayout)
		e.OldDue = parseNullableTime(oldDue, dateLayout)
		e.NewStart = parseNullableTime(newStart, dateLayout)
		e.NewDue = parseNullableTime(newDue, dateLayout)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal entries: %w", err)
	}
	return out, nil
}
