package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
)

// SQLiteCalendarRepo stores the deployment-wide working-day calendar.
type SQLiteCalendarRepo struct {
	db db.DBTX
}

// NewSQLiteCalendarRepo creates a new SQLiteCalendarRepo.
func NewSQLiteCalendarRepo(conn db.DBTX) *SQLiteCalendarRepo {
	return &SQLiteCalendarRepo{db: conn}
}

// Load reads weekday flags and non-working dates into a calendar snapshot.
func (r *SQLiteCalendarRepo) Load(ctx context.Context) (*calendar.Calendar, error) {
	weekdays, err := r.loadWeekdays(ctx)
	if err != nil {
		return nil, err
	}
	dates, err := r.loadNonWorkingDates(ctx)
	if err != nil {
		return nil, err
	}
	cal, err := calendar.New(weekdays, dates)
	if err != nil {
		return nil, fmt.Errorf("building calendar: %w", err)
	}
	return cal, nil
}

func (r *SQLiteCalendarRepo) loadWeekdays(ctx context.Context) (domain.WeekdaySet, error) {
	var set domain.WeekdaySet
	rows, err := r.db.QueryContext(ctx, `SELECT weekday, working FROM working_weekdays`)
	if err != nil {
		return set, fmt.Errorf("loading working weekdays: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var day, working int
		if err := rows.Scan(&day, &working); err != nil {
			return set, fmt.Errorf("scanning working weekday: %w", err)
		}
		if day >= 0 && day < 7 {
			set[day] = intToBool(working)
		}
	}
	if err := rows.Err(); err != nil {
		return set, fmt.Errorf("iterating working weekdays: %w", err)
	}
	return set, nil
}

func (r *SQLiteCalendarRepo) loadNonWorkingDates(ctx context.Context) ([]domain.NonWorkingDate, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT date, reason FROM non_working_dates ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("loading non-working dates: %w", err)
	}
	defer rows.Close()
	var out []domain.NonWorkingDate
	for rows.Next() {
		var raw, reason string
		if err := rows.Scan(&raw, &reason); err != nil {
			return nil, fmt.Errorf("scanning non-working date: %w", err)
		}
		d, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("parsing non-working date %q: %w", raw, err)
		}
		out = append(out, domain.NonWorkingDate{Date: d, Reason: reason})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating non-working dates: %w", err)
	}
	return out, nil
}

// SaveWeekdays replaces all seven weekday flags.
func (r *SQLiteCalendarRepo) SaveWeekdays(ctx context.Context, days domain.WeekdaySet) error {
	if days.Empty() {
		return fmt.Errorf("at least one weekday must be working")
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO working_weekdays (weekday, working) VALUES (?, ?)
			 ON CONFLICT(weekday) DO UPDATE SET working = excluded.working`,
			int(d), boolToInt(days[d]))
		if err != nil {
			return fmt.Errorf("saving weekday %s: %w", d, err)
		}
	}
	return nil
}

func (r *SQLiteCalendarRepo) AddNonWorkingDate(ctx context.Context, d domain.NonWorkingDate) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO non_working_dates (date, reason) VALUES (?, ?)
		 ON CONFLICT(date) DO UPDATE SET reason = excluded.reason`,
		domain.Day(d.Date).Format(dateLayout), d.Reason)
	if err != nil {
		return fmt.Errorf("adding non-working date: %w", err)
	}
	return nil
}

func (r *SQLiteCalendarRepo) RemoveNonWorkingDate(ctx context.Context, date time.Time) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM non_working_dates WHERE date = ?`,
		domain.Day(date).Format(dateLayout))
	if err != nil {
		return fmt.Errorf("removing non-working date: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("non-working date: %w", ErrNotFound)
	}
	return nil
}
