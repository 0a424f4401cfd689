package domain

import (
	"fmt"
	"time"
)

type WorkItem struct {
	ID      string
	Subject string

	// Dates are calendar days at UTC midnight.
	StartDate *time.Time
	DueDate   *time.Time
	Duration  *int // working days, inclusive of start

	ScheduleMode         ScheduleMode
	ParentID             *string
	IgnoreNonWorkingDays bool

	LockVersion int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAutomatic reports whether the item's dates are derived by the scheduler.
func (w *WorkItem) IsAutomatic() bool {
	return w.ScheduleMode == ScheduleAutomatic
}

// Clone returns a deep copy so callers can mutate dates without aliasing.
func (w *WorkItem) Clone() *WorkItem {
	c := *w
	c.StartDate = cloneTime(w.StartDate)
	c.DueDate = cloneTime(w.DueDate)
	if w.Duration != nil {
		d := *w.Duration
		c.Duration = &d
	}
	if w.ParentID != nil {
		p := *w.ParentID
		c.ParentID = &p
	}
	return &c
}

// SetDates normalises and assigns start and due. Due before start is rejected.
func (w *WorkItem) SetDates(start, due *time.Time) error {
	start, due = truncPtr(start), truncPtr(due)
	if start != nil && due != nil && due.Before(*start) {
		return fmt.Errorf("due date %s is before start date %s",
			due.Format(DateLayout), start.Format(DateLayout))
	}
	w.StartDate = start
	w.DueDate = due
	return nil
}

// DatesEqual reports whether two optional dates denote the same day.
func DatesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func truncPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}
