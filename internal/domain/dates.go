package domain

import (
	"fmt"
	"time"
)

// DateLayout is the storage and display format for calendar days.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of the same calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// DatePtr is a convenience for building optional dates.
func DatePtr(t time.Time) *time.Time {
	d := Day(t)
	return &d
}

// IntPtr is a convenience for building optional durations.
func IntPtr(n int) *int {
	return &n
}
