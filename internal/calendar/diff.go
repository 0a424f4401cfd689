package calendar

import (
	"sort"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Changes describes which days flipped between two calendar snapshots.
type Changes struct {
	prev, next *Calendar

	// Weekdays whose working flag flipped.
	Weekdays []time.Weekday
	// Dates are explicit overrides whose working status actually flipped.
	Dates []time.Time
}

// Diff computes the symmetric difference between prev and next.
func Diff(prev, next *Calendar) Changes {
	ch := Changes{prev: prev, next: next}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if prev.weekdays[d] != next.weekdays[d] {
			ch.Weekdays = append(ch.Weekdays, d)
		}
	}

	seen := make(map[time.Time]bool)
	consider := func(day time.Time) {
		if seen[day] {
			return
		}
		seen[day] = true
		if prev.IsWorkingDay(day) != next.IsWorkingDay(day) {
			ch.Dates = append(ch.Dates, day)
		}
	}
	for day := range prev.nonWorking {
		if _, ok := next.nonWorking[day]; !ok {
			consider(day)
		}
	}
	for day := range next.nonWorking {
		if _, ok := prev.nonWorking[day]; !ok {
			consider(day)
		}
	}
	sort.Slice(ch.Dates, func(i, j int) bool { return ch.Dates[i].Before(ch.Dates[j]) })
	return ch
}

// Empty reports whether no day changed status.
func (c Changes) Empty() bool {
	return len(c.Weekdays) == 0 && len(c.Dates) == 0
}

// Flipped reports whether d changed between working and non-working.
func (c Changes) Flipped(d time.Time) bool {
	if c.prev == nil || c.next == nil {
		return false
	}
	return c.prev.IsWorkingDay(d) != c.next.IsWorkingDay(d)
}

// Covers reports whether any day in [start, end] flipped.
func (c Changes) Covers(start, end time.Time) bool {
	if c.Empty() {
		return false
	}
	start, end = domain.Day(start), domain.Day(end)
	if len(c.Weekdays) == 0 {
		for _, d := range c.Dates {
			if !d.Before(start) && !d.After(end) {
				return true
			}
		}
		return false
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.Flipped(d) {
			return true
		}
	}
	return false
}
