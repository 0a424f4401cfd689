// Package calendar answers working-day questions for the scheduler.
package calendar

import (
	"errors"
	"sort"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Days is the working-day arithmetic the scheduler needs. Both the shared
// Calendar and the all-days view used by items ignoring non-working days
// satisfy it.
type Days interface {
	IsWorkingDay(d time.Time) bool
	Advance(d time.Time, n int) time.Time
	CountWorkingDays(start, end time.Time) int
	SoonestWorkingDay(d time.Time) time.Time
}

// Calendar is an immutable snapshot of the working-day configuration.
type Calendar struct {
	weekdays   domain.WeekdaySet
	nonWorking map[time.Time]domain.NonWorkingDate
	perWeek    int
}

var _ Days = (*Calendar)(nil)

// New builds a calendar. At least one weekday must be working, otherwise
// Advance could never terminate.
func New(weekdays domain.WeekdaySet, dates []domain.NonWorkingDate) (*Calendar, error) {
	if weekdays.Empty() {
		return nil, errors.New("calendar needs at least one working weekday")
	}
	c := &Calendar{
		weekdays:   weekdays,
		nonWorking: make(map[time.Time]domain.NonWorkingDate, len(dates)),
		perWeek:    len(weekdays.Days()),
	}
	for _, nwd := range dates {
		nwd.Date = domain.Day(nwd.Date)
		c.nonWorking[nwd.Date] = nwd
	}
	return c, nil
}

// Default is a Monday to Friday calendar without holidays.
func Default() *Calendar {
	c, _ := New(domain.DefaultWeekdays(), nil)
	return c
}

func (c *Calendar) Weekdays() domain.WeekdaySet {
	return c.weekdays
}

// NonWorkingDates returns the explicit overrides sorted by date.
func (c *Calendar) NonWorkingDates() []domain.NonWorkingDate {
	out := make([]domain.NonWorkingDate, 0, len(c.nonWorking))
	for _, nwd := range c.nonWorking {
		out = append(out, nwd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// IsNonWorkingDate reports whether d is an explicit override.
func (c *Calendar) IsNonWorkingDate(d time.Time) bool {
	_, ok := c.nonWorking[domain.Day(d)]
	return ok
}

func (c *Calendar) IsWorkingDay(d time.Time) bool {
	d = domain.Day(d)
	if !c.weekdays[d.Weekday()] {
		return false
	}
	_, excluded := c.nonWorking[d]
	return !excluded
}

// Advance steps over exactly |n| working days, forward for n > 0 and
// backward for n < 0. Advance(d, 0) returns d even when d is non-working.
func (c *Calendar) Advance(d time.Time, n int) time.Time {
	d = domain.Day(d)
	step := 1
	if n < 0 {
		step, n = -1, -n
	}
	for n > 0 {
		d = d.AddDate(0, 0, step)
		if c.IsWorkingDay(d) {
			n--
		}
	}
	return d
}

// CountWorkingDays counts working days in [start, end]; zero when end < start.
func (c *Calendar) CountWorkingDays(start, end time.Time) int {
	start, end = domain.Day(start), domain.Day(end)
	if end.Before(start) {
		return 0
	}
	span := daysBetween(start, end) + 1
	count := (span / 7) * c.perWeek
	for i := 0; i < span%7; i++ {
		if c.weekdays[(start.Weekday()+time.Weekday(i))%7] {
			count++
		}
	}
	for day := range c.nonWorking {
		if !day.Before(start) && !day.After(end) && c.weekdays[day.Weekday()] {
			count--
		}
	}
	return count
}

// SoonestWorkingDay returns d if it is a working day, else the next one.
func (c *Calendar) SoonestWorkingDay(d time.Time) time.Time {
	d = domain.Day(d)
	for !c.IsWorkingDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// ForItem returns the arithmetic to use for an item: the shared calendar, or
// an all-days view when the item ignores non-working days.
func (c *Calendar) ForItem(ignoreNonWorkingDays bool) Days {
	if ignoreNonWorkingDays {
		return AllDays{}
	}
	return c
}

// AllDays treats every calendar day as a working day.
type AllDays struct{}

var _ Days = AllDays{}

func (AllDays) IsWorkingDay(time.Time) bool { return true }

func (AllDays) Advance(d time.Time, n int) time.Time {
	return domain.Day(d).AddDate(0, 0, n)
}

func (AllDays) CountWorkingDays(start, end time.Time) int {
	start, end = domain.Day(start), domain.Day(end)
	if end.Before(start) {
		return 0
	}
	return daysBetween(start, end) + 1
}

func (AllDays) SoonestWorkingDay(d time.Time) time.Time { return domain.Day(d) }

func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}
