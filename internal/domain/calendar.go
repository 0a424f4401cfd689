package domain

import (
	"fmt"
	"strings"
	"time"
)

// NonWorkingDate is an explicit calendar override, e.g. a public holiday.
type NonWorkingDate struct {
	Date   time.Time `json:"date"`
	Reason string    `json:"reason,omitempty"`
}

// WeekdaySet flags which weekdays count as working days, indexed by time.Weekday.
type WeekdaySet [7]bool

// DefaultWeekdays is Monday through Friday.
func DefaultWeekdays() WeekdaySet {
	var s WeekdaySet
	for d := time.Monday; d <= time.Friday; d++ {
		s[d] = true
	}
	return s
}

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s[d] = true
	}
	return s
}

// Days returns the working weekdays in Sunday-first order.
func (s WeekdaySet) Days() []time.Weekday {
	var out []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s[d] {
			out = append(out, d)
		}
	}
	return out
}

// Empty reports whether no weekday is working.
func (s WeekdaySet) Empty() bool {
	return len(s.Days()) == 0
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, strings.ToLower(d.String()[:3]))
	}
	return strings.Join(names, ",")
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ParseWeekdays parses names such as "mon,tue" or "monday tuesday".
func ParseWeekdays(names []string) (WeekdaySet, error) {
	var s WeekdaySet
	for _, raw := range names {
		for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
			key := strings.ToLower(strings.TrimSpace(part))
			if len(key) > 3 {
				key = key[:3]
			}
			d, ok := weekdayNames[key]
			if !ok {
				return s, fmt.Errorf("unknown weekday %q", part)
			}
			s[d] = true
		}
	}
	return s, nil
}
