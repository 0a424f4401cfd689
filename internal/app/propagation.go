package app

import (
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// WorkingDaysChangeRequest carries the calendar state from before a
// committed change and the user the propagation acts as.
type WorkingDaysChangeRequest struct {
	UserID                  string
	PreviousWeekdays        domain.WeekdaySet
	PreviousNonWorkingDates []domain.NonWorkingDate
}

type WorkingDaysChangeResult struct {
	RunID     string
	StartedAt time.Time
	// ChangedWeekdays and ChangedDates are the days whose status flipped.
	ChangedWeekdays []time.Weekday
	ChangedDates    []time.Time
	// Rescheduled lists items whose own span moved; Dependents is the
	// follow-up scheduling pass over their successors and parents.
	Rescheduled []string
	Dependents  *ScheduleResponse
	Failures    []*domain.PersistenceFailure
}
