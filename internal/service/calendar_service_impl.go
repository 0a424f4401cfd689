package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
)

type calendarService struct {
	calendars repository.CalendarRepo
	uow       db.UnitOfWork
	notifier  app.WorkingDaysNotifier
	observer  UseCaseObserver
}

// NewCalendarService edits the shared calendar. Every change that flips a
// day is reported to notifier with the calendar state from before it.
func NewCalendarService(
	calendars repository.CalendarRepo,
	uow db.UnitOfWork,
	notifier app.WorkingDaysNotifier,
	observers ...UseCaseObserver,
) CalendarService {
	return &calendarService{
		calendars: calendars,
		uow:       uow,
		notifier:  notifier,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *calendarService) Show(ctx context.Context) (*calendar.Calendar, error) {
	cal, err := s.calendars.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCalendarUnavailable, err)
	}
	return cal, nil
}

func (s *calendarService) SetWorkingWeekdays(ctx context.Context, days domain.WeekdaySet) error {
	return s.change(ctx, "set-working-weekdays", func(prev *calendar.Calendar) (*calendar.Calendar, error) {
		return calendar.New(days, prev.NonWorkingDates())
	}, func(ctx context.Context, repo repository.CalendarRepo) error {
		return repo.SaveWeekdays(ctx, days)
	})
}

func (s *calendarService) AddNonWorkingDate(ctx context.Context, d domain.NonWorkingDate) error {
	if d.Date.IsZero() {
		return fmt.Errorf("non-working date is required")
	}
	d.Date = domain.Day(d.Date)
	return s.change(ctx, "add-non-working-date", func(prev *calendar.Calendar) (*calendar.Calendar, error) {
		return calendar.New(prev.Weekdays(), append(prev.NonWorkingDates(), d))
	}, func(ctx context.Context, repo repository.CalendarRepo) error {
		return repo.AddNonWorkingDate(ctx, d)
	})
}

func (s *calendarService) RemoveNonWorkingDate(ctx context.Context, date time.Time) error {
	date = domain.Day(date)
	return s.change(ctx, "remove-non-working-date", func(prev *calendar.Calendar) (*calendar.Calendar, error) {
		var kept []domain.NonWorkingDate
		for _, d := range prev.NonWorkingDates() {
			if !d.Date.Equal(date) {
				kept = append(kept, d)
			}
		}
		return calendar.New(prev.Weekdays(), kept)
	}, func(ctx context.Context, repo repository.CalendarRepo) error {
		return repo.RemoveNonWorkingDate(ctx, date)
	})
}

// change commits write and, when the resulting calendar differs from the
// previous one on any day, notifies the propagator.
func (s *calendarService) change(
	ctx context.Context,
	name string,
	preview func(prev *calendar.Calendar) (*calendar.Calendar, error),
	write func(ctx context.Context, repo repository.CalendarRepo) error,
) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer observe(ctx, s.observer, name, startedAt, fields, &err)

	var prev *calendar.Calendar
	var changes calendar.Changes
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txCalendars := repository.NewSQLiteCalendarRepo(tx)
		var err error
		prev, err = txCalendars.Load(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrCalendarUnavailable, err)
		}
		next, err := preview(prev)
		if err != nil {
			return err
		}
		changes = calendar.Diff(prev, next)
		return write(ctx, txCalendars)
	})
	if err != nil {
		return err
	}

	fields["changed_weekdays"] = len(changes.Weekdays)
	fields["changed_dates"] = len(changes.Dates)
	if changes.Empty() || s.notifier == nil {
		return nil
	}
	req := app.WorkingDaysChangeRequest{
		UserID:                  ActingUser(ctx),
		PreviousWeekdays:        prev.Weekdays(),
		PreviousNonWorkingDates: prev.NonWorkingDates(),
	}
	if err := s.notifier.NotifyWorkingDaysChanged(ctx, req); err != nil {
		return fmt.Errorf("calendar saved, propagating change: %w", err)
	}
	return nil
}
