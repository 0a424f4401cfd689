// Package workdays reschedules work items after the working-day calendar
// changes.
package workdays

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/events"
	"github.com/alexanderramin/cadence/internal/idgen"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/scheduler"
	"github.com/alexanderramin/cadence/internal/service"
)

// Propagator recomputes every automatically scheduled item whose span, or
// the gap before it, contains a day that changed status. Saved changes are
// never rolled back; a rerun with the same request converges.
type Propagator struct {
	workItems repository.WorkItemRepo
	relations repository.RelationRepo
	calendars service.CalendarLoader
	journal   service.JournalAppender
	schedule  service.ScheduleService
	guard     Guard
	publisher events.Publisher
	logger    *slog.Logger
}

var _ app.PropagateWorkingDaysUseCase = (*Propagator)(nil)

// NewPropagator wires a propagator. journal, publisher and logger may be nil.
func NewPropagator(
	workItems repository.WorkItemRepo,
	relations repository.RelationRepo,
	calendars service.CalendarLoader,
	journal service.JournalAppender,
	schedule service.ScheduleService,
	guard Guard,
	publisher events.Publisher,
	logger *slog.Logger,
) *Propagator {
	if guard == nil {
		guard = &LocalGuard{}
	}
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Propagator{
		workItems: workItems,
		relations: relations,
		calendars: calendars,
		journal:   journal,
		schedule:  schedule,
		guard:     guard,
		publisher: publisher,
		logger:    logger,
	}
}

func (p *Propagator) Run(ctx context.Context, req app.WorkingDaysChangeRequest) (*app.WorkingDaysChangeResult, error) {
	runID, err := idgen.NewRunID()
	if err != nil {
		return nil, err
	}
	result := &app.WorkingDaysChangeResult{RunID: runID, StartedAt: time.Now().UTC()}
	log := p.logger.With("run_id", runID, "user_id", req.UserID)

	release, err := p.guard.Acquire(ctx, runID)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrencyLimitReached) {
			log.InfoContext(ctx, "working days propagation declined")
			p.publish(ctx, log, events.TopicPropagationDeclined, events.PropagationDeclined{
				UserID: req.UserID,
				Reason: err.Error(),
			})
		}
		return nil, err
	}
	defer func() {
		if rerr := release(); rerr != nil {
			log.WarnContext(ctx, "propagation lock not released", "lock", LockName, "error", rerr)
		}
	}()

	cal, err := p.calendars.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCalendarUnavailable, err)
	}
	prev, err := calendar.New(req.PreviousWeekdays, req.PreviousNonWorkingDates)
	if err != nil {
		return nil, fmt.Errorf("previous calendar: %w", err)
	}

	changes := calendar.Diff(prev, cal)
	result.ChangedWeekdays = changes.Weekdays
	result.ChangedDates = changes.Dates
	if changes.Empty() {
		log.InfoContext(ctx, "working days propagation skipped", "reason", "no day changed status")
		return result, nil
	}

	moved, err := p.recompute(ctx, cal, prev, changes)
	if err != nil {
		return nil, err
	}
	gapOrigins, err := p.lagGapOrigins(ctx, changes)
	if err != nil {
		return nil, err
	}

	cause := domain.CausedBy{
		Type:            domain.CauseWorkingDaysChanged,
		UserID:          req.UserID,
		ChangedDays:     changes.Dates,
		ChangedWeekdays: changes.Weekdays,
	}
	result.Failures = p.workItems.SaveBatch(ctx, items(moved))
	var publishErrors int
	result.Rescheduled, publishErrors = p.record(ctx, log, cause, moved, result.Failures)

	origins := append(append([]string(nil), result.Rescheduled...), gapOrigins...)
	if len(origins) > 0 {
		ctx = service.WithActingUser(ctx, req.UserID)
		outcome, err := p.schedule.Reschedule(ctx, app.ScheduleRequest{Origins: origins, CausedBy: cause})
		if err != nil {
			return result, fmt.Errorf("rescheduling dependents: %w", err)
		}
		result.Dependents = outcome.Schedule
		result.Failures = append(result.Failures, outcome.Applied.Failures...)
	}

	completed := events.PropagationCompleted{
		RunID:       runID,
		UserID:      req.UserID,
		Rescheduled: len(result.Rescheduled),
	}
	for _, f := range result.Failures {
		completed.Failed = append(completed.Failed, f.ItemID)
	}
	if result.Dependents != nil {
		completed.Rescheduled += len(result.Dependents.Changes)
	}
	if !p.publish(ctx, log, events.TopicPropagationCompleted, completed) {
		publishErrors++
	}

	log.InfoContext(ctx, "working days propagation finished",
		"changed_weekdays", len(changes.Weekdays),
		"changed_dates", len(changes.Dates),
		"rescheduled", len(result.Rescheduled),
		"lag_gap_origins", len(gapOrigins),
		"failures", len(result.Failures),
		"publish_errors", publishErrors,
		"duration_ms", time.Since(result.StartedAt).Milliseconds(),
	)
	return result, nil
}

type movedItem struct {
	before *domain.WorkItem
	after  *domain.WorkItem
}

func items(moved []movedItem) []*domain.WorkItem {
	out := make([]*domain.WorkItem, 0, len(moved))
	for _, m := range moved {
		out = append(out, m.after)
	}
	return out
}

// recompute rebuilds the span of every candidate touched by a changed day.
// The start is kept (snapped to a working day) and the due date is derived
// from the duration, which falls back to the span under the previous
// calendar.
func (p *Propagator) recompute(ctx context.Context, cal, prev *calendar.Calendar, changes calendar.Changes) ([]movedItem, error) {
	candidates, err := p.workItems.ListRescheduleCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing reschedule candidates: %w", err)
	}
	var moved []movedItem
	for _, w := range candidates {
		next := w.Clone()
		scheduler.RescheduleFrom(next, *w.StartDate, cal, prev)

		end := *next.StartDate
		for _, d := range []*time.Time{w.DueDate, next.DueDate} {
			if d != nil && d.After(end) {
				end = *d
			}
		}
		if !changes.Covers(*w.StartDate, end) {
			continue
		}
		if domain.DatesEqual(w.StartDate, next.StartDate) && domain.DatesEqual(w.DueDate, next.DueDate) {
			continue
		}
		moved = append(moved, movedItem{before: w, after: next})
	}
	return moved, nil
}

// lagGapOrigins returns predecessors of automatic items whose gap between
// the predecessor's end and the successor's start contains a changed day.
func (p *Propagator) lagGapOrigins(ctx context.Context, changes calendar.Changes) ([]string, error) {
	rels, err := p.relations.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRelationGraphUnavailable, err)
	}
	if len(rels) == 0 {
		return nil, nil
	}
	idSet := make(map[string]bool)
	for _, r := range rels {
		idSet[r.PredecessorID()] = true
		idSet[r.SuccessorID()] = true
	}
	ids := make([]string, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	loaded, err := p.workItems.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRelationGraphUnavailable, err)
	}
	byID := make(map[string]*domain.WorkItem, len(loaded))
	for _, w := range loaded {
		byID[w.ID] = w
	}

	seen := make(map[string]bool)
	var out []string
	for _, r := range rels {
		succ, pred := byID[r.SuccessorID()], byID[r.PredecessorID()]
		if succ == nil || pred == nil || !succ.IsAutomatic() || succ.StartDate == nil {
			continue
		}
		predEnd := pred.DueDate
		if predEnd == nil {
			predEnd = pred.StartDate
		}
		if predEnd == nil {
			continue
		}
		gapStart := predEnd.AddDate(0, 0, 1)
		gapEnd := succ.StartDate.AddDate(0, 0, -1)
		if gapEnd.Before(gapStart) || !changes.Covers(gapStart, gapEnd) {
			continue
		}
		if !seen[pred.ID] {
			seen[pred.ID] = true
			out = append(out, pred.ID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// record journals and publishes the saved items. It returns their ids and
// the number of events that could not be published.
func (p *Propagator) record(ctx context.Context, log *slog.Logger, cause domain.CausedBy, moved []movedItem, failures []*domain.PersistenceFailure) ([]string, int) {
	failed := make(map[string]bool, len(failures))
	for _, f := range failures {
		failed[f.ItemID] = true
		log.WarnContext(ctx, "saving rescheduled work item failed", "work_item", f.ItemID, "error", f.Err)
	}

	now := time.Now().UTC()
	var saved []string
	var entries []domain.JournalEntry
	for _, m := range moved {
		if failed[m.after.ID] {
			continue
		}
		saved = append(saved, m.after.ID)
		entries = append(entries, domain.JournalEntry{
			WorkItemID: m.after.ID,
			Cause:      cause,
			OldStart:   m.before.StartDate,
			OldDue:     m.before.DueDate,
			NewStart:   m.after.StartDate,
			NewDue:     m.after.DueDate,
			CreatedAt:  now,
		})
	}
	if p.journal != nil && len(entries) > 0 {
		if err := p.journal.Append(ctx, entries); err != nil {
			log.WarnContext(ctx, "journaling working days propagation failed", "entries", len(entries), "error", err)
		}
	}
	publishErrors := 0
	for _, e := range entries {
		if !p.publish(ctx, log, events.TopicItemRescheduled, events.ItemRescheduled{Entry: e}) {
			publishErrors++
		}
	}
	return saved, publishErrors
}

// publish reports whether the event went out. Failures are logged and
// never fail the run.
func (p *Propagator) publish(ctx context.Context, log *slog.Logger, topic string, event any) bool {
	if err := p.publisher.Publish(ctx, topic, event); err != nil {
		log.WarnContext(ctx, "publishing event failed", "topic", topic, "error", err)
		return false
	}
	return true
}
