package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/events"
	"github.com/alexanderramin/cadence/internal/graph"
	"github.com/alexanderramin/cadence/internal/scheduler"
)

type scheduleService struct {
	store     graph.Store
	calendars CalendarLoader
	saver     BatchSaver
	journal   JournalAppender
	publisher events.Publisher
	observer  UseCaseObserver
}

// NewScheduleService wires the calculator to its collaborators. journal and
// publisher may be nil.
func NewScheduleService(
	store graph.Store,
	calendars CalendarLoader,
	saver BatchSaver,
	journal JournalAppender,
	publisher events.Publisher,
	observers ...UseCaseObserver,
) ScheduleService {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	return &scheduleService{
		store:     store,
		calendars: calendars,
		saver:     saver,
		journal:   journal,
		publisher: publisher,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *scheduleService) Schedule(ctx context.Context, req app.ScheduleRequest) (resp *app.ScheduleResponse, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"origins": len(req.Origins),
		"cause":   string(req.CausedBy.Type),
	}
	defer observe(ctx, s.observer, "schedule", startedAt, fields, &err)

	origins := uniqueIDs(req.Origins)
	if len(origins) == 0 {
		return nil, &app.ScheduleError{
			Code:    app.ScheduleErrInvalidRequest,
			Message: "at least one origin work item is required",
		}
	}

	cal, err := s.calendars.Load(ctx)
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrCalendarUnavailable, err)
		return nil, &app.ScheduleError{Code: app.ScheduleErrCalendarUnavailable, Message: err.Error(), Err: err}
	}

	g, err := graph.NewReader(s.store).Fetch(ctx, origins)
	if err != nil {
		code := app.ScheduleErrGraphUnavailable
		if errors.Is(err, domain.ErrNotFound) {
			code = app.ScheduleErrNotFound
		}
		return nil, &app.ScheduleError{Code: code, Message: err.Error(), Err: err}
	}

	result := scheduler.NewCalculator(cal).Compute(g, origins)

	relevant := uniqueIDs(req.Relevant)
	if len(relevant) == 0 {
		relevant = origins
	}
	resp = buildScheduleResponse(result, req.CausedBy, relevant)
	resp.GeneratedAt = startedAt

	fields["closure"] = g.Len()
	fields["changed"] = len(resp.Changes)
	fields["failures"] = len(resp.Failures)
	fields["dependent_failures"] = len(resp.DependentFailures)
	return resp, nil
}

func buildScheduleResponse(result *scheduler.ScheduleResult, cause domain.CausedBy, relevant []string) *app.ScheduleResponse {
	resp := &app.ScheduleResponse{
		CausedBy:     cause,
		Success:      true,
		VisitedCount: len(result.Visited),
	}
	for _, c := range result.ChangedItems() {
		resp.Changes = append(resp.Changes, app.ItemSchedule{
			ID:          c.ID,
			Subject:     c.Item.Subject,
			OldStart:    c.OldStart,
			OldDue:      c.OldDue,
			NewStart:    c.NewStart,
			NewDue:      c.NewDue,
			NewDuration: c.NewDuration,
			Item:        c.Item,
		})
	}

	wanted := make(map[string]bool, len(relevant))
	for _, id := range relevant {
		wanted[id] = true
	}
	for _, f := range result.Failures {
		failure := app.ScheduleFailure{
			IDs:     f.IDs,
			Reason:  app.FailureReason(f.Reason),
			Message: f.Err.Error(),
		}
		if touches(f.IDs, wanted) {
			resp.Failures = append(resp.Failures, failure)
			if f.Reason == scheduler.ReasonCyclicDependency {
				resp.Success = false
			}
			continue
		}
		resp.DependentFailures = append(resp.DependentFailures, failure)
	}
	return resp
}

func (s *scheduleService) Apply(ctx context.Context, resp *app.ScheduleResponse) (result *app.ApplyResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{}
	defer observe(ctx, s.observer, "apply-schedule", startedAt, fields, &err)

	if resp == nil {
		return nil, &app.ScheduleError{Code: app.ScheduleErrInvalidRequest, Message: "nothing to apply"}
	}
	result = &app.ApplyResult{}
	if len(resp.Changes) == 0 {
		return result, nil
	}

	items := make([]*domain.WorkItem, 0, len(resp.Changes))
	for _, c := range resp.Changes {
		items = append(items, c.Item)
	}
	result.Failures = s.saver.SaveBatch(ctx, items)

	failed := make(map[string]bool, len(result.Failures))
	for _, f := range result.Failures {
		failed[f.ItemID] = true
	}
	now := time.Now().UTC()
	var entries []domain.JournalEntry
	for _, c := range resp.Changes {
		if failed[c.ID] {
			continue
		}
		result.Saved = append(result.Saved, c.ID)
		entries = append(entries, domain.JournalEntry{
			WorkItemID: c.ID,
			Cause:      resp.CausedBy,
			OldStart:   c.OldStart,
			OldDue:     c.OldDue,
			NewStart:   c.NewStart,
			NewDue:     c.NewDue,
			CreatedAt:  now,
		})
	}

	if s.journal != nil && len(entries) > 0 {
		if jerr := s.journal.Append(ctx, entries); jerr != nil {
			result.JournalErr = fmt.Errorf("journaling %d schedule changes: %w", len(entries), jerr)
		}
	}
	publishErrors := 0
	for _, e := range entries {
		if perr := s.publisher.Publish(ctx, events.TopicItemRescheduled, events.ItemRescheduled{Entry: e}); perr != nil {
			publishErrors++
		}
	}

	fields["saved"] = len(result.Saved)
	fields["failed"] = len(result.Failures)
	fields["journaled"] = result.JournalErr == nil
	fields["publish_errors"] = publishErrors
	return result, nil
}

func (s *scheduleService) Reschedule(ctx context.Context, req app.ScheduleRequest) (*app.ScheduleOutcome, error) {
	resp, err := s.Schedule(ctx, req)
	if err != nil {
		return nil, err
	}
	applied, err := s.Apply(ctx, resp)
	if err != nil {
		return nil, err
	}
	return &app.ScheduleOutcome{Schedule: resp, Applied: applied}, nil
}

// uniqueIDs drops blanks and duplicates and sorts the rest.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func touches(ids []string, set map[string]bool) bool {
	for _, id := range ids {
		if set[id] {
			return true
		}
	}
	return false
}
