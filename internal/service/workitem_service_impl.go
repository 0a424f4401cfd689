package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/google/uuid"
)

type workItemService struct {
	workItems repository.WorkItemRepo
	relations repository.RelationRepo
	calendars CalendarLoader
	journal   repository.JournalRepo
	uow       db.UnitOfWork
	schedule  ScheduleService
	observer  UseCaseObserver
}

func NewWorkItemService(
	workItems repository.WorkItemRepo,
	relations repository.RelationRepo,
	calendars CalendarLoader,
	journal repository.JournalRepo,
	uow db.UnitOfWork,
	schedule ScheduleService,
	observers ...UseCaseObserver,
) WorkItemService {
	return &workItemService{
		workItems: workItems,
		relations: relations,
		calendars: calendars,
		journal:   journal,
		uow:       uow,
		schedule:  schedule,
		observer:  useCaseObserverOrNoop(observers),
	}
}

func (s *workItemService) Create(ctx context.Context, w *domain.WorkItem) (outcome *app.ScheduleOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"mode": string(w.ScheduleMode)}
	defer observe(ctx, s.observer, "create-work-item", startedAt, fields, &err)

	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	fields["work_item"] = w.ID
	w.Subject = strings.TrimSpace(w.Subject)
	if w.Subject == "" {
		return nil, fmt.Errorf("subject is required")
	}
	if w.ScheduleMode == "" {
		w.ScheduleMode = domain.ScheduleManual
	}
	if !w.ScheduleMode.Valid() {
		return nil, fmt.Errorf("invalid schedule mode %q", w.ScheduleMode)
	}
	if w.Duration != nil && *w.Duration < 1 {
		return nil, fmt.Errorf("duration must be at least 1 working day, got %d", *w.Duration)
	}
	if err := w.SetDates(w.StartDate, w.DueDate); err != nil {
		return nil, err
	}

	cal, err := s.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}
	completeDates(w, cal.ForItem(w.IgnoreNonWorkingDays))

	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	w.LockVersion = 0

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txWorkItems := repository.NewSQLiteWorkItemRepo(tx)
		if w.ParentID != nil {
			if _, err := txWorkItems.GetByID(ctx, *w.ParentID); err != nil {
				return fmt.Errorf("parent %s: %w", *w.ParentID, err)
			}
		}
		return txWorkItems.Create(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return s.reschedule(ctx, w.ID, w.ID)
}

func (s *workItemService) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	return s.workItems.GetByID(ctx, id)
}

func (s *workItemService) List(ctx context.Context) ([]*domain.WorkItem, error) {
	return s.workItems.List(ctx)
}

func (s *workItemService) ListChildren(ctx context.Context, parentID string) ([]*domain.WorkItem, error) {
	return s.workItems.ListChildren(ctx, []string{parentID})
}

func (s *workItemService) UpdateDates(ctx context.Context, id string, change DateChange) (outcome *app.ScheduleOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"work_item": id}
	defer observe(ctx, s.observer, "update-dates", startedAt, fields, &err)

	if change.Duration != nil && *change.Duration < 1 {
		return nil, fmt.Errorf("duration must be at least 1 working day, got %d", *change.Duration)
	}
	cal, err := s.loadCalendar(ctx)
	if err != nil {
		return nil, err
	}

	err = s.mutate(ctx, id, func(w *domain.WorkItem) error {
		return applyDateChange(w, change, cal.ForItem(w.IgnoreNonWorkingDays))
	})
	if err != nil {
		return nil, err
	}
	return s.reschedule(ctx, id, id)
}

func (s *workItemService) SetMode(ctx context.Context, id string, mode domain.ScheduleMode) (*app.ScheduleOutcome, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("invalid schedule mode %q", mode)
	}
	err := s.mutate(ctx, id, func(w *domain.WorkItem) error {
		w.ScheduleMode = mode
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reschedule(ctx, id, id)
}

func (s *workItemService) SetIgnoreNonWorkingDays(ctx context.Context, id string, ignore bool) (*app.ScheduleOutcome, error) {
	err := s.mutate(ctx, id, func(w *domain.WorkItem) error {
		w.IgnoreNonWorkingDays = ignore
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reschedule(ctx, id, id)
}

// SetParent moves the item under parentID, or to the top level when nil.
// The new hierarchy may not contain a cycle, and no follows relation may
// link the item's subtree to its new ancestors.
func (s *workItemService) SetParent(ctx context.Context, id string, parentID *string) (outcome *app.ScheduleOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"work_item": id}
	defer observe(ctx, s.observer, "set-parent", startedAt, fields, &err)

	var oldParent string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txWorkItems := repository.NewSQLiteWorkItemRepo(tx)
		txRelations := repository.NewSQLiteRelationRepo(tx)

		w, err := txWorkItems.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if w.ParentID != nil {
			oldParent = *w.ParentID
		}
		if parentID != nil {
			if err := checkNewParent(ctx, txWorkItems, txRelations, id, *parentID); err != nil {
				return err
			}
			p := *parentID
			w.ParentID = &p
		} else {
			w.ParentID = nil
		}
		return txWorkItems.Update(ctx, w)
	})
	if err != nil {
		return nil, err
	}
	return s.reschedule(ctx, id, id, oldParent)
}

func checkNewParent(ctx context.Context, workItems repository.WorkItemRepo, relations repository.RelationRepo, id, parentID string) error {
	if parentID == id {
		return fmt.Errorf("%w: a work item cannot be its own parent", domain.ErrInvalidRelation)
	}
	ancestors, err := ancestorIDs(ctx, workItems, parentID)
	if err != nil {
		return err
	}
	ancestors = append([]string{parentID}, ancestors...)
	for _, a := range ancestors {
		if a == id {
			return fmt.Errorf("%w: %s is a descendant of %s", domain.ErrInvalidRelation, parentID, id)
		}
	}

	subtree, err := subtreeIDs(ctx, workItems, id)
	if err != nil {
		return err
	}
	inSubtree := make(map[string]bool, len(subtree))
	for _, d := range subtree {
		inSubtree[d] = true
	}
	rels, err := relations.ListFor(ctx, ancestors)
	if err != nil {
		return err
	}
	for _, r := range rels {
		if inSubtree[r.FromID] || inSubtree[r.ToID] {
			return fmt.Errorf("%w: relation %s links %s to an ancestor", domain.ErrInvalidRelation, r.ID, id)
		}
	}
	return nil
}

// Delete removes the item and its relations, then reschedules its former
// successors and parent.
func (s *workItemService) Delete(ctx context.Context, id string) (outcome *app.ScheduleOutcome, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"work_item": id}
	defer observe(ctx, s.observer, "delete-work-item", startedAt, fields, &err)

	var affected []string
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txWorkItems := repository.NewSQLiteWorkItemRepo(tx)
		txRelations := repository.NewSQLiteRelationRepo(tx)

		w, err := txWorkItems.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if w.ParentID != nil {
			affected = append(affected, *w.ParentID)
		}
		rels, err := txRelations.ListFor(ctx, []string{id})
		if err != nil {
			return err
		}
		for _, r := range rels {
			if r.PredecessorID() == id {
				affected = append(affected, r.SuccessorID())
			}
		}
		return txWorkItems.Delete(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	fields["affected"] = len(affected)
	return s.reschedule(ctx, id, affected...)
}

func (s *workItemService) History(ctx context.Context, id string) ([]domain.JournalEntry, error) {
	if _, err := s.workItems.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.journal.ListByWorkItem(ctx, id)
}

// mutate loads the item, applies fn and writes it back in one transaction.
func (s *workItemService) mutate(ctx context.Context, id string, fn func(w *domain.WorkItem) error) error {
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txWorkItems := repository.NewSQLiteWorkItemRepo(tx)
		w, err := txWorkItems.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(w); err != nil {
			return err
		}
		return txWorkItems.Update(ctx, w)
	})
}

func (s *workItemService) reschedule(ctx context.Context, changedID string, origins ...string) (*app.ScheduleOutcome, error) {
	origins = uniqueIDs(origins)
	if len(origins) == 0 {
		return &app.ScheduleOutcome{}, nil
	}
	cause := domain.CausedBy{
		Type:       domain.CauseWorkItemChanged,
		UserID:     ActingUser(ctx),
		WorkItemID: changedID,
	}
	return s.schedule.Reschedule(ctx, app.NewScheduleRequest(cause, origins...))
}

func (s *workItemService) loadCalendar(ctx context.Context) (*calendar.Calendar, error) {
	cal, err := s.calendars.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCalendarUnavailable, err)
	}
	return cal, nil
}

// completeDates fills in whichever of start, due and duration can be
// derived from the other two.
func completeDates(w *domain.WorkItem, days calendar.Days) {
	switch {
	case w.StartDate != nil && w.DueDate != nil:
		if n := days.CountWorkingDays(*w.StartDate, *w.DueDate); n > 0 {
			w.Duration = &n
		}
	case w.StartDate != nil && w.Duration != nil:
		due := days.Advance(*w.StartDate, *w.Duration-1)
		w.DueDate = &due
	case w.DueDate != nil && w.Duration != nil:
		start := days.Advance(*w.DueDate, -(*w.Duration - 1))
		w.StartDate = &start
	}
}

// applyDateChange edits w's dates. Moving only the start keeps the
// duration; changing only the duration moves the due date.
func applyDateChange(w *domain.WorkItem, change DateChange, days calendar.Days) error {
	start, due := w.StartDate, w.DueDate
	if w.Duration == nil && start != nil && due != nil {
		if n := days.CountWorkingDays(*start, *due); n > 0 {
			w.Duration = &n
		}
	}
	if change.Duration != nil {
		d := *change.Duration
		w.Duration = &d
	}
	if change.Start != nil {
		start = change.Start
	}

	switch {
	case change.Due != nil:
		due = change.Due
		if err := w.SetDates(start, due); err != nil {
			return err
		}
		if w.StartDate != nil {
			n := days.CountWorkingDays(*w.StartDate, *w.DueDate)
			if n < 1 {
				n = 1
			}
			w.Duration = &n
		}
		return nil
	case change.ClearDue:
		due = nil
	}

	if start != nil && w.Duration != nil && (change.Start != nil || change.Duration != nil || change.ClearDue) {
		d := days.Advance(*start, *w.Duration-1)
		due = &d
	}
	return w.SetDates(start, due)
}

// ancestorIDs returns id's ancestors, nearest first.
func ancestorIDs(ctx context.Context, workItems repository.WorkItemRepo, id string) ([]string, error) {
	var out []string
	seen := map[string]bool{id: true}
	current := id
	for {
		w, err := workItems.GetByID(ctx, current)
		if err != nil {
			return nil, err
		}
		if w.ParentID == nil || seen[*w.ParentID] {
			return out, nil
		}
		current = *w.ParentID
		seen[current] = true
		out = append(out, current)
	}
}

// subtreeIDs returns id and all of its descendants.
func subtreeIDs(ctx context.Context, workItems repository.WorkItemRepo, id string) ([]string, error) {
	out := []string{id}
	seen := map[string]bool{id: true}
	frontier := []string{id}
	for len(frontier) > 0 {
		kids, err := workItems.ListChildren(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, k := range kids {
			if seen[k.ID] {
				continue
			}
			seen[k.ID] = true
			out = append(out, k.ID)
			frontier = append(frontier, k.ID)
		}
	}
	return out, nil
}
