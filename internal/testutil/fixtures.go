package testutil

import (
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/google/uuid"
)

// WorkItem options
type WorkItemOption func(*domain.WorkItem)

func WithID(id string) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.ID = id
	}
}

func WithDates(start, due time.Time) WorkItemOption {
	return func(w *domain.WorkItem) {
		s, d := domain.Day(start), domain.Day(due)
		w.StartDate = &s
		w.DueDate = &d
	}
}

func WithStart(start time.Time) WorkItemOption {
	return func(w *domain.WorkItem) {
		s := domain.Day(start)
		w.StartDate = &s
	}
}

func WithDuration(days int) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.Duration = &days
	}
}

func Automatic() WorkItemOption {
	return func(w *domain.WorkItem) {
		w.ScheduleMode = domain.ScheduleAutomatic
	}
}

func WithParent(id string) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.ParentID = &id
	}
}

func IgnoringNonWorkingDays() WorkItemOption {
	return func(w *domain.WorkItem) {
		w.IgnoreNonWorkingDays = true
	}
}

// NewTestWorkItem returns a manually scheduled item without dates unless
// options say otherwise.
func NewTestWorkItem(subject string, opts ...WorkItemOption) *domain.WorkItem {
	now := time.Now().UTC()
	w := &domain.WorkItem{
		ID:           uuid.New().String(),
		Subject:      subject,
		ScheduleMode: domain.ScheduleManual,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Follows returns a follows relation: successor starts after predecessor.
func Follows(successorID, predecessorID string, lag int) domain.Relation {
	return domain.Relation{
		ID:        uuid.New().String(),
		Type:      domain.RelationFollows,
		FromID:    successorID,
		ToID:      predecessorID,
		Lag:       lag,
		CreatedAt: time.Now().UTC(),
	}
}

// ParentOf returns a parent_child relation.
func ParentOf(parentID, childID string) domain.Relation {
	return domain.Relation{
		ID:        uuid.New().String(),
		Type:      domain.RelationParentChild,
		FromID:    parentID,
		ToID:      childID,
		CreatedAt: time.Now().UTC(),
	}
}
