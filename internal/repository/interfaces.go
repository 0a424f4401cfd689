package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
)

type WorkItemRepo interface {
	Create(ctx context.Context, w *domain.WorkItem) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	GetMany(ctx context.Context, ids []string) ([]*domain.WorkItem, error)
	List(ctx context.Context) ([]*domain.WorkItem, error)
	ListChildren(ctx context.Context, parentIDs []string) ([]*domain.WorkItem, error)
	ListRescheduleCandidates(ctx context.Context) ([]*domain.WorkItem, error)
	Update(ctx context.Context, w *domain.WorkItem) error
	SaveBatch(ctx context.Context, items []*domain.WorkItem) []*domain.PersistenceFailure
	Delete(ctx context.Context, id string) error
}

type RelationRepo interface {
	Create(ctx context.Context, r *domain.Relation) error
	GetByID(ctx context.Context, id string) (*domain.Relation, error)
	UpdateLag(ctx context.Context, id string, lag int) error
	Delete(ctx context.Context, id string) error
	ListFor(ctx context.Context, ids []string) ([]domain.Relation, error)
	ListAll(ctx context.Context) ([]domain.Relation, error)
	CountBetween(ctx context.Context, successorID, predecessorID string) (int, error)
}

type CalendarRepo interface {
	Load(ctx context.Context) (*calendar.Calendar, error)
	SaveWeekdays(ctx context.Context, days domain.WeekdaySet) error
	AddNonWorkingDate(ctx context.Context, d domain.NonWorkingDate) error
	RemoveNonWorkingDate(ctx context.Context, date time.Time) error
}

type JobLockRepo interface {
	TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name, holder string) error
}

type JournalRepo interface {
	Append(ctx context.Context, entries []domain.JournalEntry) error
	ListByWorkItem(ctx context.Context, workItemID string) ([]domain.JournalEntry, error)
}
