package service

import (
	"context"
	"time"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/importer"
)

// CalendarLoader reads the current working-day calendar.
type CalendarLoader interface {
	Load(ctx context.Context) (*calendar.Calendar, error)
}

// BatchSaver persists scheduler-derived changes item by item.
type BatchSaver interface {
	SaveBatch(ctx context.Context, items []*domain.WorkItem) []*domain.PersistenceFailure
}

// JournalAppender records scheduler-derived changes with their cause.
type JournalAppender interface {
	Append(ctx context.Context, entries []domain.JournalEntry) error
}

type ScheduleService interface {
	app.ScheduleUseCase
	app.ApplyScheduleUseCase
	// Reschedule runs Schedule and applies whatever it computed.
	Reschedule(ctx context.Context, req app.ScheduleRequest) (*app.ScheduleOutcome, error)
}

// DateChange is a user edit of a work item's dates. Nil fields are kept.
type DateChange struct {
	Start    *time.Time
	Due      *time.Time
	Duration *int
	// ClearDue drops the due date so it is derived from start and duration.
	ClearDue bool
}

type WorkItemService interface {
	Create(ctx context.Context, w *domain.WorkItem) (*app.ScheduleOutcome, error)
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	List(ctx context.Context) ([]*domain.WorkItem, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.WorkItem, error)
	UpdateDates(ctx context.Context, id string, change DateChange) (*app.ScheduleOutcome, error)
	SetMode(ctx context.Context, id string, mode domain.ScheduleMode) (*app.ScheduleOutcome, error)
	SetIgnoreNonWorkingDays(ctx context.Context, id string, ignore bool) (*app.ScheduleOutcome, error)
	SetParent(ctx context.Context, id string, parentID *string) (*app.ScheduleOutcome, error)
	Delete(ctx context.Context, id string) (*app.ScheduleOutcome, error)
	History(ctx context.Context, id string) ([]domain.JournalEntry, error)
}

type RelationService interface {
	Create(ctx context.Context, r *domain.Relation) (*app.ScheduleOutcome, error)
	GetByID(ctx context.Context, id string) (*domain.Relation, error)
	List(ctx context.Context, workItemID string) ([]domain.Relation, error)
	UpdateLag(ctx context.Context, id string, lag int) (*app.ScheduleOutcome, error)
	Delete(ctx context.Context, id string) (*app.ScheduleOutcome, error)
}

type CalendarService interface {
	Show(ctx context.Context) (*calendar.Calendar, error)
	SetWorkingWeekdays(ctx context.Context, days domain.WeekdaySet) error
	AddNonWorkingDate(ctx context.Context, d domain.NonWorkingDate) error
	RemoveNonWorkingDate(ctx context.Context, date time.Time) error
}

// ImportResult holds the outcome of an import.
type ImportResult struct {
	WorkItemCount       int
	RelationCount       int
	NonWorkingDateCount int
	Outcome             *app.ScheduleOutcome
}

type ImportService interface {
	ImportFile(ctx context.Context, filePath string) (*ImportResult, error)
	ImportSchema(ctx context.Context, schema *importer.ImportSchema) (*ImportResult, error)
}
