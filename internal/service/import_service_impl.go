package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/importer"
	"github.com/alexanderramin/cadence/internal/repository"
)

type importService struct {
	uow      db.UnitOfWork
	schedule ScheduleService
	observer UseCaseObserver
}

func NewImportService(uow db.UnitOfWork, schedule ScheduleService, observers ...UseCaseObserver) ImportService {
	return &importService{
		uow:      uow,
		schedule: schedule,
		observer: useCaseObserverOrNoop(observers),
	}
}

func (s *importService) ImportFile(ctx context.Context, filePath string) (*ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.ImportSchema(ctx, schema)
}

// ImportSchema writes the calendar, work items and relations of schema in a
// single transaction, then schedules every imported item.
func (s *importService) ImportSchema(ctx context.Context, schema *importer.ImportSchema) (result *ImportResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"work_items": len(schema.WorkItems), "relations": len(schema.Relations)}
	defer observe(ctx, s.observer, "import", startedAt, fields, &err)

	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, formatValidationErrors(errs)
	}

	generated, err := importer.Convert(schema)
	if err != nil {
		return nil, fmt.Errorf("converting import schema: %w", err)
	}

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txCalendars := repository.NewSQLiteCalendarRepo(tx)
		txWorkItems := repository.NewSQLiteWorkItemRepo(tx)
		txRelations := repository.NewSQLiteRelationRepo(tx)

		if generated.Weekdays != nil {
			if err := txCalendars.SaveWeekdays(ctx, *generated.Weekdays); err != nil {
				return fmt.Errorf("saving working weekdays: %w", err)
			}
		}
		for _, d := range generated.NonWorkingDates {
			if err := txCalendars.AddNonWorkingDate(ctx, d); err != nil {
				return fmt.Errorf("adding non-working date %s: %w", d.Date.Format(time.DateOnly), err)
			}
		}

		cal, err := txCalendars.Load(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrCalendarUnavailable, err)
		}
		for _, w := range generated.WorkItems {
			completeDates(w, cal.ForItem(w.IgnoreNonWorkingDays))
			if err := txWorkItems.Create(ctx, w); err != nil {
				return fmt.Errorf("creating work item %q: %w", w.Subject, err)
			}
		}

		for i := range generated.Relations {
			if err := txRelations.Create(ctx, &generated.Relations[i]); err != nil {
				return fmt.Errorf("creating relation: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(generated.WorkItems))
	for _, w := range generated.WorkItems {
		ids = append(ids, w.ID)
	}
	cause := domain.CausedBy{Type: domain.CauseImport, UserID: ActingUser(ctx)}
	outcome, err := s.schedule.Reschedule(ctx, app.NewScheduleRequest(cause, ids...))
	if err != nil {
		return nil, fmt.Errorf("scheduling imported items: %w", err)
	}

	return &ImportResult{
		WorkItemCount:       len(generated.WorkItems),
		RelationCount:       len(generated.Relations),
		NonWorkingDateCount: len(generated.NonWorkingDates),
		Outcome:             outcome,
	}, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
