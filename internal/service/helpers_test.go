package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures calendar change notifications.
type recordingNotifier struct {
	mu       sync.Mutex
	requests []app.WorkingDaysChangeRequest
	err      error
}

func (n *recordingNotifier) NotifyWorkingDaysChanged(_ context.Context, req app.WorkingDaysChangeRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requests = append(n.requests, req)
	return n.err
}

// serviceEnv wires every service against one in-memory database.
type serviceEnv struct {
	db        *sql.DB
	workItems *repository.SQLiteWorkItemRepo
	relations *repository.SQLiteRelationRepo
	calendars *repository.SQLiteCalendarRepo
	journal   *repository.SQLiteJournalRepo
	publisher *testutil.RecordingPublisher
	notifier  *recordingNotifier

	schedule ScheduleService
	items    WorkItemService
	rels     RelationService
	calendar CalendarService
	imports  ImportService
}

func setupServices(t *testing.T) *serviceEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	env := &serviceEnv{
		db:        database,
		workItems: repository.NewSQLiteWorkItemRepo(database),
		relations: repository.NewSQLiteRelationRepo(database),
		calendars: repository.NewSQLiteCalendarRepo(database),
		journal:   repository.NewSQLiteJournalRepo(database),
		publisher: &testutil.RecordingPublisher{},
		notifier:  &recordingNotifier{},
	}
	store := repository.NewGraphStore(env.workItems, env.relations)
	env.schedule = NewScheduleService(store, env.calendars, env.workItems, env.journal, env.publisher)
	env.items = NewWorkItemService(env.workItems, env.relations, env.calendars, env.journal, uow, env.schedule)
	env.rels = NewRelationService(env.relations, env.items, uow, env.schedule)
	env.calendar = NewCalendarService(env.calendars, uow, env.notifier)
	env.imports = NewImportService(uow, env.schedule)
	return env
}

func (e *serviceEnv) create(t *testing.T, subject string, opts ...testutil.WorkItemOption) *domain.WorkItem {
	t.Helper()
	w := testutil.NewTestWorkItem(subject, opts...)
	_, err := e.items.Create(context.Background(), w)
	require.NoError(t, err)
	return w
}

func (e *serviceEnv) follow(t *testing.T, successorID, predecessorID string, lag int) domain.Relation {
	t.Helper()
	rel := testutil.Follows(successorID, predecessorID, lag)
	rel.ID = ""
	_, err := e.rels.Create(context.Background(), &rel)
	require.NoError(t, err)
	return rel
}

func (e *serviceEnv) get(t *testing.T, id string) *domain.WorkItem {
	t.Helper()
	w, err := e.workItems.GetByID(context.Background(), id)
	require.NoError(t, err)
	return w
}
