package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/calendar"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/events"
	"github.com/alexanderramin/cadence/internal/graph"
	"github.com/alexanderramin/cadence/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Week of 2025-06-02 (Monday).
var (
	mon     = domain.Date(2025, 6, 2)
	tue     = domain.Date(2025, 6, 3)
	wed     = domain.Date(2025, 6, 4)
	thu     = domain.Date(2025, 6, 5)
	fri     = domain.Date(2025, 6, 6)
	nextMon = domain.Date(2025, 6, 9)
	nextTue = domain.Date(2025, 6, 10)
)

type staticCalendar struct {
	cal *calendar.Calendar
	err error
}

func (s staticCalendar) Load(context.Context) (*calendar.Calendar, error) {
	return s.cal, s.err
}

type recordingJournal struct {
	entries []domain.JournalEntry
	err     error
}

func (j *recordingJournal) Append(_ context.Context, entries []domain.JournalEntry) error {
	if j.err != nil {
		return j.err
	}
	j.entries = append(j.entries, entries...)
	return nil
}

// failingSaver fails the listed ids and passes the rest through.
type failingSaver struct {
	BatchSaver
	fail map[string]bool
}

func (f failingSaver) SaveBatch(ctx context.Context, items []*domain.WorkItem) []*domain.PersistenceFailure {
	var pass []*domain.WorkItem
	var failures []*domain.PersistenceFailure
	for _, w := range items {
		if f.fail[w.ID] {
			failures = append(failures, &domain.PersistenceFailure{ItemID: w.ID, Err: domain.ErrStaleObject})
			continue
		}
		pass = append(pass, w)
	}
	return append(failures, f.BatchSaver.SaveBatch(ctx, pass)...)
}

type brokenRelationsStore struct {
	*graph.MemoryStore
}

func (brokenRelationsStore) LoadRelationsFor(context.Context, []string) ([]domain.Relation, error) {
	return nil, fmt.Errorf("connection reset")
}

type scheduleFixture struct {
	store     *graph.MemoryStore
	journal   *recordingJournal
	publisher *testutil.RecordingPublisher
}

func newScheduleFixture() *scheduleFixture {
	return &scheduleFixture{
		store:     graph.NewMemoryStore(),
		journal:   &recordingJournal{},
		publisher: &testutil.RecordingPublisher{},
	}
}

func (f *scheduleFixture) add(id string, opts ...testutil.WorkItemOption) {
	f.store.Put(testutil.NewTestWorkItem(id, append([]testutil.WorkItemOption{testutil.WithID(id)}, opts...)...))
}

func (f *scheduleFixture) service() ScheduleService {
	return NewScheduleService(f.store, staticCalendar{cal: calendar.Default()}, f.store, f.journal, f.publisher)
}

func cause() domain.CausedBy {
	return domain.CausedBy{Type: domain.CauseWorkItemChanged, UserID: "alice"}
}

func TestSchedule_SuccessorStartsAfterPredecessor(t *testing.T) {
	f := newScheduleFixture()
	f.add("a", testutil.WithDates(mon, wed))
	f.add("b", testutil.Automatic(), testutil.WithDates(mon, tue))
	f.store.Relate(testutil.Follows("b", "a", 0))

	resp, err := f.service().Schedule(context.Background(), app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	require.Len(t, resp.Changes, 1)
	c := resp.Changes[0]
	assert.Equal(t, "b", c.ID)
	assert.Equal(t, mon, *c.OldStart)
	assert.Equal(t, thu, *c.NewStart)
	assert.Equal(t, fri, *c.NewDue)
	assert.Equal(t, 2, *c.NewDuration)
	assert.Equal(t, 1, resp.VisitedCount)

	stored, _ := f.store.Get("b")
	assert.Equal(t, mon, *stored.StartDate, "Schedule must not persist")
}

func TestSchedule_LagSkipsWeekend(t *testing.T) {
	f := newScheduleFixture()
	f.add("a", testutil.WithDates(mon, wed))
	f.add("b", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(2))
	f.store.Relate(testutil.Follows("b", "a", 1))

	resp, err := f.service().Schedule(context.Background(), app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, fri, *resp.Changes[0].NewStart)
	assert.Equal(t, nextMon, *resp.Changes[0].NewDue)
}

func TestSchedule_IsolatedAutomaticItemKeepsDates(t *testing.T) {
	f := newScheduleFixture()
	f.add("a", testutil.Automatic(), testutil.WithDates(tue, thu))

	resp, err := f.service().Schedule(context.Background(), app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Changes)
	assert.Equal(t, 1, resp.VisitedCount)
}

func TestSchedule_ParentSpansChildren(t *testing.T) {
	f := newScheduleFixture()
	f.add("p", testutil.Automatic(), testutil.WithDates(mon, mon))
	f.add("c1", testutil.WithParent("p"), testutil.WithDates(tue, wed))
	f.add("c2", testutil.WithParent("p"), testutil.WithDates(thu, nextTue))

	resp, err := f.service().Schedule(context.Background(), app.NewScheduleRequest(cause(), "c2"))
	require.NoError(t, err)
	require.Len(t, resp.Changes, 1)
	c := resp.Changes[0]
	assert.Equal(t, "p", c.ID)
	assert.Equal(t, tue, *c.NewStart)
	assert.Equal(t, nextTue, *c.NewDue)
	assert.Equal(t, 6, *c.NewDuration)
}

func TestSchedule_CycleThroughOriginFails(t *testing.T) {
	f := newScheduleFixture()
	f.add("a", testutil.Automatic(), testutil.WithDates(mon, tue))
	f.add("b", testutil.Automatic(), testutil.WithDates(mon, tue))
	f.store.Relate(testutil.Follows("b", "a", 0), testutil.Follows("a", "b", 0))

	resp, err := f.service().Schedule(context.Background(), app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)

	assert.False(t, resp.Success)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, []string{"a", "b"}, resp.Failures[0].IDs)
	assert.Equal(t, app.FailureCyclicDependency, resp.Failures[0].Reason)
	assert.Empty(t, resp.Changes)
}

func TestSchedule_CycleAmongDependentsDoesNotFailCall(t *testing.T) {
	f := newScheduleFixture()
	f.add("x", testutil.WithDates(mon, tue))
	f.add("y", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.add("z", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.add("w", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.store.Relate(
		testutil.Follows("y", "x", 0),
		testutil.Follows("z", "y", 0),
		testutil.Follows("z", "w", 0),
		testutil.Follows("w", "z", 0),
	)

	resp, err := f.service().Schedule(context.Background(), app.NewScheduleRequest(cause(), "x"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Empty(t, resp.Failures)
	require.Len(t, resp.DependentFailures, 1)
	assert.Equal(t, []string{"w", "z"}, resp.DependentFailures[0].IDs)
	assert.Equal(t, []string{"y"}, resp.ChangedIDs())
	assert.Equal(t, wed, *resp.Changes[0].NewStart)
}

func TestSchedule_RelevantOverridesOrigins(t *testing.T) {
	f := newScheduleFixture()
	f.add("x", testutil.WithDates(mon, tue))
	f.add("z", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.add("w", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.store.Relate(
		testutil.Follows("z", "x", 0),
		testutil.Follows("z", "w", 0),
		testutil.Follows("w", "z", 0),
	)

	req := app.NewScheduleRequest(cause(), "x")
	req.Relevant = []string{"z"}
	resp, err := f.service().Schedule(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Len(t, resp.Failures, 1)
}

func TestSchedule_Errors(t *testing.T) {
	f := newScheduleFixture()
	f.add("a", testutil.WithDates(mon, tue))

	tests := []struct {
		name     string
		svc      ScheduleService
		origins  []string
		wantCode app.ScheduleErrorCode
		wantIs   error
	}{
		{
			name:     "NoOrigins",
			svc:      f.service(),
			origins:  []string{"", ""},
			wantCode: app.ScheduleErrInvalidRequest,
		},
		{
			name:     "UnknownOrigin",
			svc:      f.service(),
			origins:  []string{"ghost"},
			wantCode: app.ScheduleErrNotFound,
			wantIs:   domain.ErrNotFound,
		},
		{
			name:     "CalendarUnavailable",
			svc:      NewScheduleService(f.store, staticCalendar{err: errors.New("disk I/O error")}, f.store, nil, nil),
			origins:  []string{"a"},
			wantCode: app.ScheduleErrCalendarUnavailable,
			wantIs:   domain.ErrCalendarUnavailable,
		},
		{
			name:     "GraphUnavailable",
			svc:      NewScheduleService(brokenRelationsStore{f.store}, staticCalendar{cal: calendar.Default()}, f.store, nil, nil),
			origins:  []string{"a"},
			wantCode: app.ScheduleErrGraphUnavailable,
			wantIs:   domain.ErrRelationGraphUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Schedule(context.Background(), app.NewScheduleRequest(cause(), tt.origins...))
			require.Error(t, err)
			var schedErr *app.ScheduleError
			require.True(t, errors.As(err, &schedErr))
			assert.Equal(t, tt.wantCode, schedErr.Code)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestApply_PartialFailureKeepsSavedItems(t *testing.T) {
	f := newScheduleFixture()
	f.add("a", testutil.WithDates(mon, tue))
	f.add("b", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.add("c", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.store.Relate(testutil.Follows("b", "a", 0), testutil.Follows("c", "a", 0))

	saver := failingSaver{BatchSaver: f.store, fail: map[string]bool{"b": true}}
	svc := NewScheduleService(f.store, staticCalendar{cal: calendar.Default()}, saver, f.journal, f.publisher)
	ctx := context.Background()

	resp, err := svc.Schedule(ctx, app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"b", "c"}, resp.ChangedIDs())

	result, err := svc.Apply(ctx, resp)
	require.NoError(t, err)
	assert.False(t, result.AllSaved())
	assert.Equal(t, []string{"c"}, result.Saved)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "b", result.Failures[0].ItemID)
	assert.ErrorIs(t, result.Failures[0], domain.ErrStaleObject)

	c, _ := f.store.Get("c")
	assert.Equal(t, wed, *c.StartDate)
	b, _ := f.store.Get("b")
	assert.Equal(t, mon, *b.StartDate)

	require.Len(t, f.journal.entries, 1)
	entry := f.journal.entries[0]
	assert.Equal(t, "c", entry.WorkItemID)
	assert.Equal(t, domain.CauseWorkItemChanged, entry.Cause.Type)
	assert.Equal(t, "alice", entry.Cause.UserID)
	assert.Equal(t, mon, *entry.OldStart)
	assert.Equal(t, wed, *entry.NewStart)

	published := f.publisher.Topic(events.TopicItemRescheduled)
	require.Len(t, published, 1)
	assert.Equal(t, "c", published[0].(events.ItemRescheduled).Entry.WorkItemID)
}

func TestApply_JournalFailureIsReportedNotReturned(t *testing.T) {
	f := newScheduleFixture()
	f.journal.err = errors.New("database is locked")
	f.add("a", testutil.WithDates(mon, tue))
	f.add("b", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.store.Relate(testutil.Follows("b", "a", 0))

	outcome, err := f.service().Reschedule(context.Background(), app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, outcome.Applied.Saved)
	require.Error(t, outcome.Applied.JournalErr)
	assert.Contains(t, outcome.Applied.JournalErr.Error(), "database is locked")
	assert.Len(t, f.publisher.Topic(events.TopicItemRescheduled), 1)
}

func TestApply_PublishFailureDoesNotFailApply(t *testing.T) {
	f := newScheduleFixture()
	f.publisher.Err = errors.New("nats: connection closed")
	f.add("a", testutil.WithDates(mon, tue))
	f.add("b", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.store.Relate(testutil.Follows("b", "a", 0))

	outcome, err := f.service().Reschedule(context.Background(), app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)
	assert.True(t, outcome.Applied.AllSaved())
}

func TestApply_NothingChanged(t *testing.T) {
	f := newScheduleFixture()
	f.add("a", testutil.WithDates(mon, tue))

	outcome, err := f.service().Reschedule(context.Background(), app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)
	assert.Empty(t, outcome.Applied.Saved)
	assert.Empty(t, f.journal.entries)
	assert.Empty(t, f.publisher.Events())

	_, err = f.service().Apply(context.Background(), nil)
	assert.Error(t, err)
}

func TestReschedule_Convergent(t *testing.T) {
	f := newScheduleFixture()
	f.add("a", testutil.WithDates(mon, wed))
	f.add("b", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(2))
	f.add("c", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(1))
	f.store.Relate(testutil.Follows("b", "a", 0), testutil.Follows("c", "b", 0))
	svc := f.service()
	ctx := context.Background()

	first, err := svc.Reschedule(ctx, app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, first.Schedule.ChangedIDs())

	second, err := svc.Reschedule(ctx, app.NewScheduleRequest(cause(), "a"))
	require.NoError(t, err)
	assert.Empty(t, second.Schedule.Changes)

	c, _ := f.store.Get("c")
	assert.Equal(t, nextMon, *c.StartDate)
}
