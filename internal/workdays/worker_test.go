package workdays

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/events"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/alexanderramin/cadence/internal/testutil"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startTestNATS(t *testing.T) string {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err, "starting embedded NATS")
	srv.Start()
	t.Cleanup(srv.Shutdown)
	require.True(t, srv.ReadyForConnections(5*time.Second), "embedded NATS not ready")
	return srv.ClientURL()
}

func TestNATSNotifier_PublishesPreviousState(t *testing.T) {
	pub := &testutil.RecordingPublisher{}
	n := NewNATSNotifier(pub)

	req := app.WorkingDaysChangeRequest{
		UserID:                  "admin",
		PreviousWeekdays:        domain.DefaultWeekdays(),
		PreviousNonWorkingDates: []domain.NonWorkingDate{{Date: wed, Reason: "Founders day"}},
	}
	require.NoError(t, n.NotifyWorkingDaysChanged(context.Background(), req))

	got := pub.Topic(events.TopicCalendarChanged)
	require.Len(t, got, 1)
	ev := got[0].(events.CalendarChanged)
	assert.Equal(t, "admin", ev.UserID)
	assert.Equal(t, req.PreviousWeekdays, ev.PreviousWeekdays)
	assert.Equal(t, req.PreviousNonWorkingDates, ev.PreviousNonWorkingDates)
}

func TestWorker_RunsPropagationFromNATS(t *testing.T) {
	url := startTestNATS(t)
	env := setupPropagation(t)

	c := env.create(t, "C", testutil.Automatic(), testutil.WithStart(mon), testutil.WithDuration(3))

	pub, err := events.NewNATSPublisher(url)
	require.NoError(t, err)
	defer pub.Close()
	sub, err := events.NewNATSSubscriber(url)
	require.NoError(t, err)
	defer sub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	worker := NewWorker(sub, env.propagator, nil)
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	// The calendar service only publishes; the worker does the rescheduling.
	calendarSvc := service.NewCalendarService(env.calendars, env.uow, NewNATSNotifier(pub))
	select {
	case <-worker.Started():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not subscribe")
	}

	require.NoError(t, calendarSvc.SetWorkingWeekdays(service.WithActingUser(ctx, "admin"), weekdaysWithout(time.Wednesday)))
	require.NoError(t, pub.Flush())

	require.Eventually(t, func() bool {
		w, err := env.workItems.GetByID(context.Background(), c.ID)
		return err == nil && w.DueDate != nil && w.DueDate.Equal(thu)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
}
