package workdays

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/alexanderramin/cadence/internal/events"
)

// Worker consumes calendar change messages and runs the propagator for
// each. Runs are sequential; a declined run is logged and dropped.
type Worker struct {
	subscriber events.Subscriber
	propagator app.PropagateWorkingDaysUseCase
	logger     *slog.Logger
	started    chan struct{}
}

func NewWorker(subscriber events.Subscriber, propagator app.PropagateWorkingDaysUseCase, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Worker{subscriber: subscriber, propagator: propagator, logger: logger, started: make(chan struct{})}
}

// Started is closed once Run has subscribed.
func (w *Worker) Started() <-chan struct{} {
	return w.started
}

// Run blocks until ctx is done or the subscription closes.
func (w *Worker) Run(ctx context.Context) error {
	msgs, cancel, err := w.subscriber.Subscribe(events.TopicCalendarChanged)
	if err != nil {
		return fmt.Errorf("subscribing to calendar changes: %w", err)
	}
	defer cancel()
	close(w.started)
	w.logger.InfoContext(ctx, "working days worker started", "topic", events.TopicCalendarChanged)

	for {
		select {
		case <-ctx.Done():
			return nil
		case data, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, data)
		}
	}
}

func (w *Worker) handle(ctx context.Context, data []byte) {
	var msg events.CalendarChanged
	if err := json.Unmarshal(data, &msg); err != nil {
		w.logger.WarnContext(ctx, "dropping malformed calendar change", "error", err)
		return
	}
	res, err := w.propagator.Run(ctx, app.WorkingDaysChangeRequest{
		UserID:                  msg.UserID,
		PreviousWeekdays:        msg.PreviousWeekdays,
		PreviousNonWorkingDates: msg.PreviousNonWorkingDates,
	})
	switch {
	case errors.Is(err, domain.ErrConcurrencyLimitReached):
		w.logger.InfoContext(ctx, "working days propagation already running", "user_id", msg.UserID)
	case err != nil:
		w.logger.ErrorContext(ctx, "working days propagation failed", "user_id", msg.UserID, "error", err)
	default:
		w.logger.InfoContext(ctx, "working days propagation applied",
			"run_id", res.RunID, "rescheduled", len(res.Rescheduled), "failures", len(res.Failures))
	}
}
