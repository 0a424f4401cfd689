package workdays

import (
	"context"
	"fmt"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/events"
)

// InlineNotifier runs the propagator in the caller's goroutine.
type InlineNotifier struct {
	propagator app.PropagateWorkingDaysUseCase
	report     func(*app.WorkingDaysChangeResult)
}

var _ app.WorkingDaysNotifier = (*InlineNotifier)(nil)

func NewInlineNotifier(propagator app.PropagateWorkingDaysUseCase) *InlineNotifier {
	return &InlineNotifier{propagator: propagator}
}

// WithReport registers fn to receive every run result, including partial
// results returned alongside an error.
func (n *InlineNotifier) WithReport(fn func(*app.WorkingDaysChangeResult)) *InlineNotifier {
	n.report = fn
	return n
}

func (n *InlineNotifier) NotifyWorkingDaysChanged(ctx context.Context, req app.WorkingDaysChangeRequest) error {
	res, err := n.propagator.Run(ctx, req)
	if n.report != nil && res != nil {
		n.report(res)
	}
	return err
}

// NATSNotifier hands calendar changes to a Worker over the event bus.
type NATSNotifier struct {
	publisher events.Publisher
}

var _ app.WorkingDaysNotifier = (*NATSNotifier)(nil)

func NewNATSNotifier(publisher events.Publisher) *NATSNotifier {
	return &NATSNotifier{publisher: publisher}
}

func (n *NATSNotifier) NotifyWorkingDaysChanged(ctx context.Context, req app.WorkingDaysChangeRequest) error {
	err := n.publisher.Publish(ctx, events.TopicCalendarChanged, events.CalendarChanged{
		UserID:                  req.UserID,
		PreviousWeekdays:        req.PreviousWeekdays,
		PreviousNonWorkingDates: req.PreviousNonWorkingDates,
	})
	if err != nil {
		return fmt.Errorf("queueing working days propagation: %w", err)
	}
	return nil
}
