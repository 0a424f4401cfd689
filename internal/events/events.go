// Package events publishes scheduling journal entries and calendar change
// notifications over NATS.
package events

import (
	"context"

	"github.com/alexanderramin/cadence/internal/domain"
)

// Event topic constants
const (
	TopicItemRescheduled      = "cadence.item.rescheduled"
	TopicCalendarChanged      = "cadence.calendar.changed"
	TopicPropagationCompleted = "cadence.propagation.completed"
	TopicPropagationDeclined  = "cadence.propagation.declined"

	// TopicAll matches every cadence topic.
	TopicAll = "cadence.>"
)

// Event types

type ItemRescheduled struct {
	Entry domain.JournalEntry `json:"entry"`
}

// CalendarChanged carries the calendar state from before a committed change.
type CalendarChanged struct {
	UserID                  string                  `json:"user_id"`
	PreviousWeekdays        domain.WeekdaySet       `json:"previous_weekdays"`
	PreviousNonWorkingDates []domain.NonWorkingDate `json:"previous_non_working_dates"`
}

type PropagationCompleted struct {
	RunID       string   `json:"run_id"`
	UserID      string   `json:"user_id"`
	Rescheduled int      `json:"rescheduled"`
	Failed      []string `json:"failed,omitempty"`
}

type PropagationDeclined struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Subscriber is the interface for receiving raw event payloads.
type Subscriber interface {
	Subscribe(topic string) (<-chan []byte, func(), error)
	Close() error
}
