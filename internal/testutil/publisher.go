package testutil

import (
	"context"
	"sync"
)

// PublishedEvent is one call captured by RecordingPublisher.
type PublishedEvent struct {
	Topic string
	Event any
}

// RecordingPublisher captures published events for assertions. Set Err to
// make every Publish fail after recording.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
	Err    error
}

func (p *RecordingPublisher) Publish(_ context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Topic: topic, Event: event})
	return p.Err
}

func (p *RecordingPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PublishedEvent(nil), p.events...)
}

// Topic returns the events published on topic.
func (p *RecordingPublisher) Topic(topic string) []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []any
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e.Event)
		}
	}
	return out
}
