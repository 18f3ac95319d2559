// Package eventstest provides an in-memory events.Publisher for tests.
package eventstest

import (
	"context"
	"sync"

	"github.com/cartridge/replay/internal/events"
)

// Recorder keeps every published event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []events.BufferEvent
}

// PublishBufferEvent satisfies events.Publisher.
func (r *Recorder) PublishBufferEvent(_ context.Context, event events.BufferEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []events.BufferEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.BufferEvent(nil), r.events...)
}
