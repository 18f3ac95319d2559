package events

import "context"

// Buffer event names, appended to the publisher's base subject.
const (
	EventCleared = "cleared"
	EventFill    = "fill"
)

// Publisher is implemented by downstream fan-out mechanisms.
type Publisher interface {
	PublishBufferEvent(ctx context.Context, event BufferEvent) error
}

// BufferEvent is emitted on buffer lifecycle changes.
type BufferEvent struct {
	Event             string `json:"event"`
	CorrelationID     string `json:"correlation_id,omitempty"`
	BatchSize         int    `json:"batch_size"`
	Capacity          int    `json:"capacity"`
	ValidCount        int    `json:"valid_count"`
	LastID            int64  `json:"last_id"`
	ClearAllVariables bool   `json:"clear_all_variables,omitempty"`
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// PublishBufferEvent satisfies Publisher.
func (NoopPublisher) PublishBufferEvent(context.Context, BufferEvent) error { return nil }
