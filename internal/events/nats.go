package events

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSPublisher implements Publisher using NATS
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  zerolog.Logger
}

// NewNATSPublisher creates a new NATS-backed publisher. Events go to
// subject + "." + event name.
func NewNATSPublisher(natsURL, subject string, logger zerolog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(natsURL, nats.Name("cartridge-replay"))
	if err != nil {
		return nil, err
	}
	return NewNATSPublisherWithConn(conn, subject, logger), nil
}

// NewNATSPublisherWithConn wraps an existing connection.
func NewNATSPublisherWithConn(conn *nats.Conn, subject string, logger zerolog.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:    conn,
		subject: subject,
		logger:  logger,
	}
}

// Close closes the NATS connection
func (n *NATSPublisher) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

// Subject returns the subject event is published on.
func (n *NATSPublisher) Subject(event string) string {
	return n.subject + "." + event
}

// PublishBufferEvent publishes a buffer event to NATS
func (n *NATSPublisher) PublishBufferEvent(ctx context.Context, event BufferEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := n.Subject(event.Event)
	if err := n.conn.Publish(subject, data); err != nil {
		n.logger.Error().Err(err).Str("subject", subject).Msg("Failed to publish buffer event")
		return err
	}

	n.logger.Debug().
		Str("event", event.Event).
		Int("valid_count", event.ValidCount).
		Str("subject", subject).
		Msg("Published buffer event")

	return nil
}
