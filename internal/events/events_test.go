package events

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopPublisher(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.PublishBufferEvent(context.Background(), BufferEvent{Event: EventFill}))
}

func TestBufferEvent_JSON(t *testing.T) {
	data, err := json.Marshal(BufferEvent{Event: EventCleared, BatchSize: 2, Capacity: 10, LastID: -1, ClearAllVariables: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"cleared","batch_size":2,"capacity":10,"valid_count":0,"last_id":-1,"clear_all_variables":true}`, string(data))
}

func TestNATSPublisher_Subject(t *testing.T) {
	p := NewNATSPublisherWithConn(nil, "cartridge.replay", zerolog.New(io.Discard))
	assert.Equal(t, "cartridge.replay.fill", p.Subject(EventFill))
	p.Close()
}
