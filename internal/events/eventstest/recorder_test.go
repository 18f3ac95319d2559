package eventstest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartridge/replay/internal/events"
)

func TestRecorder(t *testing.T) {
	var p events.Publisher = &Recorder{}
	require.NoError(t, p.PublishBufferEvent(context.Background(), events.BufferEvent{Event: events.EventFill, ValidCount: 3}))
	require.NoError(t, p.PublishBufferEvent(context.Background(), events.BufferEvent{Event: events.EventCleared}))

	got := p.(*Recorder).Events()
	require.Len(t, got, 2)
	assert.Equal(t, events.EventFill, got[0].Event)
	assert.Equal(t, 3, got[0].ValidCount)
	assert.Equal(t, events.EventCleared, got[1].Event)

	got[0].Event = "mutated"
	assert.Equal(t, events.EventFill, p.(*Recorder).Events()[0].Event)
}
