package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSampleStream_PullsFreshSamples(t *testing.T) {
	b := newCounterBuffer(t, 2, 3)
	stream := b.Stream(SampleConfig{BatchSize: 4})
	ctx := context.Background()

	_, err := stream.Next(ctx)
	assert.ErrorIs(t, err, ErrEmptyBuffer)

	// The stream holds no state, so content added after it was created is
	// visible on the next pull.
	addCounters(t, b, 1, func(r, _ int) int32 { return int32(r) })
	sample, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0.5, 0.5}, sample.Info.Probabilities, 1e-9)

	addCounters(t, b, 5, func(r, i int) int32 { return int32(r + i) })
	sample, err = stream.Next(ctx)
	require.NoError(t, err)
	for _, p := range sample.Info.Probabilities {
		assert.InDelta(t, 1.0/6, p, 1e-9)
	}
}

func TestSampleStream_Take(t *testing.T) {
	b := newCounterBuffer(t, 1, 10)
	addCounters(t, b, 10, func(_, i int) int32 { return int32(i) })

	stream := NewSampleStream(b, SampleConfig{NumSteps: 2, Unstacked: true})
	samples, err := stream.Take(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, samples, 25)
	for _, s := range samples {
		require.Len(t, s.Items, 2)
		assert.Equal(t, s.Items[0][0].Int32s()[0]+1, s.Items[1][0].Int32s()[0])
	}
	assert.Equal(t, 2, stream.Config().NumSteps)
}

func TestSampleStream_TakeStopsAtError(t *testing.T) {
	b := newCounterBuffer(t, 1, 10)
	addCounters(t, b, 1, func(_, i int) int32 { return int32(i) })

	samples, err := NewSampleStream(b, SampleConfig{NumSteps: 2}).Take(context.Background(), 3)
	assert.ErrorIs(t, err, ErrEmptyBuffer)
	assert.Empty(t, samples)
}
