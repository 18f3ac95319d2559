package service

import (
	"context"
	"io"
	"math/rand"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cartridge/replay/internal/events"
	"github.com/cartridge/replay/internal/events/eventstest"
	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/spec"
	"github.com/cartridge/replay/internal/storage"
	replayv1 "github.com/cartridge/replay/pkg/api/replay/v1"
)

var stepSpec = spec.Group("step",
	spec.Leaf("obs", spec.Float32, 2),
	spec.Leaf("reward", spec.Float32),
)

func newTestService(t *testing.T, batchSize, capacity int) (*ReplayService, *eventstest.Recorder) {
	t.Helper()
	backend, err := storage.NewUniformBuffer(stepSpec, batchSize, capacity, storage.WithRand(rand.New(rand.NewSource(7))))
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })

	logger := zerolog.New(io.Discard)
	publisher := &eventstest.Recorder{}
	return NewReplayService(backend, metrics.NewCollector(logger, nil), publisher, logger), publisher
}

// batch builds a record whose row r at step i has obs [i, r] and reward i.
func batch(rows, step int) spec.Record {
	obs := make([]float32, 0, rows*2)
	reward := make([]float32, 0, rows)
	for r := 0; r < rows; r++ {
		obs = append(obs, float32(step), float32(r))
		reward = append(reward, float32(step))
	}
	return spec.Record{
		spec.FromFloat32s([]int{rows, 2}, obs),
		spec.FromFloat32s([]int{rows}, reward),
	}
}

func TestReplayService_GetSpec(t *testing.T) {
	svc, _ := newTestService(t, 2, 8)
	resp, err := svc.GetSpec(context.Background(), &replayv1.GetSpecRequest{})
	require.NoError(t, err)
	assert.True(t, resp.DataSpec.Compatible(stepSpec))
	assert.Equal(t, uint32(2), resp.BatchSize)
	assert.Equal(t, uint32(8), resp.Capacity)
}

func TestReplayService_AddBatchAndSample(t *testing.T) {
	svc, _ := newTestService(t, 2, 8)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp, err := svc.AddBatch(ctx, &replayv1.AddBatchRequest{Items: batch(2, i)})
		require.NoError(t, err)
		assert.Equal(t, int64(i), resp.LastId)
	}

	sample, err := svc.Sample(ctx, &replayv1.SampleRequest{SampleBatchSize: 5, NumSteps: 2})
	require.NoError(t, err)
	require.Len(t, sample.Items, 1)
	assert.Equal(t, []int{5, 2, 2}, sample.Items[0][0].Shape)
	require.Len(t, sample.Ids, 5)
	for i, p := range sample.Probabilities {
		assert.InDelta(t, 1.0/4, p, 1e-9)
		assert.Less(t, sample.Ids[i], int64(2))
	}

	row := int32(1)
	pinned, err := svc.Sample(ctx, &replayv1.SampleRequest{SampleBatchSize: 3, Row: &row})
	require.NoError(t, err)
	assert.Equal(t, []int32{1, 1, 1}, pinned.Rows)
	for _, p := range pinned.Probabilities {
		assert.InDelta(t, 1.0/3, p, 1e-9)
	}
}

func TestReplayService_Errors(t *testing.T) {
	svc, _ := newTestService(t, 2, 4)
	ctx := context.Background()

	_, err := svc.Sample(ctx, &replayv1.SampleRequest{})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = svc.AddBatch(ctx, &replayv1.AddBatchRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.AddBatch(ctx, &replayv1.AddBatchRequest{Items: batch(3, 0)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = svc.AddBatch(ctx, &replayv1.AddBatchRequest{Items: batch(2, 0)})
	require.NoError(t, err)

	_, err = svc.Get(ctx, &replayv1.GetRequest{Row: 0, Id: 5})
	assert.Equal(t, codes.OutOfRange, status.Code(err))

	row := int32(9)
	_, err = svc.Sample(ctx, &replayv1.SampleRequest{Row: &row})
	assert.Equal(t, codes.OutOfRange, status.Code(err))
}

func TestReplayService_SampleBatchSizeLimit(t *testing.T) {
	backend, err := storage.NewUniformBuffer(stepSpec, 2, 8)
	require.NoError(t, err)
	t.Cleanup(func() { _ = backend.Close() })
	logger := zerolog.New(io.Discard)
	svc := NewReplayService(backend, metrics.NewCollector(logger, nil), nil, logger, WithMaxSampleBatchSize(8))

	ctx := context.Background()
	_, err = svc.AddBatch(ctx, &replayv1.AddBatchRequest{Items: batch(2, 0)})
	require.NoError(t, err)

	resp, err := svc.Sample(ctx, &replayv1.SampleRequest{SampleBatchSize: 8})
	require.NoError(t, err)
	assert.Len(t, resp.Ids, 8)

	for _, n := range []uint32{9, 1<<32 - 1} {
		_, err = svc.Sample(ctx, &replayv1.SampleRequest{SampleBatchSize: n})
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "batch size %d", n)
	}

	_, err = svc.Draw(ctx, &storage.SampleConfig{BatchSize: DefaultMaxSampleBatchSize + 1})
	assert.ErrorIs(t, err, storage.ErrConfig)
}

func TestReplayService_DefaultSampleIsStacked(t *testing.T) {
	svc, _ := newTestService(t, 1, 8)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := svc.AddBatch(ctx, &replayv1.AddBatchRequest{Items: batch(1, i)})
		require.NoError(t, err)
	}

	stacked, err := svc.Sample(ctx, &replayv1.SampleRequest{NumSteps: 2})
	require.NoError(t, err)
	require.Len(t, stacked.Items, 1)
	assert.Equal(t, []int{2}, stacked.Items[0][1].Shape)

	unstacked, err := svc.Sample(ctx, &replayv1.SampleRequest{NumSteps: 2, Unstacked: true})
	require.NoError(t, err)
	require.Len(t, unstacked.Items, 2)
	assert.Empty(t, unstacked.Items[0][1].Shape)
}

func TestReplayService_ConcurrentAddBatchIDs(t *testing.T) {
	svc, _ := newTestService(t, 2, storage.Unbounded)
	ctx := context.Background()

	const adds = 40
	ids := make(chan int64, adds)
	var wg sync.WaitGroup
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.AddBatch(ctx, &replayv1.AddBatchRequest{Items: batch(2, i)})
			if assert.NoError(t, err) {
				ids <- resp.LastId
			}
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "id %d reported twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, adds)
}

func TestReplayService_GatherGetAndStats(t *testing.T) {
	svc, _ := newTestService(t, 2, 2)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := svc.AddBatch(ctx, &replayv1.AddBatchRequest{Items: batch(2, i)})
		require.NoError(t, err)
	}

	gathered, err := svc.GatherAll(ctx, &replayv1.GatherAllRequest{})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), gathered.ValidCount)
	assert.Equal(t, []float32{1, 2, 1, 2}, gathered.Items[1].Float32s())

	got, err := svc.Get(ctx, &replayv1.GetRequest{Row: 1, Id: 2})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 1}, got.Item[0].Float32s())

	stats, err := svc.GetStats(ctx, &replayv1.GetStatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 2}, stats.ValidCounts)
	assert.Equal(t, []int64{2, 2}, stats.LastIds)
	assert.Equal(t, uint64(6), stats.TotalAdded)
}

func TestReplayService_ClearPublishes(t *testing.T) {
	svc, publisher := newTestService(t, 1, 4)
	ctx := context.Background()
	_, err := svc.AddBatch(ctx, &replayv1.AddBatchRequest{Items: batch(1, 0)})
	require.NoError(t, err)

	_, err = svc.Clear(ctx, &replayv1.ClearRequest{ClearAllVariables: true})
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx, &replayv1.GetStatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, stats.ValidCounts)

	got := publisher.Events()
	require.Len(t, got, 1)
	assert.Equal(t, events.EventCleared, got[0].Event)
	assert.True(t, got[0].ClearAllVariables)
	assert.NotEmpty(t, got[0].CorrelationID)
}

func TestSampleConfig(t *testing.T) {
	assert.Equal(t, &storage.SampleConfig{}, SampleConfig(nil))

	row := int32(3)
	config := SampleConfig(&replayv1.SampleRequest{SampleBatchSize: 4, NumSteps: 2, Unstacked: true, Row: &row})
	assert.Equal(t, 4, config.BatchSize)
	assert.Equal(t, 2, config.NumSteps)
	assert.True(t, config.Unstacked)
	require.NotNil(t, config.Row)
	assert.Equal(t, 3, *config.Row)
}

func TestToStatus(t *testing.T) {
	cases := map[error]codes.Code{
		storage.ErrConfig:       codes.InvalidArgument,
		storage.ErrSpecMismatch: codes.InvalidArgument,
		storage.ErrEmptyBuffer:  codes.FailedPrecondition,
		storage.ErrOutOfRange:   codes.OutOfRange,
		storage.ErrClosed:       codes.Unavailable,
		context.Canceled:        codes.Canceled,
		io.ErrUnexpectedEOF:     codes.Internal,
	}
	for err, code := range cases {
		assert.Equal(t, code, status.Code(toStatus(err)), err.Error())
	}
}
