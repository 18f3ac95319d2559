package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cartridge/replay/internal/events"
	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/spec"
	"github.com/cartridge/replay/internal/storage"
	replayv1 "github.com/cartridge/replay/pkg/api/replay/v1"
)

// ReplayService implements the Replay gRPC service
type ReplayService struct {
	replayv1.UnimplementedReplayServer
	backend   storage.Backend
	collector *metrics.Collector
	publisher events.Publisher
	logger    zerolog.Logger

	maxSampleBatchSize int
}

// DefaultMaxSampleBatchSize bounds the draws a single request may ask for.
const DefaultMaxSampleBatchSize = 4096

// Option configures a ReplayService
type Option func(*ReplayService)

// WithMaxSampleBatchSize overrides DefaultMaxSampleBatchSize.
func WithMaxSampleBatchSize(n int) Option {
	return func(s *ReplayService) {
		if n > 0 {
			s.maxSampleBatchSize = n
		}
	}
}

// NewReplayService creates a new ReplayService
func NewReplayService(backend storage.Backend, collector *metrics.Collector, publisher events.Publisher, logger zerolog.Logger, opts ...Option) *ReplayService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	s := &ReplayService{
		backend:            backend,
		collector:          collector,
		publisher:          publisher,
		logger:             logger,
		maxSampleBatchSize: DefaultMaxSampleBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backend returns the buffer the service fronts.
func (s *ReplayService) Backend() storage.Backend {
	return s.backend
}

// GetSpec returns the buffer layout
func (s *ReplayService) GetSpec(ctx context.Context, _ *replayv1.GetSpecRequest) (*replayv1.SpecResponse, error) {
	return &replayv1.SpecResponse{
		DataSpec:  s.backend.DataSpec(),
		BatchSize: uint32(s.backend.BatchSize()),
		Capacity:  uint32(s.backend.Capacity()),
	}, nil
}

// AddBatch appends one record to every row
func (s *ReplayService) AddBatch(ctx context.Context, req *replayv1.AddBatchRequest) (*replayv1.AddBatchResponse, error) {
	if len(req.Items) == 0 {
		return nil, status.Error(codes.InvalidArgument, "items are required")
	}
	id, err := s.backend.Append(ctx, req.Items)
	if err != nil {
		return nil, toStatus(err)
	}
	s.collector.BatchAdded(s.backend.BatchSize())
	return &replayv1.AddBatchResponse{LastId: id}, nil
}

// Sample draws one sample
func (s *ReplayService) Sample(ctx context.Context, req *replayv1.SampleRequest) (*replayv1.SampleResponse, error) {
	sample, err := s.Draw(ctx, SampleConfig(req))
	if err != nil {
		return nil, toStatus(err)
	}
	return SampleResponse(sample), nil
}

// SampleStream sends one fresh sample per message until Count messages
// have been sent or the client goes away.
func (s *ReplayService) SampleStream(req *replayv1.SampleStreamRequest, stream replayv1.Replay_SampleStreamServer) error {
	ctx := stream.Context()
	config := SampleConfig(req.Config)

	for sent := uint32(0); req.Count == 0 || sent < req.Count; sent++ {
		sample, err := s.Draw(ctx, config)
		if err != nil {
			return toStatus(err)
		}
		if err := stream.Send(SampleResponse(sample)); err != nil {
			return err
		}
	}
	return nil
}

// Draw performs one GetNext and records its outcome. Requests for more
// than the configured maximum sample batch size fail with storage.ErrConfig.
func (s *ReplayService) Draw(ctx context.Context, config *storage.SampleConfig) (*storage.Sample, error) {
	if config.BatchSize > s.maxSampleBatchSize {
		s.collector.SampleFailed("invalid")
		return nil, fmt.Errorf("%w: sample batch size %d exceeds maximum %d",
			storage.ErrConfig, config.BatchSize, s.maxSampleBatchSize)
	}
	start := time.Now()
	sample, err := storage.NewSampleStream(s.backend, *config).Next(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.collector.SampleFailed(failureReason(err))
		}
		return nil, err
	}
	s.collector.Sampled(len(sample.Info.IDs), time.Since(start))
	return sample, nil
}

// GatherAll returns every valid record
func (s *ReplayService) GatherAll(ctx context.Context, _ *replayv1.GatherAllRequest) (*replayv1.GatherAllResponse, error) {
	items, err := s.backend.GatherAll(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	valid := 0
	if len(items) > 0 && len(items[0].Shape) > 1 {
		valid = items[0].Shape[1]
	}
	return &replayv1.GatherAllResponse{Items: items, ValidCount: uint32(valid)}, nil
}

// Get returns one stored record
func (s *ReplayService) Get(ctx context.Context, req *replayv1.GetRequest) (*replayv1.GetResponse, error) {
	item, err := s.backend.Get(ctx, int(req.Row), req.Id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &replayv1.GetResponse{Item: item}, nil
}

// Clear empties the buffer and announces it
func (s *ReplayService) Clear(ctx context.Context, req *replayv1.ClearRequest) (*replayv1.ClearResponse, error) {
	if err := s.Reset(ctx, req.ClearAllVariables, ""); err != nil {
		return nil, toStatus(err)
	}
	return &replayv1.ClearResponse{}, nil
}

// Reset clears the backend and publishes a cleared event. An empty
// correlationID gets a fresh one.
func (s *ReplayService) Reset(ctx context.Context, clearAllVariables bool, correlationID string) error {
	if err := s.backend.Clear(ctx, clearAllVariables); err != nil {
		return err
	}
	s.collector.Cleared(clearAllVariables)

	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	event := events.BufferEvent{
		Event:             events.EventCleared,
		CorrelationID:     correlationID,
		BatchSize:         s.backend.BatchSize(),
		Capacity:          s.backend.Capacity(),
		LastID:            -1,
		ClearAllVariables: clearAllVariables,
	}
	if err := s.publisher.PublishBufferEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("correlation_id", correlationID).Msg("Failed to publish clear event")
	}
	return nil
}

// GetStats returns replay buffer statistics
func (s *ReplayService) GetStats(ctx context.Context, _ *replayv1.GetStatsRequest) (*replayv1.StatsResponse, error) {
	stats, err := s.backend.Stats(ctx)
	if err != nil {
		return nil, toStatus(err)
	}

	response := &replayv1.StatsResponse{
		BatchSize:    uint32(stats.BatchSize),
		Capacity:     uint32(stats.Capacity),
		ValidCounts:  make([]uint32, len(stats.ValidCounts)),
		LastIds:      stats.LastIDs,
		TotalAdded:   stats.TotalAdded,
		StorageBytes: stats.StorageBytes,
	}
	for i, v := range stats.ValidCounts {
		response.ValidCounts[i] = uint32(v)
	}
	return response, nil
}

// Conversion functions

// SampleConfig converts a wire sample request. A nil request is a single
// unbatched one-step draw.
func SampleConfig(req *replayv1.SampleRequest) *storage.SampleConfig {
	config := &storage.SampleConfig{}
	if req == nil {
		return config
	}
	config.BatchSize = int(req.SampleBatchSize)
	config.NumSteps = int(req.NumSteps)
	config.Unstacked = req.Unstacked
	if req.Row != nil {
		row := int(*req.Row)
		config.Row = &row
	}
	return config
}

// SampleResponse converts a storage sample to its wire form.
func SampleResponse(sample *storage.Sample) *replayv1.SampleResponse {
	rows := make([]int32, len(sample.Info.Rows))
	for i, r := range sample.Info.Rows {
		rows[i] = int32(r)
	}
	items := sample.Items
	if items == nil {
		items = []spec.Record{}
	}
	return &replayv1.SampleResponse{
		Items:         items,
		Ids:           sample.Info.IDs,
		Rows:          rows,
		Probabilities: sample.Info.Probabilities,
	}
}

// toStatus maps storage errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, storage.ErrSpecMismatch), errors.Is(err, storage.ErrConfig):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrEmptyBuffer):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, storage.ErrOutOfRange):
		return status.Error(codes.OutOfRange, err.Error())
	case errors.Is(err, storage.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, storage.ErrEmptyBuffer):
		return "empty"
	case errors.Is(err, storage.ErrConfig), errors.Is(err, storage.ErrOutOfRange):
		return "invalid"
	default:
		return "error"
	}
}
