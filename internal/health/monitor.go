package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cartridge/replay/internal/events"
	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/storage"
)

// Config holds fill monitoring configuration
type Config struct {
	CheckInterval time.Duration
}

// Monitor periodically reads buffer statistics into the metrics gauges and
// announces when the buffer first fills up.
type Monitor struct {
	backend   storage.Backend
	collector *metrics.Collector
	publisher events.Publisher
	config    Config
	logger    zerolog.Logger

	mu     sync.Mutex
	full   bool
	last   *storage.Stats
	lastAt time.Time
}

// NewMonitor creates a new fill monitor
func NewMonitor(backend storage.Backend, collector *metrics.Collector, publisher events.Publisher, config Config, logger zerolog.Logger) *Monitor {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Monitor{
		backend:   backend,
		collector: collector,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// Start runs the monitoring loop until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	m.logger.Info().
		Dur("check_interval", m.config.CheckInterval).
		Msg("Starting fill monitor")

	for {
		select {
		case <-ctx.Done():
			m.logger.Info().Msg("Fill monitor stopped")
			return
		case <-ticker.C:
			if err := m.Check(ctx); err != nil && ctx.Err() == nil {
				m.logger.Error().Err(err).Msg("Fill check failed")
			}
		}
	}
}

// Check takes one reading.
func (m *Monitor) Check(ctx context.Context) error {
	stats, err := m.backend.Stats(ctx)
	if err != nil {
		return err
	}
	m.collector.Fill(stats.ValidCount(), stats.Capacity, stats.StorageBytes)

	m.mu.Lock()
	m.last = stats
	m.lastAt = time.Now()
	wasFull := m.full
	// An unbounded buffer never fills.
	m.full = stats.Capacity != storage.Unbounded && stats.ValidCount() >= stats.Capacity
	reachedCapacity := m.full && !wasFull
	m.mu.Unlock()

	if !reachedCapacity {
		return nil
	}

	m.logger.Info().
		Int("capacity", stats.Capacity).
		Int("batch_size", stats.BatchSize).
		Uint64("total_added", stats.TotalAdded).
		Msg("Replay buffer reached capacity, oldest records are now overwritten")

	event := events.BufferEvent{
		Event:      events.EventFill,
		BatchSize:  stats.BatchSize,
		Capacity:   stats.Capacity,
		ValidCount: stats.ValidCount(),
		LastID:     stats.LastIDs[0],
	}
	if err := m.publisher.PublishBufferEvent(ctx, event); err != nil {
		m.logger.Error().Err(err).Msg("Failed to publish fill event")
	}
	return nil
}

// Last returns the most recent reading and when it was taken, or nil if
// no check has run yet.
func (m *Monitor) Last() (*storage.Stats, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.lastAt
}
