package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Collector records replay buffer metrics to prometheus and mirrors the
// interesting ones to the log.
type Collector struct {
	logger zerolog.Logger

	batchesAdded  prometheus.Counter
	stepsAdded    prometheus.Counter
	samples       *prometheus.CounterVec
	sampleLatency prometheus.Histogram
	clears        *prometheus.CounterVec
	validCount    prometheus.Gauge
	capacity      prometheus.Gauge
	storageBytes  prometheus.Gauge
	apiRequests   *prometheus.CounterVec
}

// NewCollector registers the replay collectors on reg. A nil reg keeps the
// collectors unregistered, which tests use to avoid duplicate registration.
func NewCollector(logger zerolog.Logger, reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		logger: logger,
		batchesAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "replay_batches_added_total",
			Help: "Total AddBatch calls that were stored",
		}),
		stepsAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "replay_steps_added_total",
			Help: "Total step records stored across all rows",
		}),
		samples: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "replay_samples_total",
			Help: "Total sample requests by outcome",
		}, []string{"status"}),
		sampleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "replay_sample_latency_seconds",
			Help:    "Latency of sample requests",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		clears: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "replay_clears_total",
			Help: "Total clears by mode",
		}, []string{"mode"}),
		validCount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "replay_valid_count",
			Help: "Records currently retrievable per row",
		}),
		capacity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "replay_capacity",
			Help: "Configured per-row capacity, 0 when unbounded",
		}),
		storageBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "replay_storage_bytes",
			Help: "Bytes allocated for stored records",
		}),
		apiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "replay_api_requests_total",
			Help: "Admin API requests by route and status code",
		}, []string{"method", "route", "code"}),
	}
}

// BatchAdded tracks a stored batch of rows records.
func (c *Collector) BatchAdded(rows int) {
	c.batchesAdded.Inc()
	c.stepsAdded.Add(float64(rows))
}

// Sampled tracks a successful sample request.
func (c *Collector) Sampled(draws int, latency time.Duration) {
	c.samples.WithLabelValues("ok").Inc()
	c.sampleLatency.Observe(latency.Seconds())
	c.logger.Debug().
		Str("metric", "sampled").
		Int("draws", draws).
		Dur("latency", latency).
		Msg("Sample metric")
}

// SampleFailed tracks a sample request rejected with reason.
func (c *Collector) SampleFailed(reason string) {
	c.samples.WithLabelValues(reason).Inc()
}

// Cleared tracks a clear.
func (c *Collector) Cleared(clearAllVariables bool) {
	mode := "soft"
	if clearAllVariables {
		mode = "all_variables"
	}
	c.clears.WithLabelValues(mode).Inc()
	c.logger.Info().
		Str("metric", "cleared").
		Str("mode", mode).
		Msg("Buffer cleared")
}

// Fill updates the occupancy gauges.
func (c *Collector) Fill(validCount, capacity int, storageBytes uint64) {
	c.validCount.Set(float64(validCount))
	c.capacity.Set(float64(capacity))
	c.storageBytes.Set(float64(storageBytes))
}

// APIRequest tracks an admin API request.
func (c *Collector) APIRequest(method, route string, statusCode int, duration time.Duration) {
	c.apiRequests.WithLabelValues(method, route, statusLabel(statusCode)).Inc()
	c.logger.Debug().
		Str("metric", "api_request").
		Str("method", method).
		Str("route", route).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Msg("API request metric")
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
