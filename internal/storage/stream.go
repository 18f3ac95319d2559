package storage

import (
	"context"
)

// SampleStream is a pull-based feed over a Backend. Every Next performs one
// fresh GetNext; nothing is prefetched or buffered between pulls, so a
// stream can be abandoned at any point or recreated to restart.
type SampleStream struct {
	backend Backend
	config  SampleConfig
}

// NewSampleStream creates a stream drawing from backend with config.
func NewSampleStream(backend Backend, config SampleConfig) *SampleStream {
	return &SampleStream{backend: backend, config: config}
}

// Config returns the sampling configuration the stream pulls with.
func (s *SampleStream) Config() SampleConfig {
	return s.config
}

// Next draws one sample.
func (s *SampleStream) Next(ctx context.Context) (*Sample, error) {
	config := s.config
	return s.backend.GetNext(ctx, &config)
}

// Take pulls n samples, stopping at the first error.
func (s *SampleStream) Take(ctx context.Context, n int) ([]*Sample, error) {
	samples := make([]*Sample, 0, n)
	for i := 0; i < n; i++ {
		sample, err := s.Next(ctx)
		if err != nil {
			return samples, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}
