package policy

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/cartridge/replay/internal/spec"
)

// RandomOptions bounds the values a RandomPolicy draws.
type RandomOptions struct {
	// Float leaves are uniform in [Low, High].
	Low, High float64
	// Integer leaves are uniform in [0, IntLimit). Uint8 leaves are capped
	// at 256.
	IntLimit int
}

// RandomPolicy fills every leaf with uniform random values
type RandomPolicy struct {
	dataSpec spec.Spec
	options  RandomOptions

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom creates a new random policy for records shaped like dataSpec
func NewRandom(dataSpec spec.Spec, options RandomOptions, rng *rand.Rand) (*RandomPolicy, error) {
	if err := dataSpec.Validate(); err != nil {
		return nil, err
	}
	if options.High < options.Low {
		return nil, fmt.Errorf("random policy bounds inverted: [%g, %g]", options.Low, options.High)
	}
	if options.IntLimit <= 0 {
		return nil, fmt.Errorf("random policy int limit must be positive, got %d", options.IntLimit)
	}
	return &RandomPolicy{dataSpec: dataSpec, options: options, rng: rng}, nil
}

// Step implements Policy interface
func (p *RandomPolicy) Step(int) (spec.Record, error) {
	rec := spec.Zero(p.dataSpec)

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, t := range rec {
		t.Fill(p.sampler(t.DType))
	}
	return rec, nil
}

func (p *RandomPolicy) sampler(dtype spec.DType) func(int) float64 {
	switch dtype {
	case spec.Float32, spec.Float64:
		low, high := p.options.Low, p.options.High
		return func(int) float64 { return low + p.rng.Float64()*(high-low) }
	case spec.Uint8:
		n := p.options.IntLimit
		if n > 256 {
			n = 256
		}
		return func(int) float64 { return float64(p.rng.Intn(n)) }
	case spec.Bool:
		return func(int) float64 { return float64(p.rng.Intn(2)) }
	default:
		n := p.options.IntLimit
		return func(int) float64 { return float64(p.rng.Intn(n)) }
	}
}
