package policy

import (
	"fmt"
	"sync"

	"github.com/cartridge/replay/internal/spec"
)

// CounterPolicy writes row*Stride + step into every element, where step
// counts the calls made for that row. The output is deterministic, so
// sampled records can be traced back to the row and step that wrote them.
// Narrow integer leaves hold the value modulo their width; see Stored.
type CounterPolicy struct {
	dataSpec spec.Spec
	stride   int

	mu    sync.Mutex
	steps map[int]int
}

// DefaultStride separates rows in CounterPolicy values.
const DefaultStride = 1000

// NewCounter creates a counter policy for records shaped like dataSpec
func NewCounter(dataSpec spec.Spec, stride int) (*CounterPolicy, error) {
	if err := dataSpec.Validate(); err != nil {
		return nil, err
	}
	if stride <= 0 {
		return nil, fmt.Errorf("counter policy stride must be positive, got %d", stride)
	}
	return &CounterPolicy{dataSpec: dataSpec, stride: stride, steps: make(map[int]int)}, nil
}

// Step implements Policy interface
func (p *CounterPolicy) Step(row int) (spec.Record, error) {
	if row < 0 {
		return nil, fmt.Errorf("row must not be negative, got %d", row)
	}
	p.mu.Lock()
	step := p.steps[row]
	p.steps[row] = step + 1
	p.mu.Unlock()

	value := float64(Value(row, step, p.stride))
	rec := spec.Zero(p.dataSpec)
	for _, t := range rec {
		t.Fill(func(int) float64 { return value })
	}
	return rec, nil
}

// Value is the element a CounterPolicy writes for row at step.
func Value(row, step, stride int) int {
	return row*stride + step
}

// Stored is Value as it reads back from a leaf of the given dtype.
func Stored(dtype spec.DType, row, step, stride int) int64 {
	v := int64(Value(row, step, stride))
	switch dtype {
	case spec.Uint8:
		return int64(uint8(v))
	case spec.Int32:
		return int64(int32(v))
	case spec.Bool:
		if v != 0 {
			return 1
		}
		return 0
	}
	return v
}
