package storage

import (
	"context"

	"github.com/cartridge/replay/internal/spec"
)

// Unbounded is the capacity value for a buffer whose rows never wrap.
const Unbounded = 0

// MaxSampleBatchSize is the largest BatchSize GetNext accepts.
const MaxSampleBatchSize = 1 << 20

// SampleConfig defines parameters for drawing from a buffer
type SampleConfig struct {
	// BatchSize is the number of independent draws. Zero means a single
	// unbatched draw whose outputs carry no sample axis.
	BatchSize int
	// NumSteps is the length of each contiguous window. Zero means 1.
	NumSteps int
	// Unstacked returns the steps of a window as separate records. By
	// default they are stacked along a step axis after the sample axis.
	Unstacked bool
	// Row pins every draw to one row.
	Row *int
}

func (c *SampleConfig) numSteps() int {
	if c == nil || c.NumSteps == 0 {
		return 1
	}
	return c.NumSteps
}

// BufferInfo pairs each draw with its starting id and the probability it
// had of being drawn.
type BufferInfo struct {
	IDs           []int64   `json:"ids" cbor:"1,keyasint"`
	Rows          []int     `json:"rows" cbor:"2,keyasint"`
	Probabilities []float64 `json:"probabilities" cbor:"3,keyasint"`
}

// Sample is the result of one GetNext call.
//
// Unless Unstacked is set with NumSteps > 1, Items holds one record whose leaves
// are shaped [BatchSize]? [NumSteps if > 1]? + leaf shape. Otherwise Items
// holds NumSteps records, one per step of the window, each shaped
// [BatchSize]? + leaf shape.
type Sample struct {
	Items []spec.Record
	Info  BufferInfo
}

// Stats represents replay buffer statistics
type Stats struct {
	BatchSize    int
	Capacity     int
	ValidCounts  []int
	LastIDs      []int64
	TotalAdded   uint64
	StorageBytes uint64
}

// ValidCount returns the common per-row valid count.
func (s *Stats) ValidCount() int {
	if len(s.ValidCounts) == 0 {
		return 0
	}
	return s.ValidCounts[0]
}

// Backend defines the interface for replay buffer storage implementations
type Backend interface {
	// DataSpec returns the structure of one step record.
	DataSpec() spec.Spec

	// BatchSize returns the number of rows written per AddBatch.
	BatchSize() int

	// Capacity returns the per-row ring size, or Unbounded.
	Capacity() int

	// AddBatch appends one record to every row.
	AddBatch(ctx context.Context, items spec.Record) error

	// Append is AddBatch that also returns the id the batch was written at.
	Append(ctx context.Context, items spec.Record) (int64, error)

	// GetNext draws a sample according to the given configuration
	GetNext(ctx context.Context, config *SampleConfig) (*Sample, error)

	// GatherAll returns every valid record, shaped [rows, valid] + leaf shape.
	GatherAll(ctx context.Context) (spec.Record, error)

	// Get returns the record stored at id in row.
	Get(ctx context.Context, row int, id int64) (spec.Record, error)

	// Clear empties the buffer. clearAllVariables also zeroes storage.
	Clear(ctx context.Context, clearAllVariables bool) error

	// Get buffer statistics
	Stats(ctx context.Context) (*Stats, error)

	// Close the backend and cleanup resources
	Close() error
}
