package storage

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/cartridge/replay/internal/spec"
)

// UniformBuffer is an in-memory replay buffer with batchSize parallel rows,
// each a ring of capacity slots, sampled uniformly with replacement.
type UniformBuffer struct {
	mu         sync.RWMutex
	dataSpec   spec.Spec
	leaves     []spec.TensorSpec
	batchSize  int
	capacity   int
	table      *table
	cursor     *rowCursor
	totalAdded uint64
	closed     bool

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a UniformBuffer.
type Option func(*UniformBuffer)

// WithRand sets the random source used for sampling.
func WithRand(rng *rand.Rand) Option {
	return func(b *UniformBuffer) {
		b.rng = rng
	}
}

// NewUniformBuffer creates a buffer for records shaped like dataSpec.
// capacity == Unbounded keeps every record ever added.
func NewUniformBuffer(dataSpec spec.Spec, batchSize, capacity int, opts ...Option) (*UniformBuffer, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d", ErrConfig, batchSize)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("%w: capacity must be positive or unbounded, got %d", ErrConfig, capacity)
	}
	if err := dataSpec.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	slots := capacity
	if capacity == Unbounded {
		slots = initialUnboundedSlots
	}
	leaves := dataSpec.Flatten()

	b := &UniformBuffer{
		dataSpec:  dataSpec,
		leaves:    leaves,
		batchSize: batchSize,
		capacity:  capacity,
		table:     newTable(leaves, batchSize, slots),
		cursor:    newRowCursor(batchSize, capacity),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// DataSpec implements Backend.DataSpec
func (b *UniformBuffer) DataSpec() spec.Spec {
	return b.dataSpec
}

// BatchSize implements Backend.BatchSize
func (b *UniformBuffer) BatchSize() int {
	return b.batchSize
}

// Capacity implements Backend.Capacity
func (b *UniformBuffer) Capacity() int {
	return b.capacity
}

// AddBatch implements Backend.AddBatch
func (b *UniformBuffer) AddBatch(ctx context.Context, items spec.Record) error {
	_, err := b.Append(ctx, items)
	return err
}

// Append implements Backend.Append. Every row's slot is written before
// any cursor advances, and a rejected batch leaves the buffer untouched.
func (b *UniformBuffer) Append(ctx context.Context, items spec.Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}
	if err := spec.CheckRecord(b.dataSpec, items, b.batchSize); err != nil {
		return -1, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return -1, ErrClosed
	}

	// Rows advance in lockstep, so row 0 speaks for all of them.
	id := b.cursor.next(0)
	if b.capacity == Unbounded {
		b.table.ensure(int(id) + 1)
	}
	col := b.cursor.slot(id)
	for r := 0; r < b.batchSize; r++ {
		b.table.writeRow(items, r, col)
	}
	b.cursor.advance()
	b.totalAdded += uint64(b.batchSize)

	return id, nil
}

// GetNext implements Backend.GetNext
func (b *UniformBuffer) GetNext(ctx context.Context, config *SampleConfig) (*Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if config == nil {
		config = &SampleConfig{}
	}
	numSteps := config.numSteps()
	if numSteps < 0 || config.BatchSize < 0 {
		return nil, fmt.Errorf("%w: sample batch size %d and num steps %d must not be negative",
			ErrConfig, config.BatchSize, config.NumSteps)
	}
	if config.BatchSize > MaxSampleBatchSize {
		return nil, fmt.Errorf("%w: sample batch size %d exceeds %d", ErrConfig, config.BatchSize, MaxSampleBatchSize)
	}
	if config.Row != nil && (*config.Row < 0 || *config.Row >= b.batchSize) {
		return nil, fmt.Errorf("%w: row %d outside [0, %d)", ErrOutOfRange, *config.Row, b.batchSize)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	for r := 0; r < b.batchSize; r++ {
		if valid := b.cursor.validCount(r); valid < int64(numSteps) {
			if valid == 0 {
				return nil, fmt.Errorf("%w: add items before sampling", ErrEmptyBuffer)
			}
			return nil, fmt.Errorf("%w: row %d holds %d steps, window needs %d",
				ErrEmptyBuffer, r, valid, numSteps)
		}
	}

	draws := config.BatchSize
	if draws == 0 {
		draws = 1
	}
	rows, ids := b.draw(draws, numSteps, config.Row)

	info := BufferInfo{
		IDs:           ids,
		Rows:          rows,
		Probabilities: make([]float64, draws),
	}
	for i, row := range rows {
		info.Probabilities[i] = b.probability(row, numSteps, config.Row != nil)
	}

	return &Sample{
		Items: b.collect(rows, ids, numSteps, config.BatchSize > 0, !config.Unstacked),
		Info:  info,
	}, nil
}

// draw picks n (row, start id) pairs independently. Each row is equally
// likely unless pinned; each start is uniform over the row's window.
func (b *UniformBuffer) draw(n, numSteps int, pinned *int) ([]int, []int64) {
	rows := make([]int, n)
	ids := make([]int64, n)

	b.rngMu.Lock()
	defer b.rngMu.Unlock()

	for i := 0; i < n; i++ {
		var row int
		if pinned != nil {
			row = *pinned
		} else {
			row = b.rng.Intn(b.batchSize)
		}
		window := b.window(row, numSteps)
		rows[i] = row
		ids[i] = b.cursor.earliest(row) + b.rng.Int63n(window)
	}
	return rows, ids
}

// window is the number of valid start ids for a numSteps-long draw.
func (b *UniformBuffer) window(row, numSteps int) int64 {
	return b.cursor.validCount(row) - int64(numSteps) + 1
}

func (b *UniformBuffer) probability(row, numSteps int, pinned bool) float64 {
	w := float64(b.window(row, numSteps))
	if pinned {
		return 1 / w
	}
	return 1 / (float64(b.batchSize) * w)
}

// collect copies the drawn windows out of the table into fresh tensors.
func (b *UniformBuffer) collect(rows []int, ids []int64, numSteps int, batched, stacked bool) []spec.Record {
	if numSteps == 1 || stacked {
		var lead []int
		if batched {
			lead = append(lead, len(rows))
		}
		if numSteps > 1 {
			lead = append(lead, numSteps)
		}
		rec := b.allocate(lead)
		for i := range rows {
			for k := 0; k < numSteps; k++ {
				b.copyInto(rec, i*numSteps+k, rows[i], ids[i]+int64(k))
			}
		}
		return []spec.Record{rec}
	}

	var lead []int
	if batched {
		lead = []int{len(rows)}
	}
	items := make([]spec.Record, numSteps)
	for k := range items {
		rec := b.allocate(lead)
		for i := range rows {
			b.copyInto(rec, i, rows[i], ids[i]+int64(k))
		}
		items[k] = rec
	}
	return items
}

func (b *UniformBuffer) allocate(lead []int) spec.Record {
	rec := make(spec.Record, len(b.leaves))
	for l, leaf := range b.leaves {
		shape := append(append([]int{}, lead...), leaf.Shape...)
		rec[l] = spec.Zeros(leaf.DType, shape...)
	}
	return rec
}

// copyInto writes the record with the given id in row into position pos of
// every leaf of dst, where positions index the flattened leading dims.
func (b *UniformBuffer) copyInto(dst spec.Record, pos, row int, id int64) {
	col := b.cursor.slot(id)
	for l := range b.leaves {
		stride := b.table.strides[l]
		b.table.copySlot(l, row, col, dst[l].Data[pos*stride:(pos+1)*stride])
	}
}

// GatherAll implements Backend.GatherAll
func (b *UniformBuffer) GatherAll(ctx context.Context) (spec.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	valid := int(b.cursor.validCount(0))
	rec := b.allocate([]int{b.batchSize, valid})
	for r := 0; r < b.batchSize; r++ {
		first := b.cursor.earliest(r)
		for k := 0; k < valid; k++ {
			b.copyInto(rec, r*valid+k, r, first+int64(k))
		}
	}
	return rec, nil
}

// Get implements Backend.Get
func (b *UniformBuffer) Get(ctx context.Context, row int, id int64) (spec.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}
	if row < 0 || row >= b.batchSize {
		return nil, fmt.Errorf("%w: row %d outside [0, %d)", ErrOutOfRange, row, b.batchSize)
	}
	if !b.cursor.contains(row, id) {
		return nil, fmt.Errorf("%w: id %d outside valid window [%d, %d] of row %d",
			ErrOutOfRange, id, b.cursor.earliest(row), b.cursor.last(row), row)
	}
	return b.table.slot(row, b.cursor.slot(id)), nil
}

// Clear implements Backend.Clear
func (b *UniformBuffer) Clear(ctx context.Context, clearAllVariables bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}

	b.cursor.reset()
	if clearAllVariables {
		b.table.zero()
	}
	return nil
}

// Stats implements Backend.Stats
func (b *UniformBuffer) Stats(ctx context.Context) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, ErrClosed
	}

	stats := &Stats{
		BatchSize:    b.batchSize,
		Capacity:     b.capacity,
		ValidCounts:  make([]int, b.batchSize),
		LastIDs:      make([]int64, b.batchSize),
		TotalAdded:   b.totalAdded,
		StorageBytes: b.table.bytes(),
	}
	for r := 0; r < b.batchSize; r++ {
		stats.ValidCounts[r] = int(b.cursor.validCount(r))
		stats.LastIDs[r] = b.cursor.last(r)
	}
	return stats, nil
}

// Stream returns a SampleStream drawing from b with config.
func (b *UniformBuffer) Stream(config SampleConfig) *SampleStream {
	return NewSampleStream(b, config)
}

// Close implements Backend.Close
func (b *UniformBuffer) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	b.table = nil
	b.cursor = nil

	return nil
}
