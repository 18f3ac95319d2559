package storage

import (
	"github.com/cartridge/replay/internal/spec"
)

// initialUnboundedSlots is the per-row slot count an unbounded table
// starts with before it doubles.
const initialUnboundedSlots = 64

// table is a rows x slots arena. Each leaf of the data spec owns one
// contiguous byte column; slot (r, c) of leaf l lives at
// ((r*slots)+c)*strides[l].
type table struct {
	leaves  []spec.TensorSpec
	strides []int
	rows    int
	slots   int
	columns [][]byte
}

func newTable(leaves []spec.TensorSpec, rows, slots int) *table {
	t := &table{
		leaves:  leaves,
		strides: make([]int, len(leaves)),
		rows:    rows,
		slots:   slots,
		columns: make([][]byte, len(leaves)),
	}
	for l, leaf := range leaves {
		t.strides[l] = leaf.ByteSize()
		t.columns[l] = make([]byte, rows*slots*t.strides[l])
	}
	return t
}

func (t *table) offset(leaf, row, col int) int {
	return (row*t.slots + col) * t.strides[leaf]
}

// writeRow copies row r of a batched record (leading axis = rows) into
// slot (r, col). The whole slot is overwritten.
func (t *table) writeRow(batch spec.Record, row, col int) {
	for l, stride := range t.strides {
		src := batch[l].Data[row*stride : (row+1)*stride]
		off := t.offset(l, row, col)
		copy(t.columns[l][off:off+stride], src)
	}
}

// copySlot copies leaf l of slot (row, col) into dst.
func (t *table) copySlot(leaf, row, col int, dst []byte) {
	off := t.offset(leaf, row, col)
	copy(dst, t.columns[leaf][off:off+t.strides[leaf]])
}

// slot returns a copy of the record held at (row, col).
func (t *table) slot(row, col int) spec.Record {
	rec := make(spec.Record, len(t.leaves))
	for l, leaf := range t.leaves {
		out := spec.Zeros(leaf.DType, leaf.Shape...)
		t.copySlot(l, row, col, out.Data)
		rec[l] = out
	}
	return rec
}

// ensure grows the table so every row holds at least n slots. Rows are
// copied into their new positions; existing columns keep their index.
func (t *table) ensure(n int) {
	if n <= t.slots {
		return
	}
	slots := t.slots
	if slots == 0 {
		slots = initialUnboundedSlots
	}
	for slots < n {
		slots *= 2
	}
	for l, stride := range t.strides {
		grown := make([]byte, t.rows*slots*stride)
		rowBytes := t.slots * stride
		for r := 0; r < t.rows; r++ {
			copy(grown[r*slots*stride:], t.columns[l][r*rowBytes:(r+1)*rowBytes])
		}
		t.columns[l] = grown
	}
	t.slots = slots
}

// zero overwrites every slot with the default record.
func (t *table) zero() {
	for _, column := range t.columns {
		clear(column)
	}
}

func (t *table) bytes() uint64 {
	var total uint64
	for _, column := range t.columns {
		total += uint64(len(column))
	}
	return total
}
