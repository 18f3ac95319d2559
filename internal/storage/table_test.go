package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cartridge/replay/internal/spec"
)

func TestRowCursor_Window(t *testing.T) {
	c := newRowCursor(2, 4)
	assert.Equal(t, int64(-1), c.last(0))
	assert.Equal(t, int64(0), c.validCount(0))
	assert.Equal(t, int64(0), c.earliest(0))
	assert.False(t, c.contains(0, 0))

	for i := 0; i < 6; i++ {
		c.advance()
	}
	assert.Equal(t, int64(5), c.last(1))
	assert.Equal(t, int64(4), c.validCount(1))
	assert.Equal(t, int64(2), c.earliest(1))
	assert.True(t, c.contains(1, 2))
	assert.False(t, c.contains(1, 1))
	assert.Equal(t, 1, c.slot(5))

	c.reset()
	assert.Equal(t, int64(-1), c.last(1))
}

func TestRowCursor_Unbounded(t *testing.T) {
	c := newRowCursor(1, Unbounded)
	for i := 0; i < 100; i++ {
		c.advance()
	}
	assert.Equal(t, int64(100), c.validCount(0))
	assert.Equal(t, int64(0), c.earliest(0))
	assert.Equal(t, 99, c.slot(99))
}

func TestTable_EnsureKeepsRows(t *testing.T) {
	leaves := spec.Leaf("x", spec.Int64, 2).Flatten()
	tbl := newTable(leaves, 2, 2)

	batch := spec.Record{spec.FromInt64s([]int{2, 2}, []int64{1, 2, 3, 4})}
	tbl.writeRow(batch, 0, 1)
	tbl.writeRow(batch, 1, 1)

	tbl.ensure(3)
	assert.Equal(t, 4, tbl.slots)
	assert.Equal(t, []int64{1, 2}, tbl.slot(0, 1)[0].Int64s())
	assert.Equal(t, []int64{3, 4}, tbl.slot(1, 1)[0].Int64s())
	assert.Equal(t, []int64{0, 0}, tbl.slot(1, 3)[0].Int64s())
	assert.Equal(t, uint64(2*4*16), tbl.bytes())

	tbl.zero()
	assert.Equal(t, []int64{0, 0}, tbl.slot(0, 1)[0].Int64s())
}
