package storage

// rowCursor tracks, per row, the id of the last record ever written.
// Ids are monotonic and independent of the physical slot they land in;
// -1 marks an empty row.
type rowCursor struct {
	lastID   []int64
	capacity int64 // Unbounded disables wraparound arithmetic
}

func newRowCursor(rows, capacity int) *rowCursor {
	c := &rowCursor{
		lastID:   make([]int64, rows),
		capacity: int64(capacity),
	}
	c.reset()
	return c
}

func (c *rowCursor) last(row int) int64 {
	return c.lastID[row]
}

// validCount is min(last+1, capacity).
func (c *rowCursor) validCount(row int) int64 {
	n := c.lastID[row] + 1
	if c.capacity != Unbounded && n > c.capacity {
		return c.capacity
	}
	return n
}

// earliest is max(0, last-capacity+1).
func (c *rowCursor) earliest(row int) int64 {
	if c.capacity == Unbounded {
		return 0
	}
	first := c.lastID[row] - c.capacity + 1
	if first < 0 {
		return 0
	}
	return first
}

// contains reports whether id lies in row's valid window.
func (c *rowCursor) contains(row int, id int64) bool {
	return id >= c.earliest(row) && id <= c.lastID[row]
}

// next returns the id the next write to row will receive.
func (c *rowCursor) next(row int) int64 {
	return c.lastID[row] + 1
}

// advance publishes one new id on every row.
func (c *rowCursor) advance() {
	for r := range c.lastID {
		c.lastID[r]++
	}
}

func (c *rowCursor) reset() {
	for r := range c.lastID {
		c.lastID[r] = -1
	}
}

func (c *rowCursor) rows() int {
	return len(c.lastID)
}

// slot maps a logical id to its physical column.
func (c *rowCursor) slot(id int64) int {
	if c.capacity == Unbounded {
		return int(id)
	}
	return int(id % c.capacity)
}
