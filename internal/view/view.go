// Package view projects a flattened row list onto a fixed-height window and
// keeps a cursor row visible while it moves.
package view

// Window tracks the cursor row and scroll offset over a list of rows.
type Window struct {
	rows     int
	capacity int
	offset   int
	cursor   int
}

// New returns a window over rows with room for capacity rows.
func New(rows, capacity int) *Window {
	w := &Window{}
	w.Resize(capacity)
	w.SetRows(rows)
	return w
}

// Rows returns the total number of rows.
func (w *Window) Rows() int { return w.rows }

// Capacity returns the number of visible rows.
func (w *Window) Capacity() int { return w.capacity }

// Offset returns the index of the first visible row.
func (w *Window) Offset() int { return w.offset }

// Cursor returns the selected row, or 0 when there are no rows.
func (w *Window) Cursor() int { return w.cursor }

// Range returns the half-open visible interval [start, end).
func (w *Window) Range() (start, end int) {
	end = w.offset + w.capacity
	if end > w.rows {
		end = w.rows
	}
	return w.offset, end
}

// SetRows changes the row count, re-clamping the cursor and offset.
func (w *Window) SetRows(rows int) {
	if rows < 0 {
		rows = 0
	}
	w.rows = rows
	w.cursor = clamp(w.cursor, 0, max(rows-1, 0))
	w.clampOffset()
	w.follow()
}

// Resize changes the capacity. The cursor row is kept.
func (w *Window) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	w.capacity = capacity
	w.clampOffset()
	w.follow()
}

// Reset moves the cursor and offset back to the first row.
func (w *Window) Reset() {
	w.cursor = 0
	w.offset = 0
}

// Up moves the cursor one row up. It reports whether the cursor moved.
func (w *Window) Up() bool { return w.MoveTo(w.cursor - 1) }

// Down moves the cursor one row down.
func (w *Window) Down() bool { return w.MoveTo(w.cursor + 1) }

// First moves the cursor to the first row.
func (w *Window) First() bool { return w.MoveTo(0) }

// Last moves the cursor to the last row.
func (w *Window) Last() bool { return w.MoveTo(w.rows - 1) }

// PageUp moves the cursor one window up.
func (w *Window) PageUp() bool { return w.MoveTo(w.cursor - w.capacity) }

// PageDown moves the cursor one window down.
func (w *Window) PageDown() bool { return w.MoveTo(w.cursor + w.capacity) }

// MoveTo places the cursor on row i (clamped) and scrolls the minimum amount
// needed to keep it visible.
func (w *Window) MoveTo(i int) bool {
	if w.rows == 0 {
		return false
	}
	i = clamp(i, 0, w.rows-1)
	if i == w.cursor {
		return false
	}
	w.cursor = i
	w.follow()
	return true
}

func (w *Window) follow() {
	if w.cursor < w.offset {
		w.offset = w.cursor
	}
	if w.cursor >= w.offset+w.capacity {
		w.offset = w.cursor - w.capacity + 1
	}
}

func (w *Window) clampOffset() {
	w.offset = clamp(w.offset, 0, max(w.rows-w.capacity, 0))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
