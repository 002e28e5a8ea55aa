// Package virtual implements windowed rendering geometry for panel item
// lists. Only rows inside the window are materialized per frame, so a
// panel over a large collection renders in O(visible) instead of O(n).
package virtual

// RowGeometry describes one rendered row in content coordinates.
type RowGeometry struct {
	// Index is the row's position in the rendered (possibly filtered)
	// list, not the collection's global position.
	Index int
	// Start is the row's top edge in content coordinates, before the
	// scroll offset is subtracted.
	Start int
	// Size is the row's height.
	Size int
}

// Midpoint returns the vertical center of the row.
func (g RowGeometry) Midpoint() int {
	return g.Start + g.Size/2
}

// Window owns the scroll state of one panel's list. All rows share one
// fixed height, which keeps geometry arithmetic O(1) per row.
type Window struct {
	scrollOffset int // content coordinates, top of the visible area
	height       int // viewport height
	rowHeight    int
	rowCount     int
}

// DefaultRowHeight matches the single-line row rendering.
const DefaultRowHeight = 1

// NewWindow creates a window over rowCount rows. A rowHeight below 1 is
// coerced to DefaultRowHeight.
func NewWindow(rowCount, height, rowHeight int) *Window {
	if rowHeight < 1 {
		rowHeight = DefaultRowHeight
	}
	if height < 0 {
		height = 0
	}
	if rowCount < 0 {
		rowCount = 0
	}
	w := &Window{height: height, rowHeight: rowHeight, rowCount: rowCount}
	w.clampScrollOffset()
	return w
}

// SetRowCount updates the number of rows, clamping the scroll offset in
// case the content shrunk.
func (w *Window) SetRowCount(n int) {
	if n < 0 {
		n = 0
	}
	w.rowCount = n
	w.clampScrollOffset()
}

// SetHeight updates the viewport height.
func (w *Window) SetHeight(h int) {
	if h < 0 {
		h = 0
	}
	w.height = h
	w.clampScrollOffset()
}

// RowCount returns the number of rows.
func (w *Window) RowCount() int { return w.rowCount }

// Height returns the viewport height.
func (w *Window) Height() int { return w.height }

// RowHeight returns the fixed per-row height.
func (w *Window) RowHeight() int { return w.rowHeight }

// TotalHeight returns the full content height.
func (w *Window) TotalHeight() int { return w.rowCount * w.rowHeight }

// ScrollOffset returns the current scroll offset in content coordinates.
func (w *Window) ScrollOffset() int { return w.scrollOffset }

// SetScrollOffset sets the scroll offset, clamped to the valid range.
func (w *Window) SetScrollOffset(offset int) {
	w.scrollOffset = offset
	w.clampScrollOffset()
}

// ScrollBy moves the window by delta rows (positive scrolls down).
func (w *Window) ScrollBy(rows int) {
	w.SetScrollOffset(w.scrollOffset + rows*w.rowHeight)
}

func (w *Window) maxScrollOffset() int {
	m := w.TotalHeight() - w.height
	if m < 0 {
		return 0
	}
	return m
}

func (w *Window) clampScrollOffset() {
	if w.scrollOffset < 0 {
		w.scrollOffset = 0
	}
	if m := w.maxScrollOffset(); w.scrollOffset > m {
		w.scrollOffset = m
	}
}

// AtTop reports whether the window shows the first row.
func (w *Window) AtTop() bool { return w.scrollOffset == 0 }

// AtBottom reports whether the window shows the last row.
func (w *Window) AtBottom() bool { return w.scrollOffset >= w.maxScrollOffset() }

// VisibleRows returns the geometry of every row intersecting the
// window, in order. Rows partially cut off at either edge are included.
func (w *Window) VisibleRows() []RowGeometry {
	if w.rowCount == 0 || w.height == 0 {
		return nil
	}
	first := w.scrollOffset / w.rowHeight
	last := (w.scrollOffset + w.height - 1) / w.rowHeight
	if last >= w.rowCount {
		last = w.rowCount - 1
	}
	rows := make([]RowGeometry, 0, last-first+1)
	for i := first; i <= last; i++ {
		rows = append(rows, RowGeometry{Index: i, Start: i * w.rowHeight, Size: w.rowHeight})
	}
	return rows
}

// RowAt returns the geometry of the row covering the given content-space
// Y coordinate, or false when it falls outside the content.
func (w *Window) RowAt(contentY int) (RowGeometry, bool) {
	if contentY < 0 || contentY >= w.TotalHeight() {
		return RowGeometry{}, false
	}
	i := contentY / w.rowHeight
	return RowGeometry{Index: i, Start: i * w.rowHeight, Size: w.rowHeight}, true
}

// EnsureVisible scrolls the minimum distance needed to bring a row fully
// into the window.
func (w *Window) EnsureVisible(index int) {
	if index < 0 || index >= w.rowCount {
		return
	}
	top := index * w.rowHeight
	bottom := top + w.rowHeight
	if top < w.scrollOffset {
		w.SetScrollOffset(top)
	} else if bottom > w.scrollOffset+w.height {
		w.SetScrollOffset(bottom - w.height)
	}
}
