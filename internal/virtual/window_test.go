package virtual

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWindow_VisibleRowsIncludesPartialRows(t *testing.T) {
	w := NewWindow(100, 10, 3)
	w.SetScrollOffset(4)

	rows := w.VisibleRows()
	require.Equal(t, 1, rows[0].Index, "offset 4 cuts into row 1 (rows are 3 high)")
	require.Equal(t, 4, rows[len(rows)-1].Index, "offset 4 + height 10 reaches into row 4")
}

func TestWindow_ScrollClamping(t *testing.T) {
	w := NewWindow(10, 5, 1)

	w.SetScrollOffset(-3)
	require.Equal(t, 0, w.ScrollOffset())
	require.True(t, w.AtTop())

	w.SetScrollOffset(999)
	require.Equal(t, 5, w.ScrollOffset(), "max offset is totalHeight - height")
	require.True(t, w.AtBottom())
}

func TestWindow_ShortContentNeverScrolls(t *testing.T) {
	w := NewWindow(3, 10, 1)
	w.ScrollBy(5)
	require.Equal(t, 0, w.ScrollOffset())
	require.Len(t, w.VisibleRows(), 3)
}

func TestWindow_SetRowCountClampsAfterShrink(t *testing.T) {
	w := NewWindow(100, 10, 1)
	w.SetScrollOffset(90)
	w.SetRowCount(20)
	require.Equal(t, 10, w.ScrollOffset())
}

func TestWindow_RowAt(t *testing.T) {
	w := NewWindow(5, 10, 2)

	g, ok := w.RowAt(0)
	require.True(t, ok)
	require.Equal(t, 0, g.Index)

	g, ok = w.RowAt(5)
	require.True(t, ok)
	require.Equal(t, 2, g.Index)
	require.Equal(t, 4, g.Start)
	require.Equal(t, 5, g.Midpoint())

	_, ok = w.RowAt(10)
	require.False(t, ok, "content is exactly 10 high; y=10 is past the end")
	_, ok = w.RowAt(-1)
	require.False(t, ok)
}

func TestWindow_EnsureVisible(t *testing.T) {
	w := NewWindow(50, 10, 1)

	w.EnsureVisible(30)
	require.Equal(t, 21, w.ScrollOffset(), "row 30 pulled to the bottom edge")

	w.EnsureVisible(5)
	require.Equal(t, 5, w.ScrollOffset(), "row 5 pulled to the top edge")

	before := w.ScrollOffset()
	w.EnsureVisible(8)
	require.Equal(t, before, w.ScrollOffset(), "already-visible row does not scroll")

	w.EnsureVisible(-1)
	w.EnsureVisible(999)
	require.Equal(t, before, w.ScrollOffset(), "out-of-range indices are ignored")
}

func TestWindow_EmptyContent(t *testing.T) {
	w := NewWindow(0, 10, 1)
	require.Empty(t, w.VisibleRows())
	require.Equal(t, 0, w.TotalHeight())
	require.True(t, w.AtTop())
	require.True(t, w.AtBottom())
}
