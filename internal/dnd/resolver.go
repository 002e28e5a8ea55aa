package dnd

import (
	"github.com/zjrosen/splitdeck/internal/collection"
	"github.com/zjrosen/splitdeck/internal/virtual"
)

// DropPosition is a resolved insertion point: the index within the
// panel's rendered (filtered) list, and the corresponding position in
// the collection's global ordering.
type DropPosition struct {
	FilteredIndex  int
	GlobalPosition int
}

// Resolve maps a pointer's screen Y coordinate to an insertion point
// inside a windowed panel list. Pure function; it runs on every
// pointer-move frame and must never panic on malformed geometry.
//
// A pointer exactly at a row's midpoint inserts after that row, so the
// winning row is the first whose midpoint lies strictly below the
// pointer. A pointer past the last row's midpoint inserts at the end.
func Resolve(pointerY int, container virtual.Rect, scrollTop int, rows []virtual.RowGeometry, items []collection.Row) DropPosition {
	if len(items) == 0 {
		return DropPosition{FilteredIndex: 0, GlobalPosition: 0}
	}

	relativeY := pointerY - container.Y + scrollTop

	filteredIndex := len(items)
	for _, row := range rows {
		if row.Midpoint() > relativeY {
			filteredIndex = row.Index
			break
		}
	}
	if filteredIndex > len(items) {
		filteredIndex = len(items)
	}
	if filteredIndex < 0 {
		filteredIndex = 0
	}

	return DropPosition{
		FilteredIndex:  filteredIndex,
		GlobalPosition: globalPosition(items, filteredIndex),
	}
}

// globalPosition maps a filtered-list insertion index onto the
// unfiltered collection. Items carrying no explicit position degrade to
// index-based mapping.
func globalPosition(items []collection.Row, filteredIndex int) int {
	if filteredIndex < len(items) {
		if pos := items[filteredIndex].Position; pos != collection.NoPosition {
			return pos
		}
		return filteredIndex
	}
	if last := items[len(items)-1].Position; last != collection.NoPosition {
		return last + 1
	}
	return len(items)
}
