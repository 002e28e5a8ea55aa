// Package dnd coordinates the drag-and-drop lifecycle: payload capture,
// pointer-to-insertion-index resolution against windowed panel lists,
// and the move/copy/reorder decision on drop.
package dnd

import (
	"github.com/zjrosen/splitdeck/internal/collection"
	"github.com/zjrosen/splitdeck/internal/panel"
)

// Payload is the closed set of things a drag can carry. Matched
// exhaustively at drop time.
type Payload interface {
	// Keys returns the selection keys in source-position order.
	Keys() []panel.SelectionKey
	// Items returns the dragged items in source-position order,
	// parallel to Keys.
	Items() []collection.Item
	isPayload()
}

// SingleItem is one dragged row.
type SingleItem struct {
	Key  panel.SelectionKey
	Item collection.Item
}

func (p SingleItem) Keys() []panel.SelectionKey { return []panel.SelectionKey{p.Key} }
func (p SingleItem) Items() []collection.Item   { return []collection.Item{p.Item} }
func (p SingleItem) isPayload()                 {}

// SelectionBatch is a multi-selection drag. SelectionKeys and Rows are
// parallel slices sorted ascending by source position.
type SelectionBatch struct {
	SelectionKeys []panel.SelectionKey
	Rows          []collection.Item
}

func (p SelectionBatch) Keys() []panel.SelectionKey { return p.SelectionKeys }
func (p SelectionBatch) Items() []collection.Item   { return p.Rows }
func (p SelectionBatch) isPayload()                 {}
