// Package marker implements insertion points: user-pinned indices within
// a collection used for batched multi-position inserts. The store owns
// the index-shifting arithmetic that keeps markers valid after inserts
// and removals.
package marker

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/splitdeck/internal/log"
)

// Marker is one pinned insertion index within a collection.
type Marker struct {
	ID        string
	Index     int
	CreatedAt time.Time
}

// Store holds insertion points per collection, sorted ascending by
// index. At most one marker exists per (collection, index) pair.
type Store struct {
	mu      sync.RWMutex
	markers map[string][]Marker
	now     func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		markers: make(map[string][]Marker),
		now:     time.Now,
	}
}

// Mark pins an insertion point. Marking an already-marked index is a
// no-op; negative indices are refused.
func (s *Store) Mark(collectionID string, index int) bool {
	if index < 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.markers[collectionID]
	for _, m := range existing {
		if m.Index == index {
			return false
		}
	}
	existing = append(existing, Marker{
		ID:        uuid.NewString(),
		Index:     index,
		CreatedAt: s.now(),
	})
	sort.Slice(existing, func(i, j int) bool { return existing[i].Index < existing[j].Index })
	s.markers[collectionID] = existing
	log.Debug(log.CatMarker, "marker set", "collection", collectionID, "index", index)
	return true
}

// Unmark removes the insertion point at index. Unmarking an absent index
// is a no-op.
func (s *Store) Unmark(collectionID string, index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.markers[collectionID]
	for i, m := range existing {
		if m.Index == index {
			s.markers[collectionID] = append(existing[:i:i], existing[i+1:]...)
			return true
		}
	}
	return false
}

// Toggle marks the index when absent and unmarks it when present.
func (s *Store) Toggle(collectionID string, index int) {
	if !s.Unmark(collectionID, index) {
		s.Mark(collectionID, index)
	}
}

// IsMarked reports whether an insertion point exists at index.
func (s *Store) IsMarked(collectionID string, index int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.markers[collectionID] {
		if m.Index == index {
			return true
		}
	}
	return false
}

// Markers returns the collection's markers sorted ascending by index.
func (s *Store) Markers(collectionID string) []Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Marker, len(s.markers[collectionID]))
	copy(out, s.markers[collectionID])
	return out
}

// Clear drops every marker of a collection.
func (s *Store) Clear(collectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, collectionID)
}

// AdjustIndices shifts every marker at or after changeIndex by delta,
// modelling a remote insert (positive delta) or removal (negative). A
// marker pushed negative no longer corresponds to any valid position and
// is dropped.
func (s *Store) AdjustIndices(collectionID string, changeIndex, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.markers[collectionID]
	adjusted := existing[:0]
	for _, m := range existing {
		if m.Index >= changeIndex {
			m.Index += delta
		}
		if m.Index < 0 {
			log.Debug(log.CatMarker, "marker invalidated by removal",
				"collection", collectionID, "marker", m.ID)
			continue
		}
		adjusted = append(adjusted, m)
	}
	sort.Slice(adjusted, func(i, j int) bool { return adjusted[i].Index < adjusted[j].Index })
	s.markers[collectionID] = adjusted
}

// ShiftAfterMultiInsert updates the markers after one item was inserted
// at each of them, lowest index first. The marker at sorted position i
// has been pushed forward by the i insertions below it plus its own:
// [m0, m1, ..., mn] becomes [m0+1, m1+2, ..., mn+(n+1)].
func (s *Store) ShiftAfterMultiInsert(collectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.markers[collectionID]
	for i := range existing {
		existing[i].Index += i + 1
	}
}

// ComputeInsertionPositions returns, for each marker in ascending index
// order, the effective insertion index for a batch of itemCount items
// inserted at every marker. Each remote insert shifts the absolute
// indices of all subsequent inserts in the batch, so the i-th marker's
// effective index is marker.Index + itemCount*i. Computed up front,
// before any remote call is issued.
func ComputeInsertionPositions(markers []Marker, itemCount int) []int {
	if itemCount < 0 {
		itemCount = 0
	}
	sorted := make([]Marker, len(markers))
	copy(sorted, markers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	positions := make([]int, len(sorted))
	for i, m := range sorted {
		positions[i] = m.Index + itemCount*i
	}
	return positions
}
