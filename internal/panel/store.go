package panel

import (
	"sort"
	"sync"

	"github.com/zjrosen/splitdeck/internal/layout"
	"github.com/zjrosen/splitdeck/internal/log"
)

// Store owns the split tree and the per-panel state it carries. All
// mutation goes through tree-aware setters that locate a panel, apply a
// partial update and re-derive the memoized flattened list, so stale
// derived state cannot leak across panels.
//
// The store is constructor-injected wherever it is needed; there is no
// ambient singleton.
type Store struct {
	mu   sync.RWMutex
	root layout.Node
	flat []layout.Panel
}

// NewStore creates a store over an existing tree root (nil for an empty
// tree).
func NewStore(root layout.Node) *Store {
	s := &Store{root: root}
	s.flat = layout.Flatten(root)
	return s
}

// Root returns the current tree root.
func (s *Store) Root() layout.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Panels returns the memoized pre-order panel list.
func (s *Store) Panels() []layout.Panel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flat
}

// Panel returns the panel with the given id.
func (s *Store) Panel(id string) (layout.Panel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.flat {
		if p.ID == id {
			return p, true
		}
	}
	return layout.Panel{}, false
}

// PanelCount returns the number of panels in the tree.
func (s *Store) PanelCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.flat)
}

// Replace swaps in a new tree root wholesale (layout load, external
// refresh).
func (s *Store) Replace(root layout.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.root = root
	s.flat = layout.Flatten(root)
}

// Split splits the target panel, returning the fresh panel's id. Returns
// false when the split was refused (unknown id or panel cap).
func (s *Store) Split(panelID string, orientation layout.Orientation) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.flat)
	newRoot := layout.Split(s.root, panelID, orientation)
	flat := layout.Flatten(newRoot)
	if len(flat) == before {
		return "", false
	}
	s.root = newRoot
	s.flat = flat
	log.Debug(log.CatPanel, "panel split", "panel", panelID, "orientation", orientation, "total", len(flat))

	// The fresh panel directly follows its split target in pre-order.
	for i, p := range flat {
		if p.ID == panelID && i+1 < len(flat) {
			return flat[i+1].ID, true
		}
	}
	return "", true
}

// Close removes a panel from the tree. Unknown ids are silent no-ops.
func (s *Store) Close(panelID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := len(s.flat)
	newRoot := layout.Remove(s.root, panelID)
	flat := layout.Flatten(newRoot)
	if len(flat) == before {
		return false
	}
	log.Debug(log.CatPanel, "panel closed", "panel", panelID, "remaining", len(flat))
	s.root = newRoot
	s.flat = flat
	return true
}

// Update applies fn to the identified panel and re-derives the flattened
// list. Returns false for unknown ids.
func (s *Store) Update(panelID string, fn func(*layout.Panel)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	newRoot := layout.UpdatePanel(s.root, panelID, fn)
	if newRoot == s.root {
		if _, ok := layout.FindPanel(s.root, panelID); !ok {
			return false
		}
	}
	s.root = newRoot
	s.flat = layout.Flatten(newRoot)
	return true
}

// BindCollection binds a panel to a collection and clears state that only
// made sense against the previous collection.
func (s *Store) BindCollection(panelID, collectionID string) bool {
	return s.Update(panelID, func(p *layout.Panel) {
		p.CollectionID = collectionID
		p.Editable = false // until the permission check lands
		p.Search = ""
		p.Selection = make(map[string]struct{})
		p.ScrollOffset = 0
	})
}

// SetEditable records the result of the remote permission check.
func (s *Store) SetEditable(panelID string, editable bool) bool {
	return s.Update(panelID, func(p *layout.Panel) { p.Editable = editable })
}

// ToggleLock flips the user lock. Locked panels never originate drags,
// independent of editability.
func (s *Store) ToggleLock(panelID string) bool {
	return s.Update(panelID, func(p *layout.Panel) { p.Locked = !p.Locked })
}

// ToggleDragMode flips between move and copy drag semantics.
func (s *Store) ToggleDragMode(panelID string) bool {
	return s.Update(panelID, func(p *layout.Panel) {
		if p.DragMode == layout.DragCopy {
			p.DragMode = layout.DragMove
		} else {
			p.DragMode = layout.DragCopy
		}
	})
}

// SetSearch updates the panel's search text and drops the selection,
// which is expressed in filtered positions that the new filter
// invalidates.
func (s *Store) SetSearch(panelID, search string) bool {
	return s.Update(panelID, func(p *layout.Panel) {
		p.Search = search
		p.Selection = make(map[string]struct{})
	})
}

// SetSort updates the panel's sort key and direction.
func (s *Store) SetSort(panelID, key string, dir layout.SortDirection) bool {
	return s.Update(panelID, func(p *layout.Panel) {
		p.SortKey = key
		p.SortDir = dir
	})
}

// SetScrollOffset records the panel's scroll position.
func (s *Store) SetScrollOffset(panelID string, offset int) bool {
	if offset < 0 {
		offset = 0
	}
	return s.Update(panelID, func(p *layout.Panel) { p.ScrollOffset = offset })
}

// ToggleSelect adds or removes a row from the panel's selection.
func (s *Store) ToggleSelect(panelID string, key SelectionKey) bool {
	return s.Update(panelID, func(p *layout.Panel) {
		k := key.String()
		if _, ok := p.Selection[k]; ok {
			delete(p.Selection, k)
		} else {
			p.Selection[k] = struct{}{}
		}
	})
}

// ClearSelection empties the panel's selection set.
func (s *Store) ClearSelection(panelID string) bool {
	return s.Update(panelID, func(p *layout.Panel) {
		p.Selection = make(map[string]struct{})
	})
}

// IsSelected reports whether a row is in the panel's selection.
func (s *Store) IsSelected(panelID string, key SelectionKey) bool {
	p, ok := s.Panel(panelID)
	if !ok {
		return false
	}
	_, ok = p.Selection[key.String()]
	return ok
}

// SelectionKeys returns the panel's selection as parsed keys sorted by
// position in the collection.
func (s *Store) SelectionKeys(panelID string) []SelectionKey {
	p, ok := s.Panel(panelID)
	if !ok {
		return nil
	}
	keys := make([]SelectionKey, 0, len(p.Selection))
	for raw := range p.Selection {
		k, err := ParseSelectionKey(raw)
		if err != nil {
			log.Warn(log.CatPanel, "dropping malformed selection key", "key", raw)
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Position < keys[j].Position })
	return keys
}
