package virtual

import (
	"sync"

	"github.com/zjrosen/splitdeck/internal/collection"
	"github.com/zjrosen/splitdeck/internal/log"
)

// Rect is a screen-space rectangle.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Entry is one registered panel list: its window, its on-screen
// container, and the rows it is currently rendering. Rows carry global
// positions, so a filtered panel still resolves drops against the
// unfiltered collection.
type Entry struct {
	PanelID      string
	CollectionID string
	Window       *Window
	Container    Rect
	Items        []collection.Row
	CanDrop      bool
}

// Registry tracks the panel lists that currently exist on screen, keyed
// by panel id. Hit-testing during a drag walks this registry, so stale
// entries for closed panels must never linger.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Register installs or replaces a panel's entry.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := e
	r.entries[e.PanelID] = &stored
	log.Debug(log.CatVirt, "panel registered",
		"panel", e.PanelID, "collection", e.CollectionID, "rows", len(e.Items))
}

// Unregister drops a panel's entry. Unknown panels are a no-op.
func (r *Registry) Unregister(panelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, panelID)
}

// UpdateItems replaces the rows of a registered panel and resizes its
// window to match. Unknown panels are ignored.
func (r *Registry) UpdateItems(panelID string, items []collection.Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[panelID]
	if !ok {
		return
	}
	e.Items = items
	if e.Window != nil {
		e.Window.SetRowCount(len(items))
	}
}

// SetContainer updates a registered panel's screen rectangle.
func (r *Registry) SetContainer(panelID string, container Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[panelID]; ok {
		e.Container = container
		if e.Window != nil {
			e.Window.SetHeight(container.Height)
		}
	}
}

// SetCanDrop flips a registered panel's drop eligibility.
func (r *Registry) SetCanDrop(panelID string, canDrop bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[panelID]; ok {
		e.CanDrop = canDrop
	}
}

// Lookup returns a copy of a panel's entry. The Window pointer is
// shared; the Items slice header is copied but its backing array is not.
func (r *Registry) Lookup(panelID string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[panelID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// HitTest returns the entry whose container covers the screen point.
// Panels never overlap, so the first hit wins.
func (r *Registry) HitTest(x, y int) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		if e.Container.Contains(x, y) {
			return *e, true
		}
	}
	return Entry{}, false
}

// PanelIDs returns the registered panel ids in no particular order.
func (r *Registry) PanelIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	return ids
}
