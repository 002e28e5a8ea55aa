package app

import (
	"context"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/splitdeck/internal/dnd"
	"github.com/zjrosen/splitdeck/internal/layout"
	"github.com/zjrosen/splitdeck/internal/log"
	"github.com/zjrosen/splitdeck/internal/marker"
	"github.com/zjrosen/splitdeck/internal/panel"
	"github.com/zjrosen/splitdeck/internal/ui/panelview"
	"github.com/zjrosen/splitdeck/internal/ui/toaster"
	"github.com/zjrosen/splitdeck/internal/virtual"
)

func (m Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		return m.updateSearchKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		m.Shutdown()
		return m, tea.Quit

	case "?":
		m.help = m.help.Toggle()
		return m, nil

	case "esc":
		if m.help.Visible() {
			m.help = m.help.Hide()
			return m, nil
		}
		if m.orch.State() == dnd.StateDragging {
			m.orch.Cancel()
			return m, nil
		}
		m.store.ClearSelection(m.focused)
		m.refreshRegistry()
		return m, nil

	case "s":
		return m.splitFocused(layout.Horizontal)
	case "v":
		return m.splitFocused(layout.Vertical)

	case "x":
		if m.store.PanelCount() <= 1 {
			return m, nil
		}
		if m.store.Close(m.focused) {
			m.focused = m.store.Panels()[0].ID
			m.refreshRegistry()
			m.autosave()
		}
		return m, nil

	case "tab":
		m.cycleFocus(1)
		return m, nil
	case "shift+tab":
		m.cycleFocus(-1)
		return m, nil

	case "L":
		if m.store.ToggleLock(m.focused) {
			m.refreshRegistry()
			m.autosave()
		}
		return m, nil

	case "m":
		if m.store.ToggleDragMode(m.focused) {
			m.autosave()
		}
		return m, nil

	case "/":
		p, ok := m.store.Panel(m.focused)
		if !ok || p.CollectionID == "" {
			return m, nil
		}
		m.searching = true
		m.searchBuf = p.Search
		return m, nil

	case "i":
		return m.toggleMarkersAtSelection()

	case "P":
		return m.insertSelectionAtMarkers()

	case "o":
		return m.cycleSort()
	case "O":
		p, ok := m.store.Panel(m.focused)
		if !ok {
			return m, nil
		}
		dir := layout.SortAsc
		if p.SortDir == layout.SortAsc {
			dir = layout.SortDesc
		}
		m.store.SetSort(m.focused, p.SortKey, dir)
		m.refreshRegistry()
		return m, nil

	case "j", "down":
		m.scrollFocused(1)
		return m, nil
	case "k", "up":
		m.scrollFocused(-1)
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(msg.String()[0] - '1')
		return m.bindFocused(idx)
	}
	return m, nil
}

func (m Model) updateSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchBuf = ""
		m.store.SetSearch(m.focused, "")
		m.refreshRegistry()
		return m, nil
	case "enter":
		m.searching = false
		m.store.SetSearch(m.focused, m.searchBuf)
		m.refreshRegistry()
		return m, nil
	case "backspace":
		if len(m.searchBuf) > 0 {
			runes := []rune(m.searchBuf)
			m.searchBuf = string(runes[:len(runes)-1])
		}
		return m, nil
	default:
		if msg.Type == tea.KeyRunes {
			m.searchBuf += string(msg.Runes)
		} else if msg.Type == tea.KeySpace {
			m.searchBuf += " "
		}
		return m, nil
	}
}

func (m Model) splitFocused(orientation layout.Orientation) (tea.Model, tea.Cmd) {
	newID, ok := m.store.Split(m.focused, orientation)
	if !ok {
		return m.toast("cannot split further", toaster.StyleWarn)
	}
	if newID != "" {
		m.store.Update(newID, func(p *layout.Panel) { p.DragMode = m.defaultDragMode() })
	}
	m.refreshRegistry()
	m.autosave()
	return m, nil
}

func (m *Model) cycleFocus(step int) {
	panels := m.store.Panels()
	if len(panels) == 0 {
		return
	}
	current := 0
	for i, p := range panels {
		if p.ID == m.focused {
			current = i
			break
		}
	}
	next := (current + step + len(panels)) % len(panels)
	m.focused = panels[next].ID
}

func (m *Model) scrollFocused(rows int) {
	w, ok := m.windows[m.focused]
	if !ok {
		return
	}
	w.ScrollBy(rows)
	m.store.SetScrollOffset(m.focused, w.ScrollOffset())
}

// cycleSort steps the focused panel through the sortable columns:
// collection order, then title, then artist.
func (m Model) cycleSort() (tea.Model, tea.Cmd) {
	p, ok := m.store.Panel(m.focused)
	if !ok {
		return m, nil
	}
	var next string
	switch p.SortKey {
	case "":
		next = "title"
	case "title":
		next = "artist"
	case "artist":
		next = "duration"
	default:
		next = ""
	}
	m.store.SetSort(m.focused, next, p.SortDir)
	m.refreshRegistry()
	return m, nil
}

// bindFocused binds the focused panel to the idx-th collection and
// warms its cache and editability.
func (m Model) bindFocused(idx int) (tea.Model, tea.Cmd) {
	if idx < 0 || idx >= len(m.nameIDs) {
		return m, nil
	}
	collectionID := m.nameIDs[idx]
	if !m.store.BindCollection(m.focused, collectionID) {
		return m, nil
	}

	ctx := context.Background()
	if _, err := m.pipeline.Cache().Ensure(ctx, collectionID); err != nil {
		m.refreshRegistry()
		return m.toast("loading "+m.names[collectionID]+": "+err.Error(), toaster.StyleError)
	}
	editable, err := m.pipeline.Editable(ctx, collectionID)
	if err != nil {
		editable = false
	}
	m.store.SetEditable(m.focused, editable)
	m.refreshRegistry()
	m.autosave()
	return m, nil
}

// toggleMarkersAtSelection flips an insertion marker at every selected
// position of the focused panel's collection.
func (m Model) toggleMarkersAtSelection() (tea.Model, tea.Cmd) {
	p, ok := m.store.Panel(m.focused)
	if !ok || p.CollectionID == "" {
		return m, nil
	}
	keys := m.store.SelectionKeys(m.focused)
	if len(keys) == 0 {
		return m.toast("select rows to mark first", toaster.StyleInfo)
	}
	for _, key := range keys {
		m.markers.Toggle(p.CollectionID, key.Position)
	}
	return m, nil
}

// insertSelectionAtMarkers inserts the focused panel's selected items at
// every marked position of its collection. Later markers are offset so
// each batch lands where the marker pointed before any insertion.
func (m Model) insertSelectionAtMarkers() (tea.Model, tea.Cmd) {
	p, ok := m.store.Panel(m.focused)
	if !ok || p.CollectionID == "" {
		return m, nil
	}
	keys := m.store.SelectionKeys(m.focused)
	if len(keys) == 0 {
		return m.toast("select rows to insert first", toaster.StyleInfo)
	}
	marks := m.markers.Markers(p.CollectionID)
	if len(marks) == 0 {
		return m.toast("no insertion points set", toaster.StyleInfo)
	}
	if !p.Editable || p.Locked {
		return m.toast("collection is read-only", toaster.StyleWarn)
	}

	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = key.ItemID
	}

	ctx := context.Background()
	positions := marker.ComputeInsertionPositions(marks, len(ids))
	for _, pos := range positions {
		if err := m.pipeline.Add(ctx, p.CollectionID, ids, pos); err != nil {
			log.ErrorErr(log.CatMarker, "multi-insert aborted", err,
				"collection", p.CollectionID, "position", pos)
			return m.toast("insert failed: "+err.Error(), toaster.StyleError)
		}
	}
	m.markers.Clear(p.CollectionID)
	m.store.ClearSelection(m.focused)
	m.refreshRegistry()
	return m.toast("inserted at "+pluralPoints(len(positions)), toaster.StyleSuccess)
}

func pluralPoints(n int) string {
	if n == 1 {
		return "1 point"
	}
	return strconv.Itoa(n) + " points"
}

func (m Model) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown:
		entry, ok := m.panelAt(msg)
		if !ok {
			return m, nil
		}
		delta := 3
		if msg.Button == tea.MouseButtonWheelUp {
			delta = -3
		}
		entry.Window.ScrollBy(delta)
		m.store.SetScrollOffset(entry.PanelID, entry.Window.ScrollOffset())
		return m, nil

	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress:
		return m.mousePress(msg)

	case msg.Action == tea.MouseActionMotion:
		return m.mouseMotion(msg)

	case msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease:
		return m.mouseRelease(msg)
	}
	return m, nil
}

func (m Model) mousePress(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	entry, ok := m.panelAt(msg)
	if !ok {
		return m, nil
	}
	m.focused = entry.PanelID

	idx, ok := rowIndexAt(entry, msg)
	if !ok {
		return m, nil
	}
	m.press = &pressState{
		panelID:  entry.PanelID,
		rowIndex: idx,
		alt:      msg.Alt,
		ctrl:     msg.Ctrl,
	}
	return m, nil
}

func (m Model) mouseMotion(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.orch.State() == dnd.StateDragging {
		m.orch.Over(msg.X, msg.Y)
		return m, nil
	}
	if m.press == nil {
		return m, nil
	}

	// First motion after a press on a row promotes it to a drag.
	press := *m.press
	m.press = nil
	entry, ok := m.registry.Lookup(press.panelID)
	if !ok || press.rowIndex >= len(entry.Items) {
		return m, nil
	}
	row := entry.Items[press.rowIndex]
	key := panel.SelectionKey{PanelID: press.panelID, ItemID: row.Item.ID, Position: row.Position}
	if m.orch.Start(press.panelID, key, press.alt) {
		m.orch.Over(msg.X, msg.Y)
	}
	return m, nil
}

func (m Model) mouseRelease(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.orch.State() == dnd.StateDragging {
		m.orch.Over(msg.X, msg.Y)
		err := m.orch.Drop(context.Background())
		m.press = nil
		if err != nil {
			return m.toast("drop failed: "+err.Error(), toaster.StyleError)
		}
		return m, nil
	}

	press := m.press
	m.press = nil
	if press == nil {
		return m, nil
	}

	// A release without intervening motion is a click: plain click
	// selects just that row, ctrl-click toggles it into the set.
	entry, ok := m.registry.Lookup(press.panelID)
	if !ok || press.rowIndex >= len(entry.Items) {
		return m, nil
	}
	row := entry.Items[press.rowIndex]
	key := panel.SelectionKey{PanelID: press.panelID, ItemID: row.Item.ID, Position: row.Position}
	if !press.ctrl {
		m.store.ClearSelection(press.panelID)
	}
	m.store.ToggleSelect(press.panelID, key)
	return m, nil
}

// panelAt resolves the panel under the pointer through its rendered
// zone, frame included. Until the first frame has been scanned the
// zones are empty, so registry geometry covers the gap.
func (m *Model) panelAt(msg tea.MouseMsg) (virtual.Entry, bool) {
	for _, p := range m.store.Panels() {
		z := zone.Get(panelview.PanelZoneID(p.ID))
		if z == nil || !z.InBounds(msg) {
			continue
		}
		if entry, ok := m.registry.Lookup(p.ID); ok {
			return entry, true
		}
	}
	if entry, ok := m.registry.HitTest(msg.X, msg.Y); ok {
		return entry, true
	}
	rects := make(map[string]virtual.Rect)
	contentHeight := m.height
	if m.cfg.UI.ShowStatusBar {
		contentHeight--
	}
	layoutRects(m.store.Root(), virtual.Rect{X: 0, Y: 0, Width: m.width, Height: contentHeight}, rects)
	for id, rect := range rects {
		if rect.Contains(msg.X, msg.Y) {
			if entry, ok := m.registry.Lookup(id); ok {
				return entry, true
			}
		}
	}
	return virtual.Entry{}, false
}

// rowIndexAt maps the pointer to the filtered row index under it,
// preferring the row's rendered zone and falling back to window
// geometry before the first scan.
func rowIndexAt(entry virtual.Entry, msg tea.MouseMsg) (int, bool) {
	for _, g := range entry.Window.VisibleRows() {
		if g.Index >= len(entry.Items) {
			break
		}
		if z := zone.Get(panelview.RowZoneID(entry.PanelID, g.Index)); z != nil && z.InBounds(msg) {
			return g.Index, true
		}
	}
	contentY := msg.Y - entry.Container.Y + entry.Window.ScrollOffset()
	g, ok := entry.Window.RowAt(contentY)
	if !ok || g.Index >= len(entry.Items) {
		return 0, false
	}
	return g.Index, true
}
