// Package app contains the root application model. It owns the split
// tree store, the virtualization registry, the drag orchestrator and
// the mutation pipeline, and translates terminal events into
// operations on them.
package app

import (
	"context"
	"sort"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/splitdeck/internal/collection"
	"github.com/zjrosen/splitdeck/internal/config"
	"github.com/zjrosen/splitdeck/internal/dnd"
	"github.com/zjrosen/splitdeck/internal/layout"
	"github.com/zjrosen/splitdeck/internal/log"
	"github.com/zjrosen/splitdeck/internal/marker"
	"github.com/zjrosen/splitdeck/internal/panel"
	"github.com/zjrosen/splitdeck/internal/pubsub"
	"github.com/zjrosen/splitdeck/internal/ui/help"
	"github.com/zjrosen/splitdeck/internal/ui/panelview"
	"github.com/zjrosen/splitdeck/internal/ui/styles"
	"github.com/zjrosen/splitdeck/internal/ui/toaster"
	"github.com/zjrosen/splitdeck/internal/virtual"
	"github.com/zjrosen/splitdeck/internal/watcher"
)

// LayoutRepo persists the serialized split tree across sessions.
type LayoutRepo interface {
	Save(tree []byte) error
	Load() ([]byte, error)
}

// libraryChangedMsg signals that the library file changed on disk.
type libraryChangedMsg struct{}

// toastMsg surfaces a notification.
type toastMsg struct {
	text  string
	style toaster.Style
}

type collectionsLoadedMsg struct {
	infos []collection.Info
	err   error
}

const toastDuration = 3 * time.Second

// pressState is a pending left-button press, promoted to a drag on the
// first motion event or resolved as a click on release.
type pressState struct {
	panelID  string
	rowIndex int
	alt      bool
	ctrl     bool
}

// Model is the root application state.
type Model struct {
	cfg config.Config
	svc collection.Service

	store    *panel.Store
	registry *virtual.Registry
	pipeline *collection.Pipeline
	markers  *marker.Store
	orch     *dnd.Orchestrator

	layoutRepo LayoutRepo

	// Collection display names plus a stable id order for number-key
	// binding.
	names   map[string]string
	nameIDs []string

	// Per-panel windows live outside the registry so scroll state
	// survives re-registration.
	windows map[string]*virtual.Window

	focused string
	width   int
	height  int

	press *pressState

	searching bool
	searchBuf string

	toaster toaster.Model
	help    help.Model

	changeListener *pubsub.ContinuousListener[collection.ChangeEvent]
	listenCancel   context.CancelFunc

	watcherHandle *watcher.Watcher
	watcherCh     <-chan struct{}
}

// New builds the root model. layoutRepo may be nil to disable layout
// persistence; watcherHandle may be nil to disable auto-refresh.
func New(cfg config.Config, svc collection.Service, layoutRepo LayoutRepo, watcherHandle *watcher.Watcher) Model {
	pipeline := collection.NewPipeline(svc, collection.NewCache(svc))

	ctx, cancel := context.WithCancel(context.Background())
	store := panel.NewStore(nil)
	registry := virtual.NewRegistry()

	m := Model{
		cfg:            cfg,
		svc:            svc,
		store:          store,
		registry:       registry,
		pipeline:       pipeline,
		markers:        marker.NewStore(),
		orch:           dnd.NewOrchestrator(store, registry, pipeline),
		layoutRepo:     layoutRepo,
		names:          make(map[string]string),
		windows:        make(map[string]*virtual.Window),
		toaster:        toaster.New(),
		help:           help.New(),
		changeListener: pubsub.NewContinuousListener(ctx, pipeline.Broker()),
		listenCancel:   cancel,
		watcherHandle:  watcherHandle,
	}

	if watcherHandle != nil {
		ch, err := watcherHandle.Start()
		if err != nil {
			log.ErrorErr(log.CatWatcher, "watcher start failed", err)
		} else {
			m.watcherCh = ch
		}
	}

	m.restoreLayout()
	return m
}

// restoreLayout loads the persisted tree, falling back to a single
// unbound panel.
func (m *Model) restoreLayout() {
	if m.layoutRepo != nil {
		if data, err := m.layoutRepo.Load(); err != nil {
			log.ErrorErr(log.CatLayout, "layout load failed", err)
		} else if data != nil {
			root, err := layout.Deserialize(data)
			if err != nil {
				log.ErrorErr(log.CatLayout, "saved layout unreadable, starting fresh", err)
			} else if root != nil {
				m.store.Replace(root)
			}
		}
	}
	if m.store.PanelCount() == 0 {
		p := layout.NewPanel()
		p.DragMode = m.defaultDragMode()
		m.store.Replace(&layout.PanelNode{Panel: p})
	}
	m.focused = m.store.Panels()[0].ID
}

func (m Model) defaultDragMode() layout.DragMode {
	if m.cfg.UI.DefaultDragMode == "move" {
		return layout.DragMove
	}
	return layout.DragCopy
}

// saveLayout persists the current tree, best-effort.
func (m *Model) saveLayout() {
	if m.layoutRepo == nil {
		return
	}
	data, err := layout.Serialize(m.store.Root())
	if err != nil {
		log.ErrorErr(log.CatLayout, "layout serialize failed", err)
		return
	}
	if err := m.layoutRepo.Save(data); err != nil {
		log.ErrorErr(log.CatLayout, "layout save failed", err)
	}
}

// autosave persists the layout when the config asks for it. Structural
// changes call it; the tree is always saved once more on quit.
func (m *Model) autosave() {
	if m.cfg.AutosaveLayout {
		m.saveLayout()
	}
}

// Init loads collection names and starts the event listeners.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadCollectionsCmd(), m.changeListener.Listen()}
	if m.watcherCh != nil {
		cmds = append(cmds, waitForLibraryChange(m.watcherCh))
	}
	return tea.Batch(cmds...)
}

func (m Model) loadCollectionsCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		infos, err := svc.ListCollections(context.Background())
		return collectionsLoadedMsg{infos: infos, err: err}
	}
}

func waitForLibraryChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return libraryChangedMsg{}
	}
}

// Update is the bubbletea update loop.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.refreshRegistry()
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case collectionsLoadedMsg:
		if msg.err != nil {
			return m.toast("loading collections: "+msg.err.Error(), toaster.StyleError)
		}
		m.names = make(map[string]string, len(msg.infos))
		m.nameIDs = m.nameIDs[:0]
		for _, info := range msg.infos {
			m.names[info.ID] = info.Name
			m.nameIDs = append(m.nameIDs, info.ID)
		}
		sort.Strings(m.nameIDs)
		m.warmBoundPanels()
		return m, nil

	case pubsub.Event[collection.ChangeEvent]:
		m.refreshPanelsBound(msg.Payload.CollectionID)
		return m, m.changeListener.Listen()

	case libraryChangedMsg:
		if !m.cfg.AutoRefresh {
			return m, waitForLibraryChange(m.watcherCh)
		}
		log.Info(log.CatWatcher, "library changed on disk, refetching")
		cmds := []tea.Cmd{waitForLibraryChange(m.watcherCh)}
		for _, coll := range m.boundCollections() {
			cmds = append(cmds, m.refetchCmd(coll))
		}
		return m, tea.Batch(cmds...)

	case toastMsg:
		return m.toast(msg.text, msg.style)

	case toaster.DismissMsg:
		m.toaster = m.toaster.Hide()
		return m, nil
	}
	return m, nil
}

func (m Model) toast(text string, style toaster.Style) (tea.Model, tea.Cmd) {
	m.toaster = m.toaster.Show(text, style)
	return m, toaster.ScheduleDismiss(toastDuration)
}

// warmBoundPanels ensures caches and editability for every bound panel.
func (m *Model) warmBoundPanels() {
	ctx := context.Background()
	for _, p := range m.store.Panels() {
		if p.CollectionID == "" {
			continue
		}
		if _, err := m.pipeline.Cache().Ensure(ctx, p.CollectionID); err != nil {
			log.ErrorErr(log.CatCache, "cache warm failed", err, "collection", p.CollectionID)
			continue
		}
		editable, err := m.pipeline.Editable(ctx, p.CollectionID)
		if err != nil {
			editable = false
		}
		m.store.SetEditable(p.ID, editable)
	}
	m.refreshRegistry()
}

// refetchCmd reloads one collection from the service and announces the
// change through the broker like any other refresh.
func (m Model) refetchCmd(collectionID string) tea.Cmd {
	pipeline := m.pipeline
	return func() tea.Msg {
		pipeline.Cache().Invalidate(collectionID)
		if _, err := pipeline.Cache().Refetch(context.Background(), collectionID); err != nil {
			return toastMsg{text: "refresh failed: " + err.Error(), style: toaster.StyleError}
		}
		pipeline.Broker().Publish(pubsub.MetadataEvent, collection.ChangeEvent{
			CollectionID: collectionID,
			Cause:        collection.CauseMetadata,
		})
		return nil
	}
}

func (m *Model) boundCollections() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range m.store.Panels() {
		if p.CollectionID == "" {
			continue
		}
		if _, dup := seen[p.CollectionID]; dup {
			continue
		}
		seen[p.CollectionID] = struct{}{}
		out = append(out, p.CollectionID)
	}
	return out
}

// panelRows derives a panel's rendered rows: cached items filtered by
// its search text and sorted by its sort key. Positions stay global.
func (m *Model) panelRows(p layout.Panel) []collection.Row {
	if p.CollectionID == "" {
		return nil
	}
	entry, ok := m.pipeline.Cache().Get(p.CollectionID)
	if !ok {
		return nil
	}
	rows := collection.FilterRows(entry.Items, p.Search)
	return collection.SortRows(rows, p.SortKey, p.SortDir)
}

// refreshRegistry recomputes panel geometry and re-registers every
// panel. Called on resize, structural changes, and binding changes.
func (m *Model) refreshRegistry() {
	if m.width == 0 || m.height == 0 {
		return
	}
	contentHeight := m.height
	if m.cfg.UI.ShowStatusBar {
		contentHeight--
	}

	rects := make(map[string]virtual.Rect)
	layoutRects(m.store.Root(), virtual.Rect{X: 0, Y: 0, Width: m.width, Height: contentHeight}, rects)

	live := make(map[string]struct{})
	for _, p := range m.store.Panels() {
		live[p.ID] = struct{}{}
		rect, ok := rects[p.ID]
		if !ok {
			continue
		}
		rows := m.panelRows(p)

		w, ok := m.windows[p.ID]
		if !ok {
			w = virtual.NewWindow(len(rows), 0, virtual.DefaultRowHeight)
			m.windows[p.ID] = w
		}
		w.SetRowCount(len(rows))
		w.SetHeight(max(0, rect.Height-3))

		m.registry.Register(virtual.Entry{
			PanelID:      p.ID,
			CollectionID: p.CollectionID,
			Window:       w,
			Container:    contentRect(rect),
			Items:        rows,
			CanDrop:      p.CollectionID != "" && p.Editable && !p.Locked,
		})
	}

	// Closed panels must not linger in the registry.
	for _, id := range m.registry.PanelIDs() {
		if _, ok := live[id]; !ok {
			m.registry.Unregister(id)
			delete(m.windows, id)
		}
	}
}

// refreshPanelsBound pushes fresh rows into the registry for every
// panel bound to the collection.
func (m *Model) refreshPanelsBound(collectionID string) {
	for _, p := range m.store.Panels() {
		if p.CollectionID != collectionID {
			continue
		}
		m.registry.UpdateItems(p.ID, m.panelRows(p))
	}
}

// contentRect is the row area inside a panel's frame: the border
// trimmed on all sides plus the header line.
func contentRect(r virtual.Rect) virtual.Rect {
	return virtual.Rect{
		X:      r.X + 1,
		Y:      r.Y + 2,
		Width:  max(0, r.Width-2),
		Height: max(0, r.Height-3),
	}
}

// layoutRects assigns each panel a screen rectangle by recursively
// dividing the available space evenly among group children. The last
// child absorbs the division remainder.
func layoutRects(node layout.Node, rect virtual.Rect, out map[string]virtual.Rect) {
	switch n := node.(type) {
	case nil:
		return
	case *layout.PanelNode:
		out[n.Panel.ID] = rect
	case *layout.GroupNode:
		count := len(n.Children)
		if count == 0 {
			return
		}
		if n.Orientation == layout.Horizontal {
			share := rect.Width / count
			x := rect.X
			for i, child := range n.Children {
				w := share
				if i == count-1 {
					w = rect.X + rect.Width - x
				}
				layoutRects(child, virtual.Rect{X: x, Y: rect.Y, Width: w, Height: rect.Height}, out)
				x += w
			}
			return
		}
		share := rect.Height / count
		y := rect.Y
		for i, child := range n.Children {
			h := share
			if i == count-1 {
				h = rect.Y + rect.Height - y
			}
			layoutRects(child, virtual.Rect{X: rect.X, Y: y, Width: rect.Width, Height: h}, out)
			y += h
		}
	}
}

// Shutdown saves the layout and releases listeners and the watcher.
func (m *Model) Shutdown() {
	m.saveLayout()
	m.listenCancel()
	if m.watcherHandle != nil {
		_ = m.watcherHandle.Stop()
	}
}

// View renders the panel grid plus status bar and toast overlay.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	contentHeight := m.height
	if m.cfg.UI.ShowStatusBar {
		contentHeight--
	}

	rects := make(map[string]virtual.Rect)
	layoutRects(m.store.Root(), virtual.Rect{X: 0, Y: 0, Width: m.width, Height: contentHeight}, rects)

	view := m.renderNode(m.store.Root(), rects)
	if m.cfg.UI.ShowStatusBar {
		view = lipgloss.JoinVertical(lipgloss.Left, view, m.statusBar())
	}
	view = m.help.Overlay(view, m.width, m.height)
	view = m.toaster.Overlay(view, m.width, m.height)
	return zone.Scan(view)
}

func (m Model) renderNode(node layout.Node, rects map[string]virtual.Rect) string {
	switch n := node.(type) {
	case nil:
		return ""
	case *layout.PanelNode:
		return m.renderPanel(n.Panel, rects[n.Panel.ID])
	case *layout.GroupNode:
		parts := make([]string, len(n.Children))
		for i, child := range n.Children {
			parts[i] = m.renderNode(child, rects)
		}
		if n.Orientation == layout.Horizontal {
			return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
		}
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}
	return ""
}

func (m Model) renderPanel(p layout.Panel, rect virtual.Rect) string {
	rows := m.panelRows(p)

	dropIndex := panelview.NoDropIndex
	if t := m.orch.Target(); t != nil && t.PanelID == p.ID {
		dropIndex = t.Position.FilteredIndex
	}

	coll := p.CollectionID
	markers := m.markers
	view := panelview.Model{
		Panel:         p,
		Name:          m.names[p.CollectionID],
		Rows:          rows,
		Window:        m.windows[p.ID],
		Focused:       p.ID == m.focused,
		DropIndex:     dropIndex,
		Marked:        func(pos int) bool { return markers.IsMarked(coll, pos) },
		ShowPositions: m.cfg.UI.ShowPositions,
		Width:         rect.Width,
		Height:        rect.Height,
	}
	return view.View()
}

func (m Model) statusBar() string {
	var text string
	switch {
	case m.searching:
		text = "search: " + m.searchBuf + "▌  (enter apply, esc clear)"
	case m.orch.State() == dnd.StateDragging:
		n := len(m.orch.Payload().Items())
		noun := " items"
		if n == 1 {
			noun = " item"
		}
		text = "dragging " + strconv.Itoa(n) + noun + "  (esc cancels)"
	default:
		text = "s/v split  x close  tab focus  1-9 bind  L lock  m mode  / search  i mark  P insert  ? help  q quit"
	}
	return styles.StatusBarStyle.Render(runewidth.Truncate(text, max(0, m.width), ""))
}
