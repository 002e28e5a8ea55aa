package dnd

import (
	"context"
	"sort"
	"time"

	"github.com/zjrosen/splitdeck/internal/collection"
	"github.com/zjrosen/splitdeck/internal/layout"
	"github.com/zjrosen/splitdeck/internal/log"
	"github.com/zjrosen/splitdeck/internal/panel"
	"github.com/zjrosen/splitdeck/internal/virtual"
)

// State is the drag lifecycle state.
type State int

const (
	StateIdle State = iota
	StateDragging
)

// Target is the live drop target while dragging: the panel under the
// pointer and the insertion point resolved within it.
type Target struct {
	PanelID      string
	CollectionID string
	Position     DropPosition
}

// Auto-scroll tuning. The pointer lingering within EdgeZone lines of a
// target's top or bottom edge scrolls it one row per ScrollInterval.
const (
	EdgeZone       = 2
	ScrollInterval = 80 * time.Millisecond
)

// Orchestrator coordinates the drag lifecycle: Idle -> Dragging ->
// (drop | cancel) -> Idle. All methods are synchronous; Drop is the
// only one that reaches the network, through the mutation pipeline.
type Orchestrator struct {
	store    *panel.Store
	registry *virtual.Registry
	pipeline *collection.Pipeline

	state        State
	payload      Payload
	sourcePanel  string
	sourceColl   string
	copyModifier bool
	target       *Target

	lastAutoScroll time.Time
	now            func() time.Time
}

// NewOrchestrator wires the orchestrator to its collaborators.
func NewOrchestrator(store *panel.Store, registry *virtual.Registry, pipeline *collection.Pipeline) *Orchestrator {
	return &Orchestrator{
		store:    store,
		registry: registry,
		pipeline: pipeline,
		now:      time.Now,
	}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return o.state }

// Payload returns the active drag payload, nil when idle.
func (o *Orchestrator) Payload() Payload { return o.payload }

// Target returns the live drop target, nil when the pointer is not over
// a valid one.
func (o *Orchestrator) Target() *Target { return o.target }

// Start begins a drag from the given row. When the grabbed row is part
// of the panel's active multi-selection the whole selection travels;
// otherwise just the one row. Locked panels never originate drags.
// copyModifier records whether the drag began with the copy modifier
// held, which forces copy semantics regardless of the panel's mode.
func (o *Orchestrator) Start(panelID string, key panel.SelectionKey, copyModifier bool) bool {
	if o.state != StateIdle {
		return false
	}
	p, ok := o.store.Panel(panelID)
	if !ok || p.Locked || p.CollectionID == "" {
		return false
	}

	payload, ok := o.buildPayload(p, key)
	if !ok {
		return false
	}

	o.state = StateDragging
	o.payload = payload
	o.sourcePanel = panelID
	o.sourceColl = p.CollectionID
	o.copyModifier = copyModifier
	o.target = nil
	log.Debug(log.CatDnd, "drag started",
		"panel", panelID, "collection", p.CollectionID, "items", len(payload.Items()))
	return true
}

// buildPayload captures the dragged rows. Selection keys resolve their
// item metadata through the collection cache, so rows scrolled out of
// the rendered window still travel with full metadata.
func (o *Orchestrator) buildPayload(p layout.Panel, key panel.SelectionKey) (Payload, bool) {
	rows := o.pipeline.Cache().Rows(p.CollectionID)
	if _, selected := p.Selection[key.String()]; selected && len(p.Selection) > 1 {
		keys := o.store.SelectionKeys(p.ID)
		items := make([]collection.Item, 0, len(keys))
		kept := keys[:0]
		for _, k := range keys {
			item, ok := itemAt(rows, k.Position, k.ItemID)
			if !ok {
				log.Warn(log.CatDnd, "selected row no longer in cache, dropped from drag",
					"panel", p.ID, "key", k.String())
				continue
			}
			items = append(items, item)
			kept = append(kept, k)
		}
		if len(kept) == 0 {
			return nil, false
		}
		return SelectionBatch{SelectionKeys: kept, Rows: items}, true
	}

	item, ok := itemAt(rows, key.Position, key.ItemID)
	if !ok {
		return nil, false
	}
	return SingleItem{Key: key, Item: item}, true
}

func itemAt(rows []collection.Row, position int, itemID string) (collection.Item, bool) {
	if position < 0 || position >= len(rows) || rows[position].Item.ID != itemID {
		return collection.Item{}, false
	}
	return rows[position].Item, true
}

// Over updates the live target from the pointer position. Runs on every
// pointer-move event with no debouncing so the indicator tracks the
// pointer exactly. Panels that cannot accept a drop are invisible to
// hit-testing: no target, no indicator. Also drives auto-scroll when
// the pointer lingers near a target's scrollable edge.
func (o *Orchestrator) Over(pointerX, pointerY int) *Target {
	if o.state != StateDragging {
		return nil
	}

	entry, ok := o.registry.HitTest(pointerX, pointerY)
	if !ok || !entry.CanDrop {
		o.target = nil
		return nil
	}

	o.autoScroll(entry, pointerY)

	var rows []virtual.RowGeometry
	scrollTop := 0
	if entry.Window != nil {
		rows = entry.Window.VisibleRows()
		scrollTop = entry.Window.ScrollOffset()
	}
	pos := Resolve(pointerY, entry.Container, scrollTop, rows, entry.Items)
	o.target = &Target{
		PanelID:      entry.PanelID,
		CollectionID: entry.CollectionID,
		Position:     pos,
	}
	return o.target
}

// autoScroll nudges the target's window one row when the pointer sits
// within EdgeZone lines of a scrollable edge, rate-limited to one step
// per ScrollInterval.
func (o *Orchestrator) autoScroll(entry virtual.Entry, pointerY int) {
	if entry.Window == nil {
		return
	}
	var dir int
	switch {
	case pointerY < entry.Container.Y+EdgeZone && !entry.Window.AtTop():
		dir = -1
	case pointerY >= entry.Container.Y+entry.Container.Height-EdgeZone && !entry.Window.AtBottom():
		dir = 1
	default:
		return
	}
	if now := o.now(); now.Sub(o.lastAutoScroll) >= ScrollInterval {
		entry.Window.ScrollBy(dir)
		o.lastAutoScroll = now
	}
}

// Cancel abandons the drag without touching the mutation pipeline.
func (o *Orchestrator) Cancel() {
	if o.state == StateDragging {
		log.Debug(log.CatDnd, "drag cancelled", "panel", o.sourcePanel)
	}
	o.reset()
}

func (o *Orchestrator) reset() {
	o.state = StateIdle
	o.payload = nil
	o.sourcePanel = ""
	o.sourceColl = ""
	o.copyModifier = false
	o.target = nil
}

// Drop completes the drag against the last resolved target. Dropping
// with no valid target is a cancel. Move is the effective mode unless
// the drag carried the copy modifier or the source panel is in copy
// mode; a move whose source and target share one collection degenerates
// into a reorder so the item never exists twice remotely.
func (o *Orchestrator) Drop(ctx context.Context) error {
	if o.state != StateDragging {
		return nil
	}
	payload, target := o.payload, o.target
	sourcePanel, sourceColl := o.sourcePanel, o.sourceColl
	copying := o.effectiveModeIsCopy()
	o.reset()

	if target == nil {
		log.Debug(log.CatDnd, "drop outside any target, cancelled", "panel", sourcePanel)
		return nil
	}

	log.Info(log.CatDnd, "drop",
		"source", sourceColl, "target", target.CollectionID,
		"position", target.Position.GlobalPosition, "copy", copying,
		"items", len(payload.Items()))

	if target.CollectionID == sourceColl && !copying {
		return o.reorderWithin(ctx, sourceColl, payload, target.Position.GlobalPosition)
	}
	return o.transfer(ctx, sourceColl, target.CollectionID, payload, target.Position.GlobalPosition, copying)
}

func (o *Orchestrator) effectiveModeIsCopy() bool {
	if o.copyModifier {
		return true
	}
	p, ok := o.store.Panel(o.sourcePanel)
	return ok && p.DragMode == layout.DragCopy
}

// transfer adds the payload to the target collection and, on a move,
// removes it from the source by explicit position so duplicates
// elsewhere in the source survive.
func (o *Orchestrator) transfer(ctx context.Context, sourceColl, targetColl string, payload Payload, position int, copying bool) error {
	keys := payload.Keys()
	ids := make([]string, len(keys))
	for i, k := range keys {
		ids[i] = k.ItemID
	}
	if err := o.pipeline.Add(ctx, targetColl, ids, position); err != nil {
		return err
	}
	if copying {
		return nil
	}

	refs := make([]collection.ItemRef, 0, len(keys))
	byID := make(map[string]int)
	for _, k := range keys {
		if i, ok := byID[k.ItemID]; ok {
			refs[i].Positions = append(refs[i].Positions, k.Position)
			continue
		}
		byID[k.ItemID] = len(refs)
		refs = append(refs, collection.ItemRef{ID: k.ItemID, Positions: []int{k.Position}})
	}
	return o.pipeline.Remove(ctx, sourceColl, refs)
}

// reorderWithin moves the payload inside one collection. A contiguous
// block travels as a single range reorder; scattered rows fall back to
// sequential single moves that preserve their original relative order,
// each later move issued against the list as the earlier ones left it.
func (o *Orchestrator) reorderWithin(ctx context.Context, collectionID string, payload Payload, toPosition int) error {
	keys := payload.Keys()
	positions := make([]int, len(keys))
	for i, k := range keys {
		positions[i] = k.Position
	}
	sort.Ints(positions)

	if contiguous(positions) {
		return o.pipeline.Reorder(ctx, collectionID, positions[0], toPosition, len(positions))
	}

	for _, step := range planSequentialMoves(positions, toPosition, len(o.pipeline.Cache().Rows(collectionID))) {
		if err := o.pipeline.Reorder(ctx, collectionID, step.from, step.to, 1); err != nil {
			return err
		}
	}
	return nil
}

func contiguous(sorted []int) bool {
	for i := 1; i < len(sorted); i++ {
		if sorted[i] != sorted[i-1]+1 {
			return false
		}
	}
	return true
}

type move struct {
	from, to int
}

// planSequentialMoves turns a scattered multi-row drag into single-item
// reorders. Each step's indices are valid for the list state produced
// by the steps before it, and the moved rows end up adjacent at the
// drop position in their original relative order. Computed by
// simulating the moves on a local copy of the ordering.
func planSequentialMoves(sortedFrom []int, toPosition, listLen int) []move {
	if listLen <= 0 {
		return nil
	}
	sim := make([]int, listLen)
	for i := range sim {
		sim[i] = i
	}
	moved := make(map[int]struct{}, len(sortedFrom))
	for _, p := range sortedFrom {
		if p < 0 || p >= listLen {
			return nil
		}
		moved[p] = struct{}{}
	}

	// The block lands immediately before the first non-moved element at
	// or after the drop position; -1 means append.
	successor := -1
	for i := toPosition; i < listLen; i++ {
		if _, ok := moved[i]; !ok {
			successor = i
			break
		}
	}

	indexOf := func(v int) int {
		for i, x := range sim {
			if x == v {
				return i
			}
		}
		return -1
	}

	var steps []move
	for _, orig := range sortedFrom {
		from := indexOf(orig)
		to := len(sim)
		if successor >= 0 {
			to = indexOf(successor)
		}
		if from == to || from+1 == to {
			// Already immediately before the successor.
			continue
		}
		steps = append(steps, move{from: from, to: to})

		// Apply the same splice the pipeline will.
		insert := to
		if to > from {
			insert--
		}
		v := sim[from]
		sim = append(sim[:from], sim[from+1:]...)
		tail := append([]int(nil), sim[insert:]...)
		sim = append(append(sim[:insert], v), tail...)
	}
	return steps
}
