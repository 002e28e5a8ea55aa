// Package layout implements the split tree: the recursive group/panel
// structure describing the panel arrangement of the editor.
//
// The tree is updated immutably. Every structural operation returns a new
// root that shares untouched subtrees with the old one, so consumers can
// rely on reference equality for change detection.
package layout

import (
	"github.com/google/uuid"

	"github.com/zjrosen/splitdeck/internal/log"
)

// Orientation is the split direction of a group node.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// MaxPanels caps the number of panels in a tree. Split operations above
// the cap are silent no-ops.
const MaxPanels = 16

// DragMode controls whether a drag out of a panel moves or copies items.
type DragMode string

const (
	DragMove DragMode = "move"
	DragCopy DragMode = "copy"
)

// SortDirection orders a panel's rows.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// Panel holds the per-panel state carried by a leaf node.
//
// Editable is derived from a remote permission check and defaults to
// false until checked. Locked is a user toggle independent of
// editability: locked panels never originate drags even when editable.
type Panel struct {
	ID           string
	CollectionID string // empty means unbound
	Editable     bool
	Locked       bool
	Search       string
	SortKey      string
	SortDir      SortDirection
	Selection    map[string]struct{} // composite selection keys, see panel.SelectionKey
	ScrollOffset int
	DragMode     DragMode
}

// NewPanel creates an unbound panel with a generated id and defaults.
func NewPanel() Panel {
	return Panel{
		ID:        uuid.NewString(),
		SortDir:   SortAsc,
		Selection: make(map[string]struct{}),
		DragMode:  DragCopy,
	}
}

// Clone returns a deep copy of the panel. The selection map is copied so
// updates to the clone never leak into the original.
func (p Panel) Clone() Panel {
	sel := make(map[string]struct{}, len(p.Selection))
	for k := range p.Selection {
		sel[k] = struct{}{}
	}
	p.Selection = sel
	return p
}

// Node is a split tree node: either a *PanelNode leaf or a *GroupNode.
// A nil Node is the empty tree.
type Node interface {
	// NodeID returns the node's unique id. For panel nodes this is the
	// panel id.
	NodeID() string

	isNode()
}

// PanelNode is a leaf holding one panel.
type PanelNode struct {
	Panel Panel
}

func (n *PanelNode) NodeID() string { return n.Panel.ID }
func (n *PanelNode) isNode()        {}

// GroupNode is an interior node splitting its children along an
// orientation. A group always has at least two children; operations that
// would leave a single child collapse the group into that child.
type GroupNode struct {
	ID          string
	Orientation Orientation
	Children    []Node
}

func (n *GroupNode) NodeID() string { return n.ID }
func (n *GroupNode) isNode()        {}

// CountPanels returns the number of panel leaves under root.
func CountPanels(root Node) int {
	switch n := root.(type) {
	case nil:
		return 0
	case *PanelNode:
		return 1
	case *GroupNode:
		total := 0
		for _, c := range n.Children {
			total += CountPanels(c)
		}
		return total
	default:
		return 0
	}
}

// Split replaces the panel identified by targetPanelID with a group of
// the given orientation containing the original panel and a fresh one.
// Returns root unchanged when the id is unknown or MaxPanels is reached.
// The new panel inherits nothing from its sibling; it starts unbound.
func Split(root Node, targetPanelID string, orientation Orientation) Node {
	if CountPanels(root) >= MaxPanels {
		log.Debug(log.CatLayout, "split refused, panel cap reached", "panel", targetPanelID)
		return root
	}
	newRoot, split := splitNode(root, targetPanelID, orientation)
	if !split {
		return root
	}
	return newRoot
}

func splitNode(node Node, targetPanelID string, orientation Orientation) (Node, bool) {
	switch n := node.(type) {
	case nil:
		return nil, false
	case *PanelNode:
		if n.Panel.ID != targetPanelID {
			return n, false
		}
		fresh := NewPanel()
		return &GroupNode{
			ID:          uuid.NewString(),
			Orientation: orientation,
			Children:    []Node{n, &PanelNode{Panel: fresh}},
		}, true
	case *GroupNode:
		for i, child := range n.Children {
			newChild, split := splitNode(child, targetPanelID, orientation)
			if !split {
				continue
			}
			children := make([]Node, len(n.Children))
			copy(children, n.Children)
			children[i] = newChild
			return &GroupNode{ID: n.ID, Orientation: n.Orientation, Children: children}, true
		}
		return n, false
	default:
		return node, false
	}
}

// Remove prunes the panel identified by panelID. A parent group left with
// a single child collapses into that child, repeated up the ancestor
// chain. Removing the last panel yields a nil root. Unknown ids are
// silent no-ops.
func Remove(root Node, panelID string) Node {
	newRoot, removed := removeNode(root, panelID)
	if !removed {
		return root
	}
	return newRoot
}

func removeNode(node Node, panelID string) (Node, bool) {
	switch n := node.(type) {
	case nil:
		return nil, false
	case *PanelNode:
		if n.Panel.ID == panelID {
			return nil, true
		}
		return n, false
	case *GroupNode:
		for i, child := range n.Children {
			newChild, removed := removeNode(child, panelID)
			if !removed {
				continue
			}
			var children []Node
			if newChild == nil {
				children = make([]Node, 0, len(n.Children)-1)
				children = append(children, n.Children[:i]...)
				children = append(children, n.Children[i+1:]...)
			} else {
				children = make([]Node, len(n.Children))
				copy(children, n.Children)
				children[i] = newChild
			}
			// Tree compaction: a group with one remaining child is
			// replaced by that child.
			if len(children) == 1 {
				return children[0], true
			}
			if len(children) == 0 {
				return nil, true
			}
			return &GroupNode{ID: n.ID, Orientation: n.Orientation, Children: children}, true
		}
		return n, false
	default:
		return node, false
	}
}

// Flatten collects panels in pre-order. This is the canonical panel list
// consumed by layout rendering and lookups.
func Flatten(root Node) []Panel {
	var panels []Panel
	walkPanels(root, func(p Panel) {
		panels = append(panels, p)
	})
	return panels
}

func walkPanels(node Node, fn func(Panel)) {
	switch n := node.(type) {
	case *PanelNode:
		fn(n.Panel)
	case *GroupNode:
		for _, c := range n.Children {
			walkPanels(c, fn)
		}
	}
}

// FindPanel returns the panel with the given id, if present.
func FindPanel(root Node, panelID string) (Panel, bool) {
	var found Panel
	ok := false
	walkPanels(root, func(p Panel) {
		if p.ID == panelID {
			found = p
			ok = true
		}
	})
	return found, ok
}

// UpdatePanel applies fn to the panel identified by panelID and returns a
// new root rebuilt along the path to that panel only. Siblings keep
// reference identity. Unknown ids return root unchanged.
func UpdatePanel(root Node, panelID string, fn func(*Panel)) Node {
	newRoot, updated := updateNode(root, panelID, fn)
	if !updated {
		return root
	}
	return newRoot
}

func updateNode(node Node, panelID string, fn func(*Panel)) (Node, bool) {
	switch n := node.(type) {
	case nil:
		return nil, false
	case *PanelNode:
		if n.Panel.ID != panelID {
			return n, false
		}
		p := n.Panel.Clone()
		fn(&p)
		// The id is the tree's address for this panel; setters must not
		// rewrite it.
		p.ID = n.Panel.ID
		return &PanelNode{Panel: p}, true
	case *GroupNode:
		for i, child := range n.Children {
			newChild, updated := updateNode(child, panelID, fn)
			if !updated {
				continue
			}
			children := make([]Node, len(n.Children))
			copy(children, n.Children)
			children[i] = newChild
			return &GroupNode{ID: n.ID, Orientation: n.Orientation, Children: children}, true
		}
		return n, false
	default:
		return node, false
	}
}
