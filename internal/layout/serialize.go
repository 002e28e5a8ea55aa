package layout

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// nodeJSON is the persisted nested form of a tree node. The kind
// discriminator is "panel" or "group" at every node.
type nodeJSON struct {
	Kind        string      `json:"kind"`
	ID          string      `json:"id,omitempty"`
	Orientation Orientation `json:"orientation,omitempty"`
	Children    []nodeJSON  `json:"children,omitempty"`
	Panel       *panelJSON  `json:"panel,omitempty"`
}

// panelJSON is the persisted form of a panel. Editable is derived from a
// remote permission check and scroll offset is transient; neither is
// persisted. Selection sets are stored as ordered arrays.
type panelJSON struct {
	ID           string        `json:"id"`
	CollectionID string        `json:"collectionId,omitempty"`
	Locked       bool          `json:"locked,omitempty"`
	Search       string        `json:"search,omitempty"`
	SortKey      string        `json:"sortKey,omitempty"`
	SortDir      SortDirection `json:"sortDir,omitempty"`
	Selection    []string      `json:"selection,omitempty"`
	DragMode     DragMode      `json:"dragMode,omitempty"`
}

const (
	kindPanel = "panel"
	kindGroup = "group"
)

// Serialize encodes the tree to its persisted JSON form. A nil root
// encodes as JSON null.
func Serialize(root Node) ([]byte, error) {
	if root == nil {
		return []byte("null"), nil
	}
	return json.Marshal(toNodeJSON(root))
}

func toNodeJSON(node Node) nodeJSON {
	switch n := node.(type) {
	case *PanelNode:
		return nodeJSON{Kind: kindPanel, Panel: toPanelJSON(n.Panel)}
	case *GroupNode:
		children := make([]nodeJSON, len(n.Children))
		for i, c := range n.Children {
			children[i] = toNodeJSON(c)
		}
		return nodeJSON{Kind: kindGroup, ID: n.ID, Orientation: n.Orientation, Children: children}
	default:
		return nodeJSON{}
	}
}

func toPanelJSON(p Panel) *panelJSON {
	selection := make([]string, 0, len(p.Selection))
	for k := range p.Selection {
		selection = append(selection, k)
	}
	sort.Strings(selection)
	return &panelJSON{
		ID:           p.ID,
		CollectionID: p.CollectionID,
		Locked:       p.Locked,
		Search:       p.Search,
		SortKey:      p.SortKey,
		SortDir:      p.SortDir,
		Selection:    selection,
		DragMode:     p.DragMode,
	}
}

// Deserialize decodes a persisted tree. It accepts both the current
// nested form and the legacy flat panel-array form, which is migrated
// through MigrateLegacyPanels. Scroll offsets are reset to 0 on load.
func Deserialize(data []byte) (Node, error) {
	if len(data) == 0 {
		return nil, nil
	}

	// Legacy layouts persisted a flat array of panels.
	var legacy []panelJSON
	if err := json.Unmarshal(data, &legacy); err == nil {
		panels := make([]Panel, len(legacy))
		for i, pj := range legacy {
			panels[i] = fromPanelJSON(pj)
		}
		return MigrateLegacyPanels(panels), nil
	}

	var nj *nodeJSON
	if err := json.Unmarshal(data, &nj); err != nil {
		return nil, fmt.Errorf("parsing layout: %w", err)
	}
	if nj == nil {
		return nil, nil
	}
	return fromNodeJSON(*nj)
}

func fromNodeJSON(nj nodeJSON) (Node, error) {
	switch nj.Kind {
	case kindPanel:
		if nj.Panel == nil {
			return nil, fmt.Errorf("panel node without panel payload")
		}
		return &PanelNode{Panel: fromPanelJSON(*nj.Panel)}, nil
	case kindGroup:
		if len(nj.Children) < 2 {
			return nil, fmt.Errorf("group node with %d children", len(nj.Children))
		}
		children := make([]Node, len(nj.Children))
		for i, cj := range nj.Children {
			child, err := fromNodeJSON(cj)
			if err != nil {
				return nil, err
			}
			children[i] = child
		}
		id := nj.ID
		if id == "" {
			id = uuid.NewString()
		}
		orientation := nj.Orientation
		if orientation != Horizontal && orientation != Vertical {
			orientation = Horizontal
		}
		return &GroupNode{ID: id, Orientation: orientation, Children: children}, nil
	default:
		return nil, fmt.Errorf("unknown node kind %q", nj.Kind)
	}
}

func fromPanelJSON(pj panelJSON) Panel {
	p := Panel{
		ID:           pj.ID,
		CollectionID: pj.CollectionID,
		Locked:       pj.Locked,
		Search:       pj.Search,
		SortKey:      pj.SortKey,
		SortDir:      pj.SortDir,
		Selection:    make(map[string]struct{}, len(pj.Selection)),
		DragMode:     pj.DragMode,
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.SortDir == "" {
		p.SortDir = SortAsc
	}
	if p.DragMode == "" {
		p.DragMode = DragCopy
	}
	for _, k := range pj.Selection {
		p.Selection[k] = struct{}{}
	}
	return p
}

// MigrateLegacyPanels upgrades the pre-tree flat panel list into a single
// linear group chain, preserving panel order and ids. Zero panels yield
// an empty tree and one panel becomes the root leaf.
func MigrateLegacyPanels(panels []Panel) Node {
	switch len(panels) {
	case 0:
		return nil
	case 1:
		return &PanelNode{Panel: panels[0]}
	default:
		children := make([]Node, len(panels))
		for i, p := range panels {
			children[i] = &PanelNode{Panel: p}
		}
		return &GroupNode{
			ID:          uuid.NewString(),
			Orientation: Horizontal,
			Children:    children,
		}
	}
}
