// Package panel provides the panel state store and the composite
// selection key addressing individual rendered rows.
package panel

import (
	"fmt"
	"strconv"
	"strings"
)

// SelectionKey uniquely identifies one rendered row. The same item may
// appear multiple times in a collection and the same item may be visible
// in several panels at once, so neither the item id nor (item, panel) is
// unique; the triple is.
type SelectionKey struct {
	PanelID  string
	ItemID   string
	Position int
}

// String encodes the key as panelID:itemID:position. ParseSelectionKey is
// the exact inverse. Panel ids are generated uuids and never contain a
// colon; item ids may, which is why parsing splits at the first and last
// separator only.
func (k SelectionKey) String() string {
	return k.PanelID + ":" + k.ItemID + ":" + strconv.Itoa(k.Position)
}

// ParseSelectionKey decodes a key produced by String.
func ParseSelectionKey(s string) (SelectionKey, error) {
	first := strings.Index(s, ":")
	last := strings.LastIndex(s, ":")
	if first < 0 || first == last {
		return SelectionKey{}, fmt.Errorf("malformed selection key %q", s)
	}
	pos, err := strconv.Atoi(s[last+1:])
	if err != nil {
		return SelectionKey{}, fmt.Errorf("malformed selection key position in %q: %w", s, err)
	}
	return SelectionKey{
		PanelID:  s[:first],
		ItemID:   s[first+1 : last],
		Position: pos,
	}, nil
}
