package layout

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildTree(t *testing.T) Node {
	t.Helper()
	root, p := newRoot()
	root = UpdatePanel(root, p.ID, func(panel *Panel) {
		panel.CollectionID = "pl-1"
		panel.Search = "mingus"
		panel.SortKey = "title"
		panel.SortDir = SortDesc
		panel.Locked = true
		panel.DragMode = DragMove
		panel.ScrollOffset = 42
		panel.Selection["p::t1::0"] = struct{}{}
		panel.Selection["p::t1::3"] = struct{}{}
	})
	root = Split(root, p.ID, Vertical)
	second := Flatten(root)[1]
	root = Split(root, second.ID, Horizontal)
	return root
}

func TestSerialize_RoundTrip(t *testing.T) {
	root := buildTree(t)

	data, err := Serialize(root)
	require.NoError(t, err)

	back, err := Deserialize(data)
	require.NoError(t, err)

	want := Flatten(root)
	got := Flatten(back)
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].ID, got[i].ID, "panel ids survive the round trip in order")
		require.Equal(t, want[i].CollectionID, got[i].CollectionID)
		require.Equal(t, want[i].Locked, got[i].Locked)
		require.Equal(t, want[i].Search, got[i].Search)
		require.Equal(t, want[i].SortKey, got[i].SortKey)
		require.Equal(t, want[i].SortDir, got[i].SortDir)
		require.Equal(t, want[i].DragMode, got[i].DragMode)
		require.Equal(t, want[i].Selection, got[i].Selection, "selection arrays convert back into sets")
	}

	wantGroup := root.(*GroupNode)
	gotGroup, ok := back.(*GroupNode)
	require.True(t, ok, "nesting survives")
	require.Equal(t, wantGroup.Orientation, gotGroup.Orientation)
}

func TestSerialize_ScrollOffsetResetOnLoad(t *testing.T) {
	root := buildTree(t)
	data, err := Serialize(root)
	require.NoError(t, err)

	back, err := Deserialize(data)
	require.NoError(t, err)
	for _, p := range Flatten(back) {
		require.Zero(t, p.ScrollOffset, "scroll offset is transient and resets to 0 on load")
	}
}

func TestSerialize_EditableNotPersisted(t *testing.T) {
	root, p := newRoot()
	root = UpdatePanel(root, p.ID, func(panel *Panel) { panel.Editable = true })

	data, err := Serialize(root)
	require.NoError(t, err)

	back, err := Deserialize(data)
	require.NoError(t, err)
	got, _ := FindPanel(back, p.ID)
	require.False(t, got.Editable, "editability is re-derived from the permission check")
}

func TestSerialize_NilRoot(t *testing.T) {
	data, err := Serialize(nil)
	require.NoError(t, err)
	require.JSONEq(t, "null", string(data))

	back, err := Deserialize(data)
	require.NoError(t, err)
	require.Nil(t, back)
}

func TestSerialize_KindDiscriminatorPresent(t *testing.T) {
	root := buildTree(t)
	data, err := Serialize(root)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Equal(t, "group", raw["kind"])
	children := raw["children"].([]any)
	first := children[0].(map[string]any)
	require.Equal(t, "panel", first["kind"])
}

func TestDeserialize_LegacyFlatArrayMigrates(t *testing.T) {
	legacy := `[
		{"id":"a","collectionId":"pl-1"},
		{"id":"b","collectionId":"pl-2","locked":true},
		{"id":"c"}
	]`

	root, err := Deserialize([]byte(legacy))
	require.NoError(t, err)

	group, ok := root.(*GroupNode)
	require.True(t, ok, "legacy panels migrate into a single linear group chain")
	require.Equal(t, Horizontal, group.Orientation)

	panels := Flatten(root)
	require.Len(t, panels, 3)
	require.Equal(t, []string{"a", "b", "c"}, []string{panels[0].ID, panels[1].ID, panels[2].ID},
		"legacy panel order and ids are preserved")
	require.True(t, panels[1].Locked)
	require.Equal(t, DragCopy, panels[0].DragMode, "missing fields take defaults")
}

func TestDeserialize_LegacySinglePanel(t *testing.T) {
	root, err := Deserialize([]byte(`[{"id":"only"}]`))
	require.NoError(t, err)
	leaf, ok := root.(*PanelNode)
	require.True(t, ok, "single legacy panel becomes the root leaf")
	require.Equal(t, "only", leaf.Panel.ID)
}

func TestDeserialize_Garbage(t *testing.T) {
	_, err := Deserialize([]byte(`{"kind":"mystery"}`))
	require.Error(t, err)

	_, err = Deserialize([]byte(`{"kind":"group","children":[]}`))
	require.Error(t, err, "groups need at least two children")
}

func TestMigrateLegacyPanels_Empty(t *testing.T) {
	require.Nil(t, MigrateLegacyPanels(nil))
}
