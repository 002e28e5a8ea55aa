package collection

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func items(ids ...string) []Item {
	out := make([]Item, len(ids))
	for i, id := range ids {
		out[i] = Item{ID: id, Title: "t-" + id}
	}
	return out
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestSpliceRemove_ByIDRemovesAllInstances(t *testing.T) {
	got := spliceRemove(items("a", "b", "a", "c"), []ItemRef{{ID: "a"}})
	require.Equal(t, []string{"b", "c"}, ids(got))
}

func TestSpliceRemove_ExplicitPositionTargetsOneDuplicate(t *testing.T) {
	got := spliceRemove(items("a", "b", "a", "c"), []ItemRef{{ID: "a", Positions: []int{2}}})
	require.Equal(t, []string{"a", "b", "c"}, ids(got), "only the instance at position 2 goes")
}

func TestSpliceRemove_PositionIDMismatchIgnored(t *testing.T) {
	got := spliceRemove(items("a", "b"), []ItemRef{{ID: "a", Positions: []int{1}}})
	require.Equal(t, []string{"a", "b"}, ids(got), "stale position pointing at another id is skipped")
}

func TestSpliceRemove_OutOfRangeIgnored(t *testing.T) {
	got := spliceRemove(items("a"), []ItemRef{{ID: "a", Positions: []int{-1, 5}}})
	require.Equal(t, []string{"a"}, ids(got))
}

func TestSpliceReorder_MoveForward(t *testing.T) {
	// Move "b" (index 1) to index 4: removal shifts the insertion point
	// down by the range length.
	got := spliceReorder(items("a", "b", "c", "d", "e"), 1, 4, 1)
	require.Equal(t, []string{"a", "c", "d", "b", "e"}, ids(got))
}

func TestSpliceReorder_MoveBackward(t *testing.T) {
	got := spliceReorder(items("a", "b", "c", "d", "e"), 3, 1, 1)
	require.Equal(t, []string{"a", "d", "b", "c", "e"}, ids(got))
}

func TestSpliceReorder_Range(t *testing.T) {
	got := spliceReorder(items("a", "b", "c", "d", "e"), 1, 5, 2)
	require.Equal(t, []string{"a", "d", "e", "b", "c"}, ids(got))
}

func TestSpliceReorder_OntoItselfIsNoOp(t *testing.T) {
	original := items("a", "b", "c")
	got := spliceReorder(original, 1, 1, 1)
	require.Equal(t, ids(original), ids(got))
	got = spliceReorder(original, 1, 2, 1)
	require.Equal(t, ids(original), ids(got), "dropping just past the range is still a no-op")
}

func TestSpliceReorder_MalformedInputDegrades(t *testing.T) {
	original := items("a", "b")
	require.Equal(t, ids(original), ids(spliceReorder(original, -1, 0, 1)))
	require.Equal(t, ids(original), ids(spliceReorder(original, 0, 1, 0)))
	require.Equal(t, ids(original), ids(spliceReorder(original, 1, 0, 5)))
}
