package marker

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func indices(markers []Marker) []int {
	out := make([]int, len(markers))
	for i, m := range markers {
		out[i] = m.Index
	}
	return out
}

func TestStore_MarkIsIdempotentPerIndex(t *testing.T) {
	s := NewStore()
	require.True(t, s.Mark("pl", 3))
	require.False(t, s.Mark("pl", 3), "second mark at the same index is a no-op")
	require.Len(t, s.Markers("pl"), 1)
}

func TestStore_MarkRejectsNegativeIndex(t *testing.T) {
	s := NewStore()
	require.False(t, s.Mark("pl", -1))
	require.Empty(t, s.Markers("pl"))
}

func TestStore_MarkersSortedAscending(t *testing.T) {
	s := NewStore()
	s.Mark("pl", 9)
	s.Mark("pl", 2)
	s.Mark("pl", 5)
	require.Equal(t, []int{2, 5, 9}, indices(s.Markers("pl")))
}

func TestStore_UnmarkAbsentIsNoOp(t *testing.T) {
	s := NewStore()
	s.Mark("pl", 1)
	require.False(t, s.Unmark("pl", 7))
	require.True(t, s.Unmark("pl", 1))
	require.Empty(t, s.Markers("pl"))
}

func TestStore_Toggle(t *testing.T) {
	s := NewStore()
	s.Toggle("pl", 4)
	require.True(t, s.IsMarked("pl", 4))
	s.Toggle("pl", 4)
	require.False(t, s.IsMarked("pl", 4))
}

func TestStore_CollectionsAreIndependent(t *testing.T) {
	s := NewStore()
	s.Mark("a", 1)
	s.Mark("b", 2)
	s.Clear("a")
	require.Empty(t, s.Markers("a"))
	require.Equal(t, []int{2}, indices(s.Markers("b")))
}

func TestStore_AdjustIndicesShiftsAtOrAfterChange(t *testing.T) {
	s := NewStore()
	s.Mark("pl", 1)
	s.Mark("pl", 4)
	s.Mark("pl", 8)

	// Insert of two items at index 4: markers at or after 4 move up.
	s.AdjustIndices("pl", 4, 2)
	require.Equal(t, []int{1, 6, 10}, indices(s.Markers("pl")))

	// Removal of three items at index 0.
	s.AdjustIndices("pl", 0, -3)
	require.Equal(t, []int{3, 7}, indices(s.Markers("pl")), "marker pushed negative is dropped")
}

func TestStore_ShiftAfterMultiInsert(t *testing.T) {
	s := NewStore()
	s.Mark("pl", 2)
	s.Mark("pl", 5)
	s.Mark("pl", 9)

	s.ShiftAfterMultiInsert("pl")
	require.Equal(t, []int{3, 7, 12}, indices(s.Markers("pl")))
}

func TestComputeInsertionPositions(t *testing.T) {
	markers := []Marker{{Index: 9}, {Index: 2}, {Index: 5}}

	require.Equal(t, []int{2, 6, 11}, ComputeInsertionPositions(markers, 1))
	require.Equal(t, []int{2, 8, 15}, ComputeInsertionPositions(markers, 3))
	require.Empty(t, ComputeInsertionPositions(nil, 2))
}

// Inserting itemCount items at each effective position, lowest first,
// must land every batch exactly at its marker in the final list.
func TestComputeInsertionPositions_SimulationAgreesWithShiftLaw(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		indexSet := rapid.SliceOfNDistinct(rapid.IntRange(0, 40), 1, 8, rapid.ID[int]).Draw(t, "indices")
		itemCount := rapid.IntRange(1, 5).Draw(t, "itemCount")

		markers := make([]Marker, len(indexSet))
		for i, idx := range indexSet {
			markers[i] = Marker{Index: idx}
		}
		positions := ComputeInsertionPositions(markers, itemCount)

		// Simulate against a list long enough to hold every insert.
		list := make([]int, 64)
		for i := range list {
			list[i] = i
		}
		for _, pos := range positions {
			batch := make([]int, itemCount)
			for i := range batch {
				batch[i] = -1
			}
			list = append(list[:pos:pos], append(batch, list[pos:]...)...)
		}

		// Every effective position must head an intact batch, and the
		// batches must not overlap.
		inserted := 0
		prev := -1
		for _, pos := range positions {
			if prev >= 0 && pos <= prev {
				t.Fatalf("effective positions must be strictly increasing: %v", positions)
			}
			prev = pos
			for k := 0; k < itemCount; k++ {
				if list[pos+k] != -1 {
					t.Fatalf("batch at effective position %d not intact", pos)
				}
			}
			inserted += itemCount
		}
		if len(list) != 64+inserted {
			t.Fatalf("list length %d, want %d", len(list), 64+inserted)
		}
	})
}
