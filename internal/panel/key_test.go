package panel

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestSelectionKey_RoundTrip(t *testing.T) {
	key := SelectionKey{PanelID: "panel-1", ItemID: "track-9", Position: 4}
	parsed, err := ParseSelectionKey(key.String())
	require.NoError(t, err)
	require.Equal(t, key, parsed, "parse must be the exact inverse of construction")
}

func TestSelectionKey_ItemIDWithSeparator(t *testing.T) {
	// Remote item ids are opaque and may contain the separator.
	key := SelectionKey{PanelID: "panel-1", ItemID: "spotify:track:abc", Position: 12}
	parsed, err := ParseSelectionKey(key.String())
	require.NoError(t, err)
	require.Equal(t, key, parsed)
}

func TestSelectionKey_SameItemDifferentPositions(t *testing.T) {
	// Duplicates in one collection must yield distinct keys.
	a := SelectionKey{PanelID: "p", ItemID: "t", Position: 1}
	b := SelectionKey{PanelID: "p", ItemID: "t", Position: 7}
	require.NotEqual(t, a.String(), b.String())
}

func TestParseSelectionKey_Malformed(t *testing.T) {
	for _, s := range []string{"", "noseparator", "only:one", "p:item:notanint"} {
		_, err := ParseSelectionKey(s)
		require.Error(t, err, "input %q should not parse", s)
	}
}

func TestSelectionKey_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		key := SelectionKey{
			// Panel ids are uuids in practice; no separator.
			PanelID:  rapid.StringMatching(`[a-f0-9-]{8,36}`).Draw(t, "panel"),
			ItemID:   rapid.StringMatching(`[a-zA-Z0-9:._-]{1,40}`).Draw(t, "item"),
			Position: rapid.IntRange(0, 1<<20).Draw(t, "pos"),
		}
		parsed, err := ParseSelectionKey(key.String())
		require.NoError(t, err)
		require.Equal(t, key, parsed)
	})
}
