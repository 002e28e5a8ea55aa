package sqlite

import (
	"context"
	"fmt"

	"github.com/zjrosen/splitdeck/internal/collection"
	"github.com/zjrosen/splitdeck/internal/log"
)

// SeedDemoLibrary installs a small demo catalog and two playlists on
// first run. A library that already has playlists is left untouched.
func SeedDemoLibrary(ctx context.Context, store *CollectionStore) error {
	infos, err := store.ListCollections(ctx)
	if err != nil {
		return err
	}
	if len(infos) > 0 {
		return nil
	}

	tracks := []collection.Item{
		{ID: "so-what", Title: "So What", Artist: "Miles Davis", DurationMS: 545000},
		{ID: "blue-in-green", Title: "Blue in Green", Artist: "Miles Davis", DurationMS: 327000},
		{ID: "giant-steps", Title: "Giant Steps", Artist: "John Coltrane", DurationMS: 286000},
		{ID: "naima", Title: "Naima", Artist: "John Coltrane", DurationMS: 261000},
		{ID: "take-five", Title: "Take Five", Artist: "Dave Brubeck", DurationMS: 324000},
		{ID: "moanin", Title: "Moanin'", Artist: "Art Blakey", DurationMS: 571000},
		{ID: "maiden-voyage", Title: "Maiden Voyage", Artist: "Herbie Hancock", DurationMS: 477000},
		{ID: "footprints", Title: "Footprints", Artist: "Wayne Shorter", DurationMS: 601000},
	}
	if err := store.AddTracks(ctx, tracks); err != nil {
		return err
	}

	playlists := []struct {
		id, name string
		trackIDs []string
	}{
		{"crate-a", "Crate A", []string{"so-what", "blue-in-green", "giant-steps", "naima"}},
		{"crate-b", "Crate B", []string{"take-five", "moanin", "maiden-voyage", "footprints"}},
	}
	for _, pl := range playlists {
		if err := store.CreatePlaylist(ctx, pl.id, pl.name); err != nil {
			return err
		}
		if _, err := store.AddItems(ctx, pl.id, pl.trackIDs, collection.AppendPosition); err != nil {
			return fmt.Errorf("seeding %s: %w", pl.id, err)
		}
	}

	log.Info(log.CatDB, "demo library seeded", "playlists", len(playlists), "tracks", len(tracks))
	return nil
}
