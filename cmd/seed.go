package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/splitdeck/internal/infrastructure/sqlite"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the library with demo tracks and playlists",
	Long:  `Creates a pair of editable demo playlists in the configured library so the editor has something to show. Running it twice is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		db, err := sqlite.NewDB(cfg.LibraryPath)
		if err != nil {
			return fmt.Errorf("opening library: %w", err)
		}
		defer func() { _ = db.Close() }()

		store := sqlite.NewCollectionStore(db)
		if err := sqlite.SeedDemoLibrary(context.Background(), store); err != nil {
			return fmt.Errorf("seeding library: %w", err)
		}
		fmt.Printf("seeded demo library at %s\n", cfg.LibraryPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
