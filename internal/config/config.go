// Package config provides configuration types and defaults for splitdeck.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zjrosen/splitdeck/internal/log"
)

// UIConfig holds user interface configuration options.
type UIConfig struct {
	ShowStatusBar   bool   `mapstructure:"show_status_bar"`
	ShowPositions   bool   `mapstructure:"show_positions"`    // Show global positions next to rows
	DefaultDragMode string `mapstructure:"default_drag_mode"` // "copy" (default) or "move"
}

// Config holds all configuration options for splitdeck.
type Config struct {
	// LibraryPath is the sqlite database holding playlists and the saved
	// layout. Default: ~/.splitdeck/library.db
	LibraryPath string `mapstructure:"library_path"`

	// AutoRefresh reloads collections when the library file changes on
	// disk (another process editing the same library).
	AutoRefresh bool `mapstructure:"auto_refresh"`

	// AutosaveLayout persists the split tree after every structural
	// change instead of only on quit.
	AutosaveLayout bool `mapstructure:"autosave_layout"`

	UI UIConfig `mapstructure:"ui"`
}

// DefaultLibraryPath returns ~/.splitdeck/library.db, or empty string if
// the home dir is unavailable.
func DefaultLibraryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".splitdeck", "library.db")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		LibraryPath:    DefaultLibraryPath(),
		AutoRefresh:    true,
		AutosaveLayout: true,
		UI: UIConfig{
			ShowStatusBar:   true,
			ShowPositions:   false,
			DefaultDragMode: "copy",
		},
	}
}

// Validate checks the configuration for errors. Empty values fall back
// to defaults and are always valid.
func (c Config) Validate() error {
	if c.LibraryPath != "" && !filepath.IsAbs(c.LibraryPath) {
		return fmt.Errorf("library_path must be an absolute path, got %q", c.LibraryPath)
	}
	switch c.UI.DefaultDragMode {
	case "", "copy", "move":
	default:
		return fmt.Errorf("ui.default_drag_mode must be \"copy\" or \"move\", got %q", c.UI.DefaultDragMode)
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Splitdeck Configuration

# Path to the library database (default: ~/.splitdeck/library.db)
# library_path: /path/to/library.db

# Reload collections when the library changes on disk
auto_refresh: true

# Persist the panel layout after every split/close (default: true).
# When false the layout is only saved on quit.
autosave_layout: true

# UI settings
ui:
  show_status_bar: true     # Show status bar at bottom
  show_positions: false     # Show each row's position in its collection
  default_drag_mode: copy   # Drag semantics for new panels: "copy" or "move"
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
