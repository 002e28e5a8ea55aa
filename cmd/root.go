package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/splitdeck/internal/app"
	"github.com/zjrosen/splitdeck/internal/config"
	"github.com/zjrosen/splitdeck/internal/infrastructure/sqlite"
	"github.com/zjrosen/splitdeck/internal/log"
	"github.com/zjrosen/splitdeck/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "splitdeck",
	Short:   "A terminal ui for editing playlists side by side",
	Long:    `A terminal user interface for editing music playlists in split panels, with drag and drop between panels and multi-point inserts.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.splitdeck/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write a debug log to ~/.splitdeck/debug.log")
	rootCmd.Flags().String("library", "",
		"path to the library database")
	rootCmd.Flags().Bool("no-auto-refresh", false,
		"disable refreshing panels when the library file changes")

	_ = viper.BindPFlag("library_path", rootCmd.Flags().Lookup("library"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("library_path", defaults.LibraryPath)
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("autosave_layout", defaults.AutosaveLayout)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("ui.show_positions", defaults.UI.ShowPositions)
	viper.SetDefault("ui.default_drag_mode", defaults.UI.DefaultDragMode)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(filepath.Join(home, ".splitdeck"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config anywhere yet - write the commented default template.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				defaultPath := filepath.Join(home, ".splitdeck", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if noAutoRefresh, _ := cmd.Flags().GetBool("no-auto-refresh"); noAutoRefresh {
		cfg.AutoRefresh = false
	}

	if debug || os.Getenv("SPLITDECK_DEBUG") != "" {
		logPath := filepath.Join(filepath.Dir(cfg.LibraryPath), "debug.log")
		if cleanup, err := log.Init(logPath); err == nil {
			defer cleanup()
		}
	} else {
		log.SetEnabled(false)
	}

	db, err := sqlite.NewDB(cfg.LibraryPath)
	if err != nil {
		return fmt.Errorf("opening library: %w", err)
	}
	defer func() { _ = db.Close() }()

	store := sqlite.NewCollectionStore(db)
	layoutRepo := sqlite.NewLayoutRepository(db)

	var w *watcher.Watcher
	if cfg.AutoRefresh {
		w, err = watcher.New(watcher.DefaultConfig(cfg.LibraryPath))
		if err != nil {
			log.ErrorErr(log.CatWatcher, "watcher unavailable, auto-refresh disabled", err)
			w = nil
		}
	}

	zone.NewGlobal()
	model := app.New(cfg, store, layoutRepo, w)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, err := p.Run()
	if fm, ok := final.(app.Model); ok {
		fm.Shutdown()
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
