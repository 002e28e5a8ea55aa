// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#CCCCCC"} // Row titles
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#636E72", Dark: "#BBBBBB"} // Artists, positions
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#B2BEC3", Dark: "#696969"} // Hints, help text, footers

	// Semantic color names - Border
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Unfocused panels
	BorderFocusedColor = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#54A0FF"} // Focused panel
	BorderLockedColor  = lipgloss.AdaptiveColor{Light: "#922B21", Dark: "#FF8787"} // Locked panels

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Row states
	SelectionBackgroundColor = lipgloss.AdaptiveColor{Light: "#D6EAF8", Dark: "#264F78"}
	DropIndicatorColor       = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	MarkerColor              = lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"}
	DragSourceColor          = lipgloss.AdaptiveColor{Light: "#9CA0B0", Dark: "#6C7086"}

	// Toast borders
	ToastBorderSuccessColor = StatusSuccessColor
	ToastBorderErrorColor   = StatusErrorColor
	ToastBorderInfoColor    = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}
	ToastBorderWarnColor    = StatusWarningColor
)

var (
	// PanelBorderStyle frames an unfocused panel.
	PanelBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(BorderDefaultColor)

	// PanelFocusedBorderStyle frames the focused panel.
	PanelFocusedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(BorderFocusedColor)

	// PanelLockedBorderStyle frames a locked panel.
	PanelLockedBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(BorderLockedColor)

	// PanelHeaderStyle renders the collection name line.
	PanelHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	// RowStyle renders an ordinary item row.
	RowStyle = lipgloss.NewStyle().Foreground(TextPrimaryColor)

	// RowArtistStyle renders the artist segment of a row.
	RowArtistStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	// RowSelectedStyle highlights rows in the panel's selection.
	RowSelectedStyle = lipgloss.NewStyle().Background(SelectionBackgroundColor)

	// RowMarkerStyle renders the insertion point gutter flag.
	RowMarkerStyle = lipgloss.NewStyle().Bold(true).Foreground(MarkerColor)

	// DropIndicatorStyle renders the insertion line while dragging.
	DropIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(DropIndicatorColor)

	// StatusBarStyle renders the bottom status line.
	StatusBarStyle = lipgloss.NewStyle().Foreground(TextMutedColor)
)
