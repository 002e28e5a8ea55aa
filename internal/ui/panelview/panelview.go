// Package panelview renders one layout panel: a header describing the
// bound collection and its toggles, plus the windowed slice of item
// rows. Rows and the panel body are marked with bubblezone ids so the
// app can hit-test mouse events against them.
package panelview

import (
	"fmt"
	"strings"

	zone "github.com/lrstanley/bubblezone"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/splitdeck/internal/collection"
	"github.com/zjrosen/splitdeck/internal/layout"
	"github.com/zjrosen/splitdeck/internal/panel"
	"github.com/zjrosen/splitdeck/internal/ui/styles"
	"github.com/zjrosen/splitdeck/internal/virtual"
)

// Zone id prefixes for mouse hit-testing.
const (
	panelZonePrefix = "panel:"
	rowZonePrefix   = "panelrow:"
)

// PanelZoneID returns the zone id marking a panel's whole body.
func PanelZoneID(panelID string) string {
	return panelZonePrefix + panelID
}

// RowZoneID returns the zone id marking one rendered row.
func RowZoneID(panelID string, rowIndex int) string {
	return fmt.Sprintf("%s%s:%d", rowZonePrefix, panelID, rowIndex)
}

// NoDropIndex disables the drop indicator.
const NoDropIndex = -1

// Model holds everything needed to render one panel. It is rebuilt per
// frame from the stores; the only state it owns is presentation.
type Model struct {
	Panel   layout.Panel
	Name    string           // collection display name
	Rows    []collection.Row // filtered, sorted rows
	Window  *virtual.Window
	Focused bool

	// DropIndex is the filtered insertion index to indicate during a
	// drag, NoDropIndex for none.
	DropIndex int

	// Marked reports whether an insertion point exists at a global
	// position. Nil means no markers.
	Marked func(globalPosition int) bool

	ShowPositions bool
	Width, Height int
}

// ContentHeight returns the rows visible inside the frame: the panel
// height minus the border and the header line.
func (m Model) ContentHeight() int {
	h := m.Height - 3
	if h < 0 {
		return 0
	}
	return h
}

// View renders the framed panel.
func (m Model) View() string {
	if m.Width < 4 || m.Height < 4 {
		return ""
	}
	innerWidth := m.Width - 2

	border := styles.PanelBorderStyle
	switch {
	case m.Panel.Locked:
		border = styles.PanelLockedBorderStyle
	case m.Focused:
		border = styles.PanelFocusedBorderStyle
	}

	lines := []string{m.headerLine(innerWidth)}
	lines = append(lines, m.rowLines(innerWidth)...)
	for len(lines) < m.Height-2 {
		lines = append(lines, "")
	}
	// The drop indicator adds a line; with a full window that would
	// push the frame taller than its siblings, so the overflow row is
	// dropped instead.
	if limit := m.Height - 2; len(lines) > limit {
		lines = lines[:limit]
	}

	body := border.Width(innerWidth).Height(m.Height - 2).Render(strings.Join(lines, "\n"))
	return zone.Mark(PanelZoneID(m.Panel.ID), body)
}

func (m Model) headerLine(width int) string {
	name := m.Name
	if name == "" {
		name = "(unbound)"
	}

	var flags []string
	if m.Panel.Locked {
		flags = append(flags, "locked")
	}
	if !m.Panel.Editable {
		flags = append(flags, "ro")
	}
	flags = append(flags, string(m.Panel.DragMode))
	if m.Panel.Search != "" {
		flags = append(flags, "/"+m.Panel.Search)
	}

	suffix := " [" + strings.Join(flags, " ") + "]"
	name = runewidth.Truncate(name, max(0, width-runewidth.StringWidth(suffix)), "…")
	return styles.PanelHeaderStyle.Render(name) + styles.StatusBarStyle.Render(suffix)
}

func (m Model) rowLines(width int) []string {
	if len(m.Rows) == 0 {
		empty := styles.StatusBarStyle.Render("no items")
		if m.DropIndex == 0 {
			return []string{m.dropLine(width), empty}
		}
		return []string{empty}
	}
	if m.Window == nil {
		return nil
	}

	var lines []string
	for _, g := range m.Window.VisibleRows() {
		if g.Index >= len(m.Rows) {
			break
		}
		if g.Index == m.DropIndex {
			lines = append(lines, m.dropLine(width))
		}
		lines = append(lines, m.rowLine(g.Index, width))
	}
	// Insertion past the last visible row.
	if m.DropIndex == len(m.Rows) && m.Window.AtBottom() {
		lines = append(lines, m.dropLine(width))
	}
	return lines
}

func (m Model) dropLine(width int) string {
	return styles.DropIndicatorStyle.Render(strings.Repeat("─", max(0, width)))
}

func (m Model) rowLine(index, width int) string {
	row := m.Rows[index]

	gutter := " "
	if m.Marked != nil && m.Marked(row.Position) {
		gutter = styles.RowMarkerStyle.Render("▸")
	}

	var pos string
	if m.ShowPositions {
		pos = fmt.Sprintf("%3d ", row.Position)
	}

	title := row.Item.Title
	if title == "" {
		title = row.Item.ID
	}
	artist := ""
	if row.Item.Artist != "" {
		artist = " — " + row.Item.Artist
	}

	budget := width - 1 - runewidth.StringWidth(pos)
	text := runewidth.Truncate(title+artist, max(0, budget), "…")

	line := gutter + styles.StatusBarStyle.Render(pos) + styles.RowStyle.Render(text)

	key := panel.SelectionKey{PanelID: m.Panel.ID, ItemID: row.Item.ID, Position: row.Position}
	if _, selected := m.Panel.Selection[key.String()]; selected {
		line = styles.RowSelectedStyle.Render(gutter + pos + text)
	}

	return zone.Mark(RowZoneID(m.Panel.ID, index), line)
}
