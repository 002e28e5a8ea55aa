// Package help contains the help overlay listing every key binding.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/splitdeck/internal/ui/overlay"
	"github.com/zjrosen/splitdeck/internal/ui/styles"
)

// KeyMap groups the application bindings for display.
type KeyMap struct {
	SplitH     key.Binding
	SplitV     key.Binding
	ClosePanel key.Binding
	Focus      key.Binding
	Bind       key.Binding
	Lock       key.Binding
	DragMode   key.Binding
	Search     key.Binding
	Sort       key.Binding
	Scroll     key.Binding
	Mark       key.Binding
	Insert     key.Binding
	Cancel     key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the application's bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		SplitH:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "split side by side")),
		SplitV:     key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "split stacked")),
		ClosePanel: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close panel")),
		Focus:      key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "cycle focus")),
		Bind:       key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "bind playlist")),
		Lock:       key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "lock panel")),
		DragMode:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "toggle move/copy")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "filter rows")),
		Sort:       key.NewBinding(key.WithKeys("o", "O"), key.WithHelp("o/O", "cycle sort / flip direction")),
		Scroll:     key.NewBinding(key.WithKeys("j", "k"), key.WithHelp("j/k", "scroll")),
		Mark:       key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "toggle insertion point")),
		Insert:     key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "insert selection at points")),
		Cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel drag / clear selection")),
		Help:       key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextPrimaryColor).
			PaddingLeft(2)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(styles.TextSecondaryColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(styles.MarkerColor).
			Width(10).
			PaddingLeft(2)

	descStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondaryColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.BorderFocusedColor).
			Padding(0, 2, 1, 0)
)

// Model is the help overlay state.
type Model struct {
	keys    KeyMap
	visible bool
}

// New creates a hidden help overlay.
func New() Model {
	return Model{keys: DefaultKeyMap()}
}

// Toggle flips visibility.
func (m Model) Toggle() Model {
	m.visible = !m.visible
	return m
}

// Hide dismisses the overlay.
func (m Model) Hide() Model {
	m.visible = false
	return m
}

// Visible reports whether the overlay is showing.
func (m Model) Visible() bool {
	return m.visible
}

type section struct {
	title    string
	bindings []key.Binding
}

// View renders the framed key listing.
func (m Model) View() string {
	sections := []section{
		{"Layout", []key.Binding{m.keys.SplitH, m.keys.SplitV, m.keys.ClosePanel, m.keys.Focus}},
		{"Panels", []key.Binding{m.keys.Bind, m.keys.Lock, m.keys.DragMode, m.keys.Search, m.keys.Sort, m.keys.Scroll}},
		{"Editing", []key.Binding{m.keys.Mark, m.keys.Insert, m.keys.Cancel}},
		{"General", []key.Binding{m.keys.Help, m.keys.Quit}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("splitdeck keys"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("  " + s.title))
		b.WriteString("\n")
		for _, binding := range s.bindings {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key) + descStyle.Render(h.Desc))
			b.WriteString("\n")
		}
	}
	b.WriteString(descStyle.Render("\n  drag rows with the mouse; hold alt to copy"))
	return boxStyle.Render(b.String())
}

// Overlay renders the help box centered over the background view.
func (m Model) Overlay(bg string, width, height int) string {
	if !m.visible {
		return bg
	}
	cfg := overlay.Config{Width: width, Height: height, Position: overlay.Center}
	return overlay.Place(cfg, m.View(), bg)
}
