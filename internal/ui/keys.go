package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keyboard shortcuts of the widget host.
// Up/Down share help text since they appear as a single row in the help
// overlay.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	Home     key.Binding
	End      key.Binding
	PageUp   key.Binding
	PageDown key.Binding

	// Actions
	Expand    key.Binding
	LoadMore  key.Binding
	Refresh   key.Binding
	Configure key.Binding
	Copy      key.Binding
	Help      key.Binding
	Quit      key.Binding

	// Configuration form
	NextField key.Binding
	PrevField key.Binding
	Prev      key.Binding
	Next      key.Binding
	PrevTab   key.Binding
	NextTab   key.Binding
	AllItems  key.Binding
	Apply     key.Binding
	Save      key.Binding
	Cancel    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/↓  j/k", "Move up/down"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↑/↓  j/k", "Move up/down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("Home  g", "Jump to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("End   G", "Jump to bottom"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+b"),
			key.WithHelp("PgUp  Ctrl+B", "Page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+f"),
			key.WithHelp("PgDn  Ctrl+F", "Page down"),
		),

		Expand: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("⏎ (Enter)", "Show fields"),
		),
		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "Load more"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Configure: key.NewBinding(
			key.WithKeys("c", "e"),
			key.WithHelp("c", "Edit widget"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "Copy issue link"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "Quit"),
		),

		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("⇥ (Tab)", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("⇧⇥", "Previous field"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←/→", "Change choice"),
		),
		Next: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("←/→", "Change choice"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[/]", "Switch filter group"),
		),
		NextTab: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("[/]", "Switch filter group"),
		),
		AllItems: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("Ctrl+A", "Show all filters"),
		),
		Apply: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("⏎ (Enter)", "Apply"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("Ctrl+S", "Save"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "Cancel"),
		),
	}
}
