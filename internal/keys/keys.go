package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Refetch / retry
	Refresh key.Binding

	// Bell dropdown
	Bell key.Binding

	// Per-item actions
	ToggleRead key.Binding
	Archive    key.Binding
	Delete     key.Binding
	MarkAll    key.Binding

	// List filters
	GroupByDate    key.Binding
	FilterCategory key.Binding
	FilterPriority key.Binding
	FilterRead     key.Binding
	ClearFilters   key.Binding

	// Preferences editor
	Preferences key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh / retry"),
		),
		Bell: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "notifications"),
		),
		ToggleRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read/unread"),
		),
		Archive: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "archive"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		MarkAll: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "mark all read"),
		),
		GroupByDate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "group by date"),
		),
		FilterCategory: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "cycle category"),
		),
		FilterPriority: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "cycle priority"),
		),
		FilterRead: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "cycle read state"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "clear filters"),
		),
		Preferences: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "preferences"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Bell, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Bell, k.Command, k.Help, k.Refresh, k.Preferences},
		{k.ToggleRead, k.Archive, k.Delete, k.MarkAll},
		{k.GroupByDate, k.FilterCategory, k.FilterPriority, k.FilterRead, k.ClearFilters},
	}
}
