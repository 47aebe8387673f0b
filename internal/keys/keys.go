package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Open / Back / Quit
	Open key.Binding
	Back key.Binding
	Quit key.Binding

	// Selection
	Toggle      key.Binding
	RangeSelect key.Binding
	SelectAll   key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Mailbox views
	ViewPrimary key.Binding
	ViewOthers  key.Binding
	ViewSent    key.Binding
	ViewDrafts  key.Binding
	ViewSpam    key.Binding
	ViewTrash   key.Binding
	ViewArchive key.Binding

	// Filter cycle (all / unread / has attachment)
	CycleFilter key.Binding

	// Message actions
	Compose key.Binding
	Archive key.Binding
	Trash   key.Binding
	Restore key.Binding
	Unread  key.Binding
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
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open message"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "select"),
		),
		RangeSelect: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "select range"),
		),
		SelectAll: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("ctrl+a", "select all"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
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
			key.WithHelp("r", "refresh"),
		),
		ViewPrimary: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "primary"),
		),
		ViewOthers: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "others"),
		),
		ViewSent: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "sent"),
		),
		ViewDrafts: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "drafts"),
		),
		ViewSpam: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "spam"),
		),
		ViewTrash: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "trash"),
		),
		ViewArchive: key.NewBinding(
			key.WithKeys("7"),
			key.WithHelp("7", "archive"),
		),
		CycleFilter: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "cycle filter"),
		),
		Compose: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "compose"),
		),
		Archive: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "archive"),
		),
		Trash: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "trash"),
		),
		Restore: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "move to inbox"),
		),
		Unread: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Open, k.Toggle,
		k.Compose, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open, k.Back, k.Quit},
		{k.Toggle, k.RangeSelect, k.SelectAll, k.Search, k.Command, k.Refresh},
		{k.ViewPrimary, k.ViewOthers, k.ViewSent, k.ViewDrafts, k.ViewSpam, k.ViewTrash, k.ViewArchive},
		{k.Compose, k.Archive, k.Trash, k.Restore, k.Unread, k.CycleFilter, k.Help},
	}
}
