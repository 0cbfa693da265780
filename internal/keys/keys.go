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

	// Reload reference data; also retries a failed load.
	Reload key.Binding

	// Batch actions
	New    key.Binding
	Delete key.Binding
	Clear  key.Binding
	Upload key.Binding

	// Dispatch history
	History key.Binding
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
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload reference data"),
		),
		New: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new tasks"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "remove task"),
		),
		Clear: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "clear batch"),
		),
		Upload: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "upload batch"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "dispatch history"),
		),
	}
}

// SetDispatching disables the bindings that change the batch while an
// upload is in flight, and enables them again afterwards.
func (k *KeyMap) SetDispatching(dispatching bool) {
	for _, b := range []*key.Binding{&k.New, &k.Delete, &k.Clear, &k.Upload, &k.Reload} {
		b.SetEnabled(!dispatching)
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.New, k.Delete, k.Upload,
		k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.New, k.Delete, k.Clear, k.Upload},
		{k.History, k.Reload, k.Command, k.Help},
	}
}
