package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings shared by the wizard steps.
type KeyMap struct {
	// Navigation
	Up   key.Binding
	Down key.Binding

	// Actions
	Select     key.Binding
	Toggle     key.Binding
	ToggleAll  key.Binding
	AssignUser key.Binding
	AssignForm key.Binding
	FillForm   key.Binding
	Next       key.Binding
	Back       key.Binding
	LevelUp    key.Binding
	Submit     key.Binding
	Open       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous item"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next item"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		ToggleAll: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "toggle all"),
		),
		AssignUser: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "assign user"),
		),
		AssignForm: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "assign form"),
		),
		FillForm: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "fill form data"),
		),
		Next: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next step"),
		),
		Back: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "previous step"),
		),
		LevelUp: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back up"),
		),
		Submit: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "submit"),
		),
		Open: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns key bindings to be shown in the mini help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the expanded help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Toggle},
		{k.ToggleAll, k.AssignUser, k.AssignForm, k.FillForm},
		{k.Next, k.Back, k.Submit, k.Quit},
	}
}
