// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap holds every binding the views react to.
type KeyMap struct {
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	// Ask submits the typed question.
	Ask key.Binding

	// History recalls earlier questions while typing.
	History key.Binding

	// NewQuestion leaves the answer and focuses the prompt.
	NewQuestion key.Binding

	// Open shows the document behind the selected source.
	Open key.Binding

	// Reload refreshes the document list.
	Reload key.Binding

	// Delete asks to remove the selected document; Confirm answers yes.
	Delete  key.Binding
	Confirm key.Binding

	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding

	// Passage scrolls the reader back to the cited passage.
	Passage key.Binding
}

// Section is a titled group of bindings for the help screen.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Ask: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "ask"),
		),
		History: key.NewBinding(
			key.WithKeys("up", "down"),
			key.WithHelp("↑/↓", "history"),
		),
		NewQuestion: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new question"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open source"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("pgdn", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		Passage: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cited passage"),
		),
	}
}

// ShortHelp is shown when no screen-specific hints apply.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// AskHelp is shown while typing a question.
func (k *KeyMap) AskHelp() []key.Binding {
	return []key.Binding{k.Ask, k.History, k.Back}
}

// AnswerHelp is shown while browsing an answer's sources.
func (k *KeyMap) AnswerHelp() []key.Binding {
	return []key.Binding{k.NewQuestion, k.Up, k.Open, k.Back}
}

// DocumentsHelp is shown under the document table.
func (k *KeyMap) DocumentsHelp() []key.Binding {
	return []key.Binding{k.Up, k.Select, k.Delete, k.Reload, k.Back}
}

// ReaderHelp is shown under a document.
func (k *KeyMap) ReaderHelp() []key.Binding {
	return []key.Binding{k.Up, k.PageDown, k.Top, k.Passage, k.Back}
}

// Sections groups bindings by screen for the help view.
func (k *KeyMap) Sections() []Section {
	return []Section{
		{Title: "Menu", Bindings: []key.Binding{k.Up, k.Down, k.Select, k.Quit}},
		{Title: "Ask", Bindings: []key.Binding{k.Ask, k.History, k.Up, k.Down, k.Open, k.NewQuestion}},
		{Title: "Documents", Bindings: []key.Binding{k.Up, k.Down, k.Select, k.Delete, k.Confirm, k.Reload}},
		{Title: "Reader", Bindings: []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom, k.Passage}},
		{Title: "Everywhere", Bindings: []key.Binding{k.Back, k.Help}},
	}
}
