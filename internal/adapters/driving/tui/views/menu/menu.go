// Package menu is the start screen.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

// Entry is one line of the menu. An entry without a View quits.
type Entry struct {
	Label       string
	Description string
	View        messages.ViewType
}

var entries = []Entry{
	{Label: "Ask", Description: "ask a question about your documents", View: messages.ViewAsk},
	{Label: "Documents", Description: "browse, read and remove uploads", View: messages.ViewDocuments},
	{Label: "Help", Description: "keys and how answers are cited", View: messages.ViewHelp},
	{Label: "Quit"},
}

type View struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	entries []Entry
	cursor  int
	width   int
	height  int
	ready   bool
}

func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{styles: s, keymap: km, entries: entries}
}

func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keymap.Up):
			v.cursor = max(v.cursor-1, 0)
		case key.Matches(msg, v.keymap.Down):
			v.cursor = min(v.cursor+1, len(v.entries)-1)
		case key.Matches(msg, v.keymap.Select):
			return v, v.choose(v.cursor)
		case key.Matches(msg, v.keymap.Quit):
			return v, tea.Quit
		default:
			// 1-9 pick an entry directly.
			if r := msg.Runes; msg.Type == tea.KeyRunes && len(r) == 1 && r[0] >= '1' && r[0] <= '9' {
				if i := int(r[0] - '1'); i < len(v.entries) {
					v.cursor = i
					return v, v.choose(i)
				}
			}
		}
	}
	return v, nil
}

func (v *View) choose(i int) tea.Cmd {
	e := v.entries[i]
	if e.View == 0 {
		return tea.Quit
	}
	return func() tea.Msg {
		return messages.ViewChanged{View: e.View}
	}
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	labelWidth := 0
	for _, e := range v.entries {
		labelWidth = max(labelWidth, lipgloss.Width(e.Label))
	}
	label := lipgloss.NewStyle().Width(labelWidth + 2)

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("sercha-rag"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Grounded answers from your documents"))
	b.WriteString("\n\n")

	for i, e := range v.entries {
		line := fmt.Sprintf("%d %s", i+1, label.Render(e.Label))
		if i == v.cursor {
			b.WriteString(v.styles.Selected.Render("> " + line))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + line))
		}
		if e.Description != "" {
			b.WriteString(v.styles.Muted.Render(e.Description))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("↑/↓ move  enter select  1-4 jump  ? help  q quit"))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected is the index under the cursor.
func (v *View) Selected() int {
	return v.cursor
}
