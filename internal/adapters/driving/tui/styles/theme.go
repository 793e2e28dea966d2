// Package styles holds the colour palette and lipgloss styles for the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/citation"
)

// Palette is the set of colours every style is derived from.
type Palette struct {
	Accent  lipgloss.Color // titles, selection
	Cite    lipgloss.Color // resolved [n] markers, section headers
	Text    lipgloss.Color
	Dim     lipgloss.Color
	Surface lipgloss.Color // status bar background
	Edge    lipgloss.Color // input border
	Good    lipgloss.Color
	Caution lipgloss.Color
	Bad     lipgloss.Color
}

// DefaultPalette is a dark palette.
func DefaultPalette() Palette {
	return Palette{
		Accent:  lipgloss.Color("#7C3AED"),
		Cite:    lipgloss.Color("#06B6D4"),
		Text:    lipgloss.Color("#CDD6F4"),
		Dim:     lipgloss.Color("#6C7086"),
		Surface: lipgloss.Color("#181825"),
		Edge:    lipgloss.Color("#45475A"),
		Good:    lipgloss.Color("#A6E3A1"),
		Caution: lipgloss.Color("#F9E2AF"),
		Bad:     lipgloss.Color("#F38BA8"),
	}
}

// Styles are the rendered styles shared by all views.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// Answer rendering.
	Citation           lipgloss.Style
	UnresolvedCitation lipgloss.Style
	Score              lipgloss.Style
	Snippet            lipgloss.Style
}

// NewStyles derives styles from p.
func NewStyles(p Palette) *Styles {
	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(p.Cite),
		Normal:   lipgloss.NewStyle().Foreground(p.Text),
		Muted:    lipgloss.NewStyle().Foreground(p.Dim),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(p.Text).Background(p.Accent),
		Help:     lipgloss.NewStyle().Foreground(p.Dim),

		Error:   lipgloss.NewStyle().Foreground(p.Bad),
		Success: lipgloss.NewStyle().Foreground(p.Good),
		Warning: lipgloss.NewStyle().Foreground(p.Caution),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(p.Edge).
			Padding(0, 1),
		StatusBar: lipgloss.NewStyle().
			Foreground(p.Dim).
			Background(p.Surface).
			Padding(0, 1),

		Citation:           lipgloss.NewStyle().Bold(true).Foreground(p.Cite),
		UnresolvedCitation: lipgloss.NewStyle().Foreground(p.Dim).Strikethrough(true),
		Score:              lipgloss.NewStyle().Foreground(p.Good),
		Snippet:            lipgloss.NewStyle().Foreground(p.Dim).Italic(true),
	}
}

// DefaultStyles returns styles for DefaultPalette.
func DefaultStyles() *Styles {
	return NewStyles(DefaultPalette())
}

// CitationStyle colours answer markers: resolved markers in the citation
// colour, unresolved ones dimmed and struck through.
func (s *Styles) CitationStyle() citation.Style {
	return citation.Style{
		Resolved: func(seg citation.Segment) string {
			return s.Citation.Render(seg.Text)
		},
		Unresolved: func(seg citation.Segment) string {
			return s.UnresolvedCitation.Render(seg.Text)
		},
	}
}
