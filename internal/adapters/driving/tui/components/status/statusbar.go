// Package status provides the status line under the ask view.
package status

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// State is what the ask view is doing.
type State string

const (
	StateReady     State = "ready"
	StateAnswering State = "answering"
	StateAnswered  State = "answered"
	StateError     State = "error"
)

// Bar shows pipeline progress on the left and key hints on the right.
type Bar struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	width  int

	state   State
	message string

	// Set by Answered.
	sources  int
	elapsed  time.Duration
	cost     *float64
	degraded bool
}

// NewBar creates a status bar in the ready state.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{
		styles: s,
		keymap: km,
		width:  80,
		state:  StateReady,
	}
}

// Answering marks a question as in flight.
func (b *Bar) Answering() {
	b.Clear()
	b.state = StateAnswering
}

// Answered summarises a finished answer.
func (b *Bar) Answered(result *domain.AnswerResult) {
	b.Clear()
	b.state = StateAnswered
	if result == nil {
		return
	}
	b.sources = len(result.Sources)
	b.elapsed = result.TotalTime
	b.cost = result.EstimatedCost
	b.degraded = result.RerankDegraded
}

// Failed shows err until the next question.
func (b *Bar) Failed(err error) {
	b.Clear()
	b.state = StateError
	if err != nil {
		b.message = err.Error()
	}
}

// Clear returns to the ready state.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.sources = 0
	b.elapsed = 0
	b.cost = nil
	b.degraded = false
}

func (b *Bar) View() string {
	left := b.renderLeft()
	right := b.renderHints()

	gap := b.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) renderLeft() string {
	switch b.state {
	case StateAnswering:
		return b.styles.Muted.Render("Thinking...")

	case StateError:
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)

	case StateAnswered:
		parts := []string{pluralise(b.sources, "source")}
		if b.elapsed > 0 {
			parts = append(parts, b.elapsed.Round(time.Millisecond).String())
		}
		if b.cost != nil {
			parts = append(parts, fmt.Sprintf("~$%.4f", *b.cost))
		}
		text := b.styles.Normal.Render(strings.Join(parts, " | "))
		if b.degraded {
			text += " " + b.styles.Warning.Render("[similarity order: rerank unavailable]")
		}
		return text
	}
	return b.styles.Muted.Render("Ready")
}

func (b *Bar) renderHints() string {
	var bindings []key.Binding
	switch b.state {
	case StateReady, StateError:
		bindings = b.keymap.AskHelp()
	case StateAnswered:
		bindings = b.keymap.AnswerHelp()
	default:
		bindings = b.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		h := binding.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return b.styles.Muted.Render(strings.Join(hints, " | "))
}

func pluralise(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func (b *Bar) State() State     { return b.state }
func (b *Bar) Message() string  { return b.message }
func (b *Bar) SourceCount() int { return b.sources }
func (b *Bar) Degraded() bool   { return b.degraded }

func (b *Bar) SetWidth(width int) { b.width = width }
func (b *Bar) Width() int         { return b.width }
