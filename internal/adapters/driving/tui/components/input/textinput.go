// Package input provides the question prompt for the TUI.
package input

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

// MaxQuestionLength caps a question in runes.
const MaxQuestionLength = 1000

// counterThreshold is the fraction of MaxQuestionLength at which the
// remaining-length counter appears.
const counterThreshold = 0.8

// QuestionInput is a single-line prompt that remembers submitted
// questions. Up and down walk the history while focused.
type QuestionInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int

	history []string
	cursor  int    // len(history) means "not browsing"
	draft   string // text typed before browsing started
}

// NewQuestionInput creates a focused, empty prompt.
func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Ask a question about your documents..."
	ti.CharLimit = MaxQuestionLength
	ti.Width = 50
	ti.Focus()

	return &QuestionInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key input. History keys are consumed here; everything
// else goes to the underlying textinput.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && q.textinput.Focused() {
		switch key.Type {
		case tea.KeyUp:
			q.recall(-1)
			return q, nil
		case tea.KeyDown:
			q.recall(1)
			return q, nil
		}
	}

	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

func (q *QuestionInput) View() string {
	label := q.styles.Title.Render("Ask: ")
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	row := lipgloss.JoinHorizontal(lipgloss.Center, label, field)

	n := len([]rune(q.textinput.Value()))
	if float64(n) >= counterThreshold*MaxQuestionLength {
		row += q.styles.Muted.Render(fmt.Sprintf(" %d/%d", n, MaxQuestionLength))
	}
	return row
}

// Submit returns the trimmed question and records it in the history.
// Blank input returns "" and leaves the history alone.
func (q *QuestionInput) Submit() string {
	question := strings.TrimSpace(q.textinput.Value())
	if question == "" {
		return ""
	}
	if len(q.history) == 0 || q.history[len(q.history)-1] != question {
		q.history = append(q.history, question)
	}
	q.cursor = len(q.history)
	q.draft = ""
	return question
}

// History returns submitted questions, oldest first.
func (q *QuestionInput) History() []string {
	return q.history
}

// recall moves through the history. Walking past the newest entry
// restores whatever was being typed.
func (q *QuestionInput) recall(delta int) {
	if len(q.history) == 0 {
		return
	}
	if q.cursor == len(q.history) {
		q.draft = q.textinput.Value()
	}

	next := q.cursor + delta
	switch {
	case next < 0:
		next = 0
	case next > len(q.history):
		next = len(q.history)
	}
	q.cursor = next

	if q.cursor == len(q.history) {
		q.textinput.SetValue(q.draft)
	} else {
		q.textinput.SetValue(q.history[q.cursor])
	}
	q.textinput.CursorEnd()
}

func (q *QuestionInput) Value() string {
	return q.textinput.Value()
}

func (q *QuestionInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

func (q *QuestionInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

func (q *QuestionInput) Blur() {
	q.textinput.Blur()
}

func (q *QuestionInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sizes the field, leaving room for the label and counter.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	fieldWidth := width - 20
	if fieldWidth < 20 {
		fieldWidth = 20
	}
	q.textinput.Width = fieldWidth
}

func (q *QuestionInput) Width() int {
	return q.width
}

// Reset clears the text and stops history browsing.
func (q *QuestionInput) Reset() {
	q.textinput.Reset()
	q.cursor = len(q.history)
	q.draft = ""
}
