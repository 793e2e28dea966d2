// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/citation"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// View shows the question input, the cited answer and its sources.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.SourceList
	statusbar *status.Bar
	spinner   spinner.Model

	queryService driving.QueryService
	ctx          context.Context

	width      int
	height     int
	ready      bool
	err        error
	result     *domain.AnswerResult
	answering  bool
	focusInput bool // true = typing a question, false = browsing sources
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, queryService driving.QueryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	return &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQuestionInput(s),
		list:         list.NewSourceList(s),
		statusbar:    status.NewBar(s, km),
		spinner:      sp,
		queryService: queryService,
		ctx:          context.Background(),
		width:        80,
		height:       24,
		focusInput:   true,
	}
}

// WithContext sets the context used for queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerCompleted:
		v.handleAnswerCompleted(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.answering = false
		v.setError(msg.Err)
		return v, nil

	case spinner.TickMsg:
		if !v.answering {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	// Ignore input while a question is in flight.
	if v.answering {
		return v, nil
	}

	if v.focusInput {
		if key.Matches(msg, v.keymap.Ask) {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Open):
		src := v.list.SelectedSource()
		if src == nil {
			return v, nil
		}
		doc := domain.Document{ID: src.Source, Title: src.Title, Source: src.Source}
		passage := src.Content
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: doc, Passage: passage}
		}
	case key.Matches(msg, v.keymap.NewQuestion):
		v.focusInput = true
		v.input.Focus()
		v.input.SetValue("")
		return v, nil
	}

	v.list, _ = v.list.Update(msg)
	return v, nil
}

// submit starts answering the current question.
func (v *View) submit() tea.Cmd {
	question := v.input.Submit()
	if question == "" {
		return nil
	}

	v.answering = true
	v.err = nil
	v.focusInput = false
	v.input.Blur()
	v.statusbar.Answering()

	return tea.Batch(v.spinner.Tick, v.performAsk(question))
}

func (v *View) performAsk(question string) tea.Cmd {
	svc := v.queryService
	ctx := v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.ErrorOccurred{Err: ErrNoQueryService}
		}
		result, err := svc.Answer(ctx, domain.QueryRequest{Query: question})
		return messages.AnswerCompleted{Result: result, Err: err}
	}
}

func (v *View) handleAnswerCompleted(msg messages.AnswerCompleted) {
	v.answering = false
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}
	if msg.Result == nil {
		return
	}

	v.err = nil
	v.result = msg.Result
	v.focusInput = false
	v.input.Blur()
	v.list.SetSources(msg.Result.Sources)
	v.statusbar.Answered(msg.Result)
}

func (v *View) setError(err error) {
	if err == nil {
		return
	}
	v.err = err
	v.statusbar.Failed(err)
	// Let the user retry straight away.
	v.focusInput = true
	v.input.Focus()
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 10)
	sections = append(sections, v.styles.Title.Render("Ask"), "", v.input.View(), "")

	switch {
	case v.answering:
		sections = append(sections, v.spinner.View()+" "+v.styles.Muted.Render("Retrieving and composing answer..."), "")
	case v.err != nil:
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	case v.result != nil:
		sections = append(sections, v.renderAnswer(), "", v.list.View(), "")
	}

	sections = append(sections, v.statusbar.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderAnswer formats the answer markdown with coloured citation markers.
func (v *View) renderAnswer() string {
	style := v.styles.CitationStyle()
	wrap := lipgloss.NewStyle().Width(v.width - 2)

	blocks := citation.RenderMarkdown(v.result.Answer, v.result.Citations)
	lines := make([]string, 0, len(blocks))
	for _, block := range blocks {
		text := style.Format(block.Segments)
		switch block.Kind {
		case citation.BlockHeading:
			lines = append(lines, v.styles.Subtitle.Render(text))
		case citation.BlockListItem:
			indent := strings.Repeat("  ", max(block.Level-1, 0))
			lines = append(lines, wrap.Render(indent+"- "+text))
		case citation.BlockQuote:
			lines = append(lines, v.styles.Muted.Render("> ")+wrap.Render(text))
		case citation.BlockCode:
			lines = append(lines, v.styles.Muted.Render(text))
		default:
			lines = append(lines, wrap.Render(text))
		}
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height/2)
	v.statusbar.SetWidth(width)
}

// Width returns the current width.
func (v *View) Width() int {
	return v.width
}

// Height returns the current height.
func (v *View) Height() int {
	return v.height
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Question returns the current question text.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the question text.
func (v *View) SetQuestion(question string) {
	v.input.SetValue(question)
}

// Result returns the last answer, if any.
func (v *View) Result() *domain.AnswerResult {
	return v.result
}

// Answering reports whether a question is in flight.
func (v *View) Answering() bool {
	return v.answering
}

// SelectedSource returns the highlighted source.
func (v *View) SelectedSource() *domain.Source {
	return v.list.SelectedSource()
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to an empty question.
func (v *View) Reset() {
	v.focusInput = true
	v.answering = false
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetSources(nil)
	v.result = nil
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
