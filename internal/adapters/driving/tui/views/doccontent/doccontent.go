// Package doccontent is the document reader. Opened from an answer, it
// marks the cited passage and scrolls to it.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var errNoDocumentService = errors.New("document service not available")

const (
	// Title, source, rule, blank, indicator and help.
	chromeLines = 6
	gutter      = "▌ "
	// Lines of context kept above the passage when jumping to it.
	passageLead = 2
)

// View is the document reader.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	documents driving.DocumentService
	ctx       context.Context

	back     messages.ViewType
	document *domain.Document
	passage  string
	content  string

	// lines are the wrapped content lines; marked flags those inside the passage.
	lines  []string
	marked []bool
	focus  int // first marked line, or -1

	viewport viewport.Model
	width    int
	height   int
	ready    bool
	loading  bool
	err      error
}

// NewView creates a reader.
func NewView(s *styles.Styles, km *keymap.KeyMap, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	vp := viewport.New(0, 0)
	vp.KeyMap = viewport.KeyMap{
		Up:       km.Up,
		Down:     km.Down,
		PageUp:   km.PageUp,
		PageDown: km.PageDown,
	}

	return &View{
		styles:    s,
		keymap:    km,
		documents: documents,
		ctx:       context.Background(),
		back:      messages.ViewDocuments,
		focus:     -1,
		viewport:  vp,
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument opens doc and starts loading its text. passage, when not
// empty, is marked once the text arrives. Back returns to back.
func (v *View) SetDocument(doc *domain.Document, back messages.ViewType, passage string) tea.Cmd {
	v.document = doc
	v.back = back
	v.passage = strings.TrimSpace(passage)
	v.content = ""
	v.lines, v.marked, v.focus = nil, nil, -1
	v.viewport.SetContent("")
	v.viewport.GotoTop()
	v.err = nil
	v.loading = true
	return v.load()
}

func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) load() tea.Cmd {
	svc, ctx, doc := v.documents, v.ctx, v.document
	return func() tea.Msg {
		if doc == nil || svc == nil {
			return messages.DocumentContentLoaded{Err: errNoDocumentService}
		}
		stored, err := svc.Get(ctx, doc.ID)
		if err != nil {
			return messages.DocumentContentLoaded{DocumentID: doc.ID, Err: err}
		}
		return messages.DocumentContentLoaded{DocumentID: doc.ID, Content: stored.Content}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentContentLoaded:
		if v.document != nil && msg.DocumentID != "" && msg.DocumentID != v.document.ID {
			return v, nil
		}
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.content = msg.Content
			v.layout()
			v.JumpToPassage()
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		back := v.back
		return v, func() tea.Msg {
			return messages.ViewChanged{View: back}
		}
	case key.Matches(msg, v.keymap.Top):
		v.viewport.GotoTop()
		return v, nil
	case key.Matches(msg, v.keymap.Bottom):
		v.viewport.GotoBottom()
		return v, nil
	case key.Matches(msg, v.keymap.Passage):
		v.JumpToPassage()
		return v, nil
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// JumpToPassage scrolls so the marked passage sits near the top. It does
// nothing when no passage was found.
func (v *View) JumpToPassage() {
	if v.focus < 0 {
		return
	}
	v.viewport.SetYOffset(max(v.focus-passageLead, 0))
}

// layout wraps the content to the current width, marks the lines that
// overlap the passage and hands the result to the viewport.
func (v *View) layout() {
	v.lines, v.marked, v.focus = nil, nil, -1
	if v.content == "" {
		v.viewport.SetContent("")
		return
	}

	start, end := -1, -1
	if v.passage != "" {
		if i := strings.Index(v.content, v.passage); i >= 0 {
			start, end = i, i+len(v.passage)
		}
	}

	width := max(v.width-4, 20)
	wrap := lipgloss.NewStyle().Width(width)
	offset := 0
	for _, raw := range strings.Split(v.content, "\n") {
		inside := start >= 0 && offset < end && offset+len(raw) > start
		offset += len(raw) + 1

		wrapped := []string{raw}
		if lipgloss.Width(raw) > width {
			wrapped = strings.Split(wrap.Render(raw), "\n")
		}
		for _, line := range wrapped {
			if inside && v.focus < 0 {
				v.focus = len(v.lines)
			}
			v.lines = append(v.lines, strings.TrimRight(line, " "))
			v.marked = append(v.marked, inside)
		}
	}

	rendered := make([]string, len(v.lines))
	for i, line := range v.lines {
		if v.marked[i] {
			rendered[i] = v.styles.Citation.Render(gutter) + v.styles.Normal.Render(line)
		} else {
			rendered[i] = "  " + v.styles.Normal.Render(line)
		}
	}
	v.viewport.SetContent(strings.Join(rendered, "\n"))
}

func (v *View) View() string {
	var b strings.Builder

	title := "Document"
	if v.document != nil {
		title = v.document.Title
		if title == "" {
			title = v.document.ID
		}
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	if v.document != nil && v.document.Source != "" && v.document.Source != title {
		b.WriteString(v.styles.Muted.Render(v.document.Source))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading content..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.lines) == 0:
		b.WriteString(v.styles.Muted.Render("(No content)"))
	default:
		b.WriteString(v.viewport.View())
		if indicator := v.indicator(); indicator != "" {
			b.WriteString("\n")
			b.WriteString(v.styles.Muted.Render(indicator))
		}
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

// indicator reports the scroll position, and the passage location when
// one is marked.
func (v *View) indicator() string {
	var parts []string
	total := len(v.lines)
	if visible := v.viewport.Height; total > visible {
		top := v.viewport.YOffset
		parts = append(parts, fmt.Sprintf("[%d%%] Line %d-%d of %d",
			int(v.viewport.ScrollPercent()*100), top+1, min(top+visible, total), total))
	}
	if v.focus >= 0 {
		parts = append(parts, fmt.Sprintf("cited passage at line %d", v.focus+1))
	} else if v.passage != "" {
		parts = append(parts, "cited passage not found")
	}
	if len(parts) == 0 {
		return ""
	}
	return "  " + strings.Join(parts, " | ")
}

func (v *View) renderHelp() string {
	bindings := v.keymap.ReaderHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return v.styles.Help.Render(strings.Join(hints, "  "))
}

// SetDimensions resizes the reader and rewraps the content.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.viewport.Width = width
	v.viewport.Height = max(height-chromeLines, 1)
	v.layout()
	v.JumpToPassage()
}

func (v *View) Document() *domain.Document { return v.document }
func (v *View) Content() string            { return v.content }
func (v *View) Err() error                 { return v.err }

// Offset is the first visible line.
func (v *View) Offset() int { return v.viewport.YOffset }

// PassageLine is the first marked line, or -1.
func (v *View) PassageLine() int { return v.focus }
