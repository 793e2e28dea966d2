// Package documents lists the uploaded documents in a table. Enter opens
// one in the reader; delete asks for confirmation first.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
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
	// Title, blank, blank, status and help.
	chromeLines = 5

	chunksWidth   = 6
	uploadedWidth = 16
	// Cell padding across the four columns.
	padding = 8
)

// View is the documents table.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	documents driving.DocumentService
	ctx       context.Context

	docs  []domain.Document
	table table.Model

	// confirming holds the document awaiting a yes to delete.
	confirming *domain.Document
	status     string

	width   int
	height  int
	ready   bool
	loading bool
	err     error
}

// NewView creates the documents table.
func NewView(s *styles.Styles, km *keymap.KeyMap, documents driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	ts.Selected = s.Selected

	t := table.New(
		table.WithFocused(true),
		table.WithStyles(ts),
		table.WithKeyMap(table.KeyMap{
			LineUp:     km.Up,
			LineDown:   km.Down,
			PageUp:     km.PageUp,
			PageDown:   km.PageDown,
			GotoTop:    km.Top,
			GotoBottom: km.Bottom,
		}),
	)

	v := &View{
		styles:    s,
		keymap:    km,
		documents: documents,
		ctx:       context.Background(),
		table:     t,
	}
	v.table.SetColumns(v.columns())
	return v
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Load clears the table and returns a command that lists every document.
func (v *View) Load() tea.Cmd {
	v.setDocuments(nil)
	v.table.SetCursor(0)
	v.confirming = nil
	v.status = ""
	v.err = nil
	v.loading = true
	return v.list()
}

func (v *View) Init() tea.Cmd {
	return nil
}

func (v *View) list() tea.Cmd {
	svc, ctx := v.documents, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		docs, err := svc.List(ctx)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

func (v *View) remove(id string) tea.Cmd {
	svc, ctx := v.documents, v.ctx
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentDeleted{DocumentID: id, Err: errNoDocumentService}
		}
		return messages.DocumentDeleted{DocumentID: id, Err: svc.Delete(ctx, id)}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.confirming != nil {
			return v.handleConfirm(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.setDocuments(msg.Documents)
		}
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.status = "Deleted " + msg.DocumentID
		v.loading = true
		return v, v.list()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keymap.Back):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case key.Matches(msg, v.keymap.Reload):
		v.status = ""
		v.loading = true
		return v, v.list()
	case key.Matches(msg, v.keymap.Select):
		doc := v.SelectedDocument()
		if doc == nil {
			return v, nil
		}
		selected := *doc
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: selected}
		}
	case key.Matches(msg, v.keymap.Delete):
		v.confirming = v.SelectedDocument()
		return v, nil
	}

	var cmd tea.Cmd
	v.table, cmd = v.table.Update(msg)
	return v, cmd
}

// handleConfirm deletes on yes; any other key cancels.
func (v *View) handleConfirm(msg tea.KeyMsg) (*View, tea.Cmd) {
	doc := v.confirming
	v.confirming = nil
	if !key.Matches(msg, v.keymap.Confirm) {
		return v, nil
	}
	return v, v.remove(doc.ID)
}

// setDocuments replaces the rows, keeping the cursor on the same index
// where it still exists.
func (v *View) setDocuments(docs []domain.Document) {
	v.docs = docs
	rows := make([]table.Row, len(docs))
	for i, d := range docs {
		rows[i] = table.Row{displayTitle(&d), d.Source, fmt.Sprintf("%d", d.ChunkCount), uploaded(&d)}
	}
	v.table.SetRows(rows)
	v.table.SetCursor(v.table.Cursor())
}

func (v *View) columns() []table.Column {
	rest := max(v.width-4, 40) - chunksWidth - uploadedWidth - padding
	title := rest / 2
	return []table.Column{
		{Title: "Title", Width: title},
		{Title: "Source", Width: rest - title},
		{Title: "Chunks", Width: chunksWidth},
		{Title: "Uploaded", Width: uploadedWidth},
	}
}

func displayTitle(d *domain.Document) string {
	if d.Title != "" {
		return d.Title
	}
	return d.ID
}

func uploaded(d *domain.Document) string {
	if d.CreatedAt.IsZero() {
		return "-"
	}
	return d.CreatedAt.Local().Format("2006-01-02 15:04")
}

func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", len(v.docs))))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
	case len(v.docs) == 0:
		b.WriteString(v.styles.Muted.Render("No documents uploaded. Use 'sercha-rag upload' to add some."))
	default:
		b.WriteString(v.table.View())
	}
	b.WriteString("\n\n")

	switch {
	case v.confirming != nil:
		b.WriteString(v.styles.Warning.Render(
			fmt.Sprintf("Delete %s and its chunks? [y] yes  [any key] no", displayTitle(v.confirming))))
	case v.status != "":
		b.WriteString(v.styles.Success.Render(v.status))
	}
	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderHelp() string {
	bindings := v.keymap.DocumentsHelp()
	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, h.Key+": "+h.Desc)
	}
	return v.styles.Help.Render(strings.Join(hints, "  "))
}

// SetDimensions resizes the table to the terminal.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.table.SetColumns(v.columns())
	v.table.SetWidth(max(width-2, 0))
	v.table.SetHeight(max(height-chromeLines, 3))
}

func (v *View) Documents() []domain.Document { return v.docs }
func (v *View) SelectedIndex() int            { return v.table.Cursor() }
func (v *View) Err() error                    { return v.err }

// SelectedDocument is the document under the cursor, or nil.
func (v *View) SelectedDocument() *domain.Document {
	i := v.table.Cursor()
	if i < 0 || i >= len(v.docs) {
		return nil
	}
	return &v.docs[i]
}

// IsConfirming reports whether a delete is waiting for an answer.
func (v *View) IsConfirming() bool {
	return v.confirming != nil
}
