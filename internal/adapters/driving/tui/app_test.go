package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func newTestApp(t *testing.T) (*App, *MockDocumentService) {
	t.Helper()
	docs := &MockDocumentService{Docs: []domain.Document{
		{ID: "geo.txt", Title: "Geography", Source: "geo.txt", Content: "Paris is the capital of France.", ChunkCount: 1},
	}}
	query := &MockQueryService{
		AnswerFunc: func(_ context.Context, req domain.QueryRequest) (*domain.AnswerResult, error) {
			return &domain.AnswerResult{
				Answer:    "Paris [1].",
				Citations: []domain.Citation{{Index: 1, Source: "geo.txt", Title: "Geography"}},
				Sources:   []domain.Source{{ID: "geo.txt#0", Source: "geo.txt", Title: "Geography", Content: "capital of France", Score: 0.9}},
			}, nil
		},
	}

	app, err := NewApp(NewPorts(query, docs))
	require.NoError(t, err)
	app.SetDimensions(100, 30)
	return app, docs
}

// routed reports whether msg is an application message worth feeding back.
// Cursor blinks and spinner ticks are dropped so send terminates.
func routed(msg tea.Msg) bool {
	switch msg.(type) {
	case messages.ViewChanged, messages.AnswerCompleted, messages.DocumentSelected,
		messages.DocumentsLoaded, messages.DocumentContentLoaded, messages.DocumentDeleted,
		messages.ErrorOccurred:
		return true
	}
	return false
}

// typeText enters text into the focused input without running commands.
func typeText(app *App, text string) {
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

// send delivers msg and then runs any returned commands until they are
// exhausted, feeding their messages back into the app.
func send(app *App, msg tea.Msg) {
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		_, cmd := app.Update(next)
		if cmd == nil {
			continue
		}
		switch out := cmd().(type) {
		case nil:
		case tea.BatchMsg:
			for _, c := range out {
				if c == nil {
					continue
				}
				if m := c(); routed(m) {
					queue = append(queue, m)
				}
			}
		default:
			if routed(out) {
				queue = append(queue, out)
			}
		}
	}
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(NewPorts(&MockQueryService{}, &MockDocumentService{}))

	require.NoError(t, err)
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
	assert.False(t, app.Ready())
	assert.Equal(t, "Initialising...", app.View())
	assert.NotNil(t, app.Init())
}

func TestNewApp_InvalidPorts(t *testing.T) {
	app, err := NewApp(&Ports{Query: &MockQueryService{}})

	assert.ErrorIs(t, err, ErrMissingDocumentService)
	assert.Nil(t, app)
}

func TestApp_WithContext(t *testing.T) {
	app, _ := newTestApp(t)
	type contextKey string
	ctx := context.WithValue(context.Background(), contextKey("key"), "value")

	assert.Equal(t, app, app.WithContext(ctx))
	assert.Equal(t, ctx, app.ctx)
}

func TestApp_WindowSize(t *testing.T) {
	app, err := NewApp(NewPorts(&MockQueryService{}, &MockDocumentService{}))
	require.NoError(t, err)

	_, cmd := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Nil(t, cmd)
	assert.True(t, app.Ready())
	assert.Contains(t, app.View(), "sercha-rag")
}

func TestApp_CtrlC_Quits(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_QuitMessage(t *testing.T) {
	app, _ := newTestApp(t)

	_, cmd := app.Update(messages.Quit{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_MenuToAsk(t *testing.T) {
	app, _ := newTestApp(t)

	send(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, messages.ViewAsk, app.CurrentView())
	assert.Contains(t, app.View(), "Ask")
}

func TestApp_AskAndOpenSource(t *testing.T) {
	app, _ := newTestApp(t)
	send(app, messages.ViewChanged{View: messages.ViewAsk})

	typeText(app, "capital?")
	send(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Contains(t, app.View(), "Paris")
	assert.Contains(t, app.View(), "Sources (1)")
	assert.NoError(t, app.Err())

	send(app, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, messages.ViewDocContent, app.CurrentView())
	require.NotNil(t, app.SelectedDocument())
	assert.Equal(t, "geo.txt", app.SelectedDocument().ID)
	assert.Contains(t, app.View(), "Paris is the capital of France.")
	assert.Contains(t, app.View(), "cited passage at line 1")

	send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewAsk, app.CurrentView())
	assert.Contains(t, app.View(), "Sources (1)")
}

func TestApp_DocumentsFlow(t *testing.T) {
	app, docs := newTestApp(t)

	send(app, messages.ViewChanged{View: messages.ViewDocuments})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	assert.Contains(t, app.View(), "Geography")

	// Open.
	send(app, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, messages.ViewDocContent, app.CurrentView())
	assert.Contains(t, app.View(), "Paris is the capital")

	send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())

	// Delete.
	send(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}})
	assert.Contains(t, app.View(), "Delete Geography")
	send(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'y'}})
	assert.Equal(t, []string{"geo.txt"}, docs.Deleted)

	send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_Help(t *testing.T) {
	app, _ := newTestApp(t)

	send(app, messages.ViewChanged{View: messages.ViewHelp})
	assert.Contains(t, app.View(), "Answers cite sources")

	send(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())

	send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewMenu, app.CurrentView())
}

func TestApp_HelpKey(t *testing.T) {
	app, _ := newTestApp(t)
	send(app, messages.ViewChanged{View: messages.ViewDocuments})

	send(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	assert.Equal(t, messages.ViewHelp, app.CurrentView())
	assert.Contains(t, app.View(), "Documents")
	assert.Contains(t, app.View(), "reload")

	send(app, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
}

func TestApp_HelpKeyTypedIntoQuestion(t *testing.T) {
	app, _ := newTestApp(t)
	send(app, messages.ViewChanged{View: messages.ViewAsk})

	typeText(app, "?")

	assert.Equal(t, messages.ViewAsk, app.CurrentView())
	assert.Equal(t, "?", app.askView.Question())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app, _ := newTestApp(t)

	send(app, messages.ErrorOccurred{Err: domain.ErrNotFound})

	assert.ErrorIs(t, app.Err(), domain.ErrNotFound)
}
