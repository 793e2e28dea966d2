package documents

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// MockDocumentService implements driving.DocumentService for testing.
type MockDocumentService struct {
	ListFunc   func(ctx context.Context) ([]domain.Document, error)
	DeleteFunc func(ctx context.Context, documentID string) error
}

func (m *MockDocumentService) Upload(context.Context, *domain.RawDocument) (*domain.UploadResult, error) {
	return nil, nil
}

func (m *MockDocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []domain.Document{}, nil
}

func (m *MockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *MockDocumentService) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (m *MockDocumentService) Delete(ctx context.Context, documentID string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, documentID)
	}
	return nil
}

var _ driving.DocumentService = (*MockDocumentService)(nil)

func testDocuments() []domain.Document {
	return []domain.Document{
		{ID: "geo.txt", Title: "Geography", Source: "geo.txt", ChunkCount: 3,
			CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.Local)},
		{ID: "hist.md", Title: "History", Source: "hist.md", ChunkCount: 12},
		{ID: "notes.txt", Source: "notes.txt", ChunkCount: 1},
	}
}

func loadedView(t *testing.T, svc driving.DocumentService) *View {
	t.Helper()
	view := NewView(nil, nil, svc)
	view.SetDimensions(100, 30)
	view.Update(messages.DocumentsLoaded{Documents: testDocuments()})
	return view
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView(t *testing.T) {
	view := NewView(nil, nil, &MockDocumentService{})

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.NotNil(t, view.keymap)
	assert.Empty(t, view.Documents())
	assert.Nil(t, view.Init())
	assert.Nil(t, view.SelectedDocument())
}

func TestView_Load(t *testing.T) {
	called := false
	svc := &MockDocumentService{ListFunc: func(context.Context) ([]domain.Document, error) {
		called = true
		return testDocuments(), nil
	}}
	view := NewView(nil, nil, svc)
	view.SetDimensions(100, 30)

	cmd := view.Load()
	require.NotNil(t, cmd)
	assert.Contains(t, view.View(), "Loading documents")

	msg := cmd()
	assert.True(t, called)

	view.Update(msg)
	assert.Len(t, view.Documents(), 3)
	assert.Equal(t, 0, view.SelectedIndex())
	assert.NoError(t, view.Err())
}

func TestView_Load_NoService(t *testing.T) {
	view := NewView(nil, nil, nil)

	msg := view.Load()()

	loaded, ok := msg.(messages.DocumentsLoaded)
	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, errNoDocumentService)

	view.Update(msg)
	assert.Contains(t, view.View(), "document service not available")
}

func TestView_View_ListsDocuments(t *testing.T) {
	view := loadedView(t, &MockDocumentService{})

	out := view.View()

	assert.Contains(t, out, "Documents (3)")
	for _, want := range []string{"Title", "Source", "Chunks", "Uploaded"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "Geography")
	assert.Contains(t, out, "2026-03-01 12:00")
	assert.Contains(t, out, "12")
	assert.Contains(t, out, "notes.txt")
	assert.Contains(t, out, "d: delete")
}

func TestView_View_Empty(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.Update(messages.DocumentsLoaded{})

	assert.Contains(t, view.View(), "No documents uploaded")
}

func TestView_Navigation(t *testing.T) {
	view := loadedView(t, &MockDocumentService{})

	view.Update(keyMsg("up"))
	assert.Equal(t, 0, view.SelectedIndex())

	view.Update(keyMsg("j"))
	view.Update(keyMsg("down"))
	view.Update(keyMsg("down"))
	assert.Equal(t, 2, view.SelectedIndex())

	view.Update(keyMsg("k"))
	assert.Equal(t, "hist.md", view.SelectedDocument().ID)

	view.Update(keyMsg("g"))
	assert.Equal(t, 0, view.SelectedIndex())
	view.Update(keyMsg("G"))
	assert.Equal(t, 2, view.SelectedIndex())
}

func TestView_Esc_ReturnsToMenu(t *testing.T) {
	view := loadedView(t, &MockDocumentService{})

	_, cmd := view.Update(keyMsg("esc"))
	require.NotNil(t, cmd)

	assert.Equal(t, messages.ViewChanged{View: messages.ViewMenu}, cmd())
}

func TestView_Enter_OpensDocument(t *testing.T) {
	view := loadedView(t, &MockDocumentService{})
	view.Update(keyMsg("down"))

	_, cmd := view.Update(keyMsg("enter"))
	require.NotNil(t, cmd)

	selected, ok := cmd().(messages.DocumentSelected)
	require.True(t, ok)
	assert.Equal(t, "hist.md", selected.Document.ID)
	assert.Empty(t, selected.Passage)
}

func TestView_Enter_Empty(t *testing.T) {
	view := NewView(nil, nil, nil)
	view.Update(messages.DocumentsLoaded{})

	_, cmd := view.Update(keyMsg("enter"))

	assert.Nil(t, cmd)
}

func TestView_Delete_ConfirmReloads(t *testing.T) {
	var deleted string
	docs := testDocuments()
	svc := &MockDocumentService{
		DeleteFunc: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
		ListFunc: func(context.Context) ([]domain.Document, error) {
			return docs[:2], nil
		},
	}
	view := loadedView(t, svc)
	view.Update(keyMsg("G"))

	_, cmd := view.Update(keyMsg("d"))
	assert.Nil(t, cmd)
	require.True(t, view.IsConfirming())
	assert.Contains(t, view.View(), "Delete notes.txt and its chunks?")

	_, cmd = view.Update(keyMsg("y"))
	require.NotNil(t, cmd)
	assert.False(t, view.IsConfirming())

	msg := cmd()
	assert.Equal(t, messages.DocumentDeleted{DocumentID: "notes.txt"}, msg)
	assert.Equal(t, "notes.txt", deleted)

	_, reload := view.Update(msg)
	require.NotNil(t, reload)
	view.Update(reload())

	assert.Len(t, view.Documents(), 2)
	assert.Equal(t, 1, view.SelectedIndex())
	assert.Contains(t, view.View(), "Deleted notes.txt")
}

func TestView_Delete_AnyOtherKeyCancels(t *testing.T) {
	called := false
	view := loadedView(t, &MockDocumentService{DeleteFunc: func(context.Context, string) error {
		called = true
		return nil
	}})

	for _, k := range []string{"n", "esc", "down"} {
		view.Update(keyMsg("d"))
		require.True(t, view.IsConfirming())

		_, cmd := view.Update(keyMsg(k))

		assert.Nil(t, cmd, k)
		assert.False(t, view.IsConfirming(), k)
	}
	assert.False(t, called)
	assert.Equal(t, 0, view.SelectedIndex())
}

func TestView_DeleteError(t *testing.T) {
	view := loadedView(t, &MockDocumentService{})

	_, cmd := view.Update(messages.DocumentDeleted{DocumentID: "geo.txt", Err: errors.New("locked")})

	assert.Nil(t, cmd)
	assert.EqualError(t, view.Err(), "locked")
}

func TestView_Reload(t *testing.T) {
	view := loadedView(t, &MockDocumentService{})

	_, cmd := view.Update(keyMsg("r"))

	require.NotNil(t, cmd)
	assert.IsType(t, messages.DocumentsLoaded{}, cmd())
}

func TestView_Scroll(t *testing.T) {
	docs := make([]domain.Document, 20)
	for i := range docs {
		docs[i] = domain.Document{ID: fmt.Sprintf("doc-%02d.txt", i)}
	}
	view := NewView(nil, nil, nil)
	view.SetDimensions(100, 12)
	view.Update(messages.DocumentsLoaded{Documents: docs})

	for i := 0; i < 10; i++ {
		view.Update(keyMsg("down"))
	}

	assert.Equal(t, "doc-10.txt", view.SelectedDocument().ID)
	out := view.View()
	assert.Contains(t, out, "doc-10.txt")
	assert.NotContains(t, out, "doc-00.txt")
}

func TestView_ErrorOccurred(t *testing.T) {
	view := NewView(nil, nil, nil)

	view.Update(messages.ErrorOccurred{Err: errors.New("boom")})

	assert.EqualError(t, view.Err(), "boom")
}
