package pdf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// mockRunner is a test double for CommandRunner keyed by command name.
type mockRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	calls   []string
}

func (m *mockRunner) Run(_ context.Context, name string, _ ...string) ([]byte, error) {
	m.calls = append(m.calls, name)
	if err := m.errs[name]; err != nil {
		return nil, err
	}
	return m.outputs[name], nil
}

var fakePDF = []byte("%PDF-1.4 fake pdf content")

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.IsType(t, &Normaliser{}, normaliser)
}

func TestSupportedMIMETypes(t *testing.T) {
	mimeTypes := New().SupportedMIMETypes()

	assert.Contains(t, mimeTypes, "application/pdf")
	assert.Len(t, mimeTypes, 1)
}

func TestPriority(t *testing.T) {
	assert.Equal(t, 50, New().Priority())
}

func TestNormalise_NilDocument(t *testing.T) {
	result, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, result)
}

func TestNormalise_NotAPDF(t *testing.T) {
	runner := &mockRunner{}

	_, err := NewWithRunner(runner).Normalise(context.Background(), &domain.RawDocument{Content: []byte("hello")})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Empty(t, runner.calls)
}

func TestNewWithRunner(t *testing.T) {
	runner := &mockRunner{}
	normaliser := NewWithRunner(runner)
	require.NotNil(t, normaliser)
	assert.Equal(t, runner, normaliser.runner)
}

func TestNormalise_WithMockRunner(t *testing.T) {
	runner := &mockRunner{outputs: map[string][]byte{
		"pdftotext": []byte("Page one text.\n\fPage two text.\n\f"),
		"pdfinfo":   []byte("Producer: test\nTitle:          Annual Report\nPages: 2\n"),
	}}

	result, err := NewWithRunner(runner).Normalise(context.Background(), &domain.RawDocument{
		Name:     "report.pdf",
		MIMEType: "application/pdf",
		Content:  fakePDF,
	})

	require.NoError(t, err)
	assert.Equal(t, "Annual Report", result.Title)
	assert.Equal(t, "Page one text.\n\nPage two text.", result.Content)
	assert.Equal(t, []string{"pdftotext", "pdfinfo"}, runner.calls)
}

func TestNormalise_PDFInfoMissing(t *testing.T) {
	runner := &mockRunner{
		outputs: map[string][]byte{"pdftotext": []byte("Body")},
		errs:    map[string]error{"pdfinfo": errors.New("not found")},
	}

	result, err := NewWithRunner(runner).Normalise(context.Background(), &domain.RawDocument{Content: fakePDF})

	require.NoError(t, err)
	assert.Empty(t, result.Title)
	assert.Equal(t, "Body", result.Content)
}

func TestNormalise_RunnerError(t *testing.T) {
	runner := &mockRunner{errs: map[string]error{"pdftotext": errors.New("pdftotext crashed")}}

	result, err := NewWithRunner(runner).Normalise(context.Background(), &domain.RawDocument{Content: fakePDF})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
	assert.Nil(t, result)
}

func TestNormalise_ToolNotFound(t *testing.T) {
	runner := &mockRunner{errs: map[string]error{"pdftotext": ErrPDFToolNotFound}}

	_, err := NewWithRunner(runner).Normalise(context.Background(), &domain.RawDocument{Content: fakePDF})

	assert.ErrorIs(t, err, ErrPDFToolNotFound)
}

func TestParseInfoTitle(t *testing.T) {
	assert.Equal(t, "My Doc", parseInfoTitle([]byte("Title: My Doc\nAuthor: x")))
	assert.Empty(t, parseInfoTitle([]byte("Author: x")))
	assert.Empty(t, parseInfoTitle(nil))
}

func TestInstallInstructions(t *testing.T) {
	instructions := InstallInstructions()
	assert.Contains(t, instructions, "pdftotext")
	assert.Contains(t, instructions, "brew install poppler")
	assert.Contains(t, instructions, "apt install poppler-utils")
}

func TestErrPDFToolNotFound(t *testing.T) {
	assert.Contains(t, ErrPDFToolNotFound.Error(), "pdftotext")
}

// Integration test - only runs if pdftotext is available.
func TestNormalise_Integration(t *testing.T) {
	if err := CheckAvailable(); err != nil {
		t.Skip("pdftotext not available, skipping integration test")
	}
	t.Skip("integration test requires sample PDF file")
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}
