package chunker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p, err := New()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, p.chunkSize)
		}
		if p.overlap != DefaultChunkOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultChunkOverlap, p.overlap)
		}
	})

	t.Run("custom values", func(t *testing.T) {
		p, err := New(WithChunkSize(500), WithOverlap(100))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.chunkSize != 500 || p.overlap != 100 {
			t.Errorf("expected 500/100, got %d/%d", p.chunkSize, p.overlap)
		}
	})

	invalid := []struct {
		name    string
		size    int
		overlap int
	}{
		{"overlap equals chunk size", 100, 100},
		{"overlap exceeds chunk size", 100, 150},
		{"negative overlap", 100, -1},
		{"zero chunk size", 0, 0},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(WithChunkSize(tc.size), WithOverlap(tc.overlap))
			if !errors.Is(err, domain.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestProcessor_Name(t *testing.T) {
	p, _ := New()
	if p.Name() != "chunker" {
		t.Errorf("expected name 'chunker', got '%s'", p.Name())
	}
}

func TestSplit_Empty(t *testing.T) {
	spans, err := Split(nil, 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(spans) != 0 {
		t.Errorf("expected no spans, got %d", len(spans))
	}
}

func TestSplit_ShorterThanChunk(t *testing.T) {
	text := []rune("short text")
	spans, _ := Split(text, 100, 10)
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Start != 0 || spans[0].End != len(text) {
		t.Errorf("expected [0,%d), got [%d,%d)", len(text), spans[0].Start, spans[0].End)
	}
}

func TestSplit_ExactChunkSize(t *testing.T) {
	spans, _ := Split([]rune(strings.Repeat("x", 100)), 100, 10)
	if len(spans) != 1 {
		t.Errorf("expected 1 span, got %d", len(spans))
	}
}

// Text without whitespace never pulls a window back, so neighbours share
// exactly the overlap.
func TestSplit_ReconstructsTextWithoutRetraction(t *testing.T) {
	cases := []struct {
		size, overlap, length int
	}{
		{10, 3, 37},
		{10, 0, 25},
		{1000, 150, 4321},
		{8, 6, 30},
	}

	for _, tc := range cases {
		var b strings.Builder
		for i := 0; i < tc.length; i++ {
			b.WriteByte(byte('a' + i%26))
		}
		text := []rune(b.String())

		spans, err := Split(text, tc.size, tc.overlap)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var rebuilt strings.Builder
		for i, s := range spans {
			end := s.End
			if i < len(spans)-1 {
				end -= tc.overlap
			}
			rebuilt.WriteString(string(text[s.Start:end]))
		}
		if rebuilt.String() != string(text) {
			t.Errorf("size=%d overlap=%d: reconstruction mismatch", tc.size, tc.overlap)
		}

		for i := 1; i < len(spans); i++ {
			if spans[i].Start-spans[i-1].Start != tc.size-tc.overlap {
				t.Errorf("size=%d overlap=%d: chunk %d starts %d after previous",
					tc.size, tc.overlap, i, spans[i].Start-spans[i-1].Start)
			}
			if shared := spans[i-1].End - spans[i].Start; shared != tc.overlap {
				t.Errorf("size=%d overlap=%d: chunks %d/%d share %d chars",
					tc.size, tc.overlap, i-1, i, shared)
			}
		}
	}
}

func TestSplit_ProseCoversText(t *testing.T) {
	spans, err := Split([]rune("aaaa bbbb cccc dddd eeee ffff"), 12, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Span{{0, 9}, {9, 19}, {18, 29}}
	if len(spans) != len(want) {
		t.Fatalf("got %v, want %v", spans, want)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d: got %v, want %v", i, spans[i], want[i])
		}
	}

	prose := []rune(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40))
	cases := []struct{ size, overlap int }{{20, 5}, {64, 16}, {100, 0}, {37, 30}}
	for _, tc := range cases {
		spans, err := Split(prose, tc.size, tc.overlap)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if spans[0].Start != 0 || spans[len(spans)-1].End != len(prose) {
			t.Errorf("size=%d overlap=%d: spans cover [%d, %d) of %d",
				tc.size, tc.overlap, spans[0].Start, spans[len(spans)-1].End, len(prose))
		}
		for i := 1; i < len(spans); i++ {
			if spans[i-1].End < spans[i].Start {
				t.Errorf("size=%d overlap=%d: gap between chunk %d ending %d and chunk %d starting %d",
					tc.size, tc.overlap, i-1, spans[i-1].End, i, spans[i].Start)
			}
		}
	}
}

func TestSplit_WordBoundary(t *testing.T) {
	text := []rune("aaaa bbbb cccc dddd")
	spans, err := Split(text, 10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := string(text[spans[0].Start:spans[0].End]); got != "aaaa bbbb" {
		t.Errorf("expected first chunk to stop before a word, got %q", got)
	}
	for i := 1; i < len(spans); i++ {
		if spans[i].Start > spans[i-1].End {
			t.Errorf("gap between chunk %d and %d", i-1, i)
		}
	}
	if last := spans[len(spans)-1]; last.End != len(text) {
		t.Errorf("last chunk ends at %d, want %d", last.End, len(text))
	}
}

func TestSplit_NoWhitespaceKeepsFullWindow(t *testing.T) {
	spans, _ := Split([]rune(strings.Repeat("z", 25)), 10, 2)
	if spans[0].End != 10 {
		t.Errorf("expected full window without whitespace, got end %d", spans[0].End)
	}
}

func TestProcessor_Process(t *testing.T) {
	p, _ := New(WithChunkSize(10), WithOverlap(2))
	doc := &domain.Document{
		ID:      "notes.txt",
		Title:   "Notes",
		Source:  "notes.txt",
		Content: "héllo wörld ünïcode text that spans",
	}

	chunks, err := p.Process(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i, c := range chunks {
		if c.Position != i {
			t.Errorf("chunk %d has position %d", i, c.Position)
		}
		if c.CharEnd-c.CharStart != utf8.RuneCountInString(c.Content) {
			t.Errorf("chunk %d: span %d-%d does not match content length %d",
				i, c.CharStart, c.CharEnd, utf8.RuneCountInString(c.Content))
		}
		if c.Section != domain.DefaultSection {
			t.Errorf("expected section %q, got %q", domain.DefaultSection, c.Section)
		}
		if c.DocumentID != "notes.txt" || c.Source != "notes.txt" || c.Title != "Notes" {
			t.Errorf("chunk %d: metadata not propagated: %+v", i, c)
		}
		prefix := "notes.txt_" + string(rune('0'+i)) + "_"
		if !strings.HasPrefix(c.ID, prefix) || len(c.ID) != len(prefix)+8 {
			t.Errorf("chunk %d: unexpected id %q", i, c.ID)
		}
	}
}

func TestProcessor_EmptyContent(t *testing.T) {
	p, _ := New()
	chunks, err := p.Process(context.Background(), &domain.Document{ID: "x"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty content, got %d", len(chunks))
	}
}

func TestProcessor_NilDocument(t *testing.T) {
	p, _ := New()
	if _, err := p.Process(context.Background(), nil, nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProcessor_CancelledContext(t *testing.T) {
	p, _ := New(WithChunkSize(10), WithOverlap(2))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, &domain.Document{Content: "some content to split"}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
