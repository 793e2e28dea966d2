// Package chunker splits document text into overlapping, word-aware chunks.
package chunker

import (
	"context"
	"fmt"
	"unicode"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 150

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Span is a half-open rune range [Start, End) of the source text.
type Span struct {
	Start int
	End   int
}

// Split computes chunk spans over text measured in runes.
//
// Windows start every size-overlap runes. A window that would cut a word
// is pulled back to the preceding whitespace, but never shorter than
// max(size-overlap, overlap), so consecutive chunks always touch or
// overlap and no text is lost. Splitting stops once a window reaches the
// end of the text.
func Split(text []rune, size, overlap int) ([]Span, error) {
	if err := validate(size, overlap); err != nil {
		return nil, err
	}

	n := len(text)
	if n == 0 {
		return nil, nil
	}

	step := size - overlap
	floor := max(step, overlap)
	spans := make([]Span, 0, n/step+1)

	for start := 0; start < n; start += step {
		end := min(start+size, n)
		if end < n && !unicode.IsSpace(text[end]) {
			for j := end - 1; j-start >= floor; j-- {
				if unicode.IsSpace(text[j]) {
					end = j
					break
				}
			}
		}
		spans = append(spans, Span{Start: start, End: end})
		if start+size >= n {
			break
		}
	}

	return spans, nil
}

func validate(size, overlap int) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, size)
	}
	if overlap < 0 || overlap >= size {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", domain.ErrConfiguration, overlap, size)
	}
	return nil
}

// Processor splits document content into chunks.
// It implements the PostProcessor interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// New creates a chunker. It fails with domain.ErrConfiguration unless
// 0 <= overlap < chunk size.
func New(opts ...Option) (*Processor, error) {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := validate(p.chunkSize, p.overlap); err != nil {
		return nil, err
	}
	return p, nil
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from document content.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	text := []rune(doc.Content)
	spans, err := Split(text, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(spans))
	for i, span := range spans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks = append(chunks, domain.Chunk{
			ID:         chunkID(doc.Source, i),
			DocumentID: doc.ID,
			Position:   i,
			Section:    domain.DefaultSection,
			Content:    string(text[span.Start:span.End]),
			CharStart:  span.Start,
			CharEnd:    span.End,
			Source:     doc.Source,
			Title:      doc.Title,
		})
	}

	return chunks, nil
}

// chunkID builds "<source>_<position>_<8 hex chars>".
func chunkID(source string, position int) string {
	return fmt.Sprintf("%s_%d_%s", source, position, uuid.New().String()[:8])
}
