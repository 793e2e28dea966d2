// Package postprocessors turns normalised documents into chunks.
// Processors are looked up by name so the ingestion pipeline can be
// assembled from configuration.
package postprocessors

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors/chunker"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline chains PostProcessors and runs them in order.
// The first processor receives nil chunks and should create them.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline creates a pipeline that runs processors in the order given.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process runs the document through all processors in order.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
		logger.Debug("%s: %d chunks for %s", processor.Name(), len(chunks), doc.ID)
	}

	return chunks, nil
}

// Len returns the number of processors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.processors)
}

// BuilderFunc creates a PostProcessor from pipeline settings.
type BuilderFunc func(cfg domain.PipelineSettings) (driven.PostProcessor, error)

// Registry maps processor names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a registry with the built-in processors registered.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]BuilderFunc)}
	r.Register("chunker", buildChunker)
	return r
}

// Register adds or replaces a processor builder.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Names returns all registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build assembles a pipeline from processor names.
func (r *Registry) Build(cfg domain.PipelineSettings, names ...string) (*Pipeline, error) {
	if len(names) == 0 {
		names = []string{"chunker"}
	}

	processors := make([]driven.PostProcessor, 0, len(names))
	for _, name := range names {
		builder, ok := r.builders[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown processor %q", domain.ErrConfiguration, name)
		}
		proc, err := builder(cfg)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", name, err)
		}
		processors = append(processors, proc)
	}
	return NewPipeline(processors...), nil
}

func buildChunker(cfg domain.PipelineSettings) (driven.PostProcessor, error) {
	proc, err := chunker.New(
		chunker.WithChunkSize(cfg.ChunkSize),
		chunker.WithOverlap(cfg.ChunkOverlap),
	)
	if err != nil {
		return nil, err
	}
	return proc, nil
}
