package normalisers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/docx"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/html"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/markdown"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/pdf"
	"github.com/custodia-labs/sercha-rag/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// extensionTypes resolves uploads that arrive without a usable MIME type.
var extensionTypes = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".pdf":      "application/pdf",
	".html":     "text/html",
	".htm":      "text/html",
	".docx":     docx.MIMEType,
	".csv":      "text/csv",
	".json":     "application/json",
}

// Registry selects normalisers by MIME type.
type Registry struct {
	mu     sync.RWMutex
	byMIME map[string][]driven.Normaliser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string][]driven.Normaliser)}
}

// Default returns a registry with every built-in normaliser.
func Default() *Registry {
	r := NewRegistry()
	r.Register(plaintext.New())
	r.Register(markdown.New())
	r.Register(html.New())
	r.Register(docx.New())
	r.Register(pdf.New())
	return r
}

// Register adds a normaliser for each MIME type it supports.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, mt := range n.SupportedMIMETypes() {
		list := append(r.byMIME[mt], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mt] = list
	}
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		types = append(types, mt)
	}
	sort.Strings(types)
	return types
}

// Normalise extracts text with the highest-priority normaliser for the
// upload. Returns domain.ErrUnsupportedFormat if none matches.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	mt := r.resolveType(raw)
	r.mu.RLock()
	candidates := r.byMIME[mt]
	r.mu.RUnlock()
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, describe(raw))
	}

	logger.Debug("Normalising %s as %s", describe(raw), mt)
	return candidates[0].Normalise(ctx, raw)
}

// resolveType picks the MIME type used for dispatch. A declared type wins
// when registered; otherwise the file extension decides. Untyped text
// uploads fall back to text/plain.
func (r *Registry) resolveType(raw *domain.RawDocument) string {
	declared := baseType(raw.MIMEType)

	r.mu.RLock()
	_, known := r.byMIME[declared]
	r.mu.RUnlock()
	if known {
		return declared
	}

	ext := strings.ToLower(filepath.Ext(raw.Name))
	if mt, ok := extensionTypes[ext]; ok {
		return mt
	}
	if mt := baseType(mime.TypeByExtension(ext)); mt != "" {
		r.mu.RLock()
		_, known = r.byMIME[mt]
		r.mu.RUnlock()
		if known {
			return mt
		}
	}

	if declared == "" || declared == "application/octet-stream" || strings.HasPrefix(declared, "text/") {
		return "text/plain"
	}
	return declared
}

func baseType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func describe(raw *domain.RawDocument) string {
	if raw.Name != "" {
		return fmt.Sprintf("%q (%s)", raw.Name, raw.MIMEType)
	}
	return raw.MIMEType
}
