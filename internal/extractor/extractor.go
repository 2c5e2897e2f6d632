// Package extractor holds the per-document-type rules used by the extraction
// workflow: the prompt sent to the OCR provider, shape validation of the
// returned JSON, and derivation of the natural key used for deduplication.
package extractor

import (
	"sort"
	"strings"
	"sync"
)

// Extractor describes one document type.
type Extractor interface {
	// DocumentType is the registry key, e.g. "ktp".
	DocumentType() string
	// Prompt is the fixed extraction directive sent with the image.
	Prompt() string
	// Validate reports whether data (decoded JSON) has every required field.
	Validate(data any) bool
	// UniqueIdentifier returns the natural key of validated data.
	UniqueIdentifier(data map[string]any) string
}

// Registry maps document type strings to extractors. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry returns a registry pre-populated with extractors.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{extractors: make(map[string]Extractor, len(extractors))}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// Register adds or replaces the extractor for e.DocumentType().
func (r *Registry) Register(e Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[normalizeType(e.DocumentType())] = e
}

// Get looks up the extractor for documentType (case-insensitive).
func (r *Registry) Get(documentType string) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[normalizeType(documentType)]
	return e, ok
}

// Types lists registered document types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.extractors))
	for t := range r.extractors {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func normalizeType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}
