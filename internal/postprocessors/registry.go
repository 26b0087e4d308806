// Package postprocessors selects and builds the chunking strategy that
// turns a fetched document into indexable chunks.
package postprocessors

import (
	"sort"

	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
)

// BuilderFunc creates a Chunker from chunk settings.
type BuilderFunc func(s domain.ChunkSettings) (driven.Chunker, error)

// Registry maps chunk strategy names to their builders.
type Registry struct {
	builders map[domain.ChunkStrategy]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[domain.ChunkStrategy]BuilderFunc),
	}
}

// Register adds a builder. Name should match the chunker's Name() value.
func (r *Registry) Register(name domain.ChunkStrategy, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the chunker named by s.Strategy. An empty strategy selects
// the sliding window.
func (r *Registry) Build(s domain.ChunkSettings) (driven.Chunker, error) {
	name := s.Strategy
	if name == "" {
		name = domain.ChunkStrategyWindow
	}
	builder, ok := r.builders[name]
	if !ok {
		return nil, domain.ConfigError(domain.StageChunk, "unknown chunk strategy %q", s.Strategy)
	}
	return builder(s)
}

// Has returns true if a strategy with the given name is registered.
func (r *Registry) Has(name domain.ChunkStrategy) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, string(name))
	}
	sort.Strings(names)
	return names
}
