package postprocessors

import (
	"github.com/custodia-labs/pagewise/internal/core/domain"
	"github.com/custodia-labs/pagewise/internal/core/ports/driven"
	"github.com/custodia-labs/pagewise/internal/postprocessors/chunker"
)

// RegisterDefaults registers the built-in chunk strategies.
func RegisterDefaults(r *Registry) {
	r.Register(domain.ChunkStrategyWindow, buildWindow)
	r.Register(domain.ChunkStrategyRecursive, buildRecursive)
}

// Default returns a registry holding the built-in strategies.
func Default() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// FromSettings builds the chunker selected by settings from the defaults.
func FromSettings(s domain.ChunkSettings) (driven.Chunker, error) {
	return Default().Build(s)
}

func buildWindow(s domain.ChunkSettings) (driven.Chunker, error) {
	return chunker.New(chunker.WithChunkSize(s.Size), chunker.WithOverlap(s.Overlap))
}

func buildRecursive(s domain.ChunkSettings) (driven.Chunker, error) {
	return chunker.NewRecursive(chunker.WithChunkSize(s.Size), chunker.WithOverlap(s.Overlap))
}
