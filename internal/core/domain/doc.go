// Package domain defines the core entities for pagewise.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: a fetched web page reduced to plain text
//   - Chunk: a bounded, overlapping slice of a Document
//   - VectorRecord: a Chunk paired with its embedding, as written to an index
//   - Match: a record returned by a similarity query
//   - Answer: the grounded response to a question
//   - Session: explicit per-conversation state owned by driving adapters
//   - StageError: the tagged error carried out of every pipeline stage
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
