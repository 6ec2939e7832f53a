// Package domain defines the core business entities for BenchBook.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A legal source text keyed for ingest
//   - Chunk: A bounded, overlapping span prepared for embedding
//   - VectorRecord: An embedded chunk with its typed metadata
//   - SearchResult: A ranked, section-deduplicated retrieval hit
//   - EvaluationCase / EvaluationResult / Report: gold-set scoring
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
