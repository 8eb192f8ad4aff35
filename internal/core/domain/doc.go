// Package domain defines the core business entities for Licita.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: an uploaded file, opaque bytes plus metadata
//   - ProcessedDocument: a document after extraction, classification and indexing
//   - CanonicalCorpus: the fused, line-addressable text of a batch
//   - Evidence and Finding: literal citations and the values they back
//   - AgentEnvelope: the uniform result of every extraction agent
//   - FinalReport: the outcome of a batch run
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
