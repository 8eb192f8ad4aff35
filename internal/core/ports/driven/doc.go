// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - TextExtractor: Turns uploaded bytes into per-page text
//   - Normaliser: Reads one file format into pages
//   - NormaliserRegistry: Selects the normaliser for a file
//   - CorpusStore: Black-box persistence of corpora and reports
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - ExtractionOracle: LLM structuring of metadata fields. Without it,
//     agents rely on pattern extraction and report NO DATA FOUND.
//   - ReportExporter: Alternate report formats.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
