package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a file format no normaliser can read.
	ErrUnsupportedType = errors.New("unsupported type")

	// Batch admission errors. All are fatal for the batch.

	// ErrEmptyBatch indicates a batch with no files.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrTooManyFiles indicates the batch exceeds the configured file cap.
	ErrTooManyFiles = errors.New("too many files in batch")

	// ErrFileTooLarge indicates a file exceeds the configured size cap.
	ErrFileTooLarge = errors.New("file too large")

	// Pipeline errors.

	// ErrExtractionFailed indicates the text extraction collaborator failed.
	// It degrades a single document and never aborts the batch.
	ErrExtractionFailed = errors.New("text extraction failed")

	// ErrClassificationFailed indicates a document could not be classified.
	ErrClassificationFailed = errors.New("classification failed")

	// ErrFusionFailed indicates the canonical corpus could not be built.
	ErrFusionFailed = errors.New("corpus fusion failed")

	// ErrCorpusInvalid indicates the corpus failed structural validation.
	// Nothing is handed to agents when this is returned.
	ErrCorpusInvalid = errors.New("corpus failed validation")

	// Agent errors.

	// ErrAgentFailed indicates an agent returned an error or panicked.
	ErrAgentFailed = errors.New("agent failed")

	// ErrInvalidAgentGraph indicates an unknown dependency or a cycle between agents.
	ErrInvalidAgentGraph = errors.New("invalid agent graph")

	// Oracle errors.

	// ErrOracleUnavailable indicates no extraction oracle is configured.
	ErrOracleUnavailable = errors.New("extraction oracle unavailable")

	// ErrMalformedOracleResponse indicates the oracle returned unusable JSON.
	ErrMalformedOracleResponse = errors.New("malformed oracle response")

	// ErrRateLimited indicates the oracle rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
