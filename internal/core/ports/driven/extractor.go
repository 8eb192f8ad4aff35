package driven

import (
	"context"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// TextExtractor is the text extraction collaborator (per-page text and OCR).
type TextExtractor interface {
	// Extract returns the pages of a document with a 0-100 quality score.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractionResult, error)

	// Supports reports whether the file format can be extracted at all.
	Supports(filename, mimeType string) bool
}
