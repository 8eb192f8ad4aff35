package driven

import (
	"context"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// Normaliser reads one family of file formats into per-page text.
type Normaliser interface {
	// SupportedMIMETypes returns the MIME types this normaliser handles.
	SupportedMIMETypes() []string

	// SupportedExtensions returns lower-case extensions including the dot (".pdf").
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific normalisers should return 50-89.
	// Fallback normalisers should return 1-9.
	Priority() int

	// Normalise extracts the pages of a raw document.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
type NormaliseResult struct {
	Pages []domain.PageText

	// Method names the technique used ("pdf", "ocr", "xlsx", ...).
	Method string

	// Quality is the extractor's own 0-100 confidence, meaningful only
	// when QualityKnown is set (OCR). Otherwise the caller estimates it.
	Quality      float64
	QualityKnown bool
}
