package driven

import (
	"context"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// NormaliserRegistry selects the appropriate normaliser for a document.
// It maintains a priority-ordered list of normalisers and dispatches
// on file extension, then MIME type.
type NormaliserRegistry interface {
	// Normalise reads a raw document using the best matching normaliser.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// Supports reports whether any normaliser accepts the file.
	Supports(filename, mimeType string) bool

	// SupportedExtensions returns all extensions that can be read.
	SupportedExtensions() []string
}
