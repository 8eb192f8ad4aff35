// Package extractor adapts the normaliser registry to the text extraction
// port and scores extraction quality.
package extractor

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads documents locally through a normaliser registry.
type Extractor struct {
	registry driven.NormaliserRegistry
}

// New creates an extractor over registry.
func New(registry driven.NormaliserRegistry) *Extractor {
	return &Extractor{registry: registry}
}

// Supports reports whether a normaliser accepts the file.
func (e *Extractor) Supports(filename, mimeType string) bool {
	return e.registry.Supports(filename, mimeType)
}

// Extract normalises raw and attaches a quality score. OCR output keeps the
// engine's confidence; text-native formats are scored with LineQuality.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.ExtractionResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	res, err := e.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtractionFailed, raw.Filename, err)
	}

	quality := res.Quality
	if !res.QualityKnown {
		quality = PagesQuality(res.Pages)
	}
	return &domain.ExtractionResult{
		Pages:        res.Pages,
		QualityScore: quality,
		Method:       res.Method,
	}, nil
}

// PagesQuality scores the lines of all pages together.
func PagesQuality(pages []domain.PageText) float64 {
	var lines []string
	for _, p := range pages {
		lines = append(lines, strings.Split(p.RawText, "\n")...)
	}
	return LineQuality(lines)
}

// LineQuality returns the share of non-blank lines that look like words,
// scaled to 0-100. A line looks like words when at least half of its
// non-space runes are letters. No lines scores 0.
func LineQuality(lines []string) float64 {
	var total, good int
	for _, line := range lines {
		var letters, runes int
		for _, r := range line {
			if unicode.IsSpace(r) {
				continue
			}
			runes++
			if unicode.IsLetter(r) {
				letters++
			}
		}
		if runes == 0 {
			continue
		}
		total++
		if letters*2 >= runes {
			good++
		}
	}
	if total == 0 {
		return 0
	}
	return 100 * float64(good) / float64(total)
}
