// Package image reads scanned pages with Tesseract OCR.
//
// OCR needs cgo and a Tesseract install, so it is compiled only with the
// "tesseract" build tag. Without it every image fails extraction and the
// document enters the corpus as NO DATA FOUND.
package image

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// ErrOCRNotEnabled is returned by builds without the tesseract tag.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags tesseract")

// Recogniser runs OCR over one image and returns the text and the mean
// word confidence on a 0-100 scale.
type Recogniser func(ctx context.Context, image []byte, lang string) (string, float64, error)

// Normaliser handles image documents.
type Normaliser struct {
	lang      string
	recognise Recogniser
}

// New creates an OCR normaliser for lang (Tesseract codes such as "por").
func New(lang string) *Normaliser {
	return NewWithRecogniser(lang, tesseract)
}

// NewWithRecogniser creates a normaliser with a custom OCR engine.
func NewWithRecogniser(lang string, r Recogniser) *Normaliser {
	if lang == "" {
		lang = "por"
	}
	return &Normaliser{lang: lang, recognise: r}
}

// Available reports whether this build can run OCR.
func Available() bool {
	return ocrEnabled
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"image/png", "image/jpeg", "image/tiff"}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".png", ".jpg", ".jpeg", ".tif", ".tiff"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise runs OCR and reports the engine's own confidence as quality.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	text, confidence, err := n.recognise(ctx, raw.Content, n.lang)
	if err != nil {
		return nil, fmt.Errorf("ocr %s: %w", raw.Filename, err)
	}
	return &driven.NormaliseResult{
		Pages:        []domain.PageText{{PageNumber: 1, RawText: strings.TrimSpace(text)}},
		Method:       "ocr",
		Quality:      min(max(confidence, 0), 100),
		QualityKnown: true,
	}, nil
}
