// Package pdf reads PDF files page by page with tabula.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/reader"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// PageReader returns the text of every page of the PDF at path.
type PageReader func(ctx context.Context, path string) ([]string, error)

// Normaliser handles PDF documents.
type Normaliser struct {
	readPages PageReader
}

// New creates a PDF normaliser backed by tabula.
func New() *Normaliser {
	return &Normaliser{readPages: tabulaPages}
}

// NewWithReader creates a normaliser with a custom page reader.
func NewWithReader(r PageReader) *Normaliser {
	return &Normaliser{readPages: r}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts each page in order. A PDF without a text layer
// yields blank pages; the caller scores those as failed extraction.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if head := raw.Content[:min(len(raw.Content), 1024)]; !strings.Contains(string(head), "%PDF-") {
		return nil, fmt.Errorf("%w: missing PDF header", domain.ErrInvalidInput)
	}

	var texts []string
	err := normalisers.WithTempFile(raw.Content, ".pdf", func(path string) error {
		var err error
		texts, err = n.readPages(ctx, path)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pages := make([]domain.PageText, len(texts))
	for i, t := range texts {
		pages[i] = domain.PageText{PageNumber: i + 1, RawText: strings.TrimSpace(t)}
	}
	return &driven.NormaliseResult{Pages: pages, Method: "pdf"}, nil
}

func tabulaPages(ctx context.Context, path string) ([]string, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	texts := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, _, err := tabula.FromReader(r).Pages(i).Text()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		texts = append(texts, text)
	}
	return texts, nil
}
