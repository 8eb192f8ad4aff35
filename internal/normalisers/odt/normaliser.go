// Package odt reads OpenDocument text files with tabula.
package odt

import (
	"context"
	"fmt"

	tabodt "github.com/tsawler/tabula/odt"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/normalisers"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles ODT documents.
type Normaliser struct{}

// New creates a new ODT normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/vnd.oasis.opendocument.text"}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".odt"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise extracts the document text. ODT has no fixed pagination,
// so form feeds in the text are the only page boundaries.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var text string
	err := normalisers.WithTempFile(raw.Content, ".odt", func(path string) error {
		r, err := tabodt.Open(path)
		if err != nil {
			return err
		}
		defer r.Close()
		text, err = r.Text()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: read odt: %v", domain.ErrInvalidInput, err)
	}
	return &driven.NormaliseResult{Pages: normalisers.SplitPages(text), Method: "odt"}, nil
}
