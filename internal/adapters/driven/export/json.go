package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// Ensure JSON implements the interface.
var _ driven.ReportExporter = JSON{}

// JSON writes the report as indented JSON.
type JSON struct{}

// corpusSummary is the corpus without its text, which can be large.
type corpusSummary struct {
	LoteID    string                `json:"loteId"`
	CreatedAt time.Time             `json:"createdAt"`
	Segments  []domain.Segment      `json:"segments"`
	Metadata  domain.CorpusMetadata `json:"metadata"`
}

type jsonDocument struct {
	Report *domain.FinalReport `json:"report"`
	Corpus *corpusSummary      `json:"corpus,omitempty"`
}

// Format implements driven.ReportExporter.
func (JSON) Format() string { return "json" }

// Export implements driven.ReportExporter.
func (JSON) Export(w io.Writer, report *domain.FinalReport, corpus *domain.CanonicalCorpus) error {
	if report == nil {
		return fmt.Errorf("%w: nil report", domain.ErrInvalidInput)
	}
	doc := jsonDocument{Report: report}
	if corpus != nil {
		doc.Corpus = &corpusSummary{
			LoteID:    corpus.LoteID,
			CreatedAt: corpus.CreatedAt,
			Segments:  corpus.Segments,
			Metadata:  corpus.Metadata,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
