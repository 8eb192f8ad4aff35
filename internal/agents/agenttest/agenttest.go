// Package agenttest builds real corpora and inputs for agent tests.
package agenttest

import (
	"fmt"
	"time"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/pipeline/fusion"
	"github.com/custodia-labs/licita-cli/internal/pipeline/indexer"
)

// Doc is one test document.
type Doc struct {
	Name string
	Type domain.DocumentType
	Text string
	OCR  float64
}

// Corpus indexes and fuses docs the way the pipeline does.
func Corpus(docs ...Doc) *domain.CanonicalCorpus {
	processed := make([]*domain.ProcessedDocument, 0, len(docs))
	for i, d := range docs {
		id := fmt.Sprintf("doc-%d", i)
		ocr := d.OCR
		if ocr == 0 {
			ocr = 95
		}
		pages := []domain.PageText{{PageNumber: 1, RawText: d.Text}}
		processed = append(processed, &domain.ProcessedDocument{
			ID:             id,
			Filename:       d.Name,
			Order:          i,
			Extraction:     &domain.ExtractionResult{Pages: pages, QualityScore: ocr, Method: "test"},
			Classification: domain.ClassifiedDocument{DocumentID: id, Filename: d.Name, Type: d.Type, Confidence: 0.9},
			Index:          indexer.Build(id, pages),
		})
	}
	c, err := fusion.Fuse("lote-test", processed, nil)
	if err != nil {
		panic(err)
	}
	c.CreatedAt = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	return c
}

// Input wraps a corpus with the given upstream envelopes.
func Input(c *domain.CanonicalCorpus, upstream ...domain.AgentEnvelope) agents.Input {
	up := make(map[domain.AgentID]domain.AgentEnvelope, len(upstream))
	for _, env := range upstream {
		up[env.AgentID] = env
	}
	return agents.Input{
		Corpus:   c,
		Run:      domain.NewRunContext(c.LoteID, nil),
		Upstream: up,
	}
}

// Partial returns a partial envelope, as the runner produces for a failed agent.
func Partial(id domain.AgentID) domain.AgentEnvelope {
	return domain.AgentEnvelope{
		AgentID: id,
		Status:  domain.StatusPartial,
		Data:    domain.FailureData{Reason: "failed"},
		Alerts: []domain.Alert{{
			Code: domain.AlertAgentFailed, Theme: domain.ThemePipeline, Severity: domain.SeverityMedium,
		}},
	}
}

// AllEvidenceVerbatim reports the first evidence item of env that is not
// corpus text, if any.
func AllEvidenceVerbatim(c *domain.CanonicalCorpus, env domain.AgentEnvelope) (domain.Evidence, bool) {
	for _, ev := range env.Evidence {
		if !c.ContainsExcerpt(ev) || len(ev.LiteralExcerpt) > domain.MaxExcerptLength {
			return ev, false
		}
	}
	for _, a := range env.Alerts {
		for _, ev := range a.Evidence {
			if !c.ContainsExcerpt(ev) {
				return ev, false
			}
		}
	}
	return domain.Evidence{}, true
}
