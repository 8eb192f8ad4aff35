package mcp

import (
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
)

// LoadFunc reads local files and directories into a batch.
type LoadFunc func(paths ...string) ([]domain.RawDocument, error)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Corpus reads back stored batches.
	Corpus driving.CorpusService

	// Analysis runs new batches. analyze_batch is only offered when both
	// Analysis and Load are set.
	Analysis driving.AnalysisService
	Load     LoadFunc
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Corpus == nil {
		return ErrMissingCorpusService
	}
	return nil
}

func (p *Ports) canAnalyze() bool {
	return p.Analysis != nil && p.Load != nil
}
