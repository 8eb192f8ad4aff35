package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// AnalyzeRequest is one batch submitted for analysis.
type AnalyzeRequest struct {
	// BatchID is optional; a new id is generated when empty.
	BatchID string

	Documents []domain.RawDocument

	// Profile is the optional company profile compared against requirements.
	Profile *domain.CompanyProfile

	// Questions are free-text questions the report agent answers from the corpus.
	Questions []string

	// Log overrides the run log sink. Nil uses a timeline-recording sink.
	Log domain.LogSink

	// Progress receives stage and agent transitions.
	Progress func(domain.ProgressEvent)
}

// BatchStatus is the live state of a batch being analysed.
type BatchStatus struct {
	BatchID   string
	Running   bool
	Stage     string
	StartedAt time.Time
	Agents    map[domain.AgentID]domain.AgentStatus
	Err       string
}

// AnalysisService runs the fusion pipeline and the extraction agents.
type AnalysisService interface {
	// Analyze runs the full batch. Fatal errors (admission, invalid corpus)
	// are returned; agent failures only show up inside the report.
	Analyze(ctx context.Context, req AnalyzeRequest) (*domain.FinalReport, error)

	// BuildCorpus runs classification to validation without agents.
	// A corpus that fails validation is still returned, with ErrCorpusInvalid.
	BuildCorpus(ctx context.Context, req AnalyzeRequest) (*domain.PipelineResult, error)

	// Status returns the state of a running or recently finished batch.
	Status(batchID string) (*BatchStatus, bool)
}
