package driven

import (
	"context"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// CorpusStore is the black-box store of batch corpora and reports.
type CorpusStore interface {
	// SaveCorpus stores a fused corpus with its segments, lines and removed documents.
	// Saving the same batch again replaces it.
	SaveCorpus(ctx context.Context, corpus *domain.CanonicalCorpus) error

	// SaveReport stores the final report of a batch whose corpus is already saved.
	SaveReport(ctx context.Context, report *domain.FinalReport) error

	// GetCorpus returns a stored corpus. Returns domain.ErrNotFound if absent.
	GetCorpus(ctx context.Context, batchID string) (*domain.CanonicalCorpus, error)

	// GetReport returns a stored report. Returns domain.ErrNotFound if absent.
	GetReport(ctx context.Context, batchID string) (*domain.FinalReport, error)

	// GetLine resolves one global line of a stored batch.
	GetLine(ctx context.Context, batchID string, line int) (*domain.LineLookup, error)

	// ListBatches returns stored batches, newest first. limit <= 0 means all.
	ListBatches(ctx context.Context, limit int) ([]domain.BatchRecord, error)

	// DeleteBatch removes a batch and everything stored for it.
	DeleteBatch(ctx context.Context, batchID string) error
}
