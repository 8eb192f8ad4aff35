package driving

import (
	"context"
	"io"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// CorpusService reads back stored batches.
type CorpusService interface {
	GetLine(ctx context.Context, batchID string, line int) (*domain.LineLookup, error)
	GetCorpus(ctx context.Context, batchID string) (*domain.CanonicalCorpus, error)
	GetReport(ctx context.Context, batchID string) (*domain.FinalReport, error)
	ListBatches(ctx context.Context, limit int) ([]domain.BatchRecord, error)
	DeleteBatch(ctx context.Context, batchID string) error

	// ExportReport writes a stored report in the named format.
	ExportReport(ctx context.Context, batchID, format string, w io.Writer) error

	// ExportFormats lists the available report formats.
	ExportFormats() []string
}
