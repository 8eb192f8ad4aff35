package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusService = (*CorpusService)(nil)

// CorpusService reads stored batches back out of the black-box store.
type CorpusService struct {
	store     driven.CorpusStore
	exporters map[string]driven.ReportExporter
}

// NewCorpusService creates a corpus service with the given report exporters.
func NewCorpusService(store driven.CorpusStore, exporters ...driven.ReportExporter) *CorpusService {
	s := &CorpusService{
		store:     store,
		exporters: make(map[string]driven.ReportExporter, len(exporters)),
	}
	for _, e := range exporters {
		s.exporters[e.Format()] = e
	}
	return s
}

// GetLine resolves one global line of a stored batch.
func (s *CorpusService) GetLine(ctx context.Context, batchID string, line int) (*domain.LineLookup, error) {
	if line < 1 {
		return nil, fmt.Errorf("%w: line numbers start at 1", domain.ErrInvalidInput)
	}
	lookup, err := s.store.GetLine(ctx, batchID, line)
	if err != nil {
		return nil, fmt.Errorf("get line %d of %s: %w", line, batchID, err)
	}
	return lookup, nil
}

// GetCorpus returns a stored corpus.
func (s *CorpusService) GetCorpus(ctx context.Context, batchID string) (*domain.CanonicalCorpus, error) {
	c, err := s.store.GetCorpus(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("get corpus %s: %w", batchID, err)
	}
	return c, nil
}

// GetReport returns a stored report.
func (s *CorpusService) GetReport(ctx context.Context, batchID string) (*domain.FinalReport, error) {
	r, err := s.store.GetReport(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", batchID, err)
	}
	return r, nil
}

// ListBatches returns stored batches, newest first.
func (s *CorpusService) ListBatches(ctx context.Context, limit int) ([]domain.BatchRecord, error) {
	return s.store.ListBatches(ctx, limit)
}

// DeleteBatch removes a stored batch.
func (s *CorpusService) DeleteBatch(ctx context.Context, batchID string) error {
	if err := s.store.DeleteBatch(ctx, batchID); err != nil {
		return fmt.Errorf("delete batch %s: %w", batchID, err)
	}
	return nil
}

// ExportReport writes a stored report through the named exporter.
// The corpus is attached when it is still stored.
func (s *CorpusService) ExportReport(ctx context.Context, batchID, format string, w io.Writer) error {
	exp, ok := s.exporters[format]
	if !ok {
		return fmt.Errorf("%w: unknown export format %q", domain.ErrInvalidInput, format)
	}
	report, err := s.GetReport(ctx, batchID)
	if err != nil {
		return err
	}
	corpus, err := s.store.GetCorpus(ctx, batchID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get corpus %s: %w", batchID, err)
	}
	return exp.Export(w, report, corpus)
}

// ExportFormats lists the available report formats, sorted.
func (s *CorpusService) ExportFormats() []string {
	formats := make([]string, 0, len(s.exporters))
	for f := range s.exporters {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	return formats
}
