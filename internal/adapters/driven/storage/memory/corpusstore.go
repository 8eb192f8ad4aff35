package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// Ensure CorpusStore implements the interface.
var _ driven.CorpusStore = (*CorpusStore)(nil)

type batch struct {
	record domain.BatchRecord
	corpus []byte
	report []byte
}

// CorpusStore is an in-memory implementation of driven.CorpusStore.
// Values are kept as JSON so callers never share state with the store.
type CorpusStore struct {
	mu      sync.RWMutex
	batches map[string]*batch
}

// NewCorpusStore creates a new in-memory corpus store.
func NewCorpusStore() *CorpusStore {
	return &CorpusStore{
		batches: make(map[string]*batch),
	}
}

// SaveCorpus stores or replaces a batch corpus. A stored report is dropped.
func (s *CorpusStore) SaveCorpus(_ context.Context, corpus *domain.CanonicalCorpus) error {
	if corpus == nil || corpus.LoteID == "" {
		return fmt.Errorf("%w: corpus without batch id", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(corpus)
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches[corpus.LoteID] = &batch{
		record: domain.BatchRecord{
			ID:                corpus.LoteID,
			Status:            domain.ReportCompletedWithWarnings,
			CreatedAt:         corpus.CreatedAt,
			TotalDocuments:    corpus.Metadata.TotalDocuments,
			TotalLines:        corpus.Metadata.TotalLines,
			DuplicatesRemoved: len(corpus.Metadata.DuplicatesRemoved),
		},
		corpus: data,
	}
	return nil
}

// SaveReport stores the report of a batch whose corpus is already saved.
func (s *CorpusStore) SaveReport(_ context.Context, report *domain.FinalReport) error {
	if report == nil {
		return fmt.Errorf("%w: nil report", domain.ErrInvalidInput)
	}
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[report.LoteID]
	if !ok {
		return fmt.Errorf("batch %s: %w", report.LoteID, domain.ErrNotFound)
	}
	b.report = data
	b.record.Status = report.Status
	if d, ok := report.Decision(); ok {
		b.record.Recommendation = d.Recommendation
	}
	return nil
}

// GetCorpus returns a stored corpus.
func (s *CorpusStore) GetCorpus(_ context.Context, batchID string) (*domain.CanonicalCorpus, error) {
	s.mu.RLock()
	b, ok := s.batches[batchID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	var c domain.CanonicalCorpus
	if err := json.Unmarshal(b.corpus, &c); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return &c, nil
}

// GetReport returns a stored report.
func (s *CorpusStore) GetReport(_ context.Context, batchID string) (*domain.FinalReport, error) {
	s.mu.RLock()
	b, ok := s.batches[batchID]
	s.mu.RUnlock()
	if !ok || b.report == nil {
		return nil, domain.ErrNotFound
	}
	var r domain.FinalReport
	if err := json.Unmarshal(b.report, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}

// GetLine resolves one line of a stored batch.
func (s *CorpusStore) GetLine(ctx context.Context, batchID string, line int) (*domain.LineLookup, error) {
	c, err := s.GetCorpus(ctx, batchID)
	if err != nil {
		return nil, err
	}
	gl, ok := c.Line(line)
	if !ok {
		return nil, fmt.Errorf("line %d: %w", line, domain.ErrNotFound)
	}
	lookup := &domain.LineLookup{BatchID: batchID, Line: gl}
	if seg, ok := c.SegmentFor(line); ok {
		lookup.DocumentName = seg.Filename
		lookup.DocumentType = seg.Type
	}
	return lookup, nil
}

// ListBatches returns stored batches, newest first.
func (s *CorpusStore) ListBatches(_ context.Context, limit int) ([]domain.BatchRecord, error) {
	s.mu.RLock()
	records := make([]domain.BatchRecord, 0, len(s.batches))
	for _, b := range s.batches {
		records = append(records, b.record)
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// DeleteBatch removes a batch.
func (s *CorpusStore) DeleteBatch(_ context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.batches[batchID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.batches, batchID)
	return nil
}
