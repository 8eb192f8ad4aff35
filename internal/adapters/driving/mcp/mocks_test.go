package mcp

import (
	"context"
	"io"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
)

// mockCorpusService is a mock implementation of driving.CorpusService.
type mockCorpusService struct {
	lookup    *domain.LineLookup
	corpus    *domain.CanonicalCorpus
	report    *domain.FinalReport
	batches   []domain.BatchRecord
	err       error
	lastLimit int
}

func (m *mockCorpusService) GetLine(_ context.Context, _ string, _ int) (*domain.LineLookup, error) {
	return m.lookup, m.err
}

func (m *mockCorpusService) GetCorpus(_ context.Context, _ string) (*domain.CanonicalCorpus, error) {
	return m.corpus, m.err
}

func (m *mockCorpusService) GetReport(_ context.Context, _ string) (*domain.FinalReport, error) {
	return m.report, m.err
}

func (m *mockCorpusService) ListBatches(_ context.Context, limit int) ([]domain.BatchRecord, error) {
	m.lastLimit = limit
	return m.batches, m.err
}

func (m *mockCorpusService) DeleteBatch(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCorpusService) ExportReport(_ context.Context, _, _ string, _ io.Writer) error {
	return m.err
}

func (m *mockCorpusService) ExportFormats() []string {
	return []string{"json"}
}

// mockAnalysisService records the last request.
type mockAnalysisService struct {
	report *domain.FinalReport
	err    error
	req    driving.AnalyzeRequest
}

func (m *mockAnalysisService) Analyze(_ context.Context, req driving.AnalyzeRequest) (*domain.FinalReport, error) {
	m.req = req
	return m.report, m.err
}

func (m *mockAnalysisService) BuildCorpus(_ context.Context, _ driving.AnalyzeRequest) (*domain.PipelineResult, error) {
	return nil, m.err
}

func (m *mockAnalysisService) Status(string) (*driving.BatchStatus, bool) {
	return nil, false
}
