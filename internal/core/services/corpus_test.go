package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/pipeline/fusion"
	"github.com/custodia-labs/licita-cli/internal/pipeline/indexer"
)

// mockExporter writes the batch id and whether a corpus was attached.
type mockExporter struct {
	format string
}

func (m mockExporter) Format() string { return m.format }

func (m mockExporter) Export(w io.Writer, report *domain.FinalReport, corpus *domain.CanonicalCorpus) error {
	_, err := fmt.Fprintf(w, "%s corpus=%t", report.LoteID, corpus != nil)
	return err
}

func storedBatch(t *testing.T, withReport bool) *memory.CorpusStore {
	t.Helper()
	ctx := context.Background()
	pages := []domain.PageText{{PageNumber: 1, RawText: "EDITAL\n1. DO OBJETO\nAquisição de cadeiras"}}
	doc := &domain.ProcessedDocument{
		ID:             "doc-1",
		Filename:       "edital.pdf",
		Extraction:     &domain.ExtractionResult{Pages: pages, QualityScore: 90},
		Classification: domain.ClassifiedDocument{Type: domain.TypeCoreNotice},
		Index:          indexer.Build("doc-1", pages),
	}
	c, err := fusion.Fuse("lote-1", []*domain.ProcessedDocument{doc}, nil)
	require.NoError(t, err)

	store := memory.NewCorpusStore()
	require.NoError(t, store.SaveCorpus(ctx, c))
	if withReport {
		require.NoError(t, store.SaveReport(ctx, &domain.FinalReport{LoteID: "lote-1", Status: domain.ReportSuccess}))
	}
	return store
}

func TestCorpusService_GetLine(t *testing.T) {
	svc := NewCorpusService(storedBatch(t, false))

	lookup, err := svc.GetLine(context.Background(), "lote-1", 3)
	require.NoError(t, err)
	assert.Equal(t, "Aquisição de cadeiras", lookup.Line.Text)

	_, err = svc.GetLine(context.Background(), "lote-1", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.GetLine(context.Background(), "lote-1", 400)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCorpusService_ExportReport(t *testing.T) {
	svc := NewCorpusService(storedBatch(t, true), mockExporter{"xlsx"}, mockExporter{"json"})
	assert.Equal(t, []string{"json", "xlsx"}, svc.ExportFormats())

	var buf bytes.Buffer
	require.NoError(t, svc.ExportReport(context.Background(), "lote-1", "json", &buf))
	assert.Equal(t, "lote-1 corpus=true", buf.String())

	err := svc.ExportReport(context.Background(), "lote-1", "pdf", &buf)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCorpusService_ExportWithoutReport(t *testing.T) {
	svc := NewCorpusService(storedBatch(t, false), mockExporter{"json"})
	err := svc.ExportReport(context.Background(), "lote-1", "json", io.Discard)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCorpusService_ListAndDelete(t *testing.T) {
	svc := NewCorpusService(storedBatch(t, true))
	ctx := context.Background()

	batches, err := svc.ListBatches(ctx, 10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, "lote-1", batches[0].ID)

	report, err := svc.GetReport(ctx, "lote-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReportSuccess, report.Status)

	require.NoError(t, svc.DeleteBatch(ctx, "lote-1"))
	_, err = svc.GetCorpus(ctx, "lote-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteBatch(ctx, "lote-1"), domain.ErrNotFound)
}
