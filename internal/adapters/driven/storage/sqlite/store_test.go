package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/pipeline/fusion"
	"github.com/custodia-labs/licita-cli/internal/pipeline/indexer"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "licita.db"))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func document(id, filename string, typ domain.DocumentType, text string) *domain.ProcessedDocument {
	pages := []domain.PageText{{PageNumber: 1, RawText: text}}
	return &domain.ProcessedDocument{
		ID:             id,
		Filename:       filename,
		Extraction:     &domain.ExtractionResult{Pages: pages, QualityScore: 88},
		Classification: domain.ClassifiedDocument{Type: typ},
		Index:          indexer.Build(id, pages),
	}
}

func testCorpus(t *testing.T, id string, created time.Time) *domain.CanonicalCorpus {
	t.Helper()
	docs := []*domain.ProcessedDocument{
		document("doc-1", "edital.pdf", domain.TypeCoreNotice, "EDITAL\n1. DO OBJETO\nAquisição de cadeiras"),
		document("doc-2", "tr.pdf", domain.TypeTechnicalTerms, "TERMO DE REFERÊNCIA\nPrazo de entrega: 30 dias"),
	}
	removed := []domain.RemovedDocument{{
		DocumentID:     "doc-3",
		Filename:       "edital-copia.pdf",
		KeptDocumentID: "doc-1",
		KeptFilename:   "edital.pdf",
		Similarity:     1,
		Reason:         "identical hash",
	}}
	c, err := fusion.Fuse(id, docs, removed)
	require.NoError(t, err)
	c.CreatedAt = created
	return c
}

func TestNewStore_RunsMigrationsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "licita.db")
	store, err := NewStore(path)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path())
	require.NoError(t, store.Close())

	// reopening must not re-run 001.
	store, err = NewStore(path)
	require.NoError(t, err)
	defer store.Close()

	var count int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestStore_CorpusRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	created := time.Date(2025, 3, 10, 9, 0, 0, 123, time.UTC)
	c := testCorpus(t, "lote-1", created)

	require.NoError(t, store.SaveCorpus(ctx, c))

	got, err := store.GetCorpus(ctx, "lote-1")
	require.NoError(t, err)
	assert.Equal(t, c.LoteID, got.LoteID)
	assert.Equal(t, c.FullText, got.FullText)
	assert.Equal(t, c.GlobalLines, got.GlobalLines)
	assert.Equal(t, c.LineMap, got.LineMap)
	assert.True(t, created.Equal(got.CreatedAt))
	require.Len(t, got.Segments, 2)
	assert.Equal(t, c.Segments[1].SegmentHash, got.Segments[1].SegmentHash)
	assert.Equal(t, c.Segments[1].GlobalLineRange, got.Segments[1].GlobalLineRange)
	assert.Equal(t, c.Metadata.DuplicatesRemoved, got.Metadata.DuplicatesRemoved)
	assert.Equal(t, c.Metadata.TotalLines, got.Metadata.TotalLines)
}

func TestStore_SaveCorpusReplaces(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	c := testCorpus(t, "lote-1", time.Now())
	require.NoError(t, store.SaveCorpus(ctx, c))
	require.NoError(t, store.SaveReport(ctx, &domain.FinalReport{LoteID: "lote-1", Status: domain.ReportSuccess}))

	require.NoError(t, store.SaveCorpus(ctx, c))

	_, err := store.GetReport(ctx, "lote-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	batches, err := store.ListBatches(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}

func TestStore_Report(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)

	report := &domain.FinalReport{LoteID: "lote-1", Status: domain.ReportSuccess}
	assert.ErrorIs(t, store.SaveReport(ctx, report), domain.ErrNotFound)
	assert.ErrorIs(t, store.SaveReport(ctx, nil), domain.ErrInvalidInput)

	require.NoError(t, store.SaveCorpus(ctx, testCorpus(t, "lote-1", time.Now())))
	_, err := store.GetReport(ctx, "lote-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	report.Agents = map[string]domain.AgentEnvelope{
		domain.AgentDecision.ReportKey(): {
			AgentID: domain.AgentDecision,
			Status:  domain.StatusOK,
			Data:    domain.DecisionData{Recommendation: domain.RecommendNoGo},
		},
	}
	require.NoError(t, store.SaveReport(ctx, report))
	// saving twice updates in place.
	require.NoError(t, store.SaveReport(ctx, report))

	got, err := store.GetReport(ctx, "lote-1")
	require.NoError(t, err)
	d, ok := got.Decision()
	require.True(t, ok)
	assert.Equal(t, domain.RecommendNoGo, d.Recommendation)

	batches, err := store.ListBatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, domain.ReportSuccess, batches[0].Status)
	assert.Equal(t, domain.RecommendNoGo, batches[0].Recommendation)
	assert.Equal(t, 2, batches[0].TotalDocuments)
	assert.Equal(t, 1, batches[0].DuplicatesRemoved)
}

func TestStore_GetLine(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	c := testCorpus(t, "lote-1", time.Now())
	require.NoError(t, store.SaveCorpus(ctx, c))

	tests := []struct {
		name    string
		batch   string
		line    int
		want    string
		doc     string
		wantErr error
	}{
		{"notice line", "lote-1", 2, "1. DO OBJETO", "edital.pdf", nil},
		{"terms line", "lote-1", c.Segments[1].GlobalLineRange.Start, "TERMO DE REFERÊNCIA", "tr.pdf", nil},
		{"past the end", "lote-1", 999, "", "", domain.ErrNotFound},
		{"unknown batch", "nope", 1, "", "", domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lookup, err := store.GetLine(ctx, tt.batch, tt.line)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, lookup.Line.Text)
			assert.Equal(t, tt.doc, lookup.DocumentName)
			assert.Equal(t, tt.line, lookup.Line.LineNumber)
		})
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveCorpus(ctx, testCorpus(t, id, base.Add(time.Duration(i)*time.Hour))))
	}

	all, err := store.ListBatches(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].ID, all[1].ID, all[2].ID})

	two, err := store.ListBatches(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)

	require.NoError(t, store.DeleteBatch(ctx, "c"))
	assert.ErrorIs(t, store.DeleteBatch(ctx, "c"), domain.ErrNotFound)
	_, err = store.GetCorpus(ctx, "c")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// child rows are gone too.
	var lines int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM lines WHERE batch_id = 'c'").Scan(&lines))
	assert.Zero(t, lines)
}

func TestStore_RejectsUnnamedCorpus(t *testing.T) {
	err := setupTestStore(t).SaveCorpus(context.Background(), &domain.CanonicalCorpus{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
