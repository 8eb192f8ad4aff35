package dedup

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

func makeDoc(id, filename, text string, order int, ocr float64) *domain.ProcessedDocument {
	lines := strings.Split(text, "\n")
	local := make([]domain.LocalLine, len(lines))
	for i, l := range lines {
		local[i] = domain.LocalLine{Index: i + 1, Text: l, Page: 1}
	}
	return &domain.ProcessedDocument{
		ID:         id,
		Filename:   filename,
		Order:      order,
		UploadedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Extraction: &domain.ExtractionResult{
			Pages:        []domain.PageText{{PageNumber: 1, RawText: text}},
			QualityScore: ocr,
		},
		Fingerprint: Fingerprint(text, DefaultSampleTokens),
		Index:       domain.IndexedDocument{DocumentID: id, Lines: local, Pages: []int{1}},
	}
}

const noticeText = "EDITAL DE PREGÃO ELETRÔNICO 12/2024\nObjeto: aquisição de cadeiras\nSessão pública em 10/05/2024"
const termsText = "TERMO DE REFERÊNCIA\nEspecificação das cadeiras giratórias\nPrazo de entrega de 30 dias"

func TestFingerprint_IgnoresCaseAccentsAndSpacing(t *testing.T) {
	a := Fingerprint("Licitação  Pública\n", 0)
	b := Fingerprint("licitacao publica", 0)
	assert.Equal(t, a.ContentHash, b.ContentHash)
	assert.Equal(t, a.SimilaritySketch, b.SimilaritySketch)
	assert.Equal(t, 2, a.WordCount)
	assert.Len(t, a.ContentHash, 64)
}

func TestFingerprint_SampleBounded(t *testing.T) {
	fp := Fingerprint(strings.Repeat("palavra ", 50), 10)
	assert.Len(t, strings.Fields(fp.SampleText), 10)
	assert.Equal(t, 50, fp.WordCount)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity("a b c", "c b a"), 1e-9)
	assert.InDelta(t, 0.0, CosineSimilarity("a b", "c d"), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity("", "a"))
}

func TestLengthRatio(t *testing.T) {
	assert.Equal(t, 1.0, LengthRatio(0, 0))
	assert.Equal(t, 0.5, LengthRatio(10, 5))
	assert.Equal(t, 0.0, LengthRatio(0, 5))
}

// Files A and C are identical, B is distinct; the kept copy is the better OCR.
func TestDeduplicate_ABCScenario(t *testing.T) {
	a := makeDoc("A", "a.pdf", noticeText, 0, 60)
	b := makeDoc("B", "b.pdf", termsText, 1, 90)
	c := makeDoc("C", "c.pdf", noticeText, 2, 85)

	res := Deduplicate([]*domain.ProcessedDocument{a, b, c}, DefaultOptions())

	require.Len(t, res.Kept, 2)
	assert.Equal(t, "B", res.Kept[0].ID)
	assert.Equal(t, "C", res.Kept[1].ID)
	require.Len(t, res.Removed, 1)
	assert.Equal(t, "A", res.Removed[0].DocumentID)
	assert.Equal(t, "C", res.Removed[0].KeptDocumentID)
	assert.Equal(t, 1.0, res.Removed[0].Similarity)
	assert.Contains(t, res.Removed[0].Reason, "exact duplicate")
	assert.Equal(t, [][]string{{"C", "A"}}, res.Groups)
}

func TestDeduplicate_HashMatchIgnoresFilename(t *testing.T) {
	a := makeDoc("1", "edital_final.pdf", noticeText, 0, 80)
	b := makeDoc("2", "scan_0001.pdf", noticeText, 1, 80)

	res := Deduplicate([]*domain.ProcessedDocument{a, b}, DefaultOptions())
	require.Len(t, res.Removed, 1)
	// same quality otherwise, so "final" in the name decides.
	assert.Equal(t, "1", res.Kept[0].ID)
}

func TestDeduplicate_TieGoesToFirstSeen(t *testing.T) {
	a := makeDoc("1", "x.pdf", noticeText, 3, 80)
	b := makeDoc("2", "y.pdf", noticeText, 1, 80)

	res := Deduplicate([]*domain.ProcessedDocument{a, b}, DefaultOptions())
	require.Len(t, res.Kept, 1)
	assert.Equal(t, "2", res.Kept[0].ID)
}

func TestDeduplicate_ProbableDuplicate(t *testing.T) {
	base := strings.Repeat("cadeira giratoria com bracos regulaveis e rodizios ", 40)
	a := makeDoc("1", "a.pdf", base+"versao um", 0, 70)
	b := makeDoc("2", "b.pdf", base+"versao dois", 1, 90)

	res := Deduplicate([]*domain.ProcessedDocument{a, b}, DefaultOptions())
	require.Len(t, res.Removed, 1)
	assert.Equal(t, "2", res.Kept[0].ID)
	assert.Contains(t, res.Removed[0].Reason, "probable duplicate")
	assert.GreaterOrEqual(t, res.Removed[0].Similarity, 0.95)
}

func TestDeduplicate_LengthRatioBlocksGrouping(t *testing.T) {
	base := strings.Repeat("cadeira giratoria ", 40)
	a := makeDoc("1", "a.pdf", base, 0, 70)
	b := makeDoc("2", "b.pdf", base+base, 1, 90)

	res := Deduplicate([]*domain.ProcessedDocument{a, b}, DefaultOptions())
	assert.Len(t, res.Kept, 2)
	assert.Empty(t, res.Removed)
}

func TestDeduplicate_TransitiveGroup(t *testing.T) {
	a := makeDoc("1", "a.pdf", noticeText, 0, 50)
	b := makeDoc("2", "b.pdf", noticeText, 1, 95)
	c := makeDoc("3", "c.pdf", noticeText, 2, 70)

	res := Deduplicate([]*domain.ProcessedDocument{a, b, c}, DefaultOptions())
	require.Len(t, res.Kept, 1)
	assert.Equal(t, "2", res.Kept[0].ID)
	assert.Len(t, res.Removed, 2)
}

func TestDeduplicate_FailedExtractionsNotGrouped(t *testing.T) {
	a := makeDoc("1", "a.png", domain.NoDataFound, 0, 0)
	a.Extraction = domain.FailedExtraction("ocr")
	b := makeDoc("2", "b.png", domain.NoDataFound, 1, 0)
	b.Extraction = domain.FailedExtraction("ocr")

	res := Deduplicate([]*domain.ProcessedDocument{a, b}, DefaultOptions())
	assert.Len(t, res.Kept, 2)
	assert.Empty(t, res.Removed)
}

func TestDeduplicate_Idempotent(t *testing.T) {
	docs := []*domain.ProcessedDocument{
		makeDoc("A", "a.pdf", noticeText, 0, 60),
		makeDoc("B", "b.pdf", termsText, 1, 90),
		makeDoc("C", "c.pdf", noticeText, 2, 85),
	}
	first := Deduplicate(docs, DefaultOptions())
	second := Deduplicate(first.Kept, DefaultOptions())

	assert.Equal(t, first.Kept, second.Kept)
	assert.Empty(t, second.Removed)

	again := Deduplicate(docs, DefaultOptions())
	assert.Equal(t, first.Kept, again.Kept)
	assert.Equal(t, len(first.Removed), len(again.Removed))
}

func TestFreshness(t *testing.T) {
	tests := []struct {
		name string
		want float64
	}{
		{"edital.pdf", 0.5},
		{"edital_final.pdf", 0.8},
		{"edital_v2.pdf", 0.7},
		{"edital_rascunho.pdf", 0.2},
		{"Edital Revisado FINAL v3.pdf", 1.0},
		{"draft_preliminar.pdf", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Freshness(tt.name), 1e-9)
		})
	}
}
