package export

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

func evidence(field, excerpt string, line int) domain.Evidence {
	return domain.Evidence{
		Field:          field,
		DocumentName:   "edital.pdf",
		Page:           1,
		LineRange:      domain.LineRange{Start: line, End: line},
		LiteralExcerpt: excerpt,
		Confidence:     0.9,
	}
}

func testReport() *domain.FinalReport {
	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	qty := domain.Found(10.0, evidence("quantity", "10", 7))
	price := domain.Found(350.0, evidence("unitPrice", "R$ 350,00", 7))
	return &domain.FinalReport{
		LoteID: "lote-1",
		Status: domain.ReportCompletedWithWarnings,
		Validation: domain.ValidationResult{
			Valid:  true,
			Status: domain.ValidationWarning,
		},
		Warnings: []string{"low_ocr_quality:scan.pdf"},
		Agents: map[string]domain.AgentEnvelope{
			domain.AgentItems.ReportKey(): {
				AgentID: domain.AgentItems,
				Status:  domain.StatusOK,
				Data: domain.ItemsData{
					Items: []domain.LineItem{{
						Number:      domain.Found("1", evidence("number", "1", 7)),
						Description: domain.Found("Cadeira giratória", evidence("description", "Cadeira giratória", 7)),
						Unit:        domain.Found("un", evidence("unit", "un", 7)),
						Quantity:    qty,
						UnitPrice:   price,
						Category:    "material",
						Occurrences: []domain.ItemOccurrence{{DocumentName: "tr.pdf"}},
					}},
					EstimatedTotal: 3500,
					PricedItems:    1,
				},
				Evidence: []domain.Evidence{evidence("description", "Cadeira giratória", 7)},
			},
			domain.AgentTechnical.ReportKey(): {
				AgentID: domain.AgentTechnical,
				Status:  domain.StatusOK,
				Data:    domain.TechnicalData{},
				Alerts: []domain.Alert{{
					Code:     "short_delivery",
					Theme:    domain.ThemeTechnical,
					Severity: domain.SeverityHigh,
					Message:  "Prazo de entrega de 5 dias",
					Evidence: []domain.Evidence{evidence("clause", "prazo de entrega será de 5 (cinco) dias", 12)},
				}},
			},
			domain.AgentDecision.ReportKey(): {
				AgentID: domain.AgentDecision,
				Status:  domain.StatusOK,
				Data: domain.DecisionData{
					Recommendation:  domain.RecommendNoGo,
					OverallSeverity: domain.SeverityHigh,
					Justification:   "Prazo de entrega inexequível.",
				},
			},
		},
		Timeline: []domain.TimelineEntry{
			{At: start, Level: "info", Stage: "ingestion", Message: "3 documents"},
		},
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Second),
	}
}

func TestJSON_Export(t *testing.T) {
	var buf bytes.Buffer
	c := &domain.CanonicalCorpus{LoteID: "lote-1", FullText: "secret full text", Metadata: domain.CorpusMetadata{TotalLines: 3}}
	require.NoError(t, JSON{}.Export(&buf, testReport(), c))

	var doc struct {
		Report domain.FinalReport `json:"report"`
		Corpus map[string]any     `json:"corpus"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "lote-1", doc.Report.LoteID)
	d, ok := doc.Report.Decision()
	require.True(t, ok)
	assert.Equal(t, domain.RecommendNoGo, d.Recommendation)
	assert.NotContains(t, buf.String(), "secret full text")
	assert.Contains(t, doc.Corpus, "metadata")

	buf.Reset()
	require.NoError(t, JSON{}.Export(&buf, testReport(), nil))
	assert.NotContains(t, buf.String(), `"corpus"`)

	assert.ErrorIs(t, JSON{}.Export(&buf, nil, nil), domain.ErrInvalidInput)
	assert.Equal(t, "json", JSON{}.Format())
}

func TestXLSX_Export(t *testing.T) {
	var buf bytes.Buffer
	c := &domain.CanonicalCorpus{
		LoteID: "lote-1",
		Segments: []domain.Segment{
			{Filename: "edital.pdf", Type: domain.TypeCoreNotice, GlobalLineRange: domain.LineRange{Start: 1, End: 20}, OCRQualityAvg: 95},
		},
		Metadata: domain.CorpusMetadata{
			TotalDocuments:    1,
			TotalLines:        20,
			DuplicatesRemoved: []domain.RemovedDocument{{Filename: "copia.pdf", KeptFilename: "edital.pdf", Similarity: 1}},
		},
	}
	require.NoError(t, XLSX{}.Export(&buf, testReport(), c))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetAlerts, SheetEvidence, SheetItems, SheetDocuments, SheetTimeline}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"Batch", "lote-1"}, summary[1])
	assert.Contains(t, summary, []string{"Recommendation", "no-go"})

	alerts, err := f.GetRows(SheetAlerts)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "short_delivery", alerts[1][1])
	assert.Equal(t, "12", alerts[1][7])

	items, err := f.GetRows(SheetItems)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "Cadeira giratória", items[1][2])
	assert.Equal(t, "3500", items[1][6])
	assert.Equal(t, "tr.pdf", items[1][8])

	docs, err := f.GetRows(SheetDocuments)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "copia.pdf", docs[2][0])
	assert.Equal(t, "edital.pdf", docs[2][5])

	timeline, err := f.GetRows(SheetTimeline)
	require.NoError(t, err)
	assert.Equal(t, "ingestion", timeline[1][2])
}

func TestXLSX_ExportWithoutCorpus(t *testing.T) {
	var buf bytes.Buffer
	r := testReport()
	r.Agents[domain.AgentReport.ReportKey()] = domain.AgentEnvelope{
		AgentID: domain.AgentReport,
		Status:  domain.StatusOK,
		Data: domain.ReportData{
			Documents: []domain.DocumentSummary{{Filename: "tr.pdf", Type: domain.TypeTechnicalTerms}},
		},
	}
	require.NoError(t, XLSX{}.Export(&buf, r, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	docs, err := f.GetRows(SheetDocuments)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "technical-terms", docs[1][1])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "açã…", truncate("açãoé", 4))
}
