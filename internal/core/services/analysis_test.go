package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/agents/builtin"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
)

const noticeText = `PREFEITURA MUNICIPAL DE SÃO JOSÉ
EDITAL DE PREGÃO ELETRÔNICO Nº 12/2025
PROCESSO ADMINISTRATIVO Nº 2025.001.123
Regido pela Lei nº 14.133, de 1º de abril de 2021.
1. DO OBJETO
1.1 Objeto: aquisição de cadeiras giratórias para o almoxarifado central.
Critério de julgamento: menor preço por item.
A sessão pública será realizada em 10/03/2025 às 09h00.
O valor global estimado da contratação é de R$ 4.700,00.
8. DA HABILITAÇÃO
8.1 Prova de inscrição no CNPJ.
8.2 Certificado de Regularidade do FGTS (CRF).`

const termsText = `TERMO DE REFERÊNCIA
1. ESPECIFICAÇÕES TÉCNICAS
Item | Descrição | Unid | Qtd | Valor unitário
1 | Cadeira giratória com braços | un | 10 | R$ 350,00
2 | Mesa de escritório | un | 1 | R$ 1.200,00
2. OBRIGAÇÕES DA CONTRATADA
A contratada entregará os bens no almoxarifado central, em horário comercial.
O prazo de entrega será de 30 (trinta) dias corridos após o recebimento da nota de empenho.`

// failingAgent stands in for a built-in agent and always panics.
type failingAgent struct {
	id   domain.AgentID
	deps []domain.AgentID
}

func (f failingAgent) ID() domain.AgentID             { return f.id }
func (f failingAgent) Dependencies() []domain.AgentID { return f.deps }

func (f failingAgent) Run(context.Context, agents.Input) (domain.AgentEnvelope, error) {
	panic("legal rules table is corrupt")
}

func newAnalysis(t *testing.T, ext *mockExtractor, registry *agents.Registry, settings domain.AppSettings) (*AnalysisService, *memory.CorpusStore) {
	t.Helper()
	store := memory.NewCorpusStore()
	ingestion := NewIngestionService(ext, newClassifier(t), settings.Batch, settings.Pipeline.SampleTokens)
	return NewAnalysisService(ingestion, registry, WithCorpusStore(store), WithSettings(settings)), store
}

func TestAnalysis_Analyze(t *testing.T) {
	svc, store := newAnalysis(t, &mockExtractor{}, builtin.Registry(), domain.DefaultAppSettings())

	var mu sync.Mutex
	stages := map[string]bool{}
	report, err := svc.Analyze(context.Background(), driving.AnalyzeRequest{
		BatchID: "lote-1",
		Documents: []domain.RawDocument{
			{Filename: "edital.pdf", Content: []byte(noticeText)},
			{Filename: "tr.pdf", Content: []byte(termsText)},
			{Filename: "edital-copia.pdf", Content: []byte(noticeText)},
		},
		Questions: []string{"Qual o prazo de entrega?"},
		Progress: func(ev domain.ProgressEvent) {
			mu.Lock()
			stages[ev.Stage] = true
			mu.Unlock()
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "lote-1", report.LoteID)
	assert.Len(t, report.Agents, 8)
	for _, id := range domain.AgentExecutionOrder() {
		assert.Contains(t, report.Agents, id.ReportKey())
	}
	assert.NotEmpty(t, report.Timeline)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	for _, s := range []string{StageIngestion, StageDedup, StageFusion, StageValidation, StageAgents, StageReport} {
		assert.True(t, stages[s], "stage %s not reported", s)
	}

	corpus, err := store.GetCorpus(context.Background(), "lote-1")
	require.NoError(t, err)
	assert.Equal(t, 2, corpus.Metadata.TotalDocuments)
	require.Len(t, corpus.Metadata.DuplicatesRemoved, 1)
	assert.Equal(t, "edital-copia.pdf", corpus.Metadata.DuplicatesRemoved[0].Filename)
	assert.Len(t, corpus.LineMap, len(corpus.GlobalLines))

	stored, err := store.GetReport(context.Background(), "lote-1")
	require.NoError(t, err)
	assert.Equal(t, report.Status, stored.Status)

	st, ok := svc.Status("lote-1")
	require.True(t, ok)
	assert.False(t, st.Running)
	assert.Equal(t, "done", st.Stage)
	assert.Len(t, st.Agents, 8)
}

func TestAnalysis_AgentFailureContinues(t *testing.T) {
	registry := builtin.Registry()
	registry.Register(domain.AgentLegal, func(agents.Deps) (agents.Agent, error) {
		return failingAgent{
			id:   domain.AgentLegal,
			deps: []domain.AgentID{domain.AgentCompliance, domain.AgentTechnical, domain.AgentDivergence},
		}, nil
	})
	svc, _ := newAnalysis(t, &mockExtractor{}, registry, domain.DefaultAppSettings())

	report, err := svc.Analyze(context.Background(), driving.AnalyzeRequest{
		Documents: []domain.RawDocument{
			{Filename: "edital.pdf", Content: []byte(noticeText)},
			{Filename: "tr.pdf", Content: []byte(termsText)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportCompletedWithWarnings, report.Status)

	legal, ok := report.Envelope(domain.AgentLegal)
	require.True(t, ok)
	assert.Equal(t, domain.StatusPartial, legal.Status)
	require.NotEmpty(t, legal.Alerts)
	assert.Equal(t, domain.AlertAgentFailed, legal.Alerts[0].Code)

	decision, ok := report.Decision()
	require.True(t, ok)
	var legalTheme *domain.ThemeRisk
	for i := range decision.Themes {
		if decision.Themes[i].Theme == domain.ThemeLegal {
			legalTheme = &decision.Themes[i]
		}
	}
	require.NotNil(t, legalTheme)
	assert.True(t, legalTheme.Insufficient)
	assert.GreaterOrEqual(t, legalTheme.Severity.Rank(), domain.SeverityMedium.Rank())

	summary, ok := report.Envelope(domain.AgentReport)
	require.True(t, ok)
	assert.Equal(t, domain.StatusOK, summary.Status)
}

func TestAnalysis_AdmissionErrorsAreFatal(t *testing.T) {
	settings := domain.DefaultAppSettings()
	settings.Batch.MaxFiles = 1
	svc, store := newAnalysis(t, &mockExtractor{}, builtin.Registry(), settings)

	_, err := svc.Analyze(context.Background(), driving.AnalyzeRequest{})
	assert.ErrorIs(t, err, domain.ErrEmptyBatch)

	_, err = svc.Analyze(context.Background(), driving.AnalyzeRequest{
		BatchID: "lote-2",
		Documents: []domain.RawDocument{
			{Filename: "a.pdf", Content: []byte("a")},
			{Filename: "b.pdf", Content: []byte("b")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrTooManyFiles)

	st, ok := svc.Status("lote-2")
	require.True(t, ok)
	assert.False(t, st.Running)
	assert.NotEmpty(t, st.Err)

	batches, err := store.ListBatches(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

// Average OCR of 30 is a warning: agents still run.
func TestAnalysis_LowOCRWarns(t *testing.T) {
	ext := &mockExtractor{quality: map[string]float64{"edital.pdf": 20, "tr.pdf": 40}}
	svc, _ := newAnalysis(t, ext, builtin.Registry(), domain.DefaultAppSettings())

	report, err := svc.Analyze(context.Background(), driving.AnalyzeRequest{
		Documents: []domain.RawDocument{
			{Filename: "edital.pdf", Content: []byte(noticeText)},
			{Filename: "tr.pdf", Content: []byte(termsText)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReportCompletedWithWarnings, report.Status)
	assert.Equal(t, domain.ValidationWarning, report.Validation.Status)
	assert.Contains(t, report.Validation.Flags, domain.FlagLowOCRQuality)
	assert.Contains(t, strings.Join(report.Warnings, "\n"), "30.0")

	for key, env := range report.Agents {
		assert.True(t, env.QualityFlags.LowOCRQuality, key)
	}
}

func TestAnalysis_BuildCorpus(t *testing.T) {
	ext := &mockExtractor{fail: map[string]error{"scan.pdf": errors.New("encrypted")}}
	svc, store := newAnalysis(t, ext, builtin.Registry(), domain.DefaultAppSettings())

	result, err := svc.BuildCorpus(context.Background(), driving.AnalyzeRequest{
		BatchID: "lote-3",
		Documents: []domain.RawDocument{
			{Filename: "tr.pdf", Content: []byte(termsText)},
			{Filename: "edital.pdf", Content: []byte(noticeText)},
			{Filename: "scan.pdf", Content: []byte("%PDF")},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Corpus)
	assert.True(t, result.Validation.Valid)
	require.Len(t, result.Documents, 3)
	assert.Contains(t, result.Warnings, "extraction_failed:scan.pdf")

	// fusion puts the notice first whatever the upload order.
	assert.Equal(t, "edital.pdf", result.Corpus.Segments[0].Filename)
	assert.Equal(t, domain.NoDataFound, result.Corpus.GlobalLines[len(result.Corpus.GlobalLines)-1].Text)

	// BuildCorpus does not store anything.
	_, err = store.GetCorpus(context.Background(), "lote-3")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalysis_Cancelled(t *testing.T) {
	svc, _ := newAnalysis(t, &mockExtractor{}, builtin.Registry(), domain.DefaultAppSettings())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, driving.AnalyzeRequest{
		BatchID:   "lote-4",
		Documents: []domain.RawDocument{{Filename: "edital.pdf", Content: []byte(noticeText)}},
	})
	assert.ErrorIs(t, err, context.Canceled)

	st, ok := svc.Status("lote-4")
	require.True(t, ok)
	assert.Equal(t, "cancelled", st.Stage)
}

func TestAnalysis_StatusUnknown(t *testing.T) {
	svc, _ := newAnalysis(t, &mockExtractor{}, builtin.Registry(), domain.DefaultAppSettings())
	_, ok := svc.Status("nope")
	assert.False(t, ok)
}
