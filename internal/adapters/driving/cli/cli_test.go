package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
)

// run executes the root command with args and returns combined output.
// Flags are reset afterwards so tests do not leak into each other.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		resetFlags(rootCmd)
	}()

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if s, ok := f.Value.(pflag.SliceValue); ok {
			_ = s.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// withServices installs mocks for the duration of a test.
func withServices(t *testing.T, a driving.AnalysisService, c driving.CorpusService, s driving.SettingsService) {
	t.Helper()

	origA, origC, origS := analysisService, corpusService, settingsService
	origLoad, origProfile := loadDocuments, loadProfile
	t.Cleanup(func() {
		analysisService, corpusService, settingsService = origA, origC, origS
		loadDocuments, loadProfile = origLoad, origProfile
	})

	SetServices(Services{Analysis: a, Corpus: c, Settings: s})
	loadDocuments = func(paths ...string) ([]domain.RawDocument, error) {
		docs := make([]domain.RawDocument, 0, len(paths))
		for i, p := range paths {
			if p == "missing" {
				return nil, fmt.Errorf("path error: %w", errors.New("no such file"))
			}
			docs = append(docs, domain.RawDocument{ID: fmt.Sprintf("d%d", i), Filename: p, Order: i})
		}
		return docs, nil
	}
}

type mockAnalysisService struct {
	report  *domain.FinalReport
	result  *domain.PipelineResult
	err     error
	lastReq driving.AnalyzeRequest
	calls   int
}

func (m *mockAnalysisService) Analyze(_ context.Context, req driving.AnalyzeRequest) (*domain.FinalReport, error) {
	m.lastReq = req
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	r := *m.report
	r.LoteID = req.BatchID
	return &r, nil
}

func (m *mockAnalysisService) BuildCorpus(_ context.Context, req driving.AnalyzeRequest) (*domain.PipelineResult, error) {
	m.lastReq = req
	return m.result, m.err
}

func (m *mockAnalysisService) Status(string) (*driving.BatchStatus, bool) {
	return nil, false
}

type mockCorpusService struct {
	report    *domain.FinalReport
	corpus    *domain.CanonicalCorpus
	lookup    *domain.LineLookup
	batches   []domain.BatchRecord
	err       error
	deleted   string
	lastLimit int
	exported  string
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

func (m *mockCorpusService) DeleteBatch(_ context.Context, batchID string) error {
	m.deleted = batchID
	return m.err
}

func (m *mockCorpusService) ExportReport(_ context.Context, batchID, format string, w io.Writer) error {
	if m.err != nil {
		return m.err
	}
	m.exported = batchID + ":" + format
	_, err := fmt.Fprintf(w, "%s report for %s", format, batchID)
	return err
}

func (m *mockCorpusService) ExportFormats() []string {
	return []string{"json", "xlsx"}
}

type mockSettingsService struct {
	settings  domain.AppSettings
	setKey    string
	setValue  string
	setErr    error
	validErr  error
	oracleErr error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.settings = *s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	m.setKey, m.setValue = key, value
	return m.setErr
}

func (m *mockSettingsService) Keys() []string {
	return []string{"oracle.provider", "oracle.api_key"}
}

func (m *mockSettingsService) Validate() error { return m.validErr }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateOracleConfig() error { return m.oracleErr }

// sampleReport builds a small report with a decision and one alert.
func sampleReport() *domain.FinalReport {
	ev := domain.Evidence{
		Field:          "prazo_entrega",
		DocumentName:   "edital.pdf",
		Page:           3,
		LineRange:      domain.LineRange{Start: 120, End: 121},
		LiteralExcerpt: "O prazo de entrega sera de 30 dias",
		Confidence:     0.9,
	}
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	return &domain.FinalReport{
		LoteID:     "lote-1",
		Status:     domain.ReportSuccess,
		Validation: domain.ValidationResult{Valid: true, Status: domain.ValidationSuccess},
		Agents: map[string]domain.AgentEnvelope{
			domain.AgentLegal.ReportKey(): {
				AgentID: domain.AgentLegal,
				Status:  domain.StatusOK,
				Alerts: []domain.Alert{{
					Code:     "LEGAL_PENALTY",
					Theme:    domain.ThemeLegal,
					Severity: domain.SeverityHigh,
					Message:  "Multa acima de 20%",
					Evidence: []domain.Evidence{ev},
				}},
				Metadata: domain.EnvelopeMetadata{ItemsFound: 2, Confidence: 0.8, RunMs: 12},
			},
			domain.AgentDecision.ReportKey(): {
				AgentID: domain.AgentDecision,
				Status:  domain.StatusOK,
				Data: domain.DecisionData{
					OverallSeverity: domain.SeverityMedium,
					Recommendation:  domain.RecommendGo,
					Justification:   "Riscos administraveis.",
				},
			},
			domain.AgentReport.ReportKey(): {
				AgentID: domain.AgentReport,
				Status:  domain.StatusOK,
				Data: domain.ReportData{
					Answers: []domain.QuestionAnswer{{
						Question: "Qual o prazo de entrega?",
						Answer:   domain.Finding[string]{Value: "30 dias", Found: true, Evidence: ev},
					}},
				},
			},
		},
		Warnings:   []string{"OCR abaixo do limite em anexo.pdf"},
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}
}
