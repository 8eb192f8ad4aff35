package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
	"github.com/custodia-labs/licita-cli/internal/logger"
	"github.com/custodia-labs/licita-cli/internal/pipeline/dedup"
	"github.com/custodia-labs/licita-cli/internal/pipeline/fusion"
	"github.com/custodia-labs/licita-cli/internal/pipeline/validator"
)

// Pipeline stage names, as they appear in the timeline and progress events.
const (
	StageIngestion  = "ingestion"
	StageDedup      = "dedup"
	StageFusion     = "fusion"
	StageValidation = "validation"
	StageAgents     = "agents"
	StageReport     = "report"
)

// Ensure AnalysisService implements the interface.
var _ driving.AnalysisService = (*AnalysisService)(nil)

// AnalysisService runs a batch from raw files to the final report.
type AnalysisService struct {
	ingestion *IngestionService
	registry  *agents.Registry
	deps      agents.Deps
	store     driven.CorpusStore
	settings  domain.AppSettings

	mu      sync.RWMutex
	batches map[string]*driving.BatchStatus
}

// AnalysisOption configures an AnalysisService.
type AnalysisOption func(*AnalysisService)

// WithCorpusStore persists every corpus and report. Without it batches
// live only in the returned report.
func WithCorpusStore(store driven.CorpusStore) AnalysisOption {
	return func(s *AnalysisService) {
		s.store = store
	}
}

// WithAgentDeps sets the collaborators handed to agent builders.
func WithAgentDeps(deps agents.Deps) AnalysisOption {
	return func(s *AnalysisService) {
		s.deps = deps
	}
}

// WithSettings overrides the default pipeline and agent settings.
func WithSettings(settings domain.AppSettings) AnalysisOption {
	return func(s *AnalysisService) {
		s.settings = settings
	}
}

// NewAnalysisService creates the analysis service.
func NewAnalysisService(ingestion *IngestionService, registry *agents.Registry, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		ingestion: ingestion,
		registry:  registry,
		settings:  domain.DefaultAppSettings(),
		batches:   make(map[string]*driving.BatchStatus),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs the full batch.
func (s *AnalysisService) Analyze(ctx context.Context, req driving.AnalyzeRequest) (*domain.FinalReport, error) {
	rc := s.begin(&req)
	logger.Info("Analysing batch %s (%d file(s))", rc.BatchID, len(req.Documents))

	report, err := s.analyze(ctx, rc, req)
	s.finish(rc.BatchID, err)
	if err != nil {
		logger.Error("Batch %s failed: %v", rc.BatchID, err)
		return nil, err
	}
	logger.Info("Batch %s finished: %s", rc.BatchID, report.Status)
	return report, nil
}

func (s *AnalysisService) analyze(ctx context.Context, rc *domain.RunContext, req driving.AnalyzeRequest) (*domain.FinalReport, error) {
	result, err := s.buildCorpus(ctx, rc, req.Documents)
	if err != nil {
		return nil, err
	}
	corpus := result.Corpus

	if s.store != nil {
		if err := s.store.SaveCorpus(ctx, corpus); err != nil {
			rc.Log.Warnf("could not store corpus: %v", err)
		}
	}

	rc.Log.Section(StageAgents)
	s.setStage(rc.BatchID, StageAgents)
	rc.Emit(domain.ProgressEvent{Stage: StageAgents})

	list, err := s.registry.BuildAll(s.deps)
	if err != nil {
		return nil, fmt.Errorf("build agents: %w", err)
	}
	runner := agents.NewRunner(agents.WithConcurrency(s.settings.Agents.Concurrency))
	envelopes, err := runner.Run(ctx, list, agents.Input{
		Corpus:     corpus,
		Validation: result.Validation,
		Run:        rc,
		Profile:    req.Profile,
		Questions:  req.Questions,
	})
	if err != nil {
		return nil, fmt.Errorf("run agents: %w", err)
	}

	rc.Log.Section(StageReport)
	s.setStage(rc.BatchID, StageReport)
	report := assembleReport(rc, result, envelopes)
	rc.Emit(domain.ProgressEvent{Stage: StageReport, Done: true, Message: string(report.Status)})

	if s.store != nil {
		if err := s.store.SaveReport(ctx, report); err != nil {
			rc.Log.Warnf("could not store report: %v", err)
		}
	}
	return report, nil
}

// BuildCorpus runs the fusion pipeline without agents.
func (s *AnalysisService) BuildCorpus(ctx context.Context, req driving.AnalyzeRequest) (*domain.PipelineResult, error) {
	rc := s.begin(&req)
	result, err := s.buildCorpus(ctx, rc, req.Documents)
	s.finish(rc.BatchID, err)
	return result, err
}

// buildCorpus runs ingestion, dedup, fusion and validation. An invalid
// corpus is returned alongside ErrCorpusInvalid.
func (s *AnalysisService) buildCorpus(ctx context.Context, rc *domain.RunContext, docs []domain.RawDocument) (*domain.PipelineResult, error) {
	rc.Log.Section(StageIngestion)
	s.setStage(rc.BatchID, StageIngestion)
	rc.Emit(domain.ProgressEvent{Stage: StageIngestion})
	if err := s.ingestion.Admit(docs); err != nil {
		return nil, fmt.Errorf("admit batch: %w", err)
	}
	processed, err := s.ingestion.Process(ctx, rc, docs)
	if err != nil {
		return nil, fmt.Errorf("ingest batch: %w", err)
	}

	result := &domain.PipelineResult{
		Documents: make([]domain.ClassifiedDocument, len(processed)),
		Warnings:  []string{},
	}
	for i, d := range processed {
		result.Documents[i] = d.Classification
		result.Warnings = append(result.Warnings, d.Warnings...)
	}

	rc.Log.Section(StageDedup)
	s.setStage(rc.BatchID, StageDedup)
	rc.Emit(domain.ProgressEvent{Stage: StageDedup})
	deduped := dedup.Deduplicate(processed, dedup.Options{
		SimilarityThreshold:  s.settings.Pipeline.SimilarityThreshold,
		LengthRatioThreshold: s.settings.Pipeline.LengthRatioThreshold,
	})
	result.Removed = deduped.Removed
	if result.Removed == nil {
		result.Removed = []domain.RemovedDocument{}
	}
	for _, r := range deduped.Removed {
		rc.Log.Infof("%s removed as duplicate of %s: %s", r.Filename, r.KeptFilename, r.Reason)
	}

	rc.Log.Section(StageFusion)
	s.setStage(rc.BatchID, StageFusion)
	rc.Emit(domain.ProgressEvent{Stage: StageFusion})
	corpus, err := fusion.Fuse(rc.BatchID, deduped.Kept, deduped.Removed)
	if err != nil {
		return nil, fmt.Errorf("fuse corpus: %w", err)
	}
	rc.Log.Infof("corpus fused: %d document(s), %d line(s)", corpus.Metadata.TotalDocuments, corpus.Metadata.TotalLines)
	result.Corpus = corpus

	rc.Log.Section(StageValidation)
	s.setStage(rc.BatchID, StageValidation)
	rc.Emit(domain.ProgressEvent{Stage: StageValidation})
	result.Validation = validator.Validate(corpus, validator.Options{OCRFloor: s.settings.Pipeline.OCRFloor})
	for _, f := range result.Validation.Flags {
		if !corpus.Metadata.HasFlag(f) {
			corpus.Metadata.WarningFlags = append(corpus.Metadata.WarningFlags, f)
		}
	}
	for _, w := range result.Validation.Warnings {
		rc.Log.Warnf("validation: %s", w)
	}
	if !result.Validation.Valid {
		for _, e := range result.Validation.Errors {
			rc.Log.Errorf("validation: %s", e)
		}
		corpus.Metadata.ErrorFlags = append(corpus.Metadata.ErrorFlags, result.Validation.Errors...)
		return result, fmt.Errorf("%w: %d error(s)", domain.ErrCorpusInvalid, len(result.Validation.Errors))
	}
	rc.Log.Infof("validation %s", result.Validation.Status)
	return result, nil
}

func assembleReport(rc *domain.RunContext, result *domain.PipelineResult, envelopes map[domain.AgentID]domain.AgentEnvelope) *domain.FinalReport {
	report := &domain.FinalReport{
		LoteID:     rc.BatchID,
		Status:     domain.ReportSuccess,
		Validation: result.Validation,
		Agents:     make(map[string]domain.AgentEnvelope, len(envelopes)),
		Warnings:   append(append([]string{}, result.Validation.Warnings...), result.Warnings...),
		StartedAt:  rc.StartedAt,
	}
	if result.Validation.Status != domain.ValidationSuccess {
		report.Status = domain.ReportCompletedWithWarnings
	}
	for _, id := range domain.AgentExecutionOrder() {
		env, ok := envelopes[id]
		if !ok {
			continue
		}
		report.Agents[id.ReportKey()] = env
		if env.Status != domain.StatusOK {
			report.Status = domain.ReportCompletedWithWarnings
			report.Warnings = append(report.Warnings, fmt.Sprintf("%s (%s) finished with status %s", id.ReportKey(), id, env.Status))
		}
	}
	report.FinishedAt = time.Now()
	report.Timeline = rc.Timeline()
	if report.Timeline == nil {
		report.Timeline = []domain.TimelineEntry{}
	}
	return report
}

// Status returns a copy of a batch's live state.
func (s *AnalysisService) Status(batchID string) (*driving.BatchStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.batches[batchID]
	if !ok {
		return nil, false
	}
	cp := *st
	cp.Agents = make(map[domain.AgentID]domain.AgentStatus, len(st.Agents))
	for k, v := range st.Agents {
		cp.Agents[k] = v
	}
	return &cp, true
}

// begin normalises the request, registers the batch and returns its run context.
func (s *AnalysisService) begin(req *driving.AnalyzeRequest) *domain.RunContext {
	if req.BatchID == "" {
		req.BatchID = uuid.NewString()
	}
	now := time.Now()
	docs := make([]domain.RawDocument, len(req.Documents))
	for i, d := range req.Documents {
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		if d.Size == 0 {
			d.Size = int64(len(d.Content))
		}
		if d.UploadedAt.IsZero() {
			d.UploadedAt = now
		}
		d.Order = i
		docs[i] = d
	}
	req.Documents = docs

	sink := req.Log
	if sink == nil {
		sink = logger.NewRunSink(req.BatchID)
	}
	rc := domain.NewRunContext(req.BatchID, sink)
	progress := req.Progress
	rc.Progress = func(ev domain.ProgressEvent) {
		if ev.Agent != "" {
			s.setAgent(req.BatchID, ev.Agent, ev.Status)
		}
		if progress != nil {
			progress(ev)
		}
	}

	s.mu.Lock()
	s.batches[req.BatchID] = &driving.BatchStatus{
		BatchID:   req.BatchID,
		Running:   true,
		Stage:     StageIngestion,
		StartedAt: rc.StartedAt,
		Agents:    make(map[domain.AgentID]domain.AgentStatus),
	}
	s.mu.Unlock()
	return rc
}

func (s *AnalysisService) setStage(batchID, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.batches[batchID]; ok {
		st.Stage = stage
	}
}

// setAgent records an agent transition. A started agent has no status yet.
func (s *AnalysisService) setAgent(batchID string, id domain.AgentID, status domain.AgentStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.batches[batchID]; ok {
		st.Agents[id] = status
	}
}

func (s *AnalysisService) finish(batchID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.batches[batchID]
	if !ok {
		return
	}
	st.Running = false
	if err != nil {
		st.Err = err.Error()
		if errors.Is(err, context.Canceled) {
			st.Stage = "cancelled"
		}
		return
	}
	st.Stage = "done"
}
