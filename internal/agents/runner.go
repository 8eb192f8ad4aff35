package agents

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// DefaultConcurrency bounds how many agents of a wave run at once.
const DefaultConcurrency = 4

// Runner executes agents wave by wave.
type Runner struct {
	concurrency int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithConcurrency sets the per-wave concurrency bound.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner creates a runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes agents over in.Corpus and returns one envelope per agent.
// Only an invalid graph or a cancelled context is an error: a failing or
// panicking agent yields a partial envelope and the others carry on.
func (r *Runner) Run(ctx context.Context, agents []Agent, in Input) (map[domain.AgentID]domain.AgentEnvelope, error) {
	if in.Corpus == nil {
		return nil, fmt.Errorf("agents: %w: no corpus", domain.ErrCorpusInvalid)
	}
	waves, err := Plan(agents)
	if err != nil {
		return nil, err
	}
	if in.Run == nil {
		in.Run = domain.NewRunContext(in.Corpus.LoteID, nil)
	}
	log := in.Run.Log

	done := make(map[domain.AgentID]domain.AgentEnvelope, len(agents))
	for i, wave := range waves {
		if err := ctx.Err(); err != nil {
			return done, fmt.Errorf("agents: %w", err)
		}
		log.Debugf("agent wave %d: %d agent(s)", i+1, len(wave))

		upstream := make(map[domain.AgentID]domain.AgentEnvelope, len(done))
		for id, env := range done {
			upstream[id] = env
		}
		waveIn := in
		waveIn.Upstream = upstream

		results := make([]domain.AgentEnvelope, len(wave))
		sem := make(chan struct{}, r.concurrency)
		var wg sync.WaitGroup
		for j, a := range wave {
			wg.Add(1)
			go func(j int, a Agent) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				results[j] = r.runOne(ctx, a, waveIn)
			}(j, a)
		}
		wg.Wait()

		for j, a := range wave {
			done[a.ID()] = results[j]
		}
	}
	return done, nil
}

func (r *Runner) runOne(ctx context.Context, a Agent, in Input) domain.AgentEnvelope {
	id := a.ID()
	in.Run.Emit(domain.ProgressEvent{Stage: "agents", Agent: id, Message: "started"})
	start := time.Now()

	env, err := safeRun(ctx, a, in)
	if err != nil {
		in.Run.Log.Errorf("%s %s failed: %v", id.ReportKey(), id, err)
		env = failedEnvelope(id, err)
	} else {
		env.AgentID = id
		if rejected := verifyEvidence(in.Corpus, &env); rejected > 0 {
			in.Run.Log.Warnf("%s: rejected %d non-verbatim evidence item(s)", id.ReportKey(), rejected)
		}
	}
	env.Metadata.RunMs = time.Since(start).Milliseconds()
	if in.LowOCR() {
		env.QualityFlags.LowOCRQuality = true
	}

	in.Run.Log.Infof("%s %s finished: %s (%d alerts, %d evidence)", id.ReportKey(), id, env.Status, len(env.Alerts), len(env.Evidence))
	in.Run.Emit(domain.ProgressEvent{Stage: "agents", Agent: id, Status: env.Status, Done: true})
	return env
}

func safeRun(ctx context.Context, a Agent, in Input) (env domain.AgentEnvelope, err error) {
	defer func() {
		if p := recover(); p != nil {
			in.Run.Log.Debugf("panic in %s: %v\n%s", a.ID(), p, debug.Stack())
			err = fmt.Errorf("%w: panic: %v", domain.ErrAgentFailed, p)
		}
	}()
	env, err = a.Run(ctx, in)
	if err != nil {
		return env, fmt.Errorf("%w: %w", domain.ErrAgentFailed, err)
	}
	return env, nil
}

func failedEnvelope(id domain.AgentID, err error) domain.AgentEnvelope {
	return domain.AgentEnvelope{
		AgentID: id,
		Status:  domain.StatusPartial,
		Data:    domain.FailureData{Reason: err.Error()},
		Alerts: []domain.Alert{{
			Code:     domain.AlertAgentFailed,
			Theme:    domain.ThemePipeline,
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("%s (%s) did not complete: %v", id.ReportKey(), id, err),
			Evidence: []domain.Evidence{},
		}},
		Evidence:     []domain.Evidence{},
		QualityFlags: domain.QualityFlags{NeedsReview: true, MissingSections: []string{}},
	}
}

// verifyEvidence drops every excerpt that is not verbatim corpus text.
// Alerts left without evidence are dropped too, unless they are
// orchestration alerts. Findings in the payload that fail the check are
// reported as not found. Returns the number of rejected items.
func verifyEvidence(c *domain.CanonicalCorpus, env *domain.AgentEnvelope) int {
	rejected := 0
	verbatim := func(ev domain.Evidence) bool {
		return len(ev.LiteralExcerpt) <= domain.MaxExcerptLength && c.ContainsExcerpt(ev)
	}
	keep := func(evs []domain.Evidence) []domain.Evidence {
		out := make([]domain.Evidence, 0, len(evs))
		for _, ev := range evs {
			if !verbatim(ev) {
				rejected++
				continue
			}
			out = append(out, ev)
		}
		return out
	}

	if env.Data != nil {
		var n int
		env.Data, n = env.Data.VerifyFindings(verbatim)
		rejected += n
	}

	env.Evidence = keep(env.Evidence)
	alerts := make([]domain.Alert, 0, len(env.Alerts))
	for _, a := range env.Alerts {
		before := len(a.Evidence)
		a.Evidence = keep(a.Evidence)
		if !a.Evidenced() && !orchestrationAlert(a.Code) {
			if before == 0 {
				rejected++
			}
			continue
		}
		alerts = append(alerts, a)
	}
	env.Alerts = alerts

	if rejected > 0 {
		env.QualityFlags.EvidenceRejected += rejected
		env.QualityFlags.NeedsReview = true
		env.Alerts = append(env.Alerts, domain.Alert{
			Code:     domain.AlertEvidenceRejected,
			Theme:    domain.ThemePipeline,
			Severity: domain.SeverityLow,
			Message:  fmt.Sprintf("%d evidence item(s) were not verbatim corpus text and were discarded", rejected),
			Evidence: []domain.Evidence{},
		})
	}
	if env.Evidence == nil {
		env.Evidence = []domain.Evidence{}
	}
	if env.QualityFlags.MissingSections == nil {
		env.QualityFlags.MissingSections = []string{}
	}
	return rejected
}

func orchestrationAlert(code string) bool {
	switch code {
	case domain.AlertAgentFailed, domain.AlertUpstreamInsufficient, domain.AlertEvidenceRejected:
		return true
	default:
		return false
	}
}
