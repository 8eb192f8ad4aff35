// Package agents runs evidence-bound extraction agents over a canonical corpus.
//
// Every agent reads the same read-only corpus and the envelopes of the agents
// it depends on, and returns one AgentEnvelope. Values an agent reports are
// domain.Finding values whose evidence is a verbatim excerpt located by a
// Locator; the Runner re-checks every excerpt against the corpus before an
// envelope is accepted.
package agents

import (
	"context"
	"time"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// Agent is one extraction step.
type Agent interface {
	ID() domain.AgentID

	// Dependencies lists the agents whose envelopes must exist before Run.
	Dependencies() []domain.AgentID

	Run(ctx context.Context, in Input) (domain.AgentEnvelope, error)
}

// Input is everything an agent may read. Nothing in it may be mutated.
type Input struct {
	Corpus     *domain.CanonicalCorpus
	Validation domain.ValidationResult
	Run        *domain.RunContext

	// Upstream holds the envelopes of completed agents, keyed by agent.
	Upstream map[domain.AgentID]domain.AgentEnvelope

	Profile   *domain.CompanyProfile
	Questions []string
}

// Log returns the run's log sink.
func (in Input) Log() domain.LogSink {
	if in.Run == nil {
		return domain.NewRunContext("", nil).Log
	}
	return in.Run.Log
}

// Timeline returns the black-box log recorded so far.
func (in Input) Timeline() []domain.TimelineEntry {
	return in.Run.Timeline()
}

// Envelope returns the upstream envelope of an agent.
func (in Input) Envelope(id domain.AgentID) (domain.AgentEnvelope, bool) {
	env, ok := in.Upstream[id]
	return env, ok
}

// Usable reports whether the upstream agent finished with status ok.
func (in Input) Usable(id domain.AgentID) bool {
	env, ok := in.Upstream[id]
	return ok && env.Usable()
}

// Status returns the upstream agent's status; a missing envelope counts as failed.
func (in Input) Status(id domain.AgentID) domain.AgentStatus {
	env, ok := in.Upstream[id]
	if !ok {
		return domain.StatusFail
	}
	return env.Status
}

// LowOCR reports whether the corpus carries the low OCR quality flag.
func (in Input) LowOCR() bool {
	if in.Corpus != nil && in.Corpus.Metadata.HasFlag(domain.FlagLowOCRQuality) {
		return true
	}
	for _, f := range in.Validation.Flags {
		if f == domain.FlagLowOCRQuality {
			return true
		}
	}
	return false
}

// Deps are the collaborators handed to agent builders.
type Deps struct {
	// Oracle is optional. It must already be guarded: callers wrap it so
	// that failures come back as NO DATA FOUND rather than errors.
	Oracle driven.ExtractionOracle

	// OracleContextBytes bounds the corpus text sent to the oracle.
	OracleContextBytes int
}

// Result assembles an ok envelope for an agent.
type Result struct {
	id       domain.AgentID
	started  time.Time
	alerts   []domain.Alert
	evidence []domain.Evidence
	flags    domain.QualityFlags
}

// NewResult starts collecting output for agent id.
func NewResult(id domain.AgentID) *Result {
	return &Result{id: id, started: time.Now()}
}

// Cite records evidence. Sentinel evidence is skipped.
func (r *Result) Cite(evs ...domain.Evidence) {
	for _, ev := range evs {
		if !ev.IsNoData() && ev.LiteralExcerpt != "" {
			r.evidence = append(r.evidence, ev)
		}
	}
}

// Alert records an alert and cites its evidence.
func (r *Result) Alert(a domain.Alert) {
	r.alerts = append(r.alerts, a)
	r.Cite(a.Evidence...)
}

// Missing marks a section the agent expected and could not find.
func (r *Result) Missing(section string) {
	r.flags.MissingSections = append(r.flags.MissingSections, section)
	r.flags.NeedsReview = true
}

// NeedsReview flags the output for human review.
func (r *Result) NeedsReview() {
	r.flags.NeedsReview = true
}

// Envelope builds the envelope with the given status and payload.
func (r *Result) Envelope(status domain.AgentStatus, data domain.AgentData, items int, confidence float64) domain.AgentEnvelope {
	alerts := r.alerts
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	evidence := r.evidence
	if evidence == nil {
		evidence = []domain.Evidence{}
	}
	flags := r.flags
	if flags.MissingSections == nil {
		flags.MissingSections = []string{}
	}
	return domain.AgentEnvelope{
		AgentID:  r.id,
		Status:   status,
		Data:     data,
		Alerts:   alerts,
		Evidence: evidence,
		Metadata: domain.EnvelopeMetadata{
			RunMs:      time.Since(r.started).Milliseconds(),
			ItemsFound: items,
			Confidence: confidence,
		},
		QualityFlags: flags,
	}
}

// InsufficientAlert is the orchestration alert raised when an upstream
// agent's output cannot be relied on.
func InsufficientAlert(theme domain.Theme, upstream domain.AgentID, status domain.AgentStatus) domain.Alert {
	return domain.Alert{
		Code:     domain.AlertUpstreamInsufficient,
		Theme:    theme,
		Severity: domain.SeverityMedium,
		Message:  "insufficient evidence: " + upstream.ReportKey() + " (" + string(upstream) + ") finished with status " + string(status),
		Evidence: []domain.Evidence{},
	}
}
