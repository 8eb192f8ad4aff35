// Package technical implements the technical-validation agent: clauses that
// raise execution risk, such as named brands, samples, certifications,
// tight delivery, long warranties and heavy penalties.
package technical

import (
	"context"
	"fmt"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

const (
	confidence = 0.8

	// maxPerKind bounds repeated clauses of one kind.
	maxPerKind = 5
)

// Agent finds technical-risk clauses.
type Agent struct{}

// New creates the agent.
func New() *Agent { return &Agent{} }

// Builder registers the agent with an agents.Registry.
func Builder(agents.Deps) (agents.Agent, error) { return New(), nil }

// ID implements agents.Agent.
func (a *Agent) ID() domain.AgentID { return domain.AgentTechnical }

// Dependencies implements agents.Agent.
func (a *Agent) Dependencies() []domain.AgentID { return nil }

// Run implements agents.Agent.
func (a *Agent) Run(ctx context.Context, in agents.Input) (domain.AgentEnvelope, error) {
	res := agents.NewResult(a.ID())
	l := agents.NewLocator(in.Corpus)

	if len(l.SegmentScopes(domain.TypeTechnicalTerms, domain.TypeTechnicalAnnex)) == 0 {
		res.Missing("technical-terms")
	}

	data := domain.TechnicalData{Risks: []domain.TechnicalRisk{}}
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return domain.AgentEnvelope{}, err
		}
		seen := make(map[int]bool)
		count := 0
		for _, m := range l.Find(r.re, domain.LineRange{}) {
			if seen[m.Line] || count >= maxPerKind {
				continue
			}
			sev, detail, ok := r.eval(m, l.Folded(m.Line))
			if !ok {
				continue
			}
			seen[m.Line] = true
			count++

			ev := l.MatchEvidence("technical."+r.kind, m, confidence)
			data.Risks = append(data.Risks, domain.TechnicalRisk{
				Kind:     r.kind,
				Severity: sev,
				Clause:   domain.Found(ev.LiteralExcerpt, ev),
				Detail:   detail,
			})
			res.Alert(domain.Alert{
				Code:     r.kind,
				Theme:    domain.ThemeTechnical,
				Severity: sev,
				Message:  fmt.Sprintf("%s (line %d)", detail, m.Line),
				Evidence: []domain.Evidence{ev},
			})
		}
	}

	in.Log().Infof("technical: %d risk clause(s)", len(data.Risks))
	return res.Envelope(domain.StatusOK, data, len(data.Risks), confidence), nil
}
