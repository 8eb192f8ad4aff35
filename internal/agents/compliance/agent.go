// Package compliance implements the compliance-checking agent: eligibility
// requirements stated in the corpus, compared with an optional company profile.
package compliance

import (
	"context"
	"fmt"
	"regexp"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

const (
	confidenceNotice = 0.85
	confidenceOther  = 0.7
)

var optionalRe = regexp.MustCompile(`facultativ|opcional|podera ser apresentad|a criterio d[oa] licitante`)

// Agent checks eligibility requirements.
type Agent struct {
	catalogue *Catalogue
}

// New creates the agent with the given catalogue, or the embedded one when nil.
func New(c *Catalogue) (*Agent, error) {
	if c == nil {
		var err error
		if c, err = DefaultCatalogue(); err != nil {
			return nil, err
		}
	}
	return &Agent{catalogue: c}, nil
}

// Builder registers the agent with an agents.Registry.
func Builder(agents.Deps) (agents.Agent, error) {
	return New(nil)
}

// ID implements agents.Agent.
func (a *Agent) ID() domain.AgentID { return domain.AgentCompliance }

// Dependencies implements agents.Agent.
func (a *Agent) Dependencies() []domain.AgentID { return nil }

// Run implements agents.Agent.
func (a *Agent) Run(_ context.Context, in agents.Input) (domain.AgentEnvelope, error) {
	res := agents.NewResult(a.ID())
	l := agents.NewLocator(in.Corpus)
	notice := l.SegmentScopes(domain.TypeCoreNotice, domain.TypeTechnicalTerms)

	data := domain.ComplianceData{Requirements: []domain.Requirement{}}
	var confSum float64
	for _, rule := range a.catalogue.rules {
		m, conf, ok := locate(l, rule.re, notice)
		if !ok {
			continue
		}
		field := "requirement." + rule.Key
		ev := l.MatchEvidence(field, m, conf)
		req := domain.Requirement{
			Key:           rule.Key,
			Label:         rule.Label,
			Category:      rule.Category,
			Clause:        domain.Found(ev.LiteralExcerpt, ev),
			Mandatory:     !optionalRe.MatchString(l.Folded(m.Line)),
			ProfileStatus: rule.profileStatus(in.Profile),
		}
		res.Cite(ev)
		confSum += conf

		switch req.ProfileStatus {
		case domain.ProfileMet:
			data.Met++
		case domain.ProfileUnmet:
			data.Unmet++
			sev := domain.SeverityHigh
			kind := "mandatory"
			if !req.Mandatory {
				sev, kind = domain.SeverityLow, "optional"
			}
			res.Alert(domain.Alert{
				Code:     "requirement_unmet",
				Theme:    domain.ThemeCompliance,
				Severity: sev,
				Message:  fmt.Sprintf("%s requirement not covered by the company profile: %s", kind, rule.Label),
				Evidence: []domain.Evidence{ev},
			})
		}
		data.Requirements = append(data.Requirements, req)
	}

	if in.Profile.IsZero() && len(data.Requirements) > 0 {
		in.Log().Infof("compliance: no company profile, %d requirement(s) not evaluated", len(data.Requirements))
	}

	if len(data.Requirements) == 0 {
		res.Missing("requirements")
		return res.Envelope(domain.StatusPartial, data, 0, 0), nil
	}
	n := len(data.Requirements)
	return res.Envelope(domain.StatusOK, data, n, confSum/float64(n)), nil
}

// locate prefers the notice and terms of reference, then the whole corpus.
func locate(l *agents.Locator, re *regexp.Regexp, preferred []domain.LineRange) (agents.Match, float64, bool) {
	for _, scope := range preferred {
		if m, ok := l.First(re, scope); ok {
			return m, confidenceNotice, true
		}
	}
	if m, ok := l.First(re, domain.LineRange{}); ok {
		return m, confidenceOther, true
	}
	return agents.Match{}, 0, false
}
