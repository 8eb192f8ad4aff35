// Package legal implements the legal-analysis agent: the legal regime of the
// procurement, clauses with legal consequences, and high-severity upstream
// alerts escalated with their legal basis.
package legal

import (
	"context"
	"sort"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

const confidence = 0.75

// escalated are the upstream agents whose high alerts get a legal basis.
var escalated = []domain.AgentID{domain.AgentCompliance, domain.AgentTechnical, domain.AgentDivergence}

// Agent performs the legal analysis.
type Agent struct{}

// New creates the agent.
func New() *Agent { return &Agent{} }

// Builder registers the agent with an agents.Registry.
func Builder(agents.Deps) (agents.Agent, error) { return New(), nil }

// ID implements agents.Agent.
func (a *Agent) ID() domain.AgentID { return domain.AgentLegal }

// Dependencies implements agents.Agent.
func (a *Agent) Dependencies() []domain.AgentID {
	return append([]domain.AgentID(nil), escalated...)
}

// Run implements agents.Agent.
func (a *Agent) Run(_ context.Context, in agents.Input) (domain.AgentEnvelope, error) {
	res := agents.NewResult(a.ID())
	l := agents.NewLocator(in.Corpus)
	status := domain.StatusOK

	data := domain.LegalData{
		Triggers:    []domain.LegalTrigger{},
		Escalations: []domain.Escalation{},
	}
	data.Regime = regime(l, res)

	for _, t := range triggers {
		m, ok := l.First(t.re, domain.LineRange{})
		if !ok {
			continue
		}
		ev := l.MatchEvidence("legal."+t.code, m, confidence)
		lt := domain.LegalTrigger{Code: t.code, Basis: t.basis, Severity: t.severity, Evidence: ev}
		if t.code == TriggerSmallBusiness && !in.Profile.IsZero() && !in.Profile.SmallBusiness {
			lt.Severity = domain.SeverityHigh
			lt.Detail = "participation is restricted to ME/EPP and the company profile is not a small business"
		}
		data.Triggers = append(data.Triggers, lt)
		res.Alert(domain.Alert{
			Code:     "legal_" + t.code,
			Theme:    domain.ThemeLegal,
			Severity: lt.Severity,
			Message:  message(lt),
			Evidence: []domain.Evidence{ev},
		})
	}

	for _, id := range escalated {
		env, ok := in.Envelope(id)
		if !ok || !env.Usable() {
			res.Alert(agents.InsufficientAlert(domain.ThemeLegal, id, in.Status(id)))
			status = domain.StatusPartial
			continue
		}
		for _, al := range env.Alerts {
			if al.Severity != domain.SeverityHigh || !al.Evidenced() {
				continue
			}
			esc := domain.Escalation{
				SourceAgent: id,
				AlertCode:   al.Code,
				Basis:       basisFor(al.Code),
				Severity:    al.Severity,
				Evidence:    al.Evidence,
			}
			data.Escalations = append(data.Escalations, esc)
			res.Alert(domain.Alert{
				Code:     "legal_escalation",
				Theme:    domain.ThemeLegal,
				Severity: al.Severity,
				Message:  id.ReportKey() + " " + al.Code + " falls under " + esc.Basis,
				Evidence: al.Evidence,
			})
		}
	}

	conf := confidence
	if status != domain.StatusOK {
		conf = confidence / 2
	}
	in.Log().Infof("legal: regime %s, %d trigger(s), %d escalation(s)", data.Regime, len(data.Triggers), len(data.Escalations))
	return res.Envelope(status, data, len(data.Triggers)+len(data.Escalations), conf), nil
}

// regime names the procurement law the corpus cites. Citing both the new
// and a revoked law is reported as mixed.
func regime(l *agents.Locator, res *agents.Result) string {
	found := make(map[string]domain.Evidence)
	for _, m := range l.Find(regimeRe, domain.LineRange{}) {
		var name string
		switch strings.ReplaceAll(m.Group(1), ".", "") {
		case "14133":
			name = Regime14133
		case "8666":
			name = Regime8666
		case "10520":
			name = Regime10520
		}
		if _, ok := found[name]; !ok {
			found[name] = l.MatchEvidence("legal.regime", m, confidence)
		}
	}

	switch {
	case len(found) == 0:
		res.Missing("legal-regime")
		return domain.NoDataFound
	case len(found) == 1:
		for name, ev := range found {
			res.Cite(ev)
			return name
		}
	}

	_, modern := found[Regime14133]
	names := make([]string, 0, len(found))
	evs := make([]domain.Evidence, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		evs = append(evs, found[name])
	}
	if modern {
		res.Alert(domain.Alert{
			Code:     "mixed_legal_regime",
			Theme:    domain.ThemeLegal,
			Severity: domain.SeverityMedium,
			Message:  "the corpus cites Lei " + strings.Join(names, " and Lei ") + "; the revoked law may govern parts of the notice",
			Evidence: evs,
		})
		return RegimeMixed
	}
	// 8.666 and 10.520 together is the usual pre-2021 pregão setup.
	res.Cite(evs...)
	return Regime10520
}

func message(t domain.LegalTrigger) string {
	msg := strings.ReplaceAll(t.Code, "_", " ") + " (" + t.Basis + ")"
	if t.Detail != "" {
		msg += ": " + t.Detail
	}
	return msg
}
