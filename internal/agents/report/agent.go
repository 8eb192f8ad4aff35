// Package report implements the report-synthesis agent: the consolidated
// summary, answers to user questions and the black-box timeline.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/agents/structure"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

const maxTopAlerts = 10

// Agent writes the report.
type Agent struct{}

// New creates the agent.
func New() *Agent { return &Agent{} }

// Builder registers the agent with an agents.Registry.
func Builder(agents.Deps) (agents.Agent, error) { return New(), nil }

// ID implements agents.Agent.
func (a *Agent) ID() domain.AgentID { return domain.AgentReport }

// Dependencies implements agents.Agent.
func (a *Agent) Dependencies() []domain.AgentID {
	var deps []domain.AgentID
	for _, id := range domain.AgentExecutionOrder() {
		if id != domain.AgentReport {
			deps = append(deps, id)
		}
	}
	return deps
}

// Run implements agents.Agent.
func (a *Agent) Run(_ context.Context, in agents.Input) (domain.AgentEnvelope, error) {
	res := agents.NewResult(a.ID())
	l := agents.NewLocator(in.Corpus)

	data := domain.ReportData{
		AgentStatus: make(map[string]domain.AgentStatus),
		AlertCounts: map[domain.Severity]int{
			domain.SeverityHigh:   0,
			domain.SeverityMedium: 0,
			domain.SeverityLow:    0,
		},
		Documents: structure.Documents(in.Corpus),
		Removed:   append([]domain.RemovedDocument{}, in.Corpus.Metadata.DuplicatesRemoved...),
		Answers:   []domain.QuestionAnswer{},
		Timeline:  in.Timeline(),
	}
	if data.Timeline == nil {
		data.Timeline = []domain.TimelineEntry{}
	}

	var all []domain.Alert
	var notOK []string
	for _, id := range a.Dependencies() {
		status := in.Status(id)
		data.AgentStatus[id.ReportKey()] = status
		if status != domain.StatusOK {
			notOK = append(notOK, id.ReportKey())
			res.Alert(agents.InsufficientAlert(domain.ThemePipeline, id, status))
		}
		env, _ := in.Envelope(id)
		data.EvidenceCount += len(env.Evidence)
		for _, al := range env.Alerts {
			data.AlertCounts[al.Severity]++
			all = append(all, al)
		}
	}
	data.TopAlerts = top(all)

	data.Recommendation = domain.RecommendNoGo
	var decision domain.DecisionData
	if env, ok := in.Envelope(domain.AgentDecision); ok && env.Usable() {
		if d, ok := env.Data.(domain.DecisionData); ok {
			decision = d
			data.Recommendation = d.Recommendation
		}
	}

	for _, q := range in.Questions {
		if strings.TrimSpace(q) == "" {
			continue
		}
		qa := answer(l, q)
		res.Cite(qa.Answer.Evidence)
		data.Answers = append(data.Answers, qa)
	}

	data.Summary = summary(in, data, decision, notOK)
	return res.Envelope(domain.StatusOK, data, len(data.TopAlerts), 1), nil
}

// top orders alerts by severity, keeping agent execution order within a level.
func top(alerts []domain.Alert) []domain.Alert {
	out := append([]domain.Alert{}, alerts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	if len(out) > maxTopAlerts {
		out = out[:maxTopAlerts]
	}
	return out
}

func summary(in agents.Input, data domain.ReportData, decision domain.DecisionData, notOK []string) string {
	var b strings.Builder
	c := in.Corpus
	fmt.Fprintf(&b, "Batch %s: %d document(s), %d line(s)", c.LoteID, len(c.Segments), len(c.GlobalLines))
	if n := len(c.Metadata.DuplicatesRemoved); n > 0 {
		fmt.Fprintf(&b, ", %d duplicate(s) removed", n)
	}
	b.WriteString(".")

	if env, ok := in.Envelope(domain.AgentStructure); ok {
		if s, ok := env.Data.(domain.StructureData); ok {
			fmt.Fprintf(&b, " Object: %s.", s.Object.Display(func(v string) string { return v }))
		}
	}

	fmt.Fprintf(&b, " Recommendation: %s", data.Recommendation)
	if decision.Justification != "" {
		fmt.Fprintf(&b, " (%s)", decision.Justification)
	} else {
		b.WriteString(" (risk decision unavailable)")
	}
	b.WriteString(".")

	fmt.Fprintf(&b, " Alerts: %d high, %d medium, %d low.",
		data.AlertCounts[domain.SeverityHigh], data.AlertCounts[domain.SeverityMedium], data.AlertCounts[domain.SeverityLow])
	if len(notOK) > 0 {
		fmt.Fprintf(&b, " Insufficient evidence from %s.", strings.Join(notOK, ", "))
	}
	if in.LowOCR() {
		b.WriteString(" OCR quality is low; findings may be incomplete.")
	}
	return b.String()
}
