// Package decision implements the risk/decision agent. It folds every
// upstream envelope into a per-theme severity and a go/no-go recommendation.
//
// An upstream that did not finish ok is insufficient evidence: its theme is
// raised to at least medium and never reads as "no risk".
package decision

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// maxInsufficient is the number of insufficient themes that forces no-go.
const maxInsufficient = 2

const maxReasons = 3

// sources maps each theme to the agent that produces it.
var sources = []struct {
	theme domain.Theme
	agent domain.AgentID
}{
	{domain.ThemeMetadata, domain.AgentStructure},
	{domain.ThemeItems, domain.AgentItems},
	{domain.ThemeCompliance, domain.AgentCompliance},
	{domain.ThemeTechnical, domain.AgentTechnical},
	{domain.ThemeDivergence, domain.AgentDivergence},
	{domain.ThemeLegal, domain.AgentLegal},
}

// Agent decides.
type Agent struct{}

// New creates the agent.
func New() *Agent { return &Agent{} }

// Builder registers the agent with an agents.Registry.
func Builder(agents.Deps) (agents.Agent, error) { return New(), nil }

// ID implements agents.Agent.
func (a *Agent) ID() domain.AgentID { return domain.AgentDecision }

// Dependencies implements agents.Agent.
func (a *Agent) Dependencies() []domain.AgentID {
	deps := make([]domain.AgentID, 0, len(sources))
	for _, s := range sources {
		deps = append(deps, s.agent)
	}
	return deps
}

// Run implements agents.Agent.
func (a *Agent) Run(_ context.Context, in agents.Input) (domain.AgentEnvelope, error) {
	res := agents.NewResult(a.ID())
	data := domain.DecisionData{
		OverallSeverity: domain.SeverityLow,
		FlipConditions:  []string{},
	}

	var high []domain.ThemeRisk
	insufficient := 0
	for _, s := range sources {
		tr := domain.ThemeRisk{Theme: s.theme, Severity: domain.SeverityLow, Reasons: []string{}}
		env, ok := in.Envelope(s.agent)
		if !ok || !env.Usable() {
			tr.Insufficient = true
			tr.Severity = domain.SeverityMedium
			tr.Reasons = append(tr.Reasons, fmt.Sprintf("insufficient evidence: %s finished with status %s", s.agent.ReportKey(), in.Status(s.agent)))
			res.Alert(agents.InsufficientAlert(s.theme, s.agent, in.Status(s.agent)))
			insufficient++
		}
		if ok {
			score(&tr, env.Alerts, res)
		}
		data.Themes = append(data.Themes, tr)
	}
	data.Themes = append(data.Themes, pipelineRisk(in))

	for _, tr := range data.Themes {
		data.OverallSeverity = domain.MaxSeverity(data.OverallSeverity, tr.Severity)
		if tr.Severity == domain.SeverityHigh {
			high = append(high, tr)
		}
	}

	if len(high) > 0 || insufficient >= maxInsufficient {
		data.Recommendation = domain.RecommendNoGo
		data.FlipConditions = flipConditions(data.Themes)
	} else {
		data.Recommendation = domain.RecommendGo
	}
	data.Justification = justify(data, high, insufficient)

	n := len(data.Themes)
	in.Log().Infof("decision: %s (overall %s)", data.Recommendation, data.OverallSeverity)
	return res.Envelope(domain.StatusOK, data, n, float64(n-insufficient)/float64(n)), nil
}

// score folds an agent's evidenced alerts into its theme. High alerts
// are cited so the recommendation stays traceable.
func score(tr *domain.ThemeRisk, alerts []domain.Alert, res *agents.Result) {
	ranked := make([]domain.Alert, 0, len(alerts))
	for _, a := range alerts {
		if !a.Evidenced() {
			continue
		}
		ranked = append(ranked, a)
		tr.Score += a.Severity.Rank()
		tr.Severity = domain.MaxSeverity(tr.Severity, a.Severity)
		if a.Severity == domain.SeverityHigh {
			res.Cite(a.Evidence...)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Severity.Rank() > ranked[j].Severity.Rank()
	})
	for i := 0; i < len(ranked) && i < maxReasons; i++ {
		tr.Reasons = append(tr.Reasons, string(ranked[i].Severity)+": "+ranked[i].Message)
	}
}

// pipelineRisk rates the corpus itself: validation warnings, OCR quality,
// and evidence the runner had to reject.
func pipelineRisk(in agents.Input) domain.ThemeRisk {
	tr := domain.ThemeRisk{Theme: domain.ThemePipeline, Severity: domain.SeverityLow, Reasons: []string{}}
	if in.LowOCR() {
		tr.Severity = domain.SeverityMedium
		tr.Reasons = append(tr.Reasons, "low OCR quality: extracted text may be incomplete")
	}
	for _, w := range in.Validation.Warnings {
		tr.Score++
		if len(tr.Reasons) < maxReasons {
			tr.Reasons = append(tr.Reasons, w)
		}
	}
	rejected := 0
	for _, env := range in.Upstream {
		rejected += env.QualityFlags.EvidenceRejected
	}
	if rejected > 0 {
		tr.Severity = domain.SeverityMedium
		tr.Score += rejected
		tr.Reasons = append(tr.Reasons, fmt.Sprintf("%d evidence item(s) rejected as not verbatim", rejected))
	}
	return tr
}

func flipConditions(themes []domain.ThemeRisk) []string {
	out := []string{}
	for _, tr := range themes {
		switch {
		case tr.Insufficient:
			out = append(out, fmt.Sprintf("obtain sufficient evidence for %s: re-run or manually review the %s analysis", tr.Theme, tr.Theme))
		case tr.Severity == domain.SeverityHigh:
			reason := ""
			for _, r := range tr.Reasons {
				if strings.HasPrefix(r, string(domain.SeverityHigh)+": ") {
					reason = strings.TrimPrefix(r, string(domain.SeverityHigh)+": ")
					break
				}
			}
			out = append(out, fmt.Sprintf("resolve the high-severity %s finding: %s", tr.Theme, reason))
		}
	}
	return out
}

func justify(d domain.DecisionData, high []domain.ThemeRisk, insufficient int) string {
	names := func(ts []domain.ThemeRisk) string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = string(t.Theme)
		}
		return strings.Join(out, ", ")
	}
	var b strings.Builder
	b.WriteString(string(d.Recommendation))
	b.WriteString(": ")
	switch {
	case len(high) > 0:
		fmt.Fprintf(&b, "%d theme(s) at high severity (%s)", len(high), names(high))
	case insufficient >= maxInsufficient:
		fmt.Fprintf(&b, "%d theme(s) lack sufficient evidence", insufficient)
	default:
		fmt.Fprintf(&b, "no theme reaches high severity; overall severity is %s", d.OverallSeverity)
	}
	if insufficient > 0 && len(high) > 0 {
		fmt.Fprintf(&b, "; %d theme(s) lack sufficient evidence", insufficient)
	}
	return b.String()
}
