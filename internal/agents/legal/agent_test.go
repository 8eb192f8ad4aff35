package legal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/agents/agenttest"
	"github.com/custodia-labs/licita-cli/internal/agents/technical"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

const notice = `EDITAL DE PREGÃO ELETRÔNICO Nº 12/2025
Regido pela Lei nº 14.133, de 1º de abril de 2021.
Licitação exclusiva para microempresas e empresas de pequeno porte.
É vedada a participação de empresas reunidas em consórcio.
O prazo para impugnação do edital é de 3 (três) dias úteis.
Sanções: impedimento de licitar e contratar.`

func okEnvelope(id domain.AgentID, alerts ...domain.Alert) domain.AgentEnvelope {
	return domain.AgentEnvelope{AgentID: id, Status: domain.StatusOK, Alerts: alerts}
}

func run(t *testing.T, c *domain.CanonicalCorpus, profile *domain.CompanyProfile, upstream ...domain.AgentEnvelope) domain.AgentEnvelope {
	t.Helper()
	in := agenttest.Input(c, upstream...)
	in.Profile = profile
	env, err := New().Run(context.Background(), in)
	require.NoError(t, err)
	return env
}

func allOK() []domain.AgentEnvelope {
	return []domain.AgentEnvelope{
		okEnvelope(domain.AgentCompliance),
		okEnvelope(domain.AgentTechnical),
		okEnvelope(domain.AgentDivergence),
	}
}

func TestAgent_Triggers(t *testing.T) {
	c := agenttest.Corpus(agenttest.Doc{Name: "edital.pdf", Type: domain.TypeCoreNotice, Text: notice})
	env := run(t, c, nil, allOK()...)

	assert.Equal(t, domain.StatusOK, env.Status)
	data := env.Data.(domain.LegalData)
	assert.Equal(t, Regime14133, data.Regime)

	codes := make(map[string]domain.LegalTrigger)
	for _, tr := range data.Triggers {
		codes[tr.Code] = tr
	}
	for _, code := range []string{TriggerSmallBusiness, TriggerConsortium, TriggerImpugnation, TriggerSanctions} {
		assert.Contains(t, codes, code)
	}
	assert.Equal(t, domain.SeverityLow, codes[TriggerSmallBusiness].Severity)
	assert.Equal(t, "LC 123/2006, art. 48", codes[TriggerSmallBusiness].Basis)
	assert.Len(t, env.Alerts, len(data.Triggers))

	_, ok := agenttest.AllEvidenceVerbatim(c, env)
	assert.True(t, ok)
}

func TestAgent_SmallBusinessAgainstProfile(t *testing.T) {
	c := agenttest.Corpus(agenttest.Doc{Name: "edital.pdf", Type: domain.TypeCoreNotice, Text: notice})

	large := run(t, c, &domain.CompanyProfile{Name: "Grande SA"}, allOK()...)
	small := run(t, c, &domain.CompanyProfile{Name: "Pequena ME", SmallBusiness: true}, allOK()...)

	find := func(env domain.AgentEnvelope) domain.LegalTrigger {
		for _, tr := range env.Data.(domain.LegalData).Triggers {
			if tr.Code == TriggerSmallBusiness {
				return tr
			}
		}
		t.Fatal("trigger missing")
		return domain.LegalTrigger{}
	}
	assert.Equal(t, domain.SeverityHigh, find(large).Severity)
	assert.NotEmpty(t, find(large).Detail)
	assert.Equal(t, domain.SeverityLow, find(small).Severity)
}

func TestAgent_Regimes(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		alert bool
	}{
		{"modern", "Lei nº 14.133/2021", Regime14133, false},
		{"old", "nos termos da Lei 8.666/93", Regime8666, false},
		{"pregao", "Lei 10.520/2002 e Lei 8.666/1993", Regime10520, false},
		{"mixed", "Lei 14.133/2021 e, no que couber, Lei 8.666/1993", RegimeMixed, true},
		{"none", "EDITAL", domain.NoDataFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := agenttest.Corpus(agenttest.Doc{Name: "edital.pdf", Type: domain.TypeCoreNotice, Text: tt.text})
			env := run(t, c, nil, allOK()...)
			assert.Equal(t, tt.want, env.Data.(domain.LegalData).Regime)

			mixed := false
			for _, a := range env.Alerts {
				if a.Code == "mixed_legal_regime" {
					mixed = true
					assert.Len(t, a.Evidence, 2)
				}
			}
			assert.Equal(t, tt.alert, mixed)
			if tt.want == domain.NoDataFound {
				assert.Contains(t, env.QualityFlags.MissingSections, "legal-regime")
			}
		})
	}
}

func TestAgent_Escalations(t *testing.T) {
	c := agenttest.Corpus(agenttest.Doc{Name: "tr.pdf", Type: domain.TypeTechnicalTerms, Text: "TERMO DE REFERÊNCIA\nCadeira da marca Flexform, exclusivamente."})
	tech, err := technical.New().Run(context.Background(), agenttest.Input(c))
	require.NoError(t, err)
	require.Equal(t, domain.SeverityHigh, tech.Alerts[0].Severity)

	low := domain.Alert{Code: "x", Severity: domain.SeverityLow, Evidence: tech.Alerts[0].Evidence}
	env := run(t, c, nil,
		okEnvelope(domain.AgentCompliance, low),
		tech,
		okEnvelope(domain.AgentDivergence),
	)

	data := env.Data.(domain.LegalData)
	require.Len(t, data.Escalations, 1)
	esc := data.Escalations[0]
	assert.Equal(t, domain.AgentTechnical, esc.SourceAgent)
	assert.Equal(t, technical.KindBrand, esc.AlertCode)
	assert.Contains(t, esc.Basis, "art. 41, I")

	var escalation *domain.Alert
	for i := range env.Alerts {
		if env.Alerts[i].Code == "legal_escalation" {
			escalation = &env.Alerts[i]
		}
	}
	require.NotNil(t, escalation)
	assert.Equal(t, domain.ThemeLegal, escalation.Theme)
	assert.True(t, escalation.Evidenced())
}

// A failed upstream is insufficient evidence, never "no risk".
func TestAgent_InsufficientUpstream(t *testing.T) {
	c := agenttest.Corpus(agenttest.Doc{Name: "edital.pdf", Type: domain.TypeCoreNotice, Text: notice})
	env := run(t, c, nil,
		okEnvelope(domain.AgentCompliance),
		agenttest.Partial(domain.AgentTechnical),
	)
	assert.Equal(t, domain.StatusPartial, env.Status)

	var insufficient []domain.Alert
	for _, a := range env.Alerts {
		if a.Code == domain.AlertUpstreamInsufficient {
			insufficient = append(insufficient, a)
		}
	}
	require.Len(t, insufficient, 2)
	assert.Contains(t, insufficient[0].Message, "AGENT_05")
	assert.Contains(t, insufficient[1].Message, "AGENT_07")
}

func TestAgent_Dependencies(t *testing.T) {
	var a agents.Agent = New()
	assert.ElementsMatch(t, []domain.AgentID{domain.AgentCompliance, domain.AgentTechnical, domain.AgentDivergence}, a.Dependencies())
}
