package compliance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/agents/agenttest"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

const eligibility = `EDITAL DE PREGÃO ELETRÔNICO Nº 12/2025
8. DA HABILITAÇÃO
8.1 Prova de inscrição no CNPJ.
8.2 Certidão conjunta de débitos relativos a tributos federais e à dívida ativa da União.
8.3 Certificado de Regularidade do FGTS (CRF).
8.4 Certidão Negativa de Débitos Trabalhistas.
8.5 Balanço patrimonial do último exercício social.
8.6 Atestado de capacidade técnica compatível com o objeto.
8.7 Certificação ISO 9001, facultativa, para fins de desempate.`

func byKey(data domain.ComplianceData) map[string]domain.Requirement {
	out := make(map[string]domain.Requirement)
	for _, r := range data.Requirements {
		out[r.Key] = r
	}
	return out
}

func runAgent(t *testing.T, text string, profile *domain.CompanyProfile) (domain.AgentEnvelope, *domain.CanonicalCorpus) {
	t.Helper()
	c := agenttest.Corpus(agenttest.Doc{Name: "edital.pdf", Type: domain.TypeCoreNotice, Text: text})
	a, err := New(nil)
	require.NoError(t, err)
	in := agenttest.Input(c)
	in.Profile = profile
	env, err := a.Run(context.Background(), in)
	require.NoError(t, err)
	return env, c
}

func TestAgent_FindsRequirements(t *testing.T) {
	env, c := runAgent(t, eligibility, nil)
	assert.Equal(t, domain.StatusOK, env.Status)

	reqs := byKey(env.Data.(domain.ComplianceData))
	for _, key := range []string{"cnpj", "cnd_federal", "fgts", "cndt", "balance_sheet", "technical_certificate", "iso_9001"} {
		t.Run(key, func(t *testing.T) {
			r, ok := reqs[key]
			require.True(t, ok)
			assert.True(t, r.Clause.Found)
			assert.Equal(t, domain.ProfileNotEvaluated, r.ProfileStatus)
		})
	}
	assert.True(t, reqs["fgts"].Mandatory)
	assert.False(t, reqs["iso_9001"].Mandatory)
	assert.Contains(t, reqs["cndt"].Clause.Value, "Débitos Trabalhistas")

	// no profile, no unmet alerts
	assert.Empty(t, env.Alerts)
	_, ok := agenttest.AllEvidenceVerbatim(c, env)
	assert.True(t, ok)
}

func TestAgent_ComparesProfile(t *testing.T) {
	profile := &domain.CompanyProfile{
		Name:      "ACME Ltda",
		Documents: []string{"cnpj", "cnd_federal", "fgts", "cndt", "balance_sheet"},
	}
	env, _ := runAgent(t, eligibility, profile)
	data := env.Data.(domain.ComplianceData)
	reqs := byKey(data)

	assert.Equal(t, domain.ProfileMet, reqs["fgts"].ProfileStatus)
	assert.Equal(t, domain.ProfileUnmet, reqs["technical_certificate"].ProfileStatus)
	assert.Equal(t, domain.ProfileUnmet, reqs["iso_9001"].ProfileStatus)
	assert.Equal(t, 5, data.Met)
	assert.Equal(t, 2, data.Unmet)

	severities := map[domain.Severity]int{}
	for _, a := range env.Alerts {
		assert.Equal(t, "requirement_unmet", a.Code)
		assert.True(t, a.Evidenced())
		severities[a.Severity]++
	}
	assert.Equal(t, 1, severities[domain.SeverityHigh])
	assert.Equal(t, 1, severities[domain.SeverityLow])
}

func TestAgent_CertificationFromProfile(t *testing.T) {
	profile := &domain.CompanyProfile{Name: "ACME", Certifications: []string{"ISO 9001:2015"}}
	env, _ := runAgent(t, eligibility, profile)
	assert.Equal(t, domain.ProfileMet, byKey(env.Data.(domain.ComplianceData))["iso_9001"].ProfileStatus)
}

func TestAgent_NoRequirements(t *testing.T) {
	env, _ := runAgent(t, "EDITAL\nObjeto: cadeiras.", nil)
	assert.Equal(t, domain.StatusPartial, env.Status)
	assert.Contains(t, env.QualityFlags.MissingSections, "requirements")
	assert.NotNil(t, env.Data.(domain.ComplianceData).Requirements)
}

func TestParseCatalogue(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		ok   bool
	}{
		{"valid", "requirements:\n  - key: a\n    pattern: 'x'\n", true},
		{"empty", "requirements: []\n", false},
		{"bad regex", "requirements:\n  - key: a\n    pattern: '('\n", false},
		{"duplicate", "requirements:\n  - key: a\n    pattern: x\n  - key: a\n    pattern: y\n", false},
		{"bad yaml", "requirements: [", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalogue([]byte(tt.yaml))
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	def, err := DefaultCatalogue()
	require.NoError(t, err)
	assert.NotEmpty(t, def.Rules())
}
