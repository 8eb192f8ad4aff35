package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/agents/agenttest"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

const notice = `PREFEITURA MUNICIPAL DE SÃO JOSÉ
EDITAL DE PREGÃO ELETRÔNICO Nº 12/2025
PROCESSO ADMINISTRATIVO Nº 2025.001.123
Regido pela Lei nº 14.133, de 1º de abril de 2021.
1. DO OBJETO
1.1 Objeto: aquisição de cadeiras giratórias para o almoxarifado central.
Critério de julgamento: menor preço por item.
A sessão pública será realizada em 10/03/2025 às 09h00.
O valor global estimado da contratação é de R$ 4.700,00.
8. DA HABILITAÇÃO
8.1 Prova de inscrição no CNPJ.
8.2 Certificado de Regularidade do FGTS (CRF).
8.3 Atestado de capacidade técnica compatível com o objeto.`

const terms = `TERMO DE REFERÊNCIA
Item | Descrição | Unid | Qtd | Valor unitário
1 | Cadeira giratória com braços | un | 10 | R$ 350,00
2 | Mesa de escritório | un | 1 | R$ 1.200,00
Cadeira da marca Flexform, não serão aceitas outras marcas.
O prazo de entrega será de 5 (cinco) dias corridos.`

func TestRegistry_AllAgents(t *testing.T) {
	r := Registry()
	assert.Equal(t, domain.AgentExecutionOrder(), r.Names())

	all, err := r.BuildAll(agents.Deps{})
	require.NoError(t, err)
	waves, err := agents.Plan(all)
	require.NoError(t, err)
	assert.Len(t, waves, 5)
}

func TestRegistry_EndToEnd(t *testing.T) {
	c := agenttest.Corpus(
		agenttest.Doc{Name: "edital.pdf", Type: domain.TypeCoreNotice, Text: notice},
		agenttest.Doc{Name: "tr.pdf", Type: domain.TypeTechnicalTerms, Text: terms},
	)
	all, err := Registry().BuildAll(agents.Deps{})
	require.NoError(t, err)

	in := agenttest.Input(c)
	in.Profile = &domain.CompanyProfile{Name: "ACME", Documents: []string{"cnpj", "fgts"}}
	in.Questions = []string{"Qual o prazo de entrega?"}

	envs, err := agents.NewRunner().Run(context.Background(), all, in)
	require.NoError(t, err)
	require.Len(t, envs, 8)

	for id, env := range envs {
		assert.Zero(t, env.QualityFlags.EvidenceRejected, "%s rejected evidence", id)
		assert.NotEqual(t, domain.StatusFail, env.Status, id)
		_, ok := agenttest.AllEvidenceVerbatim(c, env)
		assert.True(t, ok, id)
	}

	decision := envs[domain.AgentDecision].Data.(domain.DecisionData)
	assert.Equal(t, domain.RecommendNoGo, decision.Recommendation)
	assert.NotEmpty(t, decision.FlipConditions)

	report := envs[domain.AgentReport].Data.(domain.ReportData)
	assert.Equal(t, domain.RecommendNoGo, report.Recommendation)
	require.Len(t, report.Answers, 1)
	assert.True(t, report.Answers[0].Answer.Found)

	items := envs[domain.AgentItems].Data.(domain.ItemsData)
	assert.InDelta(t, 4700.0, items.EstimatedTotal, 0.001)
}
