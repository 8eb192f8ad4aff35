package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/agents/agenttest"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/logger"
)

const notice = `EDITAL DE PREGÃO ELETRÔNICO Nº 12/2025
Objeto: aquisição de cadeiras giratórias.
A sessão pública será realizada em 10/03/2025 às 09h00.
O prazo de entrega será de 5 dias.`

func upstream(c *domain.CanonicalCorpus) []domain.AgentEnvelope {
	l := agents.NewLocator(c)
	object, _ := l.Verbatim("object", "aquisição de cadeiras giratórias", 0.9)
	delivery := l.LineEvidence("technical.short_delivery", 4, 0.8)

	envs := []domain.AgentEnvelope{
		{
			AgentID:  domain.AgentStructure,
			Status:   domain.StatusOK,
			Data:     domain.StructureData{Object: domain.Found("aquisição de cadeiras giratórias", object)},
			Evidence: []domain.Evidence{object},
		},
		{
			AgentID:  domain.AgentTechnical,
			Status:   domain.StatusOK,
			Evidence: []domain.Evidence{delivery},
			Alerts: []domain.Alert{
				{Code: "samples_required", Severity: domain.SeverityMedium, Evidence: []domain.Evidence{delivery}},
				{Code: "short_delivery", Severity: domain.SeverityHigh, Evidence: []domain.Evidence{delivery}},
			},
		},
		{
			AgentID: domain.AgentDecision,
			Status:  domain.StatusOK,
			Data: domain.DecisionData{
				Recommendation: domain.RecommendNoGo,
				Justification:  "no-go: 1 theme(s) at high severity (technical)",
			},
		},
	}
	for _, id := range []domain.AgentID{domain.AgentItems, domain.AgentCompliance, domain.AgentDivergence} {
		envs = append(envs, domain.AgentEnvelope{AgentID: id, Status: domain.StatusOK})
	}
	return append(envs, agenttest.Partial(domain.AgentLegal))
}

func TestAgent_Report(t *testing.T) {
	c := agenttest.Corpus(agenttest.Doc{Name: "edital.pdf", Type: domain.TypeCoreNotice, Text: notice})
	c.Metadata.DuplicatesRemoved = []domain.RemovedDocument{{DocumentID: "x", Filename: "copia.pdf", KeptDocumentID: "doc-0"}}

	sink := logger.NewRunSink(c.LoteID)
	sink.Section("agents")
	sink.Infof("structure-mapping finished")

	in := agenttest.Input(c, upstream(c)...)
	in.Run = domain.NewRunContext(c.LoteID, sink)
	in.Questions = []string{"Qual é o prazo de entrega?", "  ", "Existe garantia estendida?"}

	env, err := New().Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, env.Status)
	data := env.Data.(domain.ReportData)

	assert.Equal(t, domain.RecommendNoGo, data.Recommendation)
	assert.Len(t, data.AgentStatus, 7)
	assert.Equal(t, domain.StatusPartial, data.AgentStatus["AGENT_06"])
	assert.Equal(t, domain.StatusOK, data.AgentStatus["AGENT_02"])

	assert.Equal(t, 1, data.AlertCounts[domain.SeverityHigh])
	assert.Equal(t, 2, data.AlertCounts[domain.SeverityMedium])
	require.NotEmpty(t, data.TopAlerts)
	assert.Equal(t, "short_delivery", data.TopAlerts[0].Code)
	assert.Equal(t, 2, data.EvidenceCount)

	require.Len(t, data.Documents, 1)
	assert.Equal(t, "edital.pdf", data.Documents[0].Filename)
	require.Len(t, data.Removed, 1)

	require.Len(t, data.Answers, 2)
	assert.True(t, data.Answers[0].Answer.Found)
	assert.Equal(t, "O prazo de entrega será de 5 dias.", data.Answers[0].Answer.Value)
	assert.False(t, data.Answers[1].Answer.Found)
	assert.Equal(t, domain.NoDataFound, data.Answers[1].Answer.Evidence.LiteralExcerpt)

	require.NotEmpty(t, data.Timeline)
	assert.Equal(t, "agents", data.Timeline[0].Stage)

	assert.Contains(t, data.Summary, "Batch lote-test: 1 document(s)")
	assert.Contains(t, data.Summary, "1 duplicate(s) removed")
	assert.Contains(t, data.Summary, "Object: aquisição de cadeiras giratórias.")
	assert.Contains(t, data.Summary, "Recommendation: no-go (no-go: 1 theme(s) at high severity (technical))")
	assert.Contains(t, data.Summary, "Insufficient evidence from AGENT_06.")

	require.Len(t, env.Alerts, 1)
	assert.Equal(t, domain.AlertUpstreamInsufficient, env.Alerts[0].Code)

	_, ok := agenttest.AllEvidenceVerbatim(c, env)
	assert.True(t, ok)
}

// Without a usable decision the report never reads as go.
func TestAgent_NoDecisionIsNoGo(t *testing.T) {
	c := agenttest.Corpus(agenttest.Doc{Name: "edital.pdf", Type: domain.TypeCoreNotice, Text: notice})
	env, err := New().Run(context.Background(), agenttest.Input(c, agenttest.Partial(domain.AgentDecision)))
	require.NoError(t, err)

	data := env.Data.(domain.ReportData)
	assert.Equal(t, domain.RecommendNoGo, data.Recommendation)
	assert.Contains(t, data.Summary, "risk decision unavailable")
	assert.Equal(t, domain.StatusFail, data.AgentStatus["AGENT_02"])
	assert.Len(t, env.Alerts, 7)
	assert.NotNil(t, data.Timeline)
	assert.NotNil(t, data.Answers)
}

func TestAnswer(t *testing.T) {
	c := agenttest.Corpus(agenttest.Doc{Name: "edital.pdf", Type: domain.TypeCoreNotice, Text: notice})
	l := agents.NewLocator(c)

	qa := answer(l, "Quando será a sessão pública?")
	require.True(t, qa.Answer.Found)
	assert.Equal(t, 3, qa.Answer.Evidence.LineRange.Start)
	assert.InDelta(t, 1.0, qa.Answer.Evidence.Confidence, 0.001)

	assert.False(t, answer(l, "qual?").Answer.Found)
}
