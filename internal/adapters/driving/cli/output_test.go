package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

func TestCite(t *testing.T) {
	tests := []struct {
		name string
		ev   domain.Evidence
		want string
	}{
		{
			name: "single line",
			ev:   domain.Evidence{DocumentName: "edital.pdf", Page: 2, LineRange: domain.LineRange{Start: 40, End: 40}, LiteralExcerpt: "prazo"},
			want: `edital.pdf p.2 L40 "prazo"`,
		},
		{
			name: "line range",
			ev:   domain.Evidence{DocumentName: "tr.pdf", Page: 1, LineRange: domain.LineRange{Start: 5, End: 9}, LiteralExcerpt: "garantia"},
			want: `tr.pdf p.1 L5-9 "garantia"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cite(tt.ev))
		})
	}
}

func TestCite_TruncatesOnRunes(t *testing.T) {
	ev := domain.Evidence{DocumentName: "a.pdf", Page: 1, LineRange: domain.LineRange{Start: 1, End: 1}, LiteralExcerpt: strings.Repeat("ç", 100)}

	got := cite(ev)
	assert.Contains(t, got, strings.Repeat("ç", 77)+"...")
	assert.NotContains(t, got, strings.Repeat("ç", 78))
}

func TestPrinter_AlertsSortedAndBounded(t *testing.T) {
	var alerts []domain.Alert
	for i := 0; i < maxAlertsShown+3; i++ {
		alerts = append(alerts, domain.Alert{Code: "LOW", Severity: domain.SeverityLow, Message: "baixo"})
	}
	alerts = append(alerts, domain.Alert{Code: "HIGH", Severity: domain.SeverityHigh, Message: "alto"})

	r := &domain.FinalReport{
		LoteID: "b1",
		Agents: map[string]domain.AgentEnvelope{
			domain.AgentCompliance.ReportKey(): {AgentID: domain.AgentCompliance, Status: domain.StatusPartial, Alerts: alerts},
		},
	}

	var buf bytes.Buffer
	newPrinter(&buf).report(r)
	out := buf.String()

	assert.Contains(t, out, "Alerts (14)")
	assert.Less(t, strings.Index(out, "HIGH"), strings.Index(out, "LOW"))
	assert.Contains(t, out, "... 4 more")
	assert.Contains(t, out, "AGENT_04")
	assert.NotContains(t, out, "Decision")
}

func TestPrinter_PlainWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := newPrinter(&buf)
	assert.False(t, p.styled)

	p.heading("Batch b1")
	assert.Equal(t, "Batch b1\n", buf.String())
}
