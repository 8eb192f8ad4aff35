// Package builtin registers the eight extraction agents.
package builtin

import (
	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/agents/compliance"
	"github.com/custodia-labs/licita-cli/internal/agents/decision"
	"github.com/custodia-labs/licita-cli/internal/agents/divergence"
	"github.com/custodia-labs/licita-cli/internal/agents/items"
	"github.com/custodia-labs/licita-cli/internal/agents/legal"
	"github.com/custodia-labs/licita-cli/internal/agents/report"
	"github.com/custodia-labs/licita-cli/internal/agents/structure"
	"github.com/custodia-labs/licita-cli/internal/agents/technical"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// Registry returns a registry holding every built-in agent.
func Registry() *agents.Registry {
	r := agents.NewRegistry()
	r.Register(domain.AgentStructure, structure.Builder)
	r.Register(domain.AgentItems, items.Builder)
	r.Register(domain.AgentCompliance, compliance.Builder)
	r.Register(domain.AgentTechnical, technical.Builder)
	r.Register(domain.AgentDivergence, divergence.Builder)
	r.Register(domain.AgentLegal, legal.Builder)
	r.Register(domain.AgentDecision, decision.Builder)
	r.Register(domain.AgentReport, report.Builder)
	return r
}
