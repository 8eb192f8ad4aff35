package agents

import (
	"fmt"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// BuilderFunc creates a fresh agent for one batch.
type BuilderFunc func(deps Deps) (Agent, error)

// Registry maps agent ids to their builders.
// Agents are built anew for every batch so that no state is shared between runs.
type Registry struct {
	builders map[domain.AgentID]BuilderFunc
	order    []domain.AgentID
}

// NewRegistry creates an empty agent registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[domain.AgentID]BuilderFunc),
	}
}

// Register adds an agent builder. Registering an id again replaces its builder.
func (r *Registry) Register(id domain.AgentID, builder BuilderFunc) {
	if _, ok := r.builders[id]; !ok {
		r.order = append(r.order, id)
	}
	r.builders[id] = builder
}

// Build creates one agent by id.
func (r *Registry) Build(id domain.AgentID, deps Deps) (Agent, error) {
	builder, ok := r.builders[id]
	if !ok {
		return nil, fmt.Errorf("unknown agent: %s", id)
	}
	a, err := builder(deps)
	if err != nil {
		return nil, fmt.Errorf("build agent %s: %w", id, err)
	}
	if a.ID() != id {
		return nil, fmt.Errorf("build agent %s: builder returned %s", id, a.ID())
	}
	return a, nil
}

// BuildAll creates every registered agent and checks that they form a valid graph.
func (r *Registry) BuildAll(deps Deps) ([]Agent, error) {
	out := make([]Agent, 0, len(r.order))
	for _, id := range r.order {
		a, err := r.Build(id, deps)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if _, err := Plan(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Has returns true if an agent with the given id is registered.
func (r *Registry) Has(id domain.AgentID) bool {
	_, ok := r.builders[id]
	return ok
}

// Names returns registered agent ids in registration order.
func (r *Registry) Names() []domain.AgentID {
	return append([]domain.AgentID(nil), r.order...)
}
