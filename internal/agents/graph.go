package agents

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// Plan orders agents into topological waves. Agents of one wave have no
// dependency on each other and may run concurrently. Within a wave agents
// keep the declared execution order.
func Plan(agents []Agent) ([][]Agent, error) {
	byID := make(map[domain.AgentID]Agent, len(agents))
	for _, a := range agents {
		if _, dup := byID[a.ID()]; dup {
			return nil, fmt.Errorf("%w: agent %s registered twice", domain.ErrInvalidAgentGraph, a.ID())
		}
		byID[a.ID()] = a
	}

	indegree := make(map[domain.AgentID]int, len(agents))
	dependents := make(map[domain.AgentID][]domain.AgentID)
	for _, a := range agents {
		indegree[a.ID()] = 0
	}
	for _, a := range agents {
		for _, dep := range a.Dependencies() {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("%w: %s depends on unknown agent %s", domain.ErrInvalidAgentGraph, a.ID(), dep)
			}
			indegree[a.ID()]++
			dependents[dep] = append(dependents[dep], a.ID())
		}
	}

	var ready []domain.AgentID
	for id, n := range indegree {
		if n == 0 {
			ready = append(ready, id)
		}
	}

	var waves [][]Agent
	placed := 0
	for len(ready) > 0 {
		sortByExecutionOrder(ready)
		wave := make([]Agent, len(ready))
		var next []domain.AgentID
		for i, id := range ready {
			wave[i] = byID[id]
			for _, d := range dependents[id] {
				indegree[d]--
				if indegree[d] == 0 {
					next = append(next, d)
				}
			}
		}
		waves = append(waves, wave)
		placed += len(wave)
		ready = next
	}

	if placed != len(agents) {
		var stuck []string
		for id, n := range indegree {
			if n > 0 {
				stuck = append(stuck, string(id))
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("%w: dependency cycle among %v", domain.ErrInvalidAgentGraph, stuck)
	}
	return waves, nil
}

func sortByExecutionOrder(ids []domain.AgentID) {
	rank := make(map[domain.AgentID]int)
	for i, id := range domain.AgentExecutionOrder() {
		rank[id] = i
	}
	sort.SliceStable(ids, func(i, j int) bool {
		ri, okI := rank[ids[i]]
		rj, okJ := rank[ids[j]]
		switch {
		case okI && okJ:
			return ri < rj
		case okI != okJ:
			return okI
		default:
			return ids[i] < ids[j]
		}
	})
}
