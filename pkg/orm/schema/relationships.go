package schema

import (
	"fmt"
	"strings"
)

// RelationshipGraph is the dependency graph between entities. An entity
// depends on the targets of its foreign keys and one-to-one fields.
type RelationshipGraph struct {
	order      []string // keys in registration order
	nodes      map[string]*Metadata
	edges      map[string][]string // entity -> dependencies
	unresolved map[string][]string // entity -> relation fields whose target is unknown
}

// NewRelationshipGraph builds the graph for models, resolving each forward
// relation through its accessor. Self references are not edges.
func NewRelationshipGraph(models []*Metadata) *RelationshipGraph {
	g := &RelationshipGraph{
		nodes:      make(map[string]*Metadata, len(models)),
		edges:      make(map[string][]string),
		unresolved: make(map[string][]string),
	}

	for _, m := range models {
		key := m.Key()
		if _, dup := g.nodes[key]; dup {
			continue
		}
		g.order = append(g.order, key)
		g.nodes[key] = m
	}

	for _, key := range g.order {
		m := g.nodes[key]
		for _, f := range m.fields {
			if f.Kind != KindForeignKey && f.Kind != KindOneToOne {
				continue
			}
			target, err := m.ResolveRelation(f.Name)
			if err != nil {
				g.unresolved[key] = append(g.unresolved[key], f.Name)
				continue
			}
			if target.Key() == key {
				continue
			}
			g.edges[key] = appendUnique(g.edges[key], target.Key())
		}
	}

	return g
}

// Unresolved returns the relation fields of key whose target could not be found
func (g *RelationshipGraph) Unresolved(key string) []string {
	return g.unresolved[key]
}

// DetectCycles detects circular dependencies in the relationship graph
func (g *RelationshipGraph) DetectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		recursionStack[node] = true
		path = append(path, node)

		for _, neighbor := range g.edges[node] {
			if !visited[neighbor] {
				dfs(neighbor, path)
			} else if recursionStack[neighbor] {
				for i, n := range path {
					if n == neighbor {
						cycle := make([]string, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			}
		}

		recursionStack[node] = false
	}

	for _, node := range g.order {
		if !visited[node] {
			dfs(node, nil)
		}
	}

	return cycles
}

// TopologicalSort returns entity keys in dependency order (dependencies first).
// Ties keep registration order.
func (g *RelationshipGraph) TopologicalSort() ([]string, error) {
	outDegree := make(map[string]int, len(g.order))
	reverseEdges := make(map[string][]string)
	for _, node := range g.order {
		outDegree[node] = len(g.edges[node])
		for _, target := range g.edges[node] {
			reverseEdges[target] = append(reverseEdges[target], node)
		}
	}

	var queue []string
	for _, node := range g.order {
		if outDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, dependent := range reverseEdges[node] {
			outDegree[dependent]--
			if outDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.order) {
		if cycles := g.DetectCycles(); len(cycles) > 0 {
			return nil, fmt.Errorf("circular dependency detected:\n%s", formatCycles(cycles))
		}
		return nil, fmt.Errorf("circular dependency detected")
	}

	return result, nil
}

// Dependencies returns the direct dependencies of an entity
func (g *RelationshipGraph) Dependencies(key string) []string {
	deps := g.edges[key]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// Dependents returns the entities that depend directly on key
func (g *RelationshipGraph) Dependents(key string) []string {
	var dependents []string
	for _, node := range g.order {
		for _, dep := range g.edges[node] {
			if dep == key {
				dependents = append(dependents, node)
				break
			}
		}
	}
	return dependents
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

// formatCycles formats cycle information for error messages
func formatCycles(cycles [][]string) string {
	var b strings.Builder
	for i, cycle := range cycles {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  Cycle %d: %s -> %s", i+1, strings.Join(cycle, " -> "), cycle[0])
	}
	return b.String()
}
