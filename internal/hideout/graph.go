// Package hideout builds the dependency graph among hideout levels and
// answers reachability and rollup queries over it.
package hideout

import (
	"fmt"
	"sort"
	"time"

	"github.com/samhotchkiss/raid-ledger/internal/catalog"
)

// stationKey identifies a (station, level) pair in the requirement index.
type stationKey struct {
	StationID string
	Level     int
}

// Graph is a directed graph over hideout levels. An edge A -> B means A must
// be built before B becomes reachable. Built once per catalog load, never
// per query.
type Graph struct {
	levels   map[string]catalog.HideoutLevel
	parents  map[string][]string
	children map[string][]string

	cyclic      map[string]struct{}
	diagnostics []catalog.Diagnostic
}

// Build constructs the graph from the catalog's station declarations.
// Requirements referencing a (station, level) pair that does not exist are
// skipped and recorded as diagnostics. Cycles in the catalog data do not
// hang construction; the levels involved are flagged and the rest of the
// graph is usable.
func Build(stations []catalog.HideoutStation) *Graph {
	g := &Graph{
		levels:   make(map[string]catalog.HideoutLevel),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
		cyclic:   make(map[string]struct{}),
	}

	// Index station+level -> level id once so edge construction is a map
	// lookup instead of a rescan per requirement.
	index := make(map[stationKey]string)
	for _, station := range stations {
		for _, lvl := range station.Levels {
			g.levels[lvl.ID] = lvl
			index[stationKey{StationID: lvl.StationID, Level: lvl.Level}] = lvl.ID
		}
	}

	for _, station := range stations {
		for _, lvl := range station.Levels {
			for _, req := range lvl.StationLevelRequirements {
				parentID, ok := index[stationKey{StationID: req.StationID, Level: req.Level}]
				if !ok {
					g.diagnostics = append(g.diagnostics, catalog.Diagnostic{
						Kind:    catalog.DiagnosticDanglingStationLevel,
						Subject: lvl.ID,
						Detail:  fmt.Sprintf("requirement references unknown station %s level %d", req.StationID, req.Level),
					})
					continue
				}
				g.parents[lvl.ID] = append(g.parents[lvl.ID], parentID)
				g.children[parentID] = append(g.children[parentID], lvl.ID)
			}
		}
	}

	g.detectCycles()
	return g
}

// detectCycles runs Kahn's algorithm; any level left with unresolved
// in-degree after the queue drains sits on a cycle.
func (g *Graph) detectCycles() {
	indegree := make(map[string]int, len(g.levels))
	for id := range g.levels {
		indegree[id] = len(g.parents[id])
	}

	queue := make([]string, 0, len(g.levels))
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	processed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++
		for _, child := range g.children[id] {
			indegree[child]--
			if indegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if processed == len(g.levels) {
		return
	}

	for id, deg := range indegree {
		if deg > 0 {
			g.cyclic[id] = struct{}{}
			g.diagnostics = append(g.diagnostics, catalog.Diagnostic{
				Kind:    catalog.DiagnosticHideoutRequirementCycle,
				Subject: id,
				Detail:  "level participates in a requirement cycle",
			})
		}
	}
}

// Parents returns the direct predecessors of a level.
func (g *Graph) Parents(levelID string) []string {
	return g.parents[levelID]
}

// Children returns the direct successors of a level.
func (g *Graph) Children(levelID string) []string {
	return g.children[levelID]
}

// Predecessors returns every level that must be built before the given one,
// sorted for deterministic output. Safe on cyclic data: each level is
// visited at most once.
func (g *Graph) Predecessors(levelID string) []string {
	return g.traverse(levelID, g.parents)
}

// Successors returns every level unlocked downstream of the given one.
func (g *Graph) Successors(levelID string) []string {
	return g.traverse(levelID, g.children)
}

func (g *Graph) traverse(start string, edges map[string][]string) []string {
	visited := map[string]struct{}{start: {}}
	queue := append([]string(nil), edges[start]...)
	var result []string

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		result = append(result, id)
		queue = append(queue, edges[id]...)
	}

	sort.Strings(result)
	return result
}

// TotalConstructionTime returns the build time of a level plus all of its
// transitive prerequisites.
func (g *Graph) TotalConstructionTime(levelID string) time.Duration {
	total := time.Duration(g.levels[levelID].ConstructionTimeSeconds) * time.Second
	for _, id := range g.Predecessors(levelID) {
		total += time.Duration(g.levels[id].ConstructionTimeSeconds) * time.Second
	}
	return total
}

// Cyclic returns the ids of levels flagged as participating in a cycle.
func (g *Graph) Cyclic() []string {
	ids := make([]string, 0, len(g.cyclic))
	for id := range g.cyclic {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Diagnostics returns integrity problems found during construction.
func (g *Graph) Diagnostics() []catalog.Diagnostic {
	return g.diagnostics
}

// Len returns the number of levels in the graph.
func (g *Graph) Len() int {
	return len(g.levels)
}
