// Package traversal plans and executes graph walks over the materialised
// collection: a declarative edge table, BFS shortest paths, a prefix-merged
// step plan, and a bounded list executor.
package traversal

import (
	"fmt"
	"sort"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/aggregation/facets"
)

// Hop is one directed edge: the array field on a materialised document of
// type From whose ids are documents of type To.
type Hop struct {
	From  domain.ResourceType
	Field domain.Relation
	To    domain.ResourceType
}

// Key identifies a hop uniquely; used for plan dedup and ordering.
func (h Hop) Key() string {
	return fmt.Sprintf("%s.%s->%s", h.From, h.Field, h.To)
}

// outEdges lists the hops leaving a type, sorted by field name so BFS and
// the resulting paths are deterministic. The edge set is exactly the
// projection table: one edge per neighbour projection the type carries.
func outEdges(t domain.ResourceType) []Hop {
	rels := facets.Relations(t)
	hops := make([]Hop, 0, len(rels))
	seen := map[domain.Relation]struct{}{}
	for _, rel := range rels {
		if _, dup := seen[rel]; dup {
			continue
		}
		seen[rel] = struct{}{}
		to, ok := domain.TypeOfRelation(rel)
		if !ok {
			continue
		}
		hops = append(hops, Hop{From: t, Field: rel, To: to})
	}
	sort.Slice(hops, func(i, j int) bool { return hops[i].Field < hops[j].Field })
	return hops
}
