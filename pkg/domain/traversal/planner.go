package traversal

import (
	"sort"
	"strings"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
)

// Step is one deduplicated hop in a plan, identified by (hop, depth).
// Parent is the step producing this step's input id set; nil at depth 0,
// where the input is the root document itself.
type Step struct {
	Depth  int
	Hop    Hop
	Parent *Step
}

// Plan is the prefix-merged evaluation order for a set of targets.
// Steps ascend by depth, hop key within a depth. Terminal maps each target
// to the step yielding its id set; a target equal to the root maps to nil.
type Plan struct {
	Root     domain.ResourceType
	Steps    []*Step
	Terminal map[domain.ResourceType]*Step
}

// shortestPath runs BFS from root over the edge table. Edges are expanded
// in field-name order and visited types are never revisited, so the first
// path found is minimal and deterministic.
func shortestPath(root, target domain.ResourceType) ([]Hop, bool) {
	if root == target {
		return nil, true
	}
	type visit struct {
		t    domain.ResourceType
		path []Hop
	}
	queue := []visit{{t: root}}
	seen := map[domain.ResourceType]struct{}{root: {}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, hop := range outEdges(cur.t) {
			if _, visited := seen[hop.To]; visited {
				continue
			}
			path := append(append([]Hop{}, cur.path...), hop)
			if hop.To == target {
				return path, true
			}
			seen[hop.To] = struct{}{}
			queue = append(queue, visit{t: hop.To, path: path})
		}
	}
	return nil, false
}

// titleType capitalises a resource type for the stable NoPath error code.
func titleType(t domain.ResourceType) string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// BuildPlan computes one shortest path per target and prefix-merges them:
// identical hops at identical depth collapse to a single step.
func BuildPlan(root domain.ResourceType, targets []domain.ResourceType) (*Plan, error) {
	if len(targets) == 0 {
		return nil, domain.E(domain.KindInvalidInput, "list query requires at least one target type")
	}

	plan := &Plan{Root: root, Terminal: make(map[domain.ResourceType]*Step, len(targets))}
	type stepKey struct {
		depth int
		hop   string
	}
	merged := map[stepKey]*Step{}

	for _, target := range targets {
		path, ok := shortestPath(root, target)
		if !ok {
			return nil, domain.E(domain.KindNoPath, "NoPathFrom%sTo%s", titleType(root), titleType(target))
		}
		var parent *Step
		for depth, hop := range path {
			k := stepKey{depth: depth, hop: hop.Key()}
			step, exists := merged[k]
			if !exists {
				step = &Step{Depth: depth, Hop: hop, Parent: parent}
				merged[k] = step
				plan.Steps = append(plan.Steps, step)
			}
			parent = step
		}
		plan.Terminal[target] = parent
	}

	sort.Slice(plan.Steps, func(i, j int) bool {
		if plan.Steps[i].Depth != plan.Steps[j].Depth {
			return plan.Steps[i].Depth < plan.Steps[j].Depth
		}
		return plan.Steps[i].Hop.Key() < plan.Steps[j].Hop.Key()
	})
	return plan, nil
}
