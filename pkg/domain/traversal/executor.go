package traversal

import (
	"context"
	"log/slog"
	"sort"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/in"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// Executor evaluates traversal plans against the materialised collection
// and assembles bounded per-target result lists with overflow.
type Executor struct {
	store out.Store
	sink  string
}

// NewExecutor builds the list-query engine over the given materialised
// collection.
func NewExecutor(store out.Store, sink string) *Executor {
	return &Executor{store: store, sink: sink}
}

var _ in.Lister = (*Executor)(nil)

// List plans the minimal hop set for the requested targets, walks the
// materialised graph and returns at most limit[T] documents per target
// plus the overflow ids beyond each limit. The request deadline is checked
// between hops; on expiry the partial result is discarded.
func (e *Executor) List(ctx context.Context, req in.ListRequest) (*in.ListResult, error) {
	rootType, ok := domain.ParseResourceType(string(req.RootType))
	if !ok {
		return nil, domain.E(domain.KindInvalidInput, "unknown root type %q", string(req.RootType))
	}
	if req.RootExternalKey == "" {
		return nil, domain.E(domain.KindInvalidInput, "root external key required")
	}
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = in.SortTraversal
	}

	plan, err := BuildPlan(rootType, req.Targets)
	if err != nil {
		return nil, err
	}

	rootDoc, err := e.store.FindOne(ctx, e.sink, entities.Doc{
		domain.FieldResourceType: string(rootType),
		domain.FieldExternalKey:  req.RootExternalKey,
	})
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "reading root document")
	}
	if rootDoc == nil {
		return nil, domain.E(domain.KindNotFound, "no materialised %s %q", rootType, req.RootExternalKey)
	}

	outputs, err := e.evaluate(ctx, plan, rootDoc)
	if err != nil {
		return nil, err
	}

	result := &in.ListResult{Results: make(map[domain.ResourceType]in.TargetResult, len(req.Targets))}
	result.Root.Type = rootType
	result.Root.ExternalKey = req.RootExternalKey

	remaining := req.Limits.Total
	unbounded := remaining <= 0
	for _, target := range req.Targets {
		var ids []string
		if terminal := plan.Terminal[target]; terminal == nil {
			ids = []string{entities.GetString(rootDoc, domain.FieldGamedayID)}
		} else {
			ids = outputs[terminal]
		}

		limit := len(ids)
		if !unbounded && remaining < limit {
			limit = remaining
		}
		if perType, bound := req.Limits.PerType[target]; bound && perType < limit {
			limit = perType
		}
		if limit < 0 {
			limit = 0
		}

		included, overflow := ids[:limit], ids[limit:]
		if !unbounded {
			remaining -= len(included)
		}

		items, err := e.fetch(ctx, target, included, sortBy)
		if err != nil {
			return nil, err
		}
		overflowIDs := append([]string{}, overflow...)
		result.Results[target] = in.TargetResult{
			Items: items,
			Overflow: in.Overflow{
				ResourceType: target,
				OverflowIDs:  overflowIDs,
			},
		}
	}

	slog.DebugContext(ctx, "list query complete",
		"rootType", rootType, "rootKey", req.RootExternalKey,
		"targets", len(req.Targets), "steps", len(plan.Steps))
	return result, nil
}

// evaluate walks the plan in depth order. A depth-0 step reads its array
// field straight off the root document; deeper steps batch their parent's
// output ids into one lookup against the materialised collection.
func (e *Executor) evaluate(ctx context.Context, plan *Plan, rootDoc entities.Doc) (map[*Step][]string, error) {
	outputs := make(map[*Step][]string, len(plan.Steps))
	for _, step := range plan.Steps {
		if err := ctx.Err(); err != nil {
			return nil, domain.Wrap(domain.KindTimeout, err, "traversal deadline exceeded")
		}
		if step.Depth == 0 {
			outputs[step] = dedupe(entities.GetStrings(rootDoc, step.Hop.Field.IDsField()))
			continue
		}
		parentIDs := outputs[step.Parent]
		if len(parentIDs) == 0 {
			outputs[step] = nil
			continue
		}
		ids, err := e.store.CollectField(ctx, e.sink, entities.Doc{
			domain.FieldResourceType: string(step.Hop.From),
			domain.FieldGamedayID:    entities.Doc{"$in": parentIDs},
		}, step.Hop.Field.IDsField())
		if err != nil {
			return nil, domain.Wrap(domain.KindStoreUnavailable, err, "evaluating hop %s", step.Hop.Key())
		}
		outputs[step] = ids
	}
	return outputs, nil
}

// fetch materialises the included documents for one target in the
// requested order.
func (e *Executor) fetch(ctx context.Context, target domain.ResourceType, ids []string, sortBy in.SortOrder) ([]entities.Doc, error) {
	if len(ids) == 0 {
		return []entities.Doc{}, nil
	}
	filter := entities.Doc{
		domain.FieldResourceType: string(target),
		domain.FieldGamedayID:    entities.Doc{"$in": ids},
	}
	var opts *out.FindOptions
	switch sortBy {
	case in.SortGamedayID:
		opts = &out.FindOptions{Sort: []out.SortField{{Field: domain.FieldGamedayID}}}
	case in.SortLastUpdated:
		opts = &out.FindOptions{Sort: []out.SortField{{Field: domain.FieldLastUpdated, Desc: true}}}
	}
	docs, err := e.store.FindAll(ctx, e.sink, filter, opts)
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "fetching %s items", target)
	}
	if sortBy == in.SortTraversal {
		rank := make(map[string]int, len(ids))
		for i, id := range ids {
			rank[id] = i
		}
		sort.SliceStable(docs, func(i, j int) bool {
			return rank[entities.GetString(docs[i], domain.FieldGamedayID)] <
				rank[entities.GetString(docs[j], domain.FieldGamedayID)]
		})
	}
	return docs, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
