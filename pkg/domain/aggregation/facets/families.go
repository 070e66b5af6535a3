package facets

import (
	"context"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// directRef resolves a reference the source document carries itself:
// read (pair.id, pair.scope) off the source and join the neighbour
// collection on its external identity.
type directRef struct {
	rel  domain.Relation
	coll string
	pair pairFields
}

func (f directRef) Relation() domain.Relation { return f.rel }

func (f directRef) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	r, ok := refFrom(src, f.pair)
	if !ok {
		return emptyResult(), nil
	}
	return resolveRefs(ctx, store, f.coll, []ref{r})
}

// inverseRef resolves neighbours that reference the source: filter the
// neighbour collection on its back-reference pair equalling the source's
// own identity.
type inverseRef struct {
	rel  domain.Relation
	coll string
	pair pairFields
}

func (f inverseRef) Relation() domain.Relation { return f.rel }

func (f inverseRef) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	self, ok := ownRef(src)
	if !ok {
		return emptyResult(), nil
	}
	docs, err := store.FindAll(ctx, f.coll, pairFilter(f.pair, self), nil)
	if err != nil {
		return emptyResult(), err
	}
	return resultFromDocs(docs), nil
}

// inverseArrayRef resolves neighbours whose embedded array contains an
// entry referencing the source (e.g. events whose participants include a
// team).
type inverseArrayRef struct {
	rel        domain.Relation
	coll       string
	arrayField string
	pair       pairFields
}

func (f inverseArrayRef) Relation() domain.Relation { return f.rel }

func (f inverseArrayRef) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	self, ok := ownRef(src)
	if !ok {
		return emptyResult(), nil
	}
	docs, err := store.FindAll(ctx, f.coll, elemMatchFilter(f.arrayField, f.pair, self), nil)
	if err != nil {
		return emptyResult(), err
	}
	return resultFromDocs(docs), nil
}

// embeddedRefs expands an embedded array on the source itself: keep
// entries whose pair fields are non-empty, dedupe by key, then join the
// referenced collection.
type embeddedRefs struct {
	rel        domain.Relation
	coll       string
	arrayField string
	pair       pairFields
}

func (f embeddedRefs) Relation() domain.Relation { return f.rel }

func (f embeddedRefs) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	var refs []ref
	for _, entry := range entities.GetDocs(src, f.arrayField) {
		if r, ok := refFrom(entry, f.pair); ok {
			refs = append(refs, r)
		}
	}
	return resolveRefs(ctx, store, f.coll, refs)
}

// viaFilter builds the filter selecting the intermediate documents of a
// chained facet from the source's own reference.
type viaFilter func(self ref) entities.Doc

// chainRef is a two-hop traversal: select intermediate documents, collect
// one reference pair off each, dedupe, resolve against the target
// collection. Intermediate key sets are materialised once so fan-out stays
// linear in the number of distinct references.
type chainRef struct {
	rel        domain.Relation
	viaColl    string
	via        viaFilter
	targetPair pairFields
	targetColl string
}

func (f chainRef) Relation() domain.Relation { return f.rel }

func (f chainRef) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	self, ok := ownRef(src)
	if !ok {
		return emptyResult(), nil
	}
	docs, err := store.FindAll(ctx, f.viaColl, f.via(self), nil)
	if err != nil {
		return emptyResult(), err
	}
	var refs []ref
	for _, doc := range docs {
		if r, ok := refFrom(doc, f.targetPair); ok {
			refs = append(refs, r)
		}
	}
	return resolveRefs(ctx, store, f.targetColl, refs)
}

// union evaluates several facets for the same relation and merges their
// results.
type union struct {
	rel    domain.Relation
	facets []Facet
}

func (f union) Relation() domain.Relation { return f.rel }

func (f union) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	merged := emptyResult()
	for _, inner := range f.facets {
		res, err := inner.Resolve(ctx, store, src)
		if err != nil {
			return emptyResult(), err
		}
		merged.merge(res)
	}
	return merged, nil
}
