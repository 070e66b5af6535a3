// Package out declares the outbound ports the core consumes. Adapters in
// pkg/infra/db implement them.
package out

import (
	"context"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
)

// SortField is one sort criterion; Desc false means ascending.
type SortField struct {
	Field string
	Desc  bool
}

// FindOptions bounds and orders a FindAll.
type FindOptions struct {
	Sort  []SortField
	Limit int64
}

// UpdateOp is one bulk mutation against a collection. Exactly one of
// Replace or the granular mutators (Set/Unset/Pull/AddToSet) is used per
// op. Filters support equality, $in and $elemMatch, the subset the core
// issues.
type UpdateOp struct {
	Filter   entities.Doc
	Replace  entities.Doc
	Set      entities.Doc
	Unset    []string
	Pull     entities.Doc
	AddToSet entities.Doc
	Upsert   bool
}

// BulkResult summarises a bulk submission.
type BulkResult struct {
	Matched  int64
	Modified int64
	Upserted int64
}

// Store is the document-store capability consumed by the core. FindOne
// returns (nil, nil) when no document matches; every method honours
// context cancellation.
type Store interface {
	FindOne(ctx context.Context, collection string, filter entities.Doc) (entities.Doc, error)
	FindAll(ctx context.Context, collection string, filter entities.Doc, opts *FindOptions) ([]entities.Doc, error)
	Count(ctx context.Context, collection string, filter entities.Doc) (int64, error)

	// CollectField flattens a (possibly array-valued) string field across
	// all matching documents into one deduplicated list, preserving the
	// store's document order.
	CollectField(ctx context.Context, collection string, filter entities.Doc, field string) ([]string, error)

	// BulkWrite submits ops in order as a single bulk request.
	BulkWrite(ctx context.Context, collection string, ops []UpdateOp) (BulkResult, error)

	CollectionExists(ctx context.Context, collection string) (bool, error)

	// EnsureIndexes probes and creates the indexes the core requires:
	// unique (resourceType, externalKey) and (resourceType, gamedayId) on
	// the sink, (_externalIdScope, _externalId) on each source collection.
	EnsureIndexes(ctx context.Context) error
}
