// Package in declares the inbound ports the adapters drive: building
// materialised aggregations, traversal list queries, and single fetches.
package in

import (
	"context"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/keys"
)

// StaffParams selects one staff record: a sports-person pair plus exactly
// one organisation pair named by Role.
type StaffParams struct {
	SportsPersonScope string
	SportsPersonID    string
	Role              keys.StaffRole
	OrgScope          string
	OrgID             string
}

// KeyMomentParams selects one key-moment by its compound key.
type KeyMomentParams struct {
	EventScope string
	EventID    string
	Type       string
	SubType    string
	DateTime   string
}

// BuildRequest names the entity to (re)build. Simple entity types use
// Scope/ID; the compound-key types carry their own selector, of which at
// most one may be set.
type BuildRequest struct {
	Type  domain.ResourceType
	Scope string
	ID    string

	Staff     *StaffParams
	KeyMoment *KeyMomentParams
	Ranking   *keys.RankingContext
}

// BuildResult is the terminal state of one build.
type BuildResult struct {
	Aggregation *entities.Aggregation

	// ReconcileOps counts peer mutations submitted; Warning is non-empty
	// when the bulk partially failed (ReconcilerPartial).
	ReconcileOps int
	Warning      string
}

// Builder is the write-path port (C4).
type Builder interface {
	Build(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// SortOrder selects the ordering of list items.
type SortOrder string

const (
	SortGamedayID   SortOrder = "gamedayId"   // ascending
	SortLastUpdated SortOrder = "lastUpdated" // descending
	SortTraversal   SortOrder = "traversal"   // insertion order of the traversal
)

// Limits bounds a list query. Total caps the whole response; PerType caps
// individual targets. Zero Total means unbounded; a missing PerType entry
// falls back to the remaining total budget.
type Limits struct {
	Total   int
	PerType map[domain.ResourceType]int
}

// ListRequest asks for the materialised neighbours of a root entity.
type ListRequest struct {
	RootType        domain.ResourceType
	RootExternalKey string
	Targets         []domain.ResourceType
	Limits          Limits
	SortBy          SortOrder
}

// Overflow reports the reachable ids beyond a target's limit.
type Overflow struct {
	ResourceType domain.ResourceType `json:"resourceType"`
	OverflowIDs  []string            `json:"overflowIds"`
}

// TargetResult is the bounded item list for one target type.
type TargetResult struct {
	Items    []entities.Doc `json:"items"`
	Overflow Overflow       `json:"overflow"`
}

// ListResult is the assembled response for one list request.
type ListResult struct {
	Root struct {
		Type        domain.ResourceType `json:"type"`
		ExternalKey string              `json:"externalKey"`
	} `json:"root"`
	Results map[domain.ResourceType]TargetResult `json:"results"`
}

// Lister is the traversal query port (C6 + C7).
type Lister interface {
	List(ctx context.Context, req ListRequest) (*ListResult, error)
}

// Fetcher is the simple CRUD read port: one source document by external
// pair or by gamedayId.
type Fetcher interface {
	FetchByExternalID(ctx context.Context, t domain.ResourceType, scope, id string) (entities.Doc, error)
	FetchByGamedayID(ctx context.Context, t domain.ResourceType, gamedayID string) (entities.Doc, error)
}
