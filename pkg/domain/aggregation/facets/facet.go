// Package facets implements the relationship resolvers that populate one
// neighbour projection each on a materialised aggregation document.
//
// Facets resolve in-process: each issues batched store lookups, dedupes
// early and returns the {ids, keys} pair for its neighbour type. The three
// families (direct reference, inverse reference, embedded-array expansion)
// plus the chained traversals are all built from the helpers in this file.
package facets

import (
	"context"
	"sort"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/keys"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// Result is the intermediate shape every facet produces. IDs holds the
// resolved gamedayId values without duplicates; Keys maps each composite
// external key to its gamedayId, or to "" when the neighbour document does
// not exist yet (stale keys are permitted, so len(Keys) >= len(IDs)).
type Result struct {
	IDs  []string
	Keys map[string]string
}

func emptyResult() Result {
	return Result{IDs: []string{}, Keys: map[string]string{}}
}

func (r *Result) add(key, gamedayID string) {
	if _, seen := r.Keys[key]; seen && gamedayID == "" {
		return
	}
	r.Keys[key] = gamedayID
	if gamedayID != "" {
		for _, id := range r.IDs {
			if id == gamedayID {
				return
			}
		}
		r.IDs = append(r.IDs, gamedayID)
	}
}

// merge folds another result in, keyed entries sorted so union facets stay
// deterministic.
func (r *Result) merge(other Result) {
	ks := make([]string, 0, len(other.Keys))
	for k := range other.Keys {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	for _, k := range ks {
		r.add(k, other.Keys[k])
	}
}

// Facet resolves one neighbour projection of one source document.
type Facet interface {
	Relation() domain.Relation
	Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error)
}

// pairFields names the two document fields holding one external reference.
type pairFields struct {
	id    string
	scope string
}

var (
	pairCompetition  = pairFields{"_externalCompetitionId", "_externalCompetitionIdScope"}
	pairStage        = pairFields{"_externalStageId", "_externalStageIdScope"}
	pairEvent        = pairFields{"_externalEventId", "_externalEventIdScope"}
	pairTeam         = pairFields{"_externalTeamId", "_externalTeamIdScope"}
	pairClub         = pairFields{"_externalClubId", "_externalClubIdScope"}
	pairVenue        = pairFields{"_externalVenueId", "_externalVenueIdScope"}
	pairNation       = pairFields{"_externalNationId", "_externalNationIdScope"}
	pairSportsPerson = pairFields{"_externalSportsPersonId", "_externalSportsPersonIdScope"}
	pairSgo          = pairFields{"_externalSgoId", "_externalSgoIdScope"}
)

// ref is one external (id, scope) reference extracted from a document.
type ref struct {
	id    string
	scope string
}

func (r ref) key() string { return keys.EncodeEntityKey(r.id, r.scope) }

// refFrom reads a pair off a document; ok is false when either side is an
// empty string.
func refFrom(doc entities.Doc, p pairFields) (ref, bool) {
	r := ref{id: entities.GetString(doc, p.id), scope: entities.GetString(doc, p.scope)}
	return r, r.id != "" && r.scope != ""
}

// ownRef reads the document's own external identity.
func ownRef(doc entities.Doc) (ref, bool) {
	r := ref{
		id:    entities.GetString(doc, domain.FieldExternalID),
		scope: entities.GetString(doc, domain.FieldExternalIDScope),
	}
	return r, r.id != "" && r.scope != ""
}

func dedupeRefs(refs []ref) []ref {
	seen := make(map[string]struct{}, len(refs))
	unique := refs[:0:0]
	for _, r := range refs {
		k := r.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// resolveRefs joins a set of external references against the referenced
// collection in one batched lookup and keys each survivor by its composite
// key. Unresolvable references stay in Keys with an empty gamedayId.
func resolveRefs(ctx context.Context, store out.Store, collection string, refs []ref) (Result, error) {
	result := emptyResult()
	refs = dedupeRefs(refs)
	if len(refs) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.id)
	}
	docs, err := store.FindAll(ctx, collection, entities.Doc{
		domain.FieldExternalID: entities.Doc{"$in": ids},
	}, nil)
	if err != nil {
		return result, err
	}

	resolved := make(map[string]string, len(docs))
	for _, doc := range docs {
		r, ok := ownRef(doc)
		if !ok {
			continue
		}
		resolved[r.key()] = entities.GetString(doc, domain.FieldGamedayID)
	}
	for _, r := range refs {
		result.add(r.key(), resolved[r.key()])
	}
	return result, nil
}

// resultFromDocs keys each document by its own external identity.
func resultFromDocs(docs []entities.Doc) Result {
	result := emptyResult()
	for _, doc := range docs {
		r, ok := ownRef(doc)
		if !ok {
			continue
		}
		result.add(r.key(), entities.GetString(doc, domain.FieldGamedayID))
	}
	return result
}

// pairFilter builds the store filter matching one external reference pair.
func pairFilter(p pairFields, r ref) entities.Doc {
	return entities.Doc{p.id: r.id, p.scope: r.scope}
}

// elemMatchFilter matches documents whose arrayField contains an entry
// referencing r through the pair p.
func elemMatchFilter(arrayField string, p pairFields, r ref) entities.Doc {
	return entities.Doc{arrayField: entities.Doc{"$elemMatch": pairFilter(p, r)}}
}
