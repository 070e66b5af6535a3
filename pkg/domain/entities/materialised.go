package entities

import (
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
)

// Aggregation is one materialised aggregation document: the cached
// reachable-neighbour sets of a single source entity, keyed by neighbour
// type. Uniquely identified by (ResourceType, ExternalKey).
type Aggregation struct {
	ResourceType    domain.ResourceType
	ExternalKey     string
	GamedayID       string
	ExternalID      string
	ExternalIDScope string
	Name            string
	LastUpdated     time.Time

	// IDs holds, per neighbour type, the deduplicated gamedayId collection.
	// Keys holds the parallel externalKey → gamedayId map; an empty value
	// marks a key whose neighbour document was not resolvable at build time.
	IDs  map[domain.Relation][]string
	Keys map[domain.Relation]map[string]string

	// Extra carries the compound-key identity fields (staff role pairs,
	// key-moment event pair, ranking context) verbatim.
	Extra map[string]string
}

// NewAggregation returns an empty aggregation shell for the given identity.
func NewAggregation(t domain.ResourceType, externalKey string) *Aggregation {
	return &Aggregation{
		ResourceType: t,
		ExternalKey:  externalKey,
		IDs:          make(map[domain.Relation][]string),
		Keys:         make(map[domain.Relation]map[string]string),
	}
}

// SetProjection installs one neighbour projection, deduplicating ids while
// preserving first-seen order.
func (a *Aggregation) SetProjection(rel domain.Relation, ids []string, keys map[string]string) {
	seen := make(map[string]struct{}, len(ids))
	dedup := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		dedup = append(dedup, id)
	}
	a.IDs[rel] = dedup
	if keys == nil {
		keys = map[string]string{}
	}
	a.Keys[rel] = keys
}

// KeySet returns the external-key set for one neighbour type.
func (a *Aggregation) KeySet(rel domain.Relation) map[string]string {
	if a == nil {
		return nil
	}
	return a.Keys[rel]
}

// Relations lists the neighbour types this document projects, in stable
// order.
func (a *Aggregation) Relations() []domain.Relation {
	out := make([]domain.Relation, 0, len(a.Keys))
	for rel := range a.Keys {
		out = append(out, rel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ToDoc flattens the aggregation into its wire layout: identity fields at
// the top level plus, per relation, the ids array and the key map under the
// relation's paired field names.
func (a *Aggregation) ToDoc() Doc {
	doc := Doc{
		domain.FieldResourceType:    string(a.ResourceType),
		domain.FieldExternalKey:     a.ExternalKey,
		domain.FieldGamedayID:       a.GamedayID,
		domain.FieldExternalID:      a.ExternalID,
		domain.FieldExternalIDScope: a.ExternalIDScope,
		domain.FieldLastUpdated:     a.LastUpdated,
	}
	if a.Name != "" {
		doc[domain.FieldName] = a.Name
	}
	for rel, ids := range a.IDs {
		doc[rel.IDsField()] = ids
	}
	for rel, keys := range a.Keys {
		doc[rel.KeysField()] = keys
	}
	for k, v := range a.Extra {
		doc[k] = v
	}
	return doc
}

// AggregationFromDoc parses the wire layout back into an Aggregation.
// Unknown top-level fields are ignored; nil input yields nil.
func AggregationFromDoc(doc Doc) *Aggregation {
	if doc == nil {
		return nil
	}
	t, _ := domain.ParseResourceType(GetString(doc, domain.FieldResourceType))
	a := NewAggregation(t, GetString(doc, domain.FieldExternalKey))
	a.GamedayID = GetString(doc, domain.FieldGamedayID)
	a.ExternalID = GetString(doc, domain.FieldExternalID)
	a.ExternalIDScope = GetString(doc, domain.FieldExternalIDScope)
	a.Name = GetString(doc, domain.FieldName)
	if ts, ok := doc[domain.FieldLastUpdated].(time.Time); ok {
		a.LastUpdated = ts
	} else if ts, ok := doc[domain.FieldLastUpdated].(interface{ Time() time.Time }); ok {
		// primitive.DateTime from the driver
		a.LastUpdated = ts.Time()
	}
	for _, rel := range domain.AllRelations {
		ids, hasIDs := doc[rel.IDsField()]
		keys, hasKeys := doc[rel.KeysField()]
		if !hasIDs && !hasKeys {
			continue
		}
		var idList []string
		if hasIDs {
			idList = GetStrings(Doc{"v": ids}, "v")
		}
		var keyMap map[string]string
		if hasKeys {
			keyMap = GetStringMap(Doc{"v": keys}, "v")
		}
		a.SetProjection(rel, idList, keyMap)
	}
	return a
}

// MarshalBSON keeps the wire layout stable when an Aggregation is handed to
// the driver directly.
func (a *Aggregation) MarshalBSON() ([]byte, error) {
	return bson.Marshal(a.ToDoc())
}
