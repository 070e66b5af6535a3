package domain

import "strings"

// ResourceType is the closed set of normalised entity types the service
// aggregates. Stored lower-camel on materialised documents; inbound values
// may be mixed-case and are normalised via ParseResourceType.
type ResourceType string

const (
	TypeCompetition  ResourceType = "competition"
	TypeStage        ResourceType = "stage"
	TypeEvent        ResourceType = "event"
	TypeTeam         ResourceType = "team"
	TypeClub         ResourceType = "club"
	TypeVenue        ResourceType = "venue"
	TypeSportsPerson ResourceType = "sportsPerson"
	TypeStaff        ResourceType = "staff"
	TypeKeyMoment    ResourceType = "keyMoment"
	TypeRanking      ResourceType = "ranking"
	TypeSGO          ResourceType = "sgo"
	TypeNation       ResourceType = "nation"
)

// AllResourceTypes in stable order. Tables keyed by ResourceType iterate
// this slice so output ordering is deterministic.
var AllResourceTypes = []ResourceType{
	TypeCompetition, TypeStage, TypeEvent, TypeTeam, TypeClub, TypeVenue,
	TypeSportsPerson, TypeStaff, TypeKeyMoment, TypeRanking, TypeSGO, TypeNation,
}

var canonicalTypes = func() map[string]ResourceType {
	m := make(map[string]ResourceType, len(AllResourceTypes))
	for _, t := range AllResourceTypes {
		m[strings.ToLower(string(t))] = t
	}
	return m
}()

// ParseResourceType normalises a mixed-case resource type to its canonical
// form. The second return is false for unknown types.
func ParseResourceType(s string) (ResourceType, bool) {
	t, ok := canonicalTypes[strings.ToLower(strings.TrimSpace(s))]
	return t, ok
}

// Relation tags one neighbour projection on a materialised document. Its
// string value is the BSON field holding the gamedayId collection; the
// parallel key map lives under KeysField.
type Relation string

const (
	RelCompetitions  Relation = "competitions"
	RelStages        Relation = "stages"
	RelEvents        Relation = "events"
	RelTeams         Relation = "teams"
	RelClubs         Relation = "clubs"
	RelVenues        Relation = "venues"
	RelSportsPersons Relation = "sportsPersons"
	RelStaff         Relation = "staff"
	RelKeyMoments    Relation = "keyMoments"
	RelRankings      Relation = "rankings"
	RelSGOs          Relation = "sgos"
	RelNations       Relation = "nations"
)

// AllRelations in stable order, aligned with AllResourceTypes.
var AllRelations = []Relation{
	RelCompetitions, RelStages, RelEvents, RelTeams, RelClubs, RelVenues,
	RelSportsPersons, RelStaff, RelKeyMoments, RelRankings, RelSGOs, RelNations,
}

// IDsField is the BSON field carrying the deduplicated gamedayId collection.
func (r Relation) IDsField() string { return string(r) }

// KeysField is the BSON field carrying the externalKey → gamedayId map.
// "teams" → "teamKeys", "staff" → "staffKeys".
func (r Relation) KeysField() string {
	return strings.TrimSuffix(string(r), "s") + "Keys"
}

var relationToType = map[Relation]ResourceType{
	RelCompetitions:  TypeCompetition,
	RelStages:        TypeStage,
	RelEvents:        TypeEvent,
	RelTeams:         TypeTeam,
	RelClubs:         TypeClub,
	RelVenues:        TypeVenue,
	RelSportsPersons: TypeSportsPerson,
	RelStaff:         TypeStaff,
	RelKeyMoments:    TypeKeyMoment,
	RelRankings:      TypeRanking,
	RelSGOs:          TypeSGO,
	RelNations:       TypeNation,
}

var typeToRelation = func() map[ResourceType]Relation {
	m := make(map[ResourceType]Relation, len(relationToType))
	for rel, t := range relationToType {
		m[t] = rel
	}
	return m
}()

// TypeOfRelation resolves the neighbour type a relation tag points at.
func TypeOfRelation(r Relation) (ResourceType, bool) {
	t, ok := relationToType[r]
	return t, ok
}

// RelationOfType is the reciprocal field tag peers use to hold entities of
// the given type ("team" → "teams").
func RelationOfType(t ResourceType) (Relation, bool) {
	r, ok := typeToRelation[t]
	return r, ok
}

// CollectionFor names the source collection holding documents of a type.
// Collection names equal the plural relation tags.
func CollectionFor(t ResourceType) string {
	return string(typeToRelation[t])
}

// Field names shared by source and materialised documents. External
// identity fields carry the historic underscore prefix throughout.
const (
	FieldGamedayID       = "gamedayId"
	FieldExternalID      = "_externalId"
	FieldExternalIDScope = "_externalIdScope"
	FieldResourceType    = "resourceType"
	FieldName            = "name"
	FieldDefaultLanguage = "defaultLanguage"
	FieldExternalKey     = "externalKey"
	FieldLastUpdated     = "lastUpdated"
)
