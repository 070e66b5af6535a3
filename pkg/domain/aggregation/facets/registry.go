package facets

import (
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
)

func coll(t domain.ResourceType) string { return domain.CollectionFor(t) }

func byPair(p pairFields) viaFilter {
	return func(self ref) entities.Doc { return pairFilter(p, self) }
}

func byArrayPair(arrayField string, p pairFields) viaFilter {
	return func(self ref) entities.Doc { return elemMatchFilter(arrayField, p, self) }
}

// registry is the closed type→facet-list table. One parameterised facet
// list per entity type; the processor resolves every entry against the
// source document being projected.
var registry = map[domain.ResourceType][]Facet{
	domain.TypeCompetition: {
		embeddedRefs{domain.RelSGOs, coll(domain.TypeSGO), "sgoMemberships", pairSgo},
		inverseRef{domain.RelStages, coll(domain.TypeStage), pairCompetition},
		inverseRef{domain.RelEvents, coll(domain.TypeEvent), pairCompetition},
		participantsVia{coll(domain.TypeEvent), byPair(pairCompetition), wantTeams},
		participantsVia{coll(domain.TypeEvent), byPair(pairCompetition), wantSportsPersons},
		union{domain.RelVenues, []Facet{
			chainRef{domain.RelVenues, coll(domain.TypeStage), byPair(pairCompetition), pairVenue, coll(domain.TypeVenue)},
			chainRef{domain.RelVenues, coll(domain.TypeEvent), byPair(pairCompetition), pairVenue, coll(domain.TypeVenue)},
		}},
	},
	domain.TypeStage: {
		directRef{domain.RelCompetitions, coll(domain.TypeCompetition), pairCompetition},
		inverseRef{domain.RelEvents, coll(domain.TypeEvent), pairStage},
		directRef{domain.RelVenues, coll(domain.TypeVenue), pairVenue},
		participantsVia{coll(domain.TypeEvent), byPair(pairStage), wantTeams},
		participantsVia{coll(domain.TypeEvent), byPair(pairStage), wantSportsPersons},
	},
	domain.TypeEvent: {
		directRef{domain.RelStages, coll(domain.TypeStage), pairStage},
		directRef{domain.RelCompetitions, coll(domain.TypeCompetition), pairCompetition},
		embeddedRefs{domain.RelSGOs, coll(domain.TypeSGO), "sgoMemberships", pairSgo},
		directRef{domain.RelVenues, coll(domain.TypeVenue), pairVenue},
		participantsEmbedded{wantTeams},
		participantsEmbedded{wantSportsPersons},
		keyMomentsFor{},
		rankingsFor{pairEvent},
	},
	domain.TypeTeam: {
		directRef{domain.RelClubs, coll(domain.TypeClub), pairClub},
		directRef{domain.RelNations, coll(domain.TypeNation), pairNation},
		directRef{domain.RelVenues, coll(domain.TypeVenue), pairVenue},
		inverseArrayRef{domain.RelEvents, coll(domain.TypeEvent), "participants", pairTeam},
		embeddedRefs{domain.RelSportsPersons, coll(domain.TypeSportsPerson), "members", pairSportsPerson},
		staffFor{pairTeam},
		embeddedRefs{domain.RelSGOs, coll(domain.TypeSGO), "sgoMemberships", pairSgo},
		rankingsFor{pairTeam},
	},
	domain.TypeClub: {
		inverseRef{domain.RelTeams, coll(domain.TypeTeam), pairClub},
		directRef{domain.RelVenues, coll(domain.TypeVenue), pairVenue},
		embeddedRefs{domain.RelSGOs, coll(domain.TypeSGO), "sgoMemberships", pairSgo},
		staffFor{pairClub},
	},
	domain.TypeSportsPerson: {
		inverseArrayRef{domain.RelTeams, coll(domain.TypeTeam), "members", pairSportsPerson},
		chainRef{domain.RelClubs, coll(domain.TypeTeam), byArrayPair("members", pairSportsPerson), pairClub, coll(domain.TypeClub)},
		inverseArrayRef{domain.RelEvents, coll(domain.TypeEvent), "participants", pairSportsPerson},
		staffFor{pairSportsPerson},
		rankingsFor{pairSportsPerson},
	},
	domain.TypeSGO: {
		inverseArrayRef{domain.RelCompetitions, coll(domain.TypeCompetition), "sgoMemberships", pairSgo},
		inverseArrayRef{domain.RelTeams, coll(domain.TypeTeam), "sgoMemberships", pairSgo},
		inverseArrayRef{domain.RelClubs, coll(domain.TypeClub), "sgoMemberships", pairSgo},
		inverseArrayRef{domain.RelVenues, coll(domain.TypeVenue), "sgoMemberships", pairSgo},
		inverseArrayRef{domain.RelNations, coll(domain.TypeNation), "sgoMemberships", pairSgo},
		union{domain.RelSGOs, []Facet{
			embeddedRefs{domain.RelSGOs, coll(domain.TypeSGO), "sgoMemberships", pairSgo},
			inverseArrayRef{domain.RelSGOs, coll(domain.TypeSGO), "sgoMemberships", pairSgo},
		}},
	},
	domain.TypeNation: {
		embeddedRefs{domain.RelSGOs, coll(domain.TypeSGO), "sgoMemberships", pairSgo},
		inverseRef{domain.RelTeams, coll(domain.TypeTeam), pairNation},
		chainRef{domain.RelVenues, coll(domain.TypeTeam), byPair(pairNation), pairVenue, coll(domain.TypeVenue)},
	},
	domain.TypeVenue: {
		embeddedRefs{domain.RelSGOs, coll(domain.TypeSGO), "sgoMemberships", pairSgo},
	},
	domain.TypeStaff: {
		directRef{domain.RelSportsPersons, coll(domain.TypeSportsPerson), pairSportsPerson},
		directRef{domain.RelTeams, coll(domain.TypeTeam), pairTeam},
		directRef{domain.RelClubs, coll(domain.TypeClub), pairClub},
		directRef{domain.RelNations, coll(domain.TypeNation), pairNation},
	},
	domain.TypeKeyMoment: {
		directRef{domain.RelEvents, coll(domain.TypeEvent), pairEvent},
	},
	domain.TypeRanking: {
		directRef{domain.RelStages, coll(domain.TypeStage), pairStage},
		directRef{domain.RelEvents, coll(domain.TypeEvent), pairEvent},
		directRef{domain.RelTeams, coll(domain.TypeTeam), pairTeam},
		directRef{domain.RelSportsPersons, coll(domain.TypeSportsPerson), pairSportsPerson},
	},
}

// For returns the facet list projecting documents of the given type.
func For(t domain.ResourceType) []Facet {
	return registry[t]
}

// Relations lists the neighbour projections documents of the given type
// carry, in facet order. This doubles as the out-edge table for the
// traversal planner.
func Relations(t domain.ResourceType) []domain.Relation {
	fs := registry[t]
	out := make([]domain.Relation, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Relation())
	}
	return out
}
