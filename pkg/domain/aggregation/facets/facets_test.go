package facets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/db/memory"
)

func sourceDoc(id, scope, gid string) entities.Doc {
	return entities.Doc{
		domain.FieldExternalID:      id,
		domain.FieldExternalIDScope: scope,
		domain.FieldGamedayID:       gid,
	}
}

func TestDirectRefResolves(t *testing.T) {
	store := memory.NewStore()
	store.Insert("venues", sourceDoc("v1", "opta", "gid-v1"))

	event := sourceDoc("e1", "opta", "gid-e1")
	event["_externalVenueId"] = "v1"
	event["_externalVenueIdScope"] = "opta"

	f := directRef{domain.RelVenues, "venues", pairVenue}
	res, err := f.Resolve(context.Background(), store, event)
	require.NoError(t, err)
	assert.Equal(t, []string{"gid-v1"}, res.IDs)
	assert.Equal(t, map[string]string{"v1 @ opta": "gid-v1"}, res.Keys)
}

func TestDirectRefStaleReferenceKeepsKey(t *testing.T) {
	store := memory.NewStore()

	event := sourceDoc("e1", "opta", "gid-e1")
	event["_externalVenueId"] = "ghost"
	event["_externalVenueIdScope"] = "opta"

	f := directRef{domain.RelVenues, "venues", pairVenue}
	res, err := f.Resolve(context.Background(), store, event)
	require.NoError(t, err)
	// A key whose neighbour does not exist yet is kept with an empty id.
	assert.Empty(t, res.IDs)
	assert.Equal(t, map[string]string{"ghost @ opta": ""}, res.Keys)
	assert.GreaterOrEqual(t, len(res.Keys), len(res.IDs))
}

func TestDirectRefScopeMismatchStaysUnresolved(t *testing.T) {
	store := memory.NewStore()
	store.Insert("venues", sourceDoc("v1", "other", "gid-v1"))

	event := sourceDoc("e1", "opta", "gid-e1")
	event["_externalVenueId"] = "v1"
	event["_externalVenueIdScope"] = "opta"

	f := directRef{domain.RelVenues, "venues", pairVenue}
	res, err := f.Resolve(context.Background(), store, event)
	require.NoError(t, err)
	assert.Empty(t, res.IDs)
	assert.Equal(t, map[string]string{"v1 @ opta": ""}, res.Keys)
}

func TestInverseRefResolves(t *testing.T) {
	store := memory.NewStore()
	for _, id := range []string{"s1", "s2"} {
		stage := sourceDoc(id, "opta", "gid-"+id)
		stage["_externalCompetitionId"] = "c1"
		stage["_externalCompetitionIdScope"] = "opta"
		store.Insert("stages", stage)
	}
	other := sourceDoc("s9", "opta", "gid-s9")
	other["_externalCompetitionId"] = "c2"
	other["_externalCompetitionIdScope"] = "opta"
	store.Insert("stages", other)

	f := inverseRef{domain.RelStages, "stages", pairCompetition}
	res, err := f.Resolve(context.Background(), store, sourceDoc("c1", "opta", "gid-c1"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gid-s1", "gid-s2"}, res.IDs)
	assert.Len(t, res.Keys, 2)
}

func TestEmbeddedRefsExpandsArray(t *testing.T) {
	store := memory.NewStore()
	store.Insert("sgos", sourceDoc("sgo1", "opta", "gid-sgo1"))

	comp := sourceDoc("c1", "opta", "gid-c1")
	comp["sgoMemberships"] = []any{
		entities.Doc{"_externalSgoId": "sgo1", "_externalSgoIdScope": "opta"},
		entities.Doc{"_externalSgoId": "sgo1", "_externalSgoIdScope": "opta"}, // dup collapses
		entities.Doc{"comment": "no pair, dropped"},
	}

	f := embeddedRefs{domain.RelSGOs, "sgos", "sgoMemberships", pairSgo}
	res, err := f.Resolve(context.Background(), store, comp)
	require.NoError(t, err)
	assert.Equal(t, []string{"gid-sgo1"}, res.IDs)
	assert.Len(t, res.Keys, 1)
}

func TestInverseArrayRef(t *testing.T) {
	store := memory.NewStore()
	event := sourceDoc("e1", "opta", "gid-e1")
	event["participants"] = []any{
		entities.Doc{"_externalTeamId": "t1", "_externalTeamIdScope": "opta"},
	}
	store.Insert("events", event)

	f := inverseArrayRef{domain.RelEvents, "events", "participants", pairTeam}
	res, err := f.Resolve(context.Background(), store, sourceDoc("t1", "opta", "gid-t1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"gid-e1"}, res.IDs)
}

func TestChainRefTwoHops(t *testing.T) {
	store := memory.NewStore()
	team := sourceDoc("t1", "opta", "gid-t1")
	team["_externalNationId"] = "ger"
	team["_externalNationIdScope"] = "fifa"
	team["_externalVenueId"] = "v1"
	team["_externalVenueIdScope"] = "opta"
	store.Insert("teams", team)
	store.Insert("venues", sourceDoc("v1", "opta", "gid-v1"))

	f := chainRef{domain.RelVenues, "teams", byPair(pairNation), pairVenue, "venues"}
	res, err := f.Resolve(context.Background(), store, sourceDoc("ger", "fifa", "gid-ger"))
	require.NoError(t, err)
	assert.Equal(t, []string{"gid-v1"}, res.IDs)
	assert.Equal(t, map[string]string{"v1 @ opta": "gid-v1"}, res.Keys)
}

func TestUnionMergesWithoutDuplicates(t *testing.T) {
	store := memory.NewStore()
	store.Insert("venues", sourceDoc("v1", "opta", "gid-v1"))
	store.Insert("venues", sourceDoc("v2", "opta", "gid-v2"))

	stage := sourceDoc("s1", "opta", "gid-s1")
	stage["_externalCompetitionId"] = "c1"
	stage["_externalCompetitionIdScope"] = "opta"
	stage["_externalVenueId"] = "v1"
	stage["_externalVenueIdScope"] = "opta"
	store.Insert("stages", stage)

	for _, venueID := range []string{"v1", "v2"} {
		event := sourceDoc("e-"+venueID, "opta", "gid-e-"+venueID)
		event["_externalCompetitionId"] = "c1"
		event["_externalCompetitionIdScope"] = "opta"
		event["_externalVenueId"] = venueID
		event["_externalVenueIdScope"] = "opta"
		store.Insert("events", event)
	}

	f := union{domain.RelVenues, []Facet{
		chainRef{domain.RelVenues, "stages", byPair(pairCompetition), pairVenue, "venues"},
		chainRef{domain.RelVenues, "events", byPair(pairCompetition), pairVenue, "venues"},
	}}
	res, err := f.Resolve(context.Background(), store, sourceDoc("c1", "opta", "gid-c1"))
	require.NoError(t, err)
	// v1 appears through both branches and collapses to one entry.
	assert.ElementsMatch(t, []string{"gid-v1", "gid-v2"}, res.IDs)
	assert.Len(t, res.Keys, 2)
}

func TestClassifyParticipants(t *testing.T) {
	entries := []entities.Doc{
		{ // both pairs: counts as a sports-person, never as a team
			"_externalTeamId": "t1", "_externalTeamIdScope": "opta",
			"_externalSportsPersonId": "p1", "_externalSportsPersonIdScope": "opta",
		},
		{"_externalTeamId": "t2", "_externalTeamIdScope": "opta"},
		{"shirtNumber": 10}, // neither pair: dropped
	}

	teams := classifyParticipants(entries, wantTeams)
	require.Len(t, teams, 1)
	assert.Equal(t, "t2", teams[0].id)

	sps := classifyParticipants(entries, wantSportsPersons)
	require.Len(t, sps, 1)
	assert.Equal(t, "p1", sps[0].id)
}

func TestParticipantsEmbedded(t *testing.T) {
	store := memory.NewStore()
	store.Insert("teams", sourceDoc("t1", "opta", "gid-t1"))
	store.Insert("sportsPersons", sourceDoc("p1", "opta", "gid-p1"))

	event := sourceDoc("e1", "opta", "gid-e1")
	event["participants"] = []any{
		entities.Doc{"_externalTeamId": "t1", "_externalTeamIdScope": "opta"},
		entities.Doc{
			"_externalTeamId": "t1", "_externalTeamIdScope": "opta",
			"_externalSportsPersonId": "p1", "_externalSportsPersonIdScope": "opta",
		},
	}

	teamRes, err := participantsEmbedded{wantTeams}.Resolve(context.Background(), store, event)
	require.NoError(t, err)
	assert.Equal(t, []string{"gid-t1"}, teamRes.IDs)

	spRes, err := participantsEmbedded{wantSportsPersons}.Resolve(context.Background(), store, event)
	require.NoError(t, err)
	assert.Equal(t, []string{"gid-p1"}, spRes.IDs)
}

func TestStaffKeyFromDoc(t *testing.T) {
	doc := entities.Doc{
		"_externalSportsPersonId": "p9", "_externalSportsPersonIdScope": "opta",
		"_externalClubId": "c3", "_externalClubIdScope": "fifa",
	}
	key, err := StaffKeyFromDoc(doc)
	require.NoError(t, err)
	assert.Equal(t, "p9 @ opta /club/ c3 @ fifa", key)

	_, err = StaffKeyFromDoc(entities.Doc{
		"_externalSportsPersonId": "p9", "_externalSportsPersonIdScope": "opta",
	})
	assert.True(t, domain.IsKind(err, domain.KindMalformedKey))
}

func TestRankingsForDiscardsUnkeyable(t *testing.T) {
	store := memory.NewStore()
	keyed := entities.Doc{
		domain.FieldGamedayID: "gid-r1",
		"_externalStageId":    "s1", "_externalStageIdScope": "opta",
		"_externalTeamId": "t1", "_externalTeamIdScope": "opta",
		"dateTime": "2024-06-01", "rankingPosition": 1,
	}
	unkeyable := entities.Doc{
		domain.FieldGamedayID: "gid-r2",
		"_externalTeamId":     "t1", "_externalTeamIdScope": "opta",
		"dateTime": "2024-06-01", "rankingPosition": 2,
	}
	store.Insert("rankings", keyed, unkeyable)

	res, err := rankingsFor{pairTeam}.Resolve(context.Background(), store, sourceDoc("t1", "opta", "gid-t1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"gid-r1"}, res.IDs)
	assert.Len(t, res.Keys, 1)
}

func TestRegistryCoversEveryType(t *testing.T) {
	for _, rt := range domain.AllResourceTypes {
		fs := For(rt)
		assert.NotEmpty(t, fs, "type %s has no facets", rt)

		seen := map[domain.Relation]bool{}
		for _, f := range fs {
			assert.False(t, seen[f.Relation()], "type %s projects %s twice", rt, f.Relation())
			seen[f.Relation()] = true
		}
	}
}
