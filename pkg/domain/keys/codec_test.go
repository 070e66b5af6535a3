package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
)

func TestEntityKeyRoundTrip(t *testing.T) {
	key := EncodeEntityKey("289175", "fifa")
	assert.Equal(t, "289175 @ fifa", key)

	id, scope, err := DecodeEntityKey(key)
	require.NoError(t, err)
	assert.Equal(t, "289175", id)
	assert.Equal(t, "fifa", scope)
}

func TestDecodeEntityKeySplitsOnLeftmostSeparator(t *testing.T) {
	// Scopes may themselves contain the separator; ids may not.
	id, scope, err := DecodeEntityKey("42 @ uefa @ euro")
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.Equal(t, "uefa @ euro", scope)
}

func TestDecodeEntityKeyMalformed(t *testing.T) {
	for _, key := range []string{"", "noseparator", " @ scope", "id @ "} {
		_, _, err := DecodeEntityKey(key)
		assert.True(t, domain.IsKind(err, domain.KindMalformedKey), "key %q", key)
	}
}

func TestStaffKeyRoundTrip(t *testing.T) {
	for _, role := range []StaffRole{RoleTeam, RoleClub, RoleNation} {
		key, err := EncodeStaffKey("p9", "opta", role, "org1", "fifa")
		require.NoError(t, err)

		spID, spScope, gotRole, orgID, orgScope, err := DecodeStaffKey(key)
		require.NoError(t, err)
		assert.Equal(t, "p9", spID)
		assert.Equal(t, "opta", spScope)
		assert.Equal(t, role, gotRole)
		assert.Equal(t, "org1", orgID)
		assert.Equal(t, "fifa", orgScope)
	}
}

func TestStaffKeyLayout(t *testing.T) {
	key, err := EncodeStaffKey("p9", "opta", RoleClub, "c3", "fifa")
	require.NoError(t, err)
	assert.Equal(t, "p9 @ opta /club/ c3 @ fifa", key)
}

func TestDecodeStaffKeyWithoutRoleSeparator(t *testing.T) {
	_, _, _, _, _, err := DecodeStaffKey("p9 @ opta")
	assert.True(t, domain.IsKind(err, domain.KindMalformedKey))
}

func TestParseStaffRole(t *testing.T) {
	role, err := ParseStaffRole("TEAM")
	require.NoError(t, err)
	assert.Equal(t, RoleTeam, role)
	assert.Equal(t, domain.TypeTeam, role.ResourceType())

	_, err = ParseStaffRole("referee")
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))
}

func TestKeyMomentKeyRoundTrip(t *testing.T) {
	key := EncodeKeyMomentKey("2024-06-01T20:00:00Z", "opta", "e1", "goal", "penalty")
	dateTime, eventScope, eventID, momentType, subType, err := DecodeKeyMomentKey(key)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T20:00:00Z", dateTime)
	assert.Equal(t, "opta", eventScope)
	assert.Equal(t, "e1", eventID)
	assert.Equal(t, "goal", momentType)
	assert.Equal(t, "penalty", subType)
}

func TestKeyMomentKeyEmptyFieldsSurvive(t *testing.T) {
	// Absent source fields encode as empty parts and decode back as such.
	key := EncodeKeyMomentKey("2024-06-01T20:00:00Z", "opta", "e1", "goal", "")
	_, _, _, _, subType, err := DecodeKeyMomentKey(key)
	require.NoError(t, err)
	assert.Equal(t, "", subType)
}

func TestDecodeKeyMomentKeyWrongArity(t *testing.T) {
	_, _, _, _, _, err := DecodeKeyMomentKey("a @ b @ c")
	assert.True(t, domain.IsKind(err, domain.KindMalformedKey))
}

func TestRankingKeyRoundTrip(t *testing.T) {
	cases := []RankingContext{
		{StageID: "s1", StageScope: "opta", TeamID: "t1", TeamScope: "opta", DateTime: "2024-06-01", Position: 3},
		{EventID: "e1", EventScope: "opta", TeamID: "t1", TeamScope: "opta", DateTime: "2024-06-01", Position: 1},
		{StageID: "s1", StageScope: "opta", SportsPersonID: "p1", SportsPersonScope: "opta", DateTime: "2024-06-01", Position: 7},
		{EventID: "e1", EventScope: "opta", SportsPersonID: "p1", SportsPersonScope: "opta", DateTime: "2024-06-01", Position: 12},
	}
	for _, rc := range cases {
		key, err := EncodeRankingKey(rc)
		require.NoError(t, err)
		decoded, err := DecodeRankingKey(key)
		require.NoError(t, err)
		assert.Equal(t, rc, decoded)
	}
}

func TestRankingKeyPriorities(t *testing.T) {
	// Stage beats event, team beats sports-person.
	rc := RankingContext{
		StageID: "s1", StageScope: "opta",
		EventID: "e1", EventScope: "opta",
		TeamID: "t1", TeamScope: "opta",
		SportsPersonID: "p1", SportsPersonScope: "opta",
		DateTime: "2024-06-01", Position: 2,
	}
	key, err := EncodeRankingKey(rc)
	require.NoError(t, err)
	assert.Contains(t, key, RankingStageTeamSep)
	assert.NotContains(t, key, RankingEventTeamSep)
	assert.Equal(t, "s1 @ opta /st/ t1 @ opta /label/ 2024-06-01 /rank/ 2", key)
}

func TestRankingKeyUnkeyable(t *testing.T) {
	_, err := EncodeRankingKey(RankingContext{TeamID: "t1", TeamScope: "opta"})
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))

	_, err = EncodeRankingKey(RankingContext{StageID: "s1", StageScope: "opta"})
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))
}

func TestDecodeForTypeSimple(t *testing.T) {
	fields, err := DecodeForType(domain.TypeTeam, "t1 @ opta")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		domain.FieldExternalID:      "t1",
		domain.FieldExternalIDScope: "opta",
	}, fields)
}

func TestDecodeForTypeStaff(t *testing.T) {
	key, err := EncodeStaffKey("p9", "opta", RoleNation, "ger", "fifa")
	require.NoError(t, err)
	fields, err := DecodeForType(domain.TypeStaff, key)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"_externalSportsPersonId":      "p9",
		"_externalSportsPersonIdScope": "opta",
		"_externalNationId":            "ger",
		"_externalNationIdScope":       "fifa",
	}, fields)
}

func TestDecodeForTypeRanking(t *testing.T) {
	key, err := EncodeRankingKey(RankingContext{
		EventID: "e1", EventScope: "opta",
		SportsPersonID: "p1", SportsPersonScope: "opta",
		DateTime: "2024-06-01", Position: 4,
	})
	require.NoError(t, err)
	fields, err := DecodeForType(domain.TypeRanking, key)
	require.NoError(t, err)
	assert.Equal(t, "e1", fields["_externalEventId"])
	assert.Equal(t, "p1", fields["_externalSportsPersonId"])
	assert.Equal(t, "4", fields["rankingPosition"])
	assert.NotContains(t, fields, "_externalStageId")
	assert.NotContains(t, fields, "_externalTeamId")
}
