package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
)

func TestAggregationRoundTripKeepsKeyMaps(t *testing.T) {
	agg := NewAggregation(domain.TypeCompetition, "289175 @ fifa")
	agg.GamedayID = "gid-comp"
	agg.ExternalID = "289175"
	agg.ExternalIDScope = "fifa"
	agg.Name = "FIFA World Cup"
	agg.LastUpdated = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	agg.SetProjection(domain.RelStages, []string{"gid-st1", "gid-st2"}, map[string]string{
		"st1 @ fifa": "gid-st1",
		"st2 @ fifa": "gid-st2",
	})
	agg.SetProjection(domain.RelVenues, nil, map[string]string{"v1 @ fifa": ""})

	// ToDoc stores key maps as map[string]string; the parse must read them
	// back, not drop them.
	back := AggregationFromDoc(agg.ToDoc())
	require.NotNil(t, back)
	assert.Equal(t, agg.ExternalKey, back.ExternalKey)
	assert.Equal(t, agg.GamedayID, back.GamedayID)
	assert.Equal(t, agg.LastUpdated, back.LastUpdated)
	assert.Equal(t, agg.IDs[domain.RelStages], back.IDs[domain.RelStages])
	assert.Equal(t, agg.Keys[domain.RelStages], back.KeySet(domain.RelStages))
	// Stale keys (empty gamedayId) survive the round trip too.
	assert.Equal(t, map[string]string{"v1 @ fifa": ""}, back.KeySet(domain.RelVenues))
}

func TestAsDocCoercesStringMaps(t *testing.T) {
	doc := Doc{"stageKeys": map[string]string{"st1 @ fifa": "gid-st1"}}
	assert.Equal(t, Doc{"st1 @ fifa": "gid-st1"}, AsDoc(doc["stageKeys"]))
	assert.Equal(t, map[string]string{"st1 @ fifa": "gid-st1"}, GetStringMap(doc, "stageKeys"))
}

func TestSetProjectionDeduplicatesPreservingOrder(t *testing.T) {
	agg := NewAggregation(domain.TypeEvent, "e1 @ fifa")
	agg.SetProjection(domain.RelTeams, []string{"b", "a", "b", "", "c", "a"}, nil)
	assert.Equal(t, []string{"b", "a", "c"}, agg.IDs[domain.RelTeams])
}
