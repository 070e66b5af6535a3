package traversal

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/in"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/db/memory"
)

const sink = "materialisedAggregations"

func matDoc(rt domain.ResourceType, externalKey, gid string, extra entities.Doc) entities.Doc {
	doc := entities.Doc{
		domain.FieldResourceType: string(rt),
		domain.FieldExternalKey:  externalKey,
		domain.FieldGamedayID:    gid,
		domain.FieldLastUpdated:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	for k, v := range extra {
		doc[k] = v
	}
	return doc
}

// seedGraph loads a materialised competition with six teams, two venues,
// and two events each carrying key moments.
func seedGraph(store *memory.Store) {
	teamIDs := []string{"gid-t4", "gid-t1", "gid-t6", "gid-t2", "gid-t5", "gid-t3"}
	store.Insert(sink, matDoc(domain.TypeCompetition, "289175 @ fifa", "gid-comp", entities.Doc{
		"teams":  teamIDs,
		"venues": []string{"gid-v1", "gid-v2"},
		"events": []string{"gid-ev1", "gid-ev2"},
	}))
	for i, gid := range teamIDs {
		store.Insert(sink, matDoc(domain.TypeTeam, "t @ fifa "+gid, gid, entities.Doc{
			domain.FieldLastUpdated: time.Date(2024, 6, 1, i, 0, 0, 0, time.UTC),
		}))
	}
	for _, gid := range []string{"gid-v1", "gid-v2"} {
		store.Insert(sink, matDoc(domain.TypeVenue, "v @ fifa "+gid, gid, nil))
	}
	store.Insert(sink, matDoc(domain.TypeEvent, "ev1 @ fifa", "gid-ev1", entities.Doc{
		"keyMoments": []string{"gid-km1", "gid-km2"},
	}))
	store.Insert(sink, matDoc(domain.TypeEvent, "ev2 @ fifa", "gid-ev2", entities.Doc{
		"keyMoments": []string{"gid-km2", "gid-km3"},
	}))
	for _, gid := range []string{"gid-km1", "gid-km2", "gid-km3"} {
		store.Insert(sink, matDoc(domain.TypeKeyMoment, "km @ "+gid, gid, nil))
	}
}

func listRequest(targets []domain.ResourceType, limits in.Limits, sortBy in.SortOrder) in.ListRequest {
	return in.ListRequest{
		RootType:        domain.TypeCompetition,
		RootExternalKey: "289175 @ fifa",
		Targets:         targets,
		Limits:          limits,
		SortBy:          sortBy,
	}
}

func gids(docs []entities.Doc) []string {
	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, entities.GetString(doc, domain.FieldGamedayID))
	}
	return out
}

func TestListAppliesTotalAndPerTypeLimits(t *testing.T) {
	store := memory.NewStore()
	seedGraph(store)
	e := NewExecutor(store, sink)

	res, err := e.List(context.Background(), listRequest(
		[]domain.ResourceType{domain.TypeTeam, domain.TypeVenue},
		in.Limits{Total: 5, PerType: map[domain.ResourceType]int{domain.TypeTeam: 3}},
		in.SortTraversal,
	))
	require.NoError(t, err)

	teams := res.Results[domain.TypeTeam]
	// Six reachable, clamped to three; the rest overflow in traversal order.
	assert.Equal(t, []string{"gid-t4", "gid-t1", "gid-t6"}, gids(teams.Items))
	assert.Equal(t, []string{"gid-t2", "gid-t5", "gid-t3"}, teams.Overflow.OverflowIDs)
	assert.Equal(t, domain.TypeTeam, teams.Overflow.ResourceType)

	// The remaining total budget (5-3=2) covers both venues.
	venues := res.Results[domain.TypeVenue]
	assert.Len(t, venues.Items, 2)
	assert.Empty(t, venues.Overflow.OverflowIDs)

	for _, item := range teams.Items {
		assert.NotContains(t, teams.Overflow.OverflowIDs, entities.GetString(item, domain.FieldGamedayID))
	}
}

func TestListTotalBudgetConsumedInTargetOrder(t *testing.T) {
	store := memory.NewStore()
	seedGraph(store)
	e := NewExecutor(store, sink)

	res, err := e.List(context.Background(), listRequest(
		[]domain.ResourceType{domain.TypeTeam, domain.TypeVenue},
		in.Limits{Total: 6},
		in.SortTraversal,
	))
	require.NoError(t, err)

	// Teams exhaust the budget; venues get nothing but still report overflow.
	assert.Len(t, res.Results[domain.TypeTeam].Items, 6)
	venues := res.Results[domain.TypeVenue]
	assert.Empty(t, venues.Items)
	assert.Equal(t, []string{"gid-v1", "gid-v2"}, venues.Overflow.OverflowIDs)
}

func TestListUnboundedWhenTotalZero(t *testing.T) {
	store := memory.NewStore()
	seedGraph(store)
	e := NewExecutor(store, sink)

	res, err := e.List(context.Background(), listRequest(
		[]domain.ResourceType{domain.TypeTeam}, in.Limits{}, in.SortTraversal,
	))
	require.NoError(t, err)
	assert.Len(t, res.Results[domain.TypeTeam].Items, 6)
	assert.Empty(t, res.Results[domain.TypeTeam].Overflow.OverflowIDs)
}

func TestListTwoHopTargetDeduplicates(t *testing.T) {
	store := memory.NewStore()
	seedGraph(store)
	e := NewExecutor(store, sink)

	res, err := e.List(context.Background(), listRequest(
		[]domain.ResourceType{domain.TypeKeyMoment}, in.Limits{}, in.SortTraversal,
	))
	require.NoError(t, err)
	// gid-km2 is reachable through both events but appears once.
	assert.Equal(t, []string{"gid-km1", "gid-km2", "gid-km3"},
		gids(res.Results[domain.TypeKeyMoment].Items))
}

func TestListSortOrders(t *testing.T) {
	store := memory.NewStore()
	seedGraph(store)
	e := NewExecutor(store, sink)

	byGid, err := e.List(context.Background(), listRequest(
		[]domain.ResourceType{domain.TypeTeam}, in.Limits{}, in.SortGamedayID,
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"gid-t1", "gid-t2", "gid-t3", "gid-t4", "gid-t5", "gid-t6"},
		gids(byGid.Results[domain.TypeTeam].Items))

	byUpdated, err := e.List(context.Background(), listRequest(
		[]domain.ResourceType{domain.TypeTeam}, in.Limits{}, in.SortLastUpdated,
	))
	require.NoError(t, err)
	// Seeded with ascending lastUpdated in traversal order; newest first.
	assert.Equal(t, []string{"gid-t3", "gid-t5", "gid-t2", "gid-t6", "gid-t1", "gid-t4"},
		gids(byUpdated.Results[domain.TypeTeam].Items))

	traversal, err := e.List(context.Background(), listRequest(
		[]domain.ResourceType{domain.TypeTeam}, in.Limits{}, in.SortTraversal,
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"gid-t4", "gid-t1", "gid-t6", "gid-t2", "gid-t5", "gid-t3"},
		gids(traversal.Results[domain.TypeTeam].Items))
}

func TestListRootAsTargetReturnsRootDocument(t *testing.T) {
	store := memory.NewStore()
	seedGraph(store)
	e := NewExecutor(store, sink)

	res, err := e.List(context.Background(), listRequest(
		[]domain.ResourceType{domain.TypeCompetition}, in.Limits{}, in.SortTraversal,
	))
	require.NoError(t, err)
	items := res.Results[domain.TypeCompetition].Items
	require.Len(t, items, 1)
	assert.Equal(t, "gid-comp", entities.GetString(items[0], domain.FieldGamedayID))
}

func TestListUnknownRootDocument(t *testing.T) {
	store := memory.NewStore()
	seedGraph(store)
	e := NewExecutor(store, sink)

	_, err := e.List(context.Background(), in.ListRequest{
		RootType:        domain.TypeCompetition,
		RootExternalKey: "missing @ fifa",
		Targets:         []domain.ResourceType{domain.TypeTeam},
	})
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestListValidatesRoot(t *testing.T) {
	e := NewExecutor(memory.NewStore(), sink)

	_, err := e.List(context.Background(), in.ListRequest{
		RootType: "widget", RootExternalKey: "x", Targets: []domain.ResourceType{domain.TypeTeam},
	})
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))

	_, err = e.List(context.Background(), in.ListRequest{
		RootType: domain.TypeCompetition, Targets: []domain.ResourceType{domain.TypeTeam},
	})
	assert.True(t, domain.IsKind(err, domain.KindInvalidInput))
}
