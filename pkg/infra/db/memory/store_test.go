package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

func TestFindOneAbsentIsNilNil(t *testing.T) {
	s := NewStore()
	doc, err := s.FindOne(context.Background(), "teams", entities.Doc{"_externalId": "t1"})
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestFilterOperators(t *testing.T) {
	s := NewStore()
	s.Insert("events", entities.Doc{
		"_externalId": "e1",
		"participants": []any{
			entities.Doc{"_externalTeamId": "t1", "_externalTeamIdScope": "opta"},
		},
	})
	s.Insert("events", entities.Doc{"_externalId": "e2", "participants": []any{}})

	ctx := context.Background()

	docs, err := s.FindAll(ctx, "events", entities.Doc{
		"_externalId": entities.Doc{"$in": []string{"e1", "e3"}},
	}, nil)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	docs, err = s.FindAll(ctx, "events", entities.Doc{
		"participants": entities.Doc{"$elemMatch": entities.Doc{
			"_externalTeamId": "t1", "_externalTeamIdScope": "opta",
		}},
	}, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "e1", entities.GetString(docs[0], "_externalId"))
}

func TestCollectFieldFlattensArrays(t *testing.T) {
	s := NewStore()
	s.Insert("sink", entities.Doc{"resourceType": "event", "keyMoments": []string{"a", "b"}})
	s.Insert("sink", entities.Doc{"resourceType": "event", "keyMoments": []string{"b", "c"}})

	ids, err := s.CollectField(context.Background(), "sink", entities.Doc{"resourceType": "event"}, "keyMoments")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestBulkWriteMutationsAndUpsert(t *testing.T) {
	s := NewStore()
	s.Insert("sink", entities.Doc{
		"resourceType": "club",
		"externalKey":  "c1 @ s",
		"teams":        []string{"g1", "g2"},
		"teamKeys":     entities.Doc{"t1 @ s": "g1", "t2 @ s": "g2"},
	})
	ctx := context.Background()

	res, err := s.BulkWrite(ctx, "sink", []out.UpdateOp{
		{
			Filter: entities.Doc{"resourceType": "club", "externalKey": "c1 @ s"},
			Pull:   entities.Doc{"teams": "g1"},
			Unset:  []string{"teamKeys.t1 @ s"},
		},
		{
			Filter:   entities.Doc{"resourceType": "club", "externalKey": "c2 @ s"},
			AddToSet: entities.Doc{"teams": "g3"},
			Set:      entities.Doc{"teamKeys.t3 @ s": "g3"},
			Upsert:   true,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Modified)
	assert.Equal(t, int64(1), res.Upserted)

	c1, err := s.FindOne(ctx, "sink", entities.Doc{"externalKey": "c1 @ s"})
	require.NoError(t, err)
	assert.Equal(t, []string{"g2"}, entities.GetStrings(c1, "teams"))
	assert.Equal(t, map[string]string{"t2 @ s": "g2"}, entities.GetStringMap(c1, "teamKeys"))

	c2, err := s.FindOne(ctx, "sink", entities.Doc{"externalKey": "c2 @ s"})
	require.NoError(t, err)
	require.NotNil(t, c2)
	// Upserted documents inherit the equality fields of their filter.
	assert.Equal(t, "club", entities.GetString(c2, "resourceType"))
	assert.Equal(t, []string{"g3"}, entities.GetStrings(c2, "teams"))
}

func TestAddToSetIsIdempotent(t *testing.T) {
	s := NewStore()
	s.Insert("sink", entities.Doc{"externalKey": "k", "teams": []string{"g1"}})

	op := out.UpdateOp{
		Filter:   entities.Doc{"externalKey": "k"},
		AddToSet: entities.Doc{"teams": "g1"},
	}
	ctx := context.Background()
	_, err := s.BulkWrite(ctx, "sink", []out.UpdateOp{op, op})
	require.NoError(t, err)

	doc, err := s.FindOne(ctx, "sink", entities.Doc{"externalKey": "k"})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, entities.GetStrings(doc, "teams"))
}

func TestFindAllSortAndLimit(t *testing.T) {
	s := NewStore()
	s.Insert("sink", entities.Doc{"gamedayId": "b"}, entities.Doc{"gamedayId": "a"}, entities.Doc{"gamedayId": "c"})

	docs, err := s.FindAll(context.Background(), "sink", entities.Doc{}, &out.FindOptions{
		Sort:  []out.SortField{{Field: "gamedayId"}},
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", entities.GetString(docs[0], "gamedayId"))
	assert.Equal(t, "b", entities.GetString(docs[1], "gamedayId"))
}

func TestInsertCopiesDocuments(t *testing.T) {
	s := NewStore()
	original := entities.Doc{"externalKey": "k", "teams": []string{"g1"}}
	s.Insert("sink", original)
	original["teams"] = []string{"mutated"}

	doc, err := s.FindOne(context.Background(), "sink", entities.Doc{"externalKey": "k"})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, entities.GetStrings(doc, "teams"))
}
