package facets

import (
	"context"
	"log/slog"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/keys"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// keyMomentsFor resolves the key-moments referencing an event. Key-moment
// keys are compound, so the result is keyed by the five-part moment key
// rather than the simple entity key.
type keyMomentsFor struct{}

func (keyMomentsFor) Relation() domain.Relation { return domain.RelKeyMoments }

func (keyMomentsFor) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	result := emptyResult()
	self, ok := ownRef(src)
	if !ok {
		return result, nil
	}
	docs, err := store.FindAll(ctx, domain.CollectionFor(domain.TypeKeyMoment), pairFilter(pairEvent, self), nil)
	if err != nil {
		return result, err
	}
	for _, doc := range docs {
		key := keys.EncodeKeyMomentKey(
			entities.GetString(doc, "dateTime"),
			entities.GetString(doc, pairEvent.scope),
			entities.GetString(doc, pairEvent.id),
			entities.GetString(doc, "type"),
			entities.GetString(doc, "subType"),
		)
		result.add(key, entities.GetString(doc, domain.FieldGamedayID))
	}
	return result, nil
}

// rankingContextFromDoc lifts a ranking source document into the codec's
// context shape.
func rankingContextFromDoc(doc entities.Doc) keys.RankingContext {
	return keys.RankingContext{
		StageID:           entities.GetString(doc, pairStage.id),
		StageScope:        entities.GetString(doc, pairStage.scope),
		EventID:           entities.GetString(doc, pairEvent.id),
		EventScope:        entities.GetString(doc, pairEvent.scope),
		TeamID:            entities.GetString(doc, pairTeam.id),
		TeamScope:         entities.GetString(doc, pairTeam.scope),
		SportsPersonID:    entities.GetString(doc, pairSportsPerson.id),
		SportsPersonScope: entities.GetString(doc, pairSportsPerson.scope),
		DateTime:          entities.GetString(doc, "dateTime"),
		Position:          entities.GetInt(doc, "rankingPosition"),
	}
}

// rankingsFor resolves the rankings referencing the source through the
// given pair (stage, event, team or sports-person side). Rankings whose
// own fields cannot produce a key are discarded.
type rankingsFor struct {
	pair pairFields
}

func (rankingsFor) Relation() domain.Relation { return domain.RelRankings }

func (f rankingsFor) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	result := emptyResult()
	self, ok := ownRef(src)
	if !ok {
		return result, nil
	}
	docs, err := store.FindAll(ctx, domain.CollectionFor(domain.TypeRanking), pairFilter(f.pair, self), nil)
	if err != nil {
		return result, err
	}
	for _, doc := range docs {
		key, err := keys.EncodeRankingKey(rankingContextFromDoc(doc))
		if err != nil {
			slog.DebugContext(ctx, "discarding unkeyable ranking",
				"sourceKey", self.key(), "err", err)
			continue
		}
		result.add(key, entities.GetString(doc, domain.FieldGamedayID))
	}
	return result, nil
}

// staffFor resolves the staff records attached to the source through the
// given organisation pair, or through the sports-person pair when the
// source is a sports-person. Staff keys are compound.
type staffFor struct {
	pair pairFields
}

func (staffFor) Relation() domain.Relation { return domain.RelStaff }

func (f staffFor) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	result := emptyResult()
	self, ok := ownRef(src)
	if !ok {
		return result, nil
	}
	docs, err := store.FindAll(ctx, domain.CollectionFor(domain.TypeStaff), pairFilter(f.pair, self), nil)
	if err != nil {
		return result, err
	}
	for _, doc := range docs {
		key, kerr := StaffKeyFromDoc(doc)
		if kerr != nil {
			slog.DebugContext(ctx, "discarding unkeyable staff record",
				"sourceKey", self.key(), "err", kerr)
			continue
		}
		result.add(key, entities.GetString(doc, domain.FieldGamedayID))
	}
	return result, nil
}

// StaffKeyFromDoc derives the compound staff key from a staff source
// document: the sports-person pair plus whichever single organisation pair
// is present.
func StaffKeyFromDoc(doc entities.Doc) (string, error) {
	sp, ok := refFrom(doc, pairSportsPerson)
	if !ok {
		return "", domain.E(domain.KindMalformedKey, "staff record missing sports-person pair")
	}
	for _, org := range []struct {
		pair pairFields
		role keys.StaffRole
	}{
		{pairTeam, keys.RoleTeam},
		{pairClub, keys.RoleClub},
		{pairNation, keys.RoleNation},
	} {
		if target, ok := refFrom(doc, org.pair); ok {
			return keys.EncodeStaffKey(sp.id, sp.scope, org.role, target.id, target.scope)
		}
	}
	return "", domain.E(domain.KindMalformedKey, "staff record missing organisation pair")
}

// RankingKeyFromDoc derives the compound ranking key from a ranking source
// document.
func RankingKeyFromDoc(doc entities.Doc) (string, error) {
	return keys.EncodeRankingKey(rankingContextFromDoc(doc))
}

// KeyMomentKeyFromDoc derives the compound key-moment key from a
// key-moment source document.
func KeyMomentKeyFromDoc(doc entities.Doc) string {
	return keys.EncodeKeyMomentKey(
		entities.GetString(doc, "dateTime"),
		entities.GetString(doc, pairEvent.scope),
		entities.GetString(doc, pairEvent.id),
		entities.GetString(doc, "type"),
		entities.GetString(doc, "subType"),
	)
}
