package services

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/keys"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// Reconciler keeps peer materialised documents consistent after a source
// entity's neighbour set changes, or after the source's own composite key
// moves. Reciprocity (invariant I3) is eventual: removals and additions go
// out as one ordered bulk, and re-applying the same diff is a no-op
// because $pull and $addToSet commute with themselves.
type Reconciler struct {
	store out.Store
	sink  string
	now   func() time.Time
}

// NewReconciler builds a reconciler writing to the given materialised
// collection.
func NewReconciler(store out.Store, sink string) *Reconciler {
	return &Reconciler{store: store, sink: sink, now: time.Now}
}

// Report summarises one reconciliation run.
type Report struct {
	Ops      int
	Added    int
	Removed  int
	Repaired int
}

// peerChange is one pending mutation against a peer document.
type peerChange struct {
	rel     domain.Relation
	peerKey string
	peerGID string // known gamedayId of the peer, "" when unresolved
}

// Reconcile diffs the old and new snapshots of one source entity and
// applies the resulting add/remove operations to every affected peer.
// old may be nil (first build). Removals precede additions inside a single
// ordered bulk request so a peer moved within a neighbour type reaches the
// correct terminal state.
func (r *Reconciler) Reconcile(ctx context.Context, old, fresh *entities.Aggregation) (Report, error) {
	var report Report
	if fresh == nil {
		return report, domain.E(domain.KindInvalidInput, "reconcile requires the new snapshot")
	}
	srcRel, ok := domain.RelationOfType(fresh.ResourceType)
	if !ok {
		return report, domain.E(domain.KindInvalidInput, "no reciprocal relation for type %q", fresh.ResourceType)
	}

	keyMoved := old != nil && old.ExternalKey != "" && old.ExternalKey != fresh.ExternalKey

	var removals, additions []peerChange
	for _, rel := range unionRelations(old, fresh) {
		oldKeys := old.KeySet(rel)
		newKeys := fresh.KeySet(rel)
		for peerKey, gid := range oldKeys {
			if _, still := newKeys[peerKey]; !still || keyMoved {
				removals = append(removals, peerChange{rel: rel, peerKey: peerKey, peerGID: gid})
			}
		}
		for peerKey, gid := range newKeys {
			if _, had := oldKeys[peerKey]; !had || keyMoved {
				additions = append(additions, peerChange{rel: rel, peerKey: peerKey, peerGID: gid})
			}
		}
	}
	sortChanges(removals)
	sortChanges(additions)

	if len(removals) == 0 && len(additions) == 0 {
		return report, nil
	}

	now := r.now()
	ops := make([]out.UpdateOp, 0, len(removals)+len(additions))
	oldSourceKey := fresh.ExternalKey
	if keyMoved {
		oldSourceKey = old.ExternalKey
	}
	for _, c := range removals {
		peerType, ok := domain.TypeOfRelation(c.rel)
		if !ok {
			continue
		}
		ops = append(ops, out.UpdateOp{
			Filter: entities.Doc{
				domain.FieldResourceType: string(peerType),
				domain.FieldExternalKey:  c.peerKey,
			},
			Pull:  entities.Doc{srcRel.IDsField(): sourceGID(old, fresh)},
			Unset: []string{srcRel.KeysField() + "." + oldSourceKey},
			Set:   entities.Doc{domain.FieldLastUpdated: now},
		})
	}
	for _, c := range additions {
		peerType, ok := domain.TypeOfRelation(c.rel)
		if !ok {
			continue
		}
		op := out.UpdateOp{
			Filter: entities.Doc{
				domain.FieldResourceType: string(peerType),
				domain.FieldExternalKey:  c.peerKey,
			},
			Set:    entities.Doc{domain.FieldLastUpdated: now},
			Upsert: true,
		}
		if gid := fresh.GamedayID; gid != "" {
			op.AddToSet = entities.Doc{srcRel.IDsField(): gid}
		}
		op.Set[srcRel.KeysField()+"."+fresh.ExternalKey] = fresh.GamedayID
		ops = append(ops, op)
	}

	report.Ops = len(ops)
	report.Removed = len(removals)
	report.Added = len(additions)

	if _, err := r.store.BulkWrite(ctx, r.sink, ops); err != nil {
		return report, domain.Wrap(domain.KindReconcilerPartial, err,
			"bulk reconcile of %s %q (%d ops)", fresh.ResourceType, fresh.ExternalKey, len(ops))
	}

	repaired, err := r.repairUpsertedPeers(ctx, additions)
	report.Repaired = repaired
	if err != nil {
		return report, domain.Wrap(domain.KindReconcilerPartial, err,
			"gamedayId repair after reconcile of %s %q", fresh.ResourceType, fresh.ExternalKey)
	}
	return report, nil
}

// repairUpsertedPeers patches gamedayId (and identity fields) onto peer
// documents that were upserted blind. When the diff already knows the
// peer's gamedayId the patch is direct; otherwise the peer's composite key
// is decomposed and its source collection consulted.
func (r *Reconciler) repairUpsertedPeers(ctx context.Context, additions []peerChange) (int, error) {
	repaired := 0
	for _, c := range additions {
		peerType, ok := domain.TypeOfRelation(c.rel)
		if !ok {
			continue
		}
		match := entities.Doc{
			domain.FieldResourceType: string(peerType),
			domain.FieldExternalKey:  c.peerKey,
		}
		peerDoc, err := r.store.FindOne(ctx, r.sink, match)
		if err != nil {
			return repaired, err
		}
		if peerDoc == nil || entities.GetString(peerDoc, domain.FieldGamedayID) != "" {
			continue
		}

		patch := entities.Doc{}
		fields, derr := keys.DecodeForType(peerType, c.peerKey)
		if derr != nil {
			slog.ErrorContext(ctx, "cannot decode peer key for repair",
				"resourceType", peerType, "externalKey", c.peerKey, "err", derr)
			continue
		}
		for f, v := range fields {
			patch[f] = v
		}

		gid := c.peerGID
		if gid == "" {
			srcDoc, err := r.store.FindOne(ctx, domain.CollectionFor(peerType), sourceFilter(fields))
			if err != nil {
				return repaired, err
			}
			if srcDoc == nil {
				// Stale key: the peer's source does not exist (yet). Leave
				// the blind upsert in place; a later build heals it.
				continue
			}
			gid = entities.GetString(srcDoc, domain.FieldGamedayID)
		}
		if gid == "" {
			continue
		}
		patch[domain.FieldGamedayID] = gid

		if _, err := r.store.BulkWrite(ctx, r.sink, []out.UpdateOp{{
			Filter: match,
			Set:    patch,
		}}); err != nil {
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}

// sourceFilter converts decoded key fields into a source-collection
// filter, restoring the numeric type of rankingPosition.
func sourceFilter(fields map[string]string) entities.Doc {
	filter := entities.Doc{}
	for f, v := range fields {
		if f == "rankingPosition" {
			if n, err := strconv.Atoi(v); err == nil {
				filter[f] = n
				continue
			}
		}
		filter[f] = v
	}
	return filter
}

func sourceGID(old, fresh *entities.Aggregation) string {
	if fresh.GamedayID != "" {
		return fresh.GamedayID
	}
	if old != nil {
		return old.GamedayID
	}
	return ""
}

func unionRelations(old, fresh *entities.Aggregation) []domain.Relation {
	seen := map[domain.Relation]struct{}{}
	var rels []domain.Relation
	add := func(a *entities.Aggregation) {
		if a == nil {
			return
		}
		for _, rel := range a.Relations() {
			if _, dup := seen[rel]; !dup {
				seen[rel] = struct{}{}
				rels = append(rels, rel)
			}
		}
	}
	add(old)
	add(fresh)
	sort.Slice(rels, func(i, j int) bool { return rels[i] < rels[j] })
	return rels
}

func sortChanges(cs []peerChange) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].rel != cs[j].rel {
			return cs[i].rel < cs[j].rel
		}
		return cs[i].peerKey < cs[j].peerKey
	})
}
