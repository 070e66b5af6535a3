// Package services orchestrates the aggregation write path: the processor
// assembles and upserts materialised documents, the reconciler keeps peer
// documents' reciprocal references consistent.
package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/aggregation/facets"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/keys"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/in"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// Processor executes the build path for one entity:
// existence probe → old snapshot → facet projection → upsert → new
// snapshot → peer reconciliation.
type Processor struct {
	store      out.Store
	sink       string
	reconciler *Reconciler
	now        func() time.Time
}

// NewProcessor wires the write path. sink names the materialised
// collection.
func NewProcessor(store out.Store, sink string, reconciler *Reconciler) *Processor {
	return &Processor{store: store, sink: sink, reconciler: reconciler, now: time.Now}
}

// selector is the resolved identity of a build request: the source-
// collection filter plus the composite external key it will materialise
// under.
type selector struct {
	filter      entities.Doc
	externalKey string
}

func resolveSelector(req in.BuildRequest) (selector, error) {
	switch req.Type {
	case domain.TypeStaff:
		p := req.Staff
		if p == nil || p.SportsPersonScope == "" || p.SportsPersonID == "" || p.OrgScope == "" || p.OrgID == "" {
			return selector{}, domain.E(domain.KindInvalidInput, "staff build requires sports-person and organisation pairs")
		}
		key, err := keys.EncodeStaffKey(p.SportsPersonID, p.SportsPersonScope, p.Role, p.OrgID, p.OrgScope)
		if err != nil {
			return selector{}, err
		}
		fields, err := keys.DecodeForType(domain.TypeStaff, key)
		if err != nil {
			return selector{}, err
		}
		filter := entities.Doc{}
		for f, v := range fields {
			filter[f] = v
		}
		return selector{filter: filter, externalKey: key}, nil

	case domain.TypeKeyMoment:
		p := req.KeyMoment
		if p == nil || p.EventScope == "" || p.EventID == "" || p.DateTime == "" {
			return selector{}, domain.E(domain.KindInvalidInput, "key-moment build requires event pair and dateTime")
		}
		key := keys.EncodeKeyMomentKey(p.DateTime, p.EventScope, p.EventID, p.Type, p.SubType)
		return selector{
			filter: entities.Doc{
				"_externalEventId":      p.EventID,
				"_externalEventIdScope": p.EventScope,
				"type":                  p.Type,
				"subType":               p.SubType,
				"dateTime":              p.DateTime,
			},
			externalKey: key,
		}, nil

	case domain.TypeRanking:
		if req.Ranking == nil {
			return selector{}, domain.E(domain.KindInvalidInput, "ranking build requires a ranking selector")
		}
		rc := *req.Ranking
		key, err := keys.EncodeRankingKey(rc)
		if err != nil {
			return selector{}, err
		}
		filter := entities.Doc{"dateTime": rc.DateTime, "rankingPosition": rc.Position}
		if rc.StageID != "" {
			filter["_externalStageId"], filter["_externalStageIdScope"] = rc.StageID, rc.StageScope
		} else {
			filter["_externalEventId"], filter["_externalEventIdScope"] = rc.EventID, rc.EventScope
		}
		if rc.TeamID != "" {
			filter["_externalTeamId"], filter["_externalTeamIdScope"] = rc.TeamID, rc.TeamScope
		} else {
			filter["_externalSportsPersonId"], filter["_externalSportsPersonIdScope"] = rc.SportsPersonID, rc.SportsPersonScope
		}
		return selector{filter: filter, externalKey: key}, nil

	default:
		if req.Scope == "" || req.ID == "" {
			return selector{}, domain.E(domain.KindInvalidInput, "build requires externalIdScope and externalId")
		}
		return selector{
			filter: entities.Doc{
				domain.FieldExternalIDScope: req.Scope,
				domain.FieldExternalID:      req.ID,
			},
			externalKey: keys.EncodeEntityKey(req.ID, req.Scope),
		}, nil
	}
}

// Build runs the full write path for one entity. States: Invalid and
// Missing exit early with no side effects; Built means the upsert landed;
// Reconciled is the terminal state when peers were touched.
func (p *Processor) Build(ctx context.Context, req in.BuildRequest) (*in.BuildResult, error) {
	t, ok := domain.ParseResourceType(string(req.Type))
	if !ok {
		return nil, domain.E(domain.KindInvalidInput, "unknown entity type %q", string(req.Type))
	}
	sel, err := resolveSelector(in.BuildRequest{
		Type: t, Scope: req.Scope, ID: req.ID,
		Staff: req.Staff, KeyMoment: req.KeyMoment, Ranking: req.Ranking,
	})
	if err != nil {
		return nil, err
	}

	sourceColl := domain.CollectionFor(t)
	n, err := p.store.Count(ctx, sourceColl, sel.filter)
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "existence probe on %s", sourceColl)
	}
	if n == 0 {
		return nil, domain.E(domain.KindNotFound, "%s %q not found", t, sel.externalKey)
	}

	src, err := p.store.FindOne(ctx, sourceColl, sel.filter)
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "reading %s source", t)
	}
	if src == nil {
		return nil, domain.E(domain.KindNotFound, "%s %q not found", t, sel.externalKey)
	}

	// Old snapshot is looked up by (resourceType, gamedayId) so a source
	// whose external key moved still diffs against its previous document.
	var old *entities.Aggregation
	if gid := entities.GetString(src, domain.FieldGamedayID); gid != "" {
		oldDoc, err := p.store.FindOne(ctx, p.sink, entities.Doc{
			domain.FieldResourceType: string(t),
			domain.FieldGamedayID:    gid,
		})
		if err != nil {
			return nil, domain.Wrap(domain.KindStoreUnavailable, err, "reading old snapshot")
		}
		old = entities.AggregationFromDoc(oldDoc)
	}

	agg, err := p.assemble(ctx, t, sel.externalKey, src)
	if err != nil {
		return nil, err
	}

	if ctx.Err() != nil {
		// Nothing submitted yet: abort with no side effects.
		return nil, domain.Wrap(domain.KindTimeout, ctx.Err(), "cancelled before submission")
	}

	matchSelf := entities.Doc{
		domain.FieldResourceType: string(t),
		domain.FieldExternalKey:  sel.externalKey,
	}
	if _, err := p.store.BulkWrite(ctx, p.sink, []out.UpdateOp{{
		Filter:  matchSelf,
		Replace: agg.ToDoc(),
		Upsert:  true,
	}}); err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "upserting %s %q", t, sel.externalKey)
	}

	// The upsert is in; from here cancellation downgrades to a partial
	// success and reconciliation still runs to completion.
	result := &in.BuildResult{}
	if ctx.Err() != nil {
		result.Warning = "PartialSuccess: cancelled after submission"
		ctx = context.WithoutCancel(ctx)
	}

	newDoc, err := p.store.FindOne(ctx, p.sink, matchSelf)
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "re-reading %s %q", t, sel.externalKey)
	}
	if newDoc == nil {
		// Source passed the existence probe but the projection yielded
		// nothing: almost certainly a data shape mismatch. Surface, don't
		// guess.
		return nil, domain.E(domain.KindPostUpsertMissing,
			"materialised document missing after build of %s %q", t, sel.externalKey)
	}
	fresh := entities.AggregationFromDoc(newDoc)
	result.Aggregation = fresh

	report, recErr := p.reconciler.Reconcile(ctx, old, fresh)
	result.ReconcileOps = report.Ops
	if recErr != nil {
		if domain.IsKind(recErr, domain.KindReconcilerPartial) {
			slog.WarnContext(ctx, "reconciler partial failure",
				"externalKey", sel.externalKey, "ops", report.Ops, "err", recErr)
			result.Warning = strings.TrimSpace(result.Warning + " " + recErr.Error())
			return result, nil
		}
		return nil, recErr
	}

	slog.InfoContext(ctx, "build complete",
		"resourceType", t, "externalKey", sel.externalKey,
		"reconcileOps", report.Ops)
	return result, nil
}

// assemble executes the meta facet plus every relationship facet for the
// type against the source document and composes the materialised document.
// Facets run sequentially; the parallelism this system leans on is the
// batched lookups inside each resolver.
func (p *Processor) assemble(ctx context.Context, t domain.ResourceType, externalKey string, src entities.Doc) (*entities.Aggregation, error) {
	agg := entities.NewAggregation(t, externalKey)
	agg.GamedayID = entities.GetString(src, domain.FieldGamedayID)
	agg.ExternalID = entities.GetString(src, domain.FieldExternalID)
	agg.ExternalIDScope = entities.GetString(src, domain.FieldExternalIDScope)
	agg.Name = entities.DisplayName(src)
	agg.LastUpdated = p.now()

	if fields, err := keys.DecodeForType(t, externalKey); err == nil && len(fields) > 2 {
		// Compound-key types carry their identity fields verbatim so the
		// reconciler can repair peers without re-deriving them.
		agg.Extra = fields
	}

	for _, facet := range facets.For(t) {
		res, err := facet.Resolve(ctx, p.store, src)
		if err != nil {
			return nil, domain.Wrap(domain.KindStoreUnavailable, err,
				"resolving %s facet of %s %q", facet.Relation(), t, externalKey)
		}
		agg.SetProjection(facet.Relation(), res.IDs, res.Keys)
	}
	return agg, nil
}
