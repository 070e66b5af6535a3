package facets

import (
	"context"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// participantKind selects which side of a participant entry a facet wants.
type participantKind int

const (
	wantTeams participantKind = iota
	wantSportsPersons
)

// classifyParticipants extracts the wanted references from participant
// entries. An entry carrying both a team and a sports-person identity is a
// sports-person; one carrying only a team identity is a team; entries
// missing both are dropped.
func classifyParticipants(entries []entities.Doc, want participantKind) []ref {
	var refs []ref
	for _, entry := range entries {
		teamRef, hasTeam := refFrom(entry, pairTeam)
		spRef, hasSP := refFrom(entry, pairSportsPerson)
		switch {
		case hasSP:
			if want == wantSportsPersons {
				refs = append(refs, spRef)
			}
		case hasTeam:
			if want == wantTeams {
				refs = append(refs, teamRef)
			}
		}
	}
	return refs
}

func (k participantKind) collection() string {
	if k == wantTeams {
		return domain.CollectionFor(domain.TypeTeam)
	}
	return domain.CollectionFor(domain.TypeSportsPerson)
}

func (k participantKind) relation() domain.Relation {
	if k == wantTeams {
		return domain.RelTeams
	}
	return domain.RelSportsPersons
}

// participantsEmbedded classifies the source's own participants array
// (events carry one).
type participantsEmbedded struct {
	want participantKind
}

func (f participantsEmbedded) Relation() domain.Relation { return f.want.relation() }

func (f participantsEmbedded) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	refs := classifyParticipants(entities.GetDocs(src, "participants"), f.want)
	return resolveRefs(ctx, store, f.want.collection(), refs)
}

// participantsVia walks to an intermediate collection first (a
// competition's or stage's events), then classifies the participants of
// every intermediate document. Intermediate sets are deduped before the
// final resolve so the fan-out stays bounded.
type participantsVia struct {
	viaColl string
	via     viaFilter
	want    participantKind
}

func (f participantsVia) Relation() domain.Relation { return f.want.relation() }

func (f participantsVia) Resolve(ctx context.Context, store out.Store, src entities.Doc) (Result, error) {
	self, ok := ownRef(src)
	if !ok {
		return emptyResult(), nil
	}
	docs, err := store.FindAll(ctx, f.viaColl, f.via(self), nil)
	if err != nil {
		return emptyResult(), err
	}
	var refs []ref
	for _, doc := range docs {
		refs = append(refs, classifyParticipants(entities.GetDocs(doc, "participants"), f.want)...)
	}
	return resolveRefs(ctx, store, f.want.collection(), refs)
}
