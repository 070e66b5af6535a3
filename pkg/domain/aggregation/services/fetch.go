package services

import (
	"context"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/entities"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/in"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
)

// FetchService is the simple read path: one source document by external
// pair or gamedayId. No materialisation involved.
type FetchService struct {
	store out.Store
}

// NewFetchService builds the single-fetch port implementation.
func NewFetchService(store out.Store) *FetchService {
	return &FetchService{store: store}
}

var _ in.Fetcher = (*FetchService)(nil)

func (s *FetchService) FetchByExternalID(ctx context.Context, t domain.ResourceType, scope, id string) (entities.Doc, error) {
	rt, ok := domain.ParseResourceType(string(t))
	if !ok {
		return nil, domain.E(domain.KindInvalidInput, "unknown entity type %q", string(t))
	}
	if scope == "" || id == "" {
		return nil, domain.E(domain.KindInvalidInput, "scope and id required")
	}
	doc, err := s.store.FindOne(ctx, domain.CollectionFor(rt), entities.Doc{
		domain.FieldExternalIDScope: scope,
		domain.FieldExternalID:      id,
	})
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "fetching %s %s/%s", rt, scope, id)
	}
	if doc == nil {
		return nil, domain.E(domain.KindNotFound, "%s %s/%s not found", rt, scope, id)
	}
	return doc, nil
}

func (s *FetchService) FetchByGamedayID(ctx context.Context, t domain.ResourceType, gamedayID string) (entities.Doc, error) {
	rt, ok := domain.ParseResourceType(string(t))
	if !ok {
		return nil, domain.E(domain.KindInvalidInput, "unknown entity type %q", string(t))
	}
	if gamedayID == "" {
		return nil, domain.E(domain.KindInvalidInput, "gamedayId required")
	}
	doc, err := s.store.FindOne(ctx, domain.CollectionFor(rt), entities.Doc{
		domain.FieldGamedayID: gamedayID,
	})
	if err != nil {
		return nil, domain.Wrap(domain.KindStoreUnavailable, err, "fetching %s %s", rt, gamedayID)
	}
	if doc == nil {
		return nil, domain.E(domain.KindNotFound, "%s %s not found", rt, gamedayID)
	}
	return doc, nil
}
