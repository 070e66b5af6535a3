// Package ioc wires the object graph with golobby singletons.
package ioc

import (
	"context"
	"log/slog"

	"github.com/golobby/container/v3"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/app/config"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/aggregation/services"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/in"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/traversal"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/db/memory"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/db/mongodb"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/metrics"
)

// Build registers every singleton the adapters resolve. The store binding
// dials MongoDB unless the config selects the in-memory adapter.
func Build(ctx context.Context, cfg config.Config) (container.Container, error) {
	c := container.New()

	if err := c.Singleton(func() config.Config { return cfg }); err != nil {
		return c, err
	}
	if err := c.Singleton(func() *metrics.Metrics { return metrics.New(cfg.ServiceName) }); err != nil {
		return c, err
	}

	if err := c.Singleton(func(cfg config.Config) (out.Store, error) {
		if cfg.UseMemoryStore() {
			slog.InfoContext(ctx, "using in-memory store")
			return memory.NewStore(), nil
		}
		client, err := mongodb.Connect(ctx, cfg.MongoURL)
		if err != nil {
			return nil, err
		}
		return mongodb.NewStore(client, cfg.MongoDB, cfg.MatAggColl), nil
	}); err != nil {
		return c, err
	}

	if err := c.Singleton(func(store out.Store, cfg config.Config) in.Builder {
		reconciler := services.NewReconciler(store, cfg.MatAggColl)
		return services.NewProcessor(store, cfg.MatAggColl, reconciler)
	}); err != nil {
		return c, err
	}
	if err := c.Singleton(func(store out.Store, cfg config.Config) in.Lister {
		return traversal.NewExecutor(store, cfg.MatAggColl)
	}); err != nil {
		return c, err
	}
	if err := c.Singleton(func(store out.Store) in.Fetcher {
		return services.NewFetchService(store)
	}); err != nil {
		return c, err
	}

	return c, nil
}
