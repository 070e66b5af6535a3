package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/app/config"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/in"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/domain/ports/out"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/api"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/events"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/ioc"
	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/metrics"
)

func main() {
	cfg := config.Load()

	logLevel := new(slog.LevelVar)
	setupLogger(cfg, logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := ioc.Build(ctx, cfg)
	if err != nil {
		slog.ErrorContext(ctx, "error building container", "err", err)
		os.Exit(1)
	}

	var store out.Store
	var builder in.Builder
	var lister in.Lister
	var fetcher in.Fetcher
	var m *metrics.Metrics
	for _, resolve := range []any{&store, &builder, &lister, &fetcher, &m} {
		if err := c.Resolve(resolve); err != nil {
			slog.ErrorContext(ctx, "error resolving dependency", "err", err)
			os.Exit(1)
		}
	}

	if err := store.EnsureIndexes(ctx); err != nil {
		slog.ErrorContext(ctx, "error ensuring indexes", "err", err)
		os.Exit(1)
	}

	handlers := api.NewHandlers(builder, lister, fetcher, m, logLevel, cfg.ServiceName)
	server := &http.Server{
		Addr:         ":" + cfg.ExpressPort,
		Handler:      api.NewRouter(handlers, m),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	if cfg.KafkaEnabled() {
		consumer := events.NewConsumer(cfg, builder, m)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "build trigger consumer stopped", "err", err)
			}
		}()
	}

	go func() {
		slog.InfoContext(ctx, "server listening", "port", cfg.ExpressPort, "service", cfg.ServiceName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.ErrorContext(ctx, "server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.InfoContext(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "error during shutdown", "err", err)
	}
}

// setupLogger installs a JSON slog handler writing to stdout, or to
// LOG_PATH additionally when set.
func setupLogger(cfg config.Config, level *slog.LevelVar) {
	var w io.Writer = os.Stdout
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Error("error opening log file, using stdout", "path", cfg.LogPath, "err", err)
		} else {
			w = io.MultiWriter(os.Stdout, f)
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})).
		With("service", cfg.ServiceName))
}
