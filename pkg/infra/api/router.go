package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andrewspicymango/gameday-cross-collection-aggregations-poc-sub001/pkg/infra/metrics"
)

// NewRouter assembles the full HTTP surface. Fixed routes are registered
// before the catch-all fetch route.
func NewRouter(h *Handlers, m *metrics.Metrics) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(m))

	r.HandleFunc("/healthcheck", h.Healthcheck).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/log/debug", h.SetLogLevel(slog.LevelDebug)).Methods(http.MethodPost)
	r.HandleFunc("/log/info", h.SetLogLevel(slog.LevelInfo)).Methods(http.MethodPost)

	r.HandleFunc("/aggregate/staff/sp/{spScope}/{spId}/{role}/{orgScope}/{orgId}", h.AggregateStaff).Methods(http.MethodPost)
	r.HandleFunc("/aggregate/km/{eventScope}/{eventId}/{type}/{subType}/{dateTime}", h.AggregateKeyMoment).Methods(http.MethodPost)
	r.HandleFunc("/aggregate/rankings/{lType}/{lScope}/{lId}/{pType}/{pScope}/{pId}/{dateTime}/{position}", h.AggregateRanking).Methods(http.MethodPost)
	r.HandleFunc("/aggregate/{type}/{scope}/{id}", h.Aggregate).Methods(http.MethodPost)

	r.HandleFunc("/list/{type}/{externalKey}", h.List).Methods(http.MethodPost)
	r.HandleFunc("/{type}/{scope}/{id}", h.Fetch).Methods(http.MethodGet)

	return r
}
