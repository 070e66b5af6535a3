// Package metrics exposes the service's Prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors the adapters observe into.
type Metrics struct {
	Registry *prometheus.Registry

	BuildsTotal   *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
	ReconcileOps  prometheus.Counter
	ListQueries   *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	TriggersTotal *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		Registry: registry,
		BuildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "aggregation_builds_total",
			Help:        "Materialised aggregation builds by entity type and outcome.",
			ConstLabels: labels,
		}, []string{"type", "status"}),
		BuildDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "aggregation_build_duration_seconds",
			Help:        "Wall time of one build, existence probe through reconcile.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"type"}),
		ReconcileOps: factory.NewCounter(prometheus.CounterOpts{
			Name:        "aggregation_reconcile_ops_total",
			Help:        "Peer mutations submitted by the reference reconciler.",
			ConstLabels: labels,
		}),
		ListQueries: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "aggregation_list_queries_total",
			Help:        "Traversal list queries by root type and outcome.",
			ConstLabels: labels,
		}, []string{"root", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP handler latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"route", "method", "code"}),
		TriggersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name:        "aggregation_triggers_total",
			Help:        "Build triggers consumed from the broker by outcome.",
			ConstLabels: labels,
		}, []string{"status"}),
	}
}
