// Package metrics holds the Prometheus collectors for the service.
//
// Collectors are registered on a caller-supplied registry rather than the
// global default, so tests can build as many instances as they like.
// Every recording method is safe on a nil *Metrics and does nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "intellicrawl"

// Metrics groups every collector the service records to.
type Metrics struct {
	registry *prometheus.Registry

	StoreOperations *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	Searches        *prometheus.CounterVec
	AgentRuns       *prometheus.CounterVec
	Reconciled      *prometheus.CounterVec
	PendingRecords  prometheus.Gauge
}

// New creates the collectors and registers them, plus the Go runtime and
// process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Store operations by operation and the tier that served them.",
			},
			[]string{"op", "tier"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		Searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "searches_total",
				Help:      "Developer searches by outcome (ok, cached, error).",
			},
			[]string{"outcome"},
		),
		AgentRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_runs_total",
				Help:      "Agent workflow runs by type and source (ai, unavailable, template).",
			},
			[]string{"type", "source"},
		),
		Reconciled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconciled_records_total",
				Help:      "Fallback records pushed to the primary store, by result.",
			},
			[]string{"result"},
		),
		PendingRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pending_records",
				Help:      "Records held only by the fallback store after the last reconcile run.",
			},
		),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.StoreOperations,
		m.HTTPRequests,
		m.HTTPDuration,
		m.Searches,
		m.AgentRuns,
		m.Reconciled,
		m.PendingRecords,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StoreOp counts one store operation served by tier.
func (m *Metrics) StoreOp(op, tier string) {
	if m == nil {
		return
	}
	m.StoreOperations.WithLabelValues(op, tier).Inc()
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Search counts one search by outcome.
func (m *Metrics) Search(outcome string) {
	if m == nil {
		return
	}
	m.Searches.WithLabelValues(outcome).Inc()
}

// AgentRun counts one agent workflow by type and result source.
func (m *Metrics) AgentRun(agentType, source string) {
	if m == nil {
		return
	}
	m.AgentRuns.WithLabelValues(agentType, source).Inc()
}

// ReconcileResult records one reconcile run: synced and failed counts, and
// the records still pending afterwards.
func (m *Metrics) ReconcileResult(synced, failed, remaining int) {
	if m == nil {
		return
	}
	m.Reconciled.WithLabelValues("synced").Add(float64(synced))
	m.Reconciled.WithLabelValues("failed").Add(float64(failed))
	m.PendingRecords.Set(float64(remaining))
}
