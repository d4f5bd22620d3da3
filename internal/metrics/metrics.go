// Package metrics provides Prometheus metrics for the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for the engine. Construct
// with New and register against a caller-owned registry so tests can
// use isolated registries.
type Metrics struct {
	// Sync metrics
	SyncRunsTotal       *prometheus.CounterVec
	SyncDuration        *prometheus.HistogramVec
	ClausesAddedTotal   *prometheus.CounterVec
	ClausesUpdatedTotal *prometheus.CounterVec
	ClausesRetiredTotal *prometheus.CounterVec

	// Parse metrics
	ParseEmptyTotal    *prometheus.CounterVec
	DuplicateKeysTotal *prometheus.CounterVec

	// Address resolution metrics
	ProviderRequestsTotal *prometheus.CounterVec
	ProviderFailuresTotal *prometheus.CounterVec
	ResolutionsTotal      *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := func(name, help string, labels ...string) *prometheus.CounterVec {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
		reg.MustRegister(c)
		return c
	}

	m := &Metrics{
		SyncRunsTotal:         factory("planaxis_sync_runs_total", "Sync runs by instrument and status", "instrument", "status"),
		ClausesAddedTotal:     factory("planaxis_clauses_added_total", "Clauses created by sync", "instrument"),
		ClausesUpdatedTotal:   factory("planaxis_clauses_updated_total", "Clause versions superseded by sync", "instrument"),
		ClausesRetiredTotal:   factory("planaxis_clauses_retired_total", "Clauses retired by sync", "instrument"),
		ParseEmptyTotal:       factory("planaxis_parse_empty_total", "Parse runs that produced zero clauses", "instrument"),
		DuplicateKeysTotal:    factory("planaxis_duplicate_clause_keys_total", "Duplicate clause keys dropped during sync", "instrument"),
		ProviderRequestsTotal: factory("planaxis_provider_requests_total", "Address provider requests", "provider"),
		ProviderFailuresTotal: factory("planaxis_provider_failures_total", "Address provider failures by cause", "provider", "cause"),
		ResolutionsTotal:      factory("planaxis_address_resolutions_total", "Address resolutions by decision", "decision"),
	}

	m.SyncDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planaxis_sync_duration_seconds",
		Help:    "Duration of instrument syncs in seconds",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"instrument"})
	reg.MustRegister(m.SyncDuration)

	return m
}

// NewNop returns metrics backed by a throwaway registry, for tests and
// callers that opt out of metrics export.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
