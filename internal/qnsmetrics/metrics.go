// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package qnsmetrics exposes the engine's Prometheus instrumentation:
// evaluate() call counts, restriction add/release events, handover
// counts, and per-session qualified-list flips (P1), grounded on the
// teacher's internal/metrics collector shape but rebuilt directly on
// client_golang rather than a bespoke rate-calculating snapshot struct,
// since this engine has no interface byte counters to aggregate.
package qnsmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns the engine's metric set, registered against the
// Registerer given to NewCollector; every metric carries a slot label,
// so one Collector can serve all the engines of a daemon.
type Collector struct {
	Evaluations       *prometheus.CounterVec
	QualifiedListFlip *prometheus.CounterVec
	RestrictionAdd    *prometheus.CounterVec
	RestrictionRemove *prometheus.CounterVec
	Handovers         *prometheus.CounterVec
	ActiveRestrictions *prometheus.GaugeVec
}

// NewCollector builds a Collector with its metrics already registered
// against reg. Pass prometheus.NewRegistry() for test isolation, or
// prometheus.DefaultRegisterer-backed registry in the daemon.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qns",
			Name:      "evaluations_total",
			Help:      "Number of evaluate() calls performed by the ANE.",
		}, []string{"slot", "session"}),
		QualifiedListFlip: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qns",
			Name:      "qualified_list_flips_total",
			Help:      "Number of times the published qualified-network list changed (P1).",
		}, []string{"slot", "session"}),
		RestrictionAdd: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qns",
			Name:      "restriction_added_total",
			Help:      "Number of restrictions added to the ledger, by kind.",
		}, []string{"slot", "transport", "kind"}),
		RestrictionRemove: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qns",
			Name:      "restriction_removed_total",
			Help:      "Number of restrictions removed from the ledger, by kind.",
		}, []string{"slot", "transport", "kind"}),
		Handovers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qns",
			Name:      "handovers_total",
			Help:      "Number of successful transport handovers, by destination transport.",
		}, []string{"slot", "to_transport"}),
		ActiveRestrictions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "qns",
			Name:      "active_restrictions",
			Help:      "Current number of active restrictions per transport.",
		}, []string{"slot", "transport"}),
	}

	reg.MustRegister(
		c.Evaluations,
		c.QualifiedListFlip,
		c.RestrictionAdd,
		c.RestrictionRemove,
		c.Handovers,
		c.ActiveRestrictions,
	)
	return c
}
