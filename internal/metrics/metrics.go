// Package metrics provides Prometheus instrumentation for the moderation
// services. It exposes counters for event and decision throughput, failure
// counters for external calls, and a histogram for classification latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsTotal counts inbound events processed, labeled by event type:
	// "message" or "membership".
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guardbot_events_total",
		Help: "Total number of inbound events processed",
	}, []string{"type"})

	// DecisionsTotal counts pipeline decisions, labeled by outcome:
	// "allow", "exempt", or "delete".
	DecisionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "guardbot_decisions_total",
		Help: "Total number of moderation decisions",
	}, []string{"outcome"})

	// RoleQueryFailures counts failed admin role lookups (each one is a
	// fail-closed non-exemption).
	RoleQueryFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guardbot_role_query_failures_total",
		Help: "Total number of failed admin role lookups",
	})

	// DeleteFailures counts deletion requests the platform rejected.
	DeleteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guardbot_delete_failures_total",
		Help: "Total number of failed message deletions",
	})

	// BansRequested counts escalations to a ban request.
	BansRequested = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guardbot_bans_requested_total",
		Help: "Total number of ban requests issued after repeated offenses",
	})

	// ClassifyDuration records spam classification latency in seconds.
	ClassifyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "guardbot_classify_duration_seconds",
		Help:    "Spam classification latency in seconds",
		Buckets: []float64{.00001, .0001, .001, .005, .01, .05, .1},
	})

	// TrackedMembers tracks the current size of the in-memory join tracker.
	TrackedMembers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "guardbot_tracked_members",
		Help: "Current number of tracked chat members",
	})
)

func init() {
	prometheus.MustRegister(
		EventsTotal,
		DecisionsTotal,
		RoleQueryFailures,
		DeleteFailures,
		BansRequested,
		ClassifyDuration,
		TrackedMembers,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
