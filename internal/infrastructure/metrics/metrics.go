// Package metrics defines and registers the Prometheus metrics of the fleet
// state layer. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default registry on package init via
// promauto; the embedding process decides whether and where to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fleet_client"

// ── HTTP boundary ─────────────────────────────────────────────────────────────

// RequestsTotal counts completed calls to the fleet API.
// Labels:
//   - method: HTTP method
//   - code: HTTP status code, or "transport" when no response was received
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of fleet API requests, by method and response code.",
	},
	[]string{"method", "code"},
)

// RequestDuration measures round-trip latency of fleet API calls.
var RequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "request_duration_seconds",
		Help:      "Duration of fleet API requests from send to decoded response.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"method"},
)

// ── Entity stores ─────────────────────────────────────────────────────────────

// StoreFetchTotal counts FetchAll outcomes.
// Labels:
//   - store: "trains", "carriages", "maintenances" or "employees"
//   - result: "applied", "stale" or "error"
var StoreFetchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "store_fetch_total",
		Help:      "Total number of collection fetches, by store and result.",
	},
	[]string{"store", "result"},
)

// StaleResponsesTotal counts fetch responses discarded because a newer fetch
// had already been applied.
var StaleResponsesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_responses_total",
		Help:      "Total number of out-of-order fetch responses discarded, by store.",
	},
	[]string{"store"},
)

// StoreItems tracks the size of each store's current collection.
var StoreItems = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "store_items",
		Help:      "Number of entities currently cached, by store.",
	},
	[]string{"store"},
)

// ── Session ───────────────────────────────────────────────────────────────────

// SessionEventsTotal counts session lifecycle transitions.
// Label:
//   - event: "logged_in", "login_failed", "logged_out", "restored", "invalidated"
var SessionEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_events_total",
		Help:      "Total number of session lifecycle events, by event.",
	},
	[]string{"event"},
)
