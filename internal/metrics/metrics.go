// Package metrics defines and registers all custom Prometheus metrics
// for the HealthConnect portal. It is the single source of truth for
// metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// BackendRequestsTotal counts calls to the HealthConnect REST backend.
// Labels:
//   - endpoint: logical operation (e.g. "login", "users", "me")
//   - outcome:  "ok" or "error"
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of requests issued to the HealthConnect backend.",
	},
	[]string{"endpoint", "outcome"},
)

// BackendRequestDuration measures backend round-trip time per endpoint.
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of HealthConnect backend requests.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"endpoint"},
)

// LoginsTotal counts portal login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionClearsTotal counts the times a failed user fetch tore down the
// session (token and cached user cleared together).
var SessionClearsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_clears_total",
		Help:      "Total number of sessions invalidated after a failed user fetch.",
	},
)
