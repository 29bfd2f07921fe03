// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts handled requests.
	// Labels: method, route pattern, status code.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tracker_http_request_duration_seconds",
		Help:    "HTTP request duration",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"method", "route"})

	// IssueMutations counts mutation pipeline results.
	// Labels: op (create, update, delete), outcome (ok, unauthorized,
	// invalid, not_found, error).
	IssueMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_issue_mutations_total",
		Help: "Issue mutations by operation and outcome",
	}, []string{"op", "outcome"})

	// IssueListings counts successful listings by mode (paged, all).
	IssueListings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_issue_listings_total",
		Help: "Issue listings by mode",
	}, []string{"mode"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracker_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
