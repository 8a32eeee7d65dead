// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestTotal counts HTTP requests by method, path and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weavebridge_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weavebridge_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	// PlansTotal counts planned queries by execution strategy.
	PlansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weavebridge_query_plans_total",
			Help: "Total number of planned queries by strategy",
		},
		[]string{"strategy"},
	)
	// StoreCallsTotal counts store calls by operation and outcome.
	StoreCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weavebridge_store_calls_total",
			Help: "Total number of store calls",
		},
		[]string{"operation", "status"},
	)
	// StoreCallDuration is the latency of store calls.
	StoreCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weavebridge_store_call_duration_seconds",
			Help:    "Store call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	// InsertFailuresTotal counts objects a batch insert rejected.
	InsertFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weavebridge_insert_failures_total",
			Help: "Total number of objects rejected by batch inserts",
		},
		[]string{"class"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// PathLabel reduces a request path to a low-cardinality label.
func PathLabel(p string) string {
	p = strings.Trim(p, "/")
	parts := strings.SplitN(p, "/", 3)
	if len(parts) >= 2 {
		return parts[0] + "_" + parts[1]
	}
	if len(parts) == 1 && parts[0] != "" {
		return parts[0]
	}
	return "root"
}

// Status is the outcome label for a call that returned err.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
