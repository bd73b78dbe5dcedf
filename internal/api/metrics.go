package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipes_http_requests_total",
			Help: "Total number of HTTP requests by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recipes_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "recipes_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	rateLimitedRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipes_rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter.",
	})

	panicsRecovered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipes_panics_recovered_total",
		Help: "Handler panics recovered by the server.",
	})

	recipesImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipes_imported_total",
		Help: "Recipes committed by bulk imports.",
	})

	importFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recipes_import_failures_total",
		Help: "Bulk imports that were rolled back or rejected.",
	})
)
