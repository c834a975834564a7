package request

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harness_http_requests_total",
		Help: "HTTP requests sent by the request wrapper, by method and status code.",
	}, []string{"method", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "harness_http_request_duration_seconds",
		Help:    "Latency of single HTTP attempts.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "harness_http_retries_total",
		Help: "Attempts repeated after a retryable failure.",
	})
)
