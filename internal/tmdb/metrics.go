package tmdb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinematch_tmdb_requests_total",
		Help: "TMDB API requests by operation and HTTP status (or error/throttled).",
	}, []string{"operation", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cinematch_tmdb_request_duration_seconds",
		Help:    "TMDB API request latency.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cinematch_tmdb_circuit_state",
		Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
	}, []string{"name"})

	breakerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinematch_tmdb_circuit_rejections_total",
		Help: "Calls rejected because the circuit breaker was open.",
	}, []string{"name"})
)

func observeRequest(operation, status string, latency time.Duration) {
	requestsTotal.WithLabelValues(operation, status).Inc()
	if latency > 0 {
		requestDuration.WithLabelValues(operation).Observe(latency.Seconds())
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
