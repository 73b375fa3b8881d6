package recommend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeOK            = "ok"
	outcomeSearchFailed  = "search_failed"
	outcomeNoResults     = "no_results"
	outcomeDetailsFailed = "details_failed"
)

var (
	enrichmentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinematch_enrichment_total",
		Help: "Candidate enrichments by outcome (ok, search_failed, no_results, details_failed).",
	}, []string{"outcome"})

	recommendDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cinematch_recommend_duration_seconds",
		Help:    "End-to-end recommendation latency by result kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
)
