package tmdbcache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinematch_metadata_cache_hits_total",
		Help: "TMDB lookups served from the metadata cache.",
	}, []string{"operation"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinematch_metadata_cache_misses_total",
		Help: "TMDB lookups not found (or expired) in the metadata cache.",
	}, []string{"operation"})
)
