package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts pages served from Redis.
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wikiload_cache_hits_total",
			Help: "Total number of page cache hits",
		},
	)

	// CacheMisses counts lookups that found nothing.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wikiload_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wikiload_cache_errors_total",
			Help: "Total number of page cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
