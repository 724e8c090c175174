package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// System metrics
	SystemMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relfeat_system_memory_bytes",
		Help: "Current system memory usage",
	})

	SystemGoroutines = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relfeat_system_goroutines",
		Help: "Number of goroutines",
	})

	// Extraction metrics
	EvidenceQueueLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "relfeat_evidence_queue_length",
		Help: "Number of evidences waiting for feature extraction",
	})

	ExtractionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "relfeat_extraction_duration_seconds",
			Help: "Time spent extracting features from a batch of evidences",
		},
		[]string{"status"},
	)

	FeatureEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relfeat_feature_evaluations_total",
			Help: "Total number of feature evaluations",
		},
		[]string{"kind", "status"},
	)

	// Rule metrics
	RuleMatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relfeat_rule_matches_total",
			Help: "Rule evaluations by outcome",
		},
		[]string{"outcome"},
	)

	// Resolver metrics
	FeatureLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relfeat_feature_lookups_total",
			Help: "Feature spec resolutions by result",
		},
		[]string{"result"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relfeat_cache_hits_total",
			Help: "Number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relfeat_cache_misses_total",
			Help: "Number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relfeat_cache_evictions_total",
			Help: "Number of cache entries dropped to stay within the cache bound",
		},
		[]string{"cache_type"},
	)
)

// UpdateSystemMetrics updates system-level metrics
func UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	SystemMemoryUsage.Set(float64(m.Alloc))
	SystemGoroutines.Set(float64(runtime.NumGoroutine()))
}
