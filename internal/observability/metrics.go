package observability

import "github.com/prometheus/client_golang/prometheus"

// Domain collectors for the hold subsystem. HTTP-level collectors live in the
// middleware package; these count business outcomes.
var (
	// HoldOutcomes counts acquire/release results by outcome
	// (acquired, existing, held, released, error).
	HoldOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "holds_outcomes_total",
			Help: "Hold lifecycle outcomes by kind.",
		},
		[]string{"outcome"},
	)

	// CheckFailOpen counts hold checks answered "not locked" because the
	// lock store could not be read.
	CheckFailOpen = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "holds_check_fail_open_total",
		Help: "Hold checks that failed open on a storage read error.",
	})

	// RateLimited counts rejected requests by operation.
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_rejected_total",
			Help: "Requests rejected by the fixed-window limiter.",
		},
		[]string{"operation"},
	)

	// TenantCacheHits, TenantCacheMisses and TenantCacheEvictions track the
	// tenant resolution cache.
	TenantCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenant_cache_hits_total",
		Help: "Tenant cache lookups served from cache (including negative entries).",
	})
	TenantCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenant_cache_misses_total",
		Help: "Tenant cache lookups that went to the tenant store.",
	})
	TenantCacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenant_cache_evictions_total",
		Help: "Tenant cache entries evicted by capacity.",
	})

	// WaitlistPublishFailures counts waitlist events that could not be
	// handed to the broker.
	WaitlistPublishFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "waitlist_publish_failures_total",
		Help: "Waitlist joined events that failed to publish.",
	})
)

func init() {
	prometheus.MustRegister(
		HoldOutcomes,
		CheckFailOpen,
		RateLimited,
		TenantCacheHits,
		TenantCacheMisses,
		TenantCacheEvictions,
		WaitlistPublishFailures,
	)
}
