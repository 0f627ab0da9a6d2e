package memory

import (
	"github.com/cachelon-go/cachelon/clock"
	"github.com/cachelon-go/cachelon/policy"
	"github.com/cachelon-go/cachelon/tier"
)

// EvictReason explains why an entry was removed from a Tier.
type EvictReason int

const (
	// EvictPolicy — removed by the active eviction policy (LRU/2Q/...) to make
	// room for a new admission.
	EvictPolicy EvictReason = iota
	// EvictCapacity — removed to satisfy the entry-count or cost limit.
	EvictCapacity
	// EvictExplicit — removed by Invalidate or Clear.
	EvictExplicit
)

// Metrics exposes low-level, tier-internal observability hooks: capacity
// pressure and policy churn. This is distinct from telemetry.Sink, which
// reports cache-wide events (hit/miss/promotion/...) at the wrapper layer;
// a Tier has no notion of freshness or promotion, only occupancy.
type Metrics interface {
	Evict(reason EvictReason)
	Size(entries int, cost int64)
}

// NoopMetrics discards every call. It is the default when Options.Metrics is nil.
type NoopMetrics struct{}

func (NoopMetrics) Evict(EvictReason)   {}
func (NoopMetrics) Size(_ int, _ int64) {}

// Options configures a Tier. Zero values are safe; New applies defaults:
//   - Policy == nil  => LRU
//   - Shards <= 0    => auto (next power of two of ~2*GOMAXPROCS)
//   - Metrics == nil => NoopMetrics
//   - Clock == nil   => clock.New() (real wall clock)
type Options[K comparable, V any] struct {
	// Capacity is the total entry-count limit across all shards.
	Capacity int

	// Shards is the number of shards, rounded up to a power of two. 0 picks
	// an automatic value.
	Shards int

	// Policy is the pluggable eviction policy; nil defaults to LRU.
	Policy policy.Policy[K, tier.CacheEntry[V]]

	// Cost, if non-nil, assigns a logical weight to each entry's value.
	// MaxCost caps total resident cost (0 disables cost-based limiting).
	// Capacity-based and cost-based limiting compose: both must be
	// satisfied simultaneously.
	Cost    func(V) int
	MaxCost int64

	// OnEvict is invoked synchronously, under the shard lock, whenever an
	// entry leaves the tier for any reason. Keep it cheap.
	OnEvict func(key K, entry tier.CacheEntry[V], reason EvictReason)

	Metrics Metrics
	Clock   clock.Clock
}
