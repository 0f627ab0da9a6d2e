// Package memory provides a fast, generic, sharded tier.Tier implementation
// with pluggable eviction policies (LRU by default), optional cost-based
// capacity limiting, and lightweight eviction metrics hooks.
//
// Design
//
//   - Concurrency: the tier is split into shards, each protected by an
//     RWMutex. The default shard count is chosen by a heuristic
//     (util.ReasonableShardCount) and is a power of two, reducing contention
//     while keeping memory overhead small.
//
//   - Storage: each shard keeps a map[K]*node for lookups and an intrusive
//     MRU<->LRU doubly linked list for ordering. All operations are O(1)
//     expected.
//
//   - Policies: eviction policy is pluggable via the policy package. LRU is
//     the default; a 2Q policy is also available and resists scan pollution.
//
//   - Freshness: this tier stores tier.CacheEntry values opaquely and never
//     interprets TTL/TTR itself — that's the cache wrapper's job, layered on
//     top via tier.Expire. The tier's only notion of "stale" is eviction
//     pressure: entries leave when capacity or cost limits are exceeded.
//
//   - Cost/MaxCost: besides entry count (Options.Capacity), a user-defined
//     "cost" per value (Options.Cost) can be accounted and a global MaxCost
//     enforced; shards split the MaxCost budget evenly.
//
//   - Metrics: Options.Metrics receives Evict/Size signals. NoopMetrics is
//     used by default; see telemetry/prom for a Prometheus-backed sink at
//     the wrapper layer, and this package's own Metrics hook for tier-local
//     capacity observability.
package memory
