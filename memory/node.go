package memory

import "github.com/cachelon-go/cachelon/tier"

// node is an intrusive doubly linked list element owned by a shard. It
// stores the key and the tier's CacheEntry (which itself carries the value,
// cached-at timestamp, and optional per-entry TTL) alongside list links and
// the cost used for cost-based limiting.
type node[K comparable, V any] struct {
	key   K
	entry tier.CacheEntry[V]

	prev *node[K, V] // toward LRU
	next *node[K, V] // toward MRU

	cost int32
}

// Key returns the node key (part of policy.Node).
func (n *node[K, V]) Key() K { return n.key }

// Value returns a pointer to the stored entry (part of policy.Node). Callers
// must only dereference it while holding the owning shard's lock.
func (n *node[K, V]) Value() *tier.CacheEntry[V] { return &n.entry }
