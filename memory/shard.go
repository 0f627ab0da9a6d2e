package memory

import (
	"sync"

	"github.com/cachelon-go/cachelon/internal/util"
	"github.com/cachelon-go/cachelon/policy"
	"github.com/cachelon-go/cachelon/tier"
)

// shard is an independent partition of the tier with its own lock, map, and
// an intrusive doubly linked list (head=MRU, tail=LRU). Sharding exists
// purely to reduce lock contention; expiration semantics live one layer up.
type shard[K comparable, V any] struct {
	mu      sync.RWMutex
	m       map[K]*node[K, V]
	head    *node[K, V]
	tail    *node[K, V]
	len     int
	cost    int64
	cap     int
	maxCost int64

	pol policy.ShardPolicy[K, tier.CacheEntry[V]]
	opt Options[K, V]

	_      util.CacheLinePad
	evicts util.PaddedAtomicUint64
}

func newShard[K comparable, V any](capacity int, pol policy.Policy[K, tier.CacheEntry[V]], opt Options[K, V]) *shard[K, V] {
	s := &shard[K, V]{
		m:   make(map[K]*node[K, V], capacity),
		cap: capacity,
		opt: opt,
	}
	if opt.MaxCost > 0 {
		shards := opt.Shards
		if shards <= 0 {
			shards = util.ReasonableShardCount()
		}
		s.maxCost = (opt.MaxCost + int64(shards) - 1) / int64(shards)
	}
	s.pol = pol.New(shardHooks[K, V]{s: s})
	return s
}

// Insert admits or replaces key's entry and promotes it MRU. cost is the
// logical weight assigned to entry's value (0 if Options.Cost is nil).
func (s *shard[K, V]) Insert(key K, entry tier.CacheEntry[V], cost int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.m[key]; ok {
		old := int64(n.cost)
		n.entry = entry
		n.cost = cost
		s.cost += int64(cost) - old
		s.pol.OnUpdate(n)
		s.enforceLimitsLocked()
		return
	}

	n := &node[K, V]{key: key, entry: entry, cost: cost}
	s.m[key] = n
	if ev := s.pol.OnAdd(n); ev != nil {
		s.evictNode(ev.(*node[K, V]), EvictPolicy)
	}
	s.enforceLimitsLocked()
}

// Get returns the entry for key, promoting it according to the policy.
func (s *shard[K, V]) Get(key K) (tier.CacheEntry[V], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[key]
	if !ok {
		var zero tier.CacheEntry[V]
		return zero, false
	}
	s.pol.OnGet(n)
	return n.entry, true
}

// Remove deletes key if present and returns true on success.
func (s *shard[K, V]) Remove(key K) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[key]
	if !ok {
		return false
	}
	s.pol.OnRemove(n)
	s.removeNode(n)
	delete(s.m, key)
	if cb := s.opt.OnEvict; cb != nil {
		cb(n.key, n.entry, EvictExplicit)
	}
	return true
}

// Clear removes every entry in the shard, invoking OnEvict for each while
// still holding the shard lock (same synchronous-under-lock guarantee as
// Remove and evictNode).
func (s *shard[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.head
	var removed []*node[K, V]
	for n != nil {
		removed = append(removed, n)
		n = n.next
	}
	s.m = make(map[K]*node[K, V])
	s.head, s.tail, s.len, s.cost = nil, nil, 0, 0

	if cb := s.opt.OnEvict; cb != nil {
		for _, n := range removed {
			cb(n.key, n.entry, EvictExplicit)
		}
	}
}

// Len returns the number of resident entries in this shard.
func (s *shard[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.len
}

// -------------------- internals (mu held) --------------------

func (s *shard[K, V]) insertFront(n *node[K, V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
	s.cost += int64(n.cost)
}

func (s *shard[K, V]) moveToFront(n *node[K, V]) {
	if n == s.head {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
}

func (s *shard[K, V]) removeNode(n *node[K, V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
	s.cost -= int64(n.cost)
	if s.cost < 0 {
		s.cost = 0
	}
}

func (s *shard[K, V]) back() *node[K, V] { return s.tail }

func (s *shard[K, V]) evictNode(n *node[K, V], reason EvictReason) {
	s.pol.OnRemove(n)
	s.removeNode(n)
	delete(s.m, n.key)
	s.evicts.Add(1)
	s.opt.Metrics.Evict(reason)
	if cb := s.opt.OnEvict; cb != nil {
		cb(n.key, n.entry, reason)
	}
}

// enforceLimitsLocked evicts LRU entries until both the count and cost
// limits are satisfied.
func (s *shard[K, V]) enforceLimitsLocked() {
	for s.len > s.cap {
		if tail := s.back(); tail != nil {
			s.evictNode(tail, EvictCapacity)
		} else {
			break
		}
	}
	if s.maxCost > 0 {
		for s.cost > s.maxCost {
			if tail := s.back(); tail != nil {
				s.evictNode(tail, EvictCapacity)
			} else {
				break
			}
		}
	}
	s.opt.Metrics.Size(s.len, s.cost)
}

// -------------------- policy hooks --------------------

type shardHooks[K comparable, V any] struct{ s *shard[K, V] }

func (h shardHooks[K, V]) MoveToFront(x policy.Node[K, tier.CacheEntry[V]]) {
	h.s.moveToFront(x.(*node[K, V]))
}
func (h shardHooks[K, V]) PushFront(x policy.Node[K, tier.CacheEntry[V]]) {
	h.s.insertFront(x.(*node[K, V]))
}
func (h shardHooks[K, V]) Remove(x policy.Node[K, tier.CacheEntry[V]]) {
	h.s.removeNode(x.(*node[K, V]))
}
func (h shardHooks[K, V]) Back() policy.Node[K, tier.CacheEntry[V]] {
	if h.s.tail == nil {
		return nil
	}
	return h.s.tail
}
func (h shardHooks[K, V]) Len() int { return h.s.len }
