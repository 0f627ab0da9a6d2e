// Package memory implements an in-process, sharded tier.Tier backed by a
// pluggable eviction policy (LRU or 2Q). It is the fastest, smallest tier in
// a typical fallback chain and carries no knowledge of freshness: it stores
// whatever tier.CacheEntry it is given and returns it unchanged on Get,
// leaving expiration evaluation to the layer above (spec's wrapper).
package memory

import (
	"context"
	"math"
	"runtime"
	"sync/atomic"

	"github.com/cachelon-go/cachelon/clock"
	"github.com/cachelon-go/cachelon/internal/util"
	"github.com/cachelon-go/cachelon/policy/lru"
	"github.com/cachelon-go/cachelon/tier"
)

// Tier is a sharded, in-memory tier.Tier[K,V] implementation. All methods
// are safe for concurrent use by multiple goroutines.
type Tier[K comparable, V any] struct {
	shards []*shard[K, V]
	hash   func(K) uint64
	clock  clock.Clock
	closed atomic.Bool
	opt    Options[K, V]
}

var _ cachelonTier[string, int] = (*Tier[string, int])(nil)

// cachelonTier pins Tier to the tier.Tier contract at compile time without
// importing tier twice under two names.
type cachelonTier[K comparable, V any] interface {
	Get(ctx context.Context, key K) (tier.CacheEntry[V], bool, error)
	Insert(ctx context.Context, key K, entry tier.CacheEntry[V]) error
	Invalidate(ctx context.Context, key K) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (uint64, bool)
	IsEmpty(ctx context.Context) (bool, bool)
}

// New constructs a Tier with the given Options. Capacity must be positive.
func New[K comparable, V any](opt Options[K, V]) *Tier[K, V] {
	if opt.Capacity <= 0 {
		panic("memory: Capacity must be > 0")
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	if opt.Policy == nil {
		opt.Policy = lru.New[K, tier.CacheEntry[V]]()
	}
	if opt.Clock == nil {
		opt.Clock = clock.New()
	}

	sh := opt.Shards
	if sh <= 0 {
		auto := 2 * runtime.GOMAXPROCS(0)
		sh = int(util.NextPow2(uint64(auto)))
		if sh < 1 {
			sh = 1
		}
	} else {
		sh = int(util.NextPow2(uint64(sh)))
	}
	opt.Shards = sh // newShard splits MaxCost by the actual shard count

	shards := make([]*shard[K, V], sh)
	perShardCap := (opt.Capacity + sh - 1) / sh
	for i := range shards {
		shards[i] = newShard[K, V](perShardCap, opt.Policy, opt)
	}

	return &Tier[K, V]{
		shards: shards,
		hash:   util.Fnv64a[K],
		clock:  opt.Clock,
		opt:    opt,
	}
}

// Get returns the entry stored for key, if any. It never evaluates
// freshness: a caller that wants staleness semantics must run the result
// through tier.Expire itself.
func (t *Tier[K, V]) Get(ctx context.Context, key K) (tier.CacheEntry[V], bool, error) {
	if t.closed.Load() {
		var zero tier.CacheEntry[V]
		return zero, false, nil
	}
	entry, ok := t.shardFor(key).Get(key)
	return entry, ok, nil
}

// Insert admits or replaces key's entry, promoting it according to the
// active eviction policy. If entry has no cached-at timestamp, Insert
// stamps one using the tier's clock, per the CacheEntry contract that a
// tier must never leave cached_at unset.
func (t *Tier[K, V]) Insert(ctx context.Context, key K, entry tier.CacheEntry[V]) error {
	if t.closed.Load() {
		return nil
	}
	entry = entry.EnsureCachedAt(t.clock.Now())
	t.shardFor(key).Insert(key, entry, t.costOf(entry.Value()))
	return nil
}

// Invalidate removes key if present. Removing an absent key is not an error.
func (t *Tier[K, V]) Invalidate(ctx context.Context, key K) error {
	if t.closed.Load() {
		return nil
	}
	t.shardFor(key).Remove(key)
	return nil
}

// Clear removes every entry from every shard.
func (t *Tier[K, V]) Clear(ctx context.Context) error {
	if t.closed.Load() {
		return nil
	}
	for _, s := range t.shards {
		s.Clear()
	}
	return nil
}

// Len returns the total number of resident entries across all shards. The
// second return value is always true: this tier always knows its own size.
func (t *Tier[K, V]) Len(ctx context.Context) (uint64, bool) {
	total := 0
	for _, s := range t.shards {
		total += s.Len()
	}
	return uint64(total), true
}

// IsEmpty reports whether the tier currently holds no entries.
func (t *Tier[K, V]) IsEmpty(ctx context.Context) (bool, bool) {
	n, _ := t.Len(ctx)
	return n == 0, true
}

// Close marks the tier closed; subsequent operations become no-ops. Existing
// entries are left in place, mirroring a soft shutdown rather than a Clear.
func (t *Tier[K, V]) Close() error {
	t.closed.Store(true)
	return nil
}

func (t *Tier[K, V]) shardFor(key K) *shard[K, V] {
	h := t.hash(key)
	idx := int(h) & (len(t.shards) - 1)
	return t.shards[idx]
}

func (t *Tier[K, V]) costOf(v V) int32 {
	if t.opt.Cost == nil {
		return 0
	}
	c := t.opt.Cost(v)
	if c < 0 {
		c = 0
	}
	if c > math.MaxInt32 {
		c = math.MaxInt32
	}
	return int32(c)
}
