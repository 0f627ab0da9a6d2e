// Package tier defines the storage contract that every cache backend must
// satisfy, the cache entry value type, and the expiration evaluator that
// decides fresh/stale/expired from an entry and "now".
package tier

import "time"

// CacheEntry wraps a value with optional cached-at timestamp and optional
// per-entry TTL override. It is an immutable value type: updates replace the
// entry rather than mutating it in place (spec §3).
type CacheEntry[V any] struct {
	value    V
	cachedAt time.Time
	hasTTL   bool
	ttl      time.Duration
}

// New creates an entry with no TTL tracking; it never expires unless a
// tier-level TTL is configured above it.
func New[V any](value V) CacheEntry[V] {
	return CacheEntry[V]{value: value}
}

// ExpiresAfter creates an entry that expires after ttl has elapsed from
// insertion time. The timestamp is stamped by the tier on insert (via
// EnsureCachedAt); the per-entry TTL takes precedence over any tier-level TTL.
func ExpiresAfter[V any](value V, ttl time.Duration) CacheEntry[V] {
	return CacheEntry[V]{value: value, hasTTL: true, ttl: ttl}
}

// ExpiresAt creates an entry that expires at cachedAt+ttl. Primarily useful
// for reconstructing persisted entries and for tests that need a fixed
// timestamp (spec §4.2).
func ExpiresAt[V any](value V, ttl time.Duration, cachedAt time.Time) CacheEntry[V] {
	return CacheEntry[V]{value: value, cachedAt: cachedAt, hasTTL: true, ttl: ttl}
}

// Value returns the wrapped value.
func (e CacheEntry[V]) Value() V { return e.value }

// CachedAt returns the timestamp this entry was cached at and whether one is
// set. Entries created with New or ExpiresAfter have none until a tier stamps
// one via EnsureCachedAt.
func (e CacheEntry[V]) CachedAt() (time.Time, bool) {
	return e.cachedAt, !e.cachedAt.IsZero()
}

// TTL returns the per-entry TTL override and whether one is set. When set,
// this takes precedence over any tier-level TTL (spec §3, §4.2).
func (e CacheEntry[V]) TTL() (time.Duration, bool) { return e.ttl, e.hasTTL }

// EnsureCachedAt returns a copy of e with cachedAt set to t, unless e already
// has a cached-at timestamp, in which case e is returned unchanged. This is
// the Go analogue of ensure_cached_at: cached_at, once set, is never moved
// backwards.
func (e CacheEntry[V]) EnsureCachedAt(t time.Time) CacheEntry[V] {
	if !e.cachedAt.IsZero() {
		return e
	}
	e.cachedAt = t
	return e
}

// WithTTL returns a copy of e with its per-entry TTL set to ttl.
func (e CacheEntry[V]) WithTTL(ttl time.Duration) CacheEntry[V] {
	e.hasTTL = true
	e.ttl = ttl
	return e
}
