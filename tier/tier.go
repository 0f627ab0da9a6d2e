package tier

import "context"

// Tier is the storage contract every cache backend implements: in-memory
// stores, remote clients, and test doubles alike. The cache wrapper layers
// TTL/TTR interpretation, coalescing, refresh, fallback, and telemetry on
// top without any Tier implementation knowing about those concerns
// (spec §4.1).
//
// Only Get and Insert carry real semantics for every implementation;
// Clear may be a no-op, and Len/IsEmpty may report ok == false, for tiers
// that don't support clearing or don't track size.
type Tier[K comparable, V any] interface {
	// Get returns the entry for key, or ok == false on miss. A tier may
	// return stale entries unconditionally — the wrapper above it decides
	// what "stale" means by calling Expire on the result.
	Get(ctx context.Context, key K) (entry CacheEntry[V], ok bool, err error)

	// Insert inserts or overwrites the entry for key. The tier must call
	// EnsureCachedAt if entry has no cached-at timestamp, and must not
	// overwrite a caller-supplied one.
	Insert(ctx context.Context, key K, entry CacheEntry[V]) error

	// Invalidate removes key if present; absence is not an error.
	Invalidate(ctx context.Context, key K) error

	// Clear removes all entries. A conforming tier may no-op if it does
	// not support bulk clearing.
	Clear(ctx context.Context) error

	// Len reports the current entry count. ok == false means "not tracked".
	Len(ctx context.Context) (n uint64, ok bool)

	// IsEmpty reports whether the tier holds no entries. ok == false means
	// "not tracked".
	IsEmpty(ctx context.Context) (empty bool, ok bool)
}
