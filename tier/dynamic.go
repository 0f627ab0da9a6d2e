package tier

import "context"

// BoxedTier is a type-erased, clonable Tier handle. It wraps a concrete
// Tier[K,V] behind one extra indirection so heterogeneous concrete tier
// implementations can live in the same container (e.g. a config-driven
// chain of memory and remote tiers) — the Go analogue of cachelon_tier's
// DynamicCache wrapping a boxed trait object.
//
// Calling through BoxedTier costs one extra indirection per operation
// compared to calling the concrete Tier directly; semantics, including
// error propagation, are otherwise identical.
type BoxedTier[K comparable, V any] struct {
	inner Tier[K, V]
}

// IntoBoxed wraps any Tier implementation as a BoxedTier. This is the Go
// analogue of DynamicCacheExt::into_dynamic.
func IntoBoxed[K comparable, V any](t Tier[K, V]) BoxedTier[K, V] {
	if bt, ok := t.(BoxedTier[K, V]); ok {
		return bt
	}
	return BoxedTier[K, V]{inner: t}
}

// Get implements Tier by forwarding to the wrapped tier.
func (b BoxedTier[K, V]) Get(ctx context.Context, key K) (CacheEntry[V], bool, error) {
	return b.inner.Get(ctx, key)
}

// Insert implements Tier by forwarding to the wrapped tier.
func (b BoxedTier[K, V]) Insert(ctx context.Context, key K, entry CacheEntry[V]) error {
	return b.inner.Insert(ctx, key, entry)
}

// Invalidate implements Tier by forwarding to the wrapped tier.
func (b BoxedTier[K, V]) Invalidate(ctx context.Context, key K) error {
	return b.inner.Invalidate(ctx, key)
}

// Clear implements Tier by forwarding to the wrapped tier.
func (b BoxedTier[K, V]) Clear(ctx context.Context) error {
	return b.inner.Clear(ctx)
}

// Len implements Tier by forwarding to the wrapped tier.
func (b BoxedTier[K, V]) Len(ctx context.Context) (uint64, bool) {
	return b.inner.Len(ctx)
}

// IsEmpty implements Tier by forwarding to the wrapped tier.
func (b BoxedTier[K, V]) IsEmpty(ctx context.Context) (bool, bool) {
	return b.inner.IsEmpty(ctx)
}

// compile-time check: BoxedTier implements Tier.
var _ Tier[string, int] = BoxedTier[string, int]{}
