package cachelon

import (
	"context"
	"errors"
	"time"

	"github.com/cachelon-go/cachelon/clock"
	"github.com/cachelon-go/cachelon/internal/coalesce"
	"github.com/cachelon-go/cachelon/refresh"
	"github.com/cachelon-go/cachelon/telemetry"
	"github.com/cachelon-go/cachelon/tier"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// errNoEntry signals a miss through the coalescer's (value, error) shape,
// which has no room for a third "not found" outcome. It never escapes
// resolve's callers.
var errNoEntry = errors.New("cachelon: no entry")

// Cache is the façade every caller interacts with: one Tier, optional
// TTL/refresh-threshold interpretation, an optional fallback chain, optional
// coalescing, and telemetry, composed into the get/insert/invalidate/clear
// surface from spec §4.7. Build one with Builder; the zero value is not
// usable.
type Cache[K comparable, V any] struct {
	name     string
	position string

	backing tier.Tier[K, V]
	clk     clock.Clock

	ttl    time.Duration
	hasTTL bool
	ttr    time.Duration
	hasTTR bool

	fallback  *Cache[K, V]
	attached  bool
	promotion PromotionPolicy[V]

	coalescer          *coalesce.Coalescer[K, tier.CacheEntry[V]]
	useCoalescerOnMiss bool
	refresher          *refresh.Refresher[K]

	sink   telemetry.Sink
	logger *zap.Logger
}

// Name reports the cache's configured name (the cache.name telemetry
// attribute).
func (c *Cache[K, V]) Name() string { return c.name }

// Get returns the value for key, evaluating freshness and walking the
// fallback chain on a miss or expiry. It goes through the coalescer only if
// the cache was built with Builder.Coalesced (spec §4.7). Use GetCoalesced
// when concurrent callers for the same key must not each hit the tier
// independently.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, bool, error) {
	if c.useCoalescerOnMiss {
		return c.getCoalesced(ctx, key, "get")
	}
	start := c.clk.Now()
	entry, ok, err := c.resolve(ctx, key)
	c.sink.RecordDuration("get", c.clk.Now().Sub(start), c.attrs())
	var zero V
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	return entry.Value(), true, nil
}

// GetCoalesced behaves like Get, but the entire resolution — tier lookup,
// freshness evaluation, and any fallback walk — is funneled through the
// cache's coalescer, so concurrent callers for the same key share a single
// in-flight resolution regardless of whether the cache was built with
// Builder.Coalesced (spec §4.7: "same as get but forces use of the
// coalescer even if the default path would skip it").
func (c *Cache[K, V]) GetCoalesced(ctx context.Context, key K) (V, bool, error) {
	return c.getCoalesced(ctx, key, "get_coalesced")
}

func (c *Cache[K, V]) getCoalesced(ctx context.Context, key K, op string) (V, bool, error) {
	start := c.clk.Now()
	entry, leader, err := c.coalescer.Do(ctx, key, func() (tier.CacheEntry[V], error) {
		e, ok, rerr := c.resolve(ctx, key)
		if rerr != nil {
			var zero tier.CacheEntry[V]
			return zero, rerr
		}
		if !ok {
			var zero tier.CacheEntry[V]
			return zero, errNoEntry
		}
		return e, nil
	})
	c.sink.RecordDuration(op, c.clk.Now().Sub(start), c.attrs())
	if leader {
		c.emit(telemetry.EventCoalescedLeader)
	} else {
		c.emit(telemetry.EventCoalescedWaiter)
	}

	var zero V
	if err != nil {
		if errors.Is(err, errNoEntry) {
			return zero, false, nil
		}
		return zero, false, err
	}
	return entry.Value(), true, nil
}

// Insert stores value for key with no per-entry TTL override; any
// expiration is governed entirely by the cache's tier-level TTL, if any.
func (c *Cache[K, V]) Insert(ctx context.Context, key K, value V) error {
	return c.insertEntry(ctx, key, tier.New(value))
}

// InsertWithTTL stores value for key with a per-entry TTL that takes
// precedence over any tier-level TTL (spec §3, §4.2).
func (c *Cache[K, V]) InsertWithTTL(ctx context.Context, key K, value V, ttl time.Duration) error {
	return c.insertEntry(ctx, key, tier.ExpiresAfter(value, ttl))
}

func (c *Cache[K, V]) insertEntry(ctx context.Context, key K, entry tier.CacheEntry[V]) error {
	start := c.clk.Now()
	err := c.backing.Insert(ctx, key, entry)
	c.sink.RecordDuration("insert", c.clk.Now().Sub(start), c.attrs())
	if err != nil {
		c.emit(telemetry.EventError)
		return &OperationalError{TierPosition: c.position, KeyClass: keyClass(key), Err: err}
	}
	return nil
}

// Invalidate removes key from this tier and, if a fallback is attached, from
// every tier beneath it. Every tier is attempted even if an earlier one
// fails; failures are coalesced into a single returned error (spec §4.5,
// §4.7).
func (c *Cache[K, V]) Invalidate(ctx context.Context, key K) error {
	var errs *multierror.Error
	if err := c.backing.Invalidate(ctx, key); err != nil {
		errs = multierror.Append(errs, &OperationalError{TierPosition: c.position, KeyClass: keyClass(key), Err: err})
	}
	if c.fallback != nil {
		if err := c.fallback.Invalidate(ctx, key); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	c.emit(telemetry.EventInvalidate)
	return errs.ErrorOrNil()
}

// Clear removes every entry from this tier and, if attached, every tier
// beneath it, fanning out the same way Invalidate does.
func (c *Cache[K, V]) Clear(ctx context.Context) error {
	var errs *multierror.Error
	if err := c.backing.Clear(ctx); err != nil {
		errs = multierror.Append(errs, &OperationalError{TierPosition: c.position, Err: err})
	}
	if c.fallback != nil {
		if err := c.fallback.Clear(ctx); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// Len reports this tier's entry count; ok is false if the tier doesn't
// track one.
func (c *Cache[K, V]) Len(ctx context.Context) (uint64, bool) {
	n, ok := c.backing.Len(ctx)
	if ok {
		c.sink.SetGauge("tier_size", float64(n), telemetry.Attrs{telemetry.AttrCacheName: c.name})
	}
	return n, ok
}

// IsEmpty reports whether this tier holds no entries; ok is false if the
// tier doesn't track size.
func (c *Cache[K, V]) IsEmpty(ctx context.Context) (bool, bool) {
	return c.backing.IsEmpty(ctx)
}

// resolve is the shared get(k) data flow (spec §2, §4.5): outer tier lookup,
// freshness evaluation, refresh scheduling on stale-but-usable, and a
// recursive fallback walk on miss or expiry. It never holds any lock across
// a suspension point — the tier call, the fallback recursion, and the
// coalescer's waiting are the only places this function can block, and none
// of them happen under a mutex owned by Cache itself.
func (c *Cache[K, V]) resolve(ctx context.Context, key K) (tier.CacheEntry[V], bool, error) {
	var zeroEntry tier.CacheEntry[V]

	outerEntry, outerOK, err := c.backing.Get(ctx, key)
	if err != nil {
		c.emit(telemetry.EventError)
		if c.fallback != nil {
			return c.fallbackGet(ctx, key, zeroEntry, false)
		}
		return zeroEntry, false, &OperationalError{TierPosition: c.position, KeyClass: keyClass(key), Err: err}
	}

	if outerOK {
		switch tier.Expire(outerEntry, c.clk.Now(), c.ttl, c.hasTTL, c.ttr, c.hasTTR) {
		case tier.Fresh:
			c.emit(telemetry.EventHit)
			return outerEntry, true, nil
		case tier.StaleButUsable:
			c.emit(telemetry.EventStaleHit)
			c.scheduleRefresh(key)
			return outerEntry, true, nil
		case tier.Expired:
			// Falls through to miss handling below; an expired entry is
			// never returned to the caller (spec §4.2).
		}
	}

	c.emit(telemetry.EventMiss)
	if c.fallback == nil {
		return zeroEntry, false, nil
	}
	return c.fallbackGet(ctx, key, outerEntry, outerOK)
}

// fallbackGet walks to the inner cache, and on a hit, decides whether to
// promote the value into this tier. A promotion-insert failure is logged
// and swallowed (spec §7) — it never turns a successful fallback read into
// an error.
func (c *Cache[K, V]) fallbackGet(ctx context.Context, key K, outerEntry tier.CacheEntry[V], outerPresent bool) (tier.CacheEntry[V], bool, error) {
	var zeroEntry tier.CacheEntry[V]

	innerEntry, innerOK, err := c.fallback.resolve(ctx, key)
	if err != nil {
		return zeroEntry, false, &OperationalError{TierPosition: c.fallback.position, KeyClass: keyClass(key), Err: err}
	}
	if !innerOK {
		return zeroEntry, false, nil
	}

	if c.promotion(outerEntry, outerPresent, innerEntry) {
		if ierr := c.backing.Insert(ctx, key, innerEntry); ierr != nil {
			c.logger.Warn("promotion insert failed; serving value without promoting",
				zap.String("tier", c.position), zap.Error(ierr))
		} else {
			c.emit(telemetry.EventPromotion)
		}
	}
	return innerEntry, true, nil
}

// scheduleRefresh asks the refresher to revalidate key in the background. A
// nil refresher (none configured) makes this a no-op: stale-but-usable
// entries are then served as they are until they reach the TTL and expire,
// which is a legitimate configuration for callers who only want TTL-based
// expiry (spec §4.4).
func (c *Cache[K, V]) scheduleRefresh(key K) {
	if c.refresher == nil {
		return
	}
	scheduled := c.refresher.Schedule(context.Background(), key, func(rctx context.Context) error {
		fresh, ok, err := c.refreshFetch(rctx, key)
		if err != nil {
			c.emit(telemetry.EventRefreshFailed)
			return err
		}
		if !ok {
			return nil
		}

		if cur, curOK, _ := c.backing.Get(rctx, key); curOK {
			curAt, _ := cur.CachedAt()
			freshAt, _ := fresh.CachedAt()
			if !freshAt.After(curAt) {
				// Not strictly newer than what's already visible; the
				// newer-cached-at-wins rule means this refresh has nothing
				// to contribute (spec §4.4 step 2).
				return nil
			}
		}

		if err := c.backing.Insert(rctx, key, fresh); err != nil {
			c.emit(telemetry.EventRefreshFailed)
			return err
		}
		c.emit(telemetry.EventRefreshSucceeded)
		return nil
	})
	if scheduled {
		c.emit(telemetry.EventRefreshScheduled)
	}
}

// refreshFetch re-fetches a candidate replacement value for a background
// refresh: via the fallback chain, if one exists, since that's presumed to
// be the fresher source of truth; otherwise by asking this tier again,
// trusting that the tier's own Get is capable of returning newer data than
// what it returned a moment ago (e.g. a remote-backed tier).
func (c *Cache[K, V]) refreshFetch(ctx context.Context, key K) (tier.CacheEntry[V], bool, error) {
	if c.fallback != nil {
		return c.fallback.resolve(ctx, key)
	}
	return c.backing.Get(ctx, key)
}

func (c *Cache[K, V]) attrs() telemetry.Attrs {
	return telemetry.Attrs{
		telemetry.AttrCacheName:    c.name,
		telemetry.AttrTierPosition: c.position,
	}
}

func (c *Cache[K, V]) emit(event string) {
	attrs := c.attrs()
	attrs[telemetry.AttrEvent] = event
	c.sink.EmitCounter(attrs)
}
