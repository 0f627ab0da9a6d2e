package cachelon

import (
	"time"

	"github.com/cachelon-go/cachelon/clock"
	"github.com/cachelon-go/cachelon/internal/coalesce"
	"github.com/cachelon-go/cachelon/refresh"
	"github.com/cachelon-go/cachelon/telemetry"
	"github.com/cachelon-go/cachelon/tier"
	"go.uber.org/zap"
)

// Builder assembles a Cache. Validation is deferred to Build rather than
// encoded in the type, which lets a fallback chain of arbitrary depth be
// built bottom-up with ordinary Go control flow (spec §4.8, §9).
type Builder[K comparable, V any] struct {
	name     string
	position string

	backing tier.Tier[K, V]
	clk     clock.Clock

	ttl    time.Duration
	hasTTL bool
	ttr    time.Duration
	hasTTR bool

	fallback     *Cache[K, V]
	promotion    PromotionPolicy[V]
	promotionSet bool

	useCoalescerOnMiss bool
	refresher          *refresh.Refresher[K]

	telemetryCfg telemetry.Config
}

// NewBuilder starts a Builder driven by clk. A nil clk defaults to
// clock.New() at Build time.
func NewBuilder[K comparable, V any](clk clock.Clock) *Builder[K, V] {
	return &Builder[K, V]{
		clk:      clk,
		position: "primary",
		telemetryCfg: telemetry.NewConfig(),
	}
}

// Tier sets the storage backend. Required.
func (b *Builder[K, V]) Tier(t tier.Tier[K, V]) *Builder[K, V] {
	b.backing = t
	return b
}

// Name sets the cache.name telemetry attribute. Defaults to "" if unset.
func (b *Builder[K, V]) Name(name string) *Builder[K, V] {
	b.name = name
	return b
}

// Position sets the tier.position telemetry attribute and the label used in
// OperationalError. Defaults to "primary".
func (b *Builder[K, V]) Position(position string) *Builder[K, V] {
	b.position = position
	return b
}

// TTL sets the tier-level time-to-live. Entries with their own per-entry
// TTL (tier.ExpiresAfter/ExpiresAt) always override this (spec §3, §9).
func (b *Builder[K, V]) TTL(ttl time.Duration) *Builder[K, V] {
	b.ttl = ttl
	b.hasTTL = true
	return b
}

// RefreshThreshold sets the time-to-refresh: once an entry's age reaches
// ttr, it is still returned (stale-but-usable) but a background refresh is
// scheduled. Must be strictly less than TTL, checked at Build (spec §4.8).
func (b *Builder[K, V]) RefreshThreshold(ttr time.Duration) *Builder[K, V] {
	b.ttr = ttr
	b.hasTTR = true
	return b
}

// Fallback attaches inner as the cache consulted on a miss or expiry. inner
// must not already be attached as another cache's fallback (Build enforces
// the no-cycles invariant by construction).
func (b *Builder[K, V]) Fallback(inner *Cache[K, V]) *Builder[K, V] {
	b.fallback = inner
	return b
}

// Promotion sets the policy deciding whether a fallback hit gets written
// back into the outer tier. Setting this without a Fallback is a
// construction error (spec §4.8) — there would be nothing to promote from.
func (b *Builder[K, V]) Promotion(p PromotionPolicy[V]) *Builder[K, V] {
	b.promotion = p
	b.promotionSet = true
	return b
}

// Telemetry attaches a telemetry.Config built via telemetry.NewConfig(),
// wiring both the metrics sink and the logger used for swallowed internal
// errors (refresh failures, promotion failures).
func (b *Builder[K, V]) Telemetry(cfg telemetry.Config) *Builder[K, V] {
	b.telemetryCfg = cfg
	return b
}

// Coalesced makes every plain Get, hit or miss, route its whole resolution
// through the cache's coalescer, same as GetCoalesced always does. Off by default:
// a cache with no configured coalescer still gets one at Build (so
// GetCoalesced always works), but Get only uses it when this is set.
func (b *Builder[K, V]) Coalesced() *Builder[K, V] {
	b.useCoalescerOnMiss = true
	return b
}

// Refresher attaches the background-refresh scheduler used for
// stale-but-usable entries. Without one, RefreshThreshold still classifies
// entries as stale-but-usable, but nothing is ever scheduled to refresh
// them (spec §4.4).
func (b *Builder[K, V]) Refresher(r *refresh.Refresher[K]) *Builder[K, V] {
	b.refresher = r
	return b
}

// Build validates the configuration and returns the assembled Cache, or a
// *ConstructionError describing the first violated precondition (spec §4.8).
func (b *Builder[K, V]) Build() (*Cache[K, V], error) {
	if b.backing == nil {
		return nil, &ConstructionError{Reason: "tier must be set before Build"}
	}
	if b.hasTTR {
		if !b.hasTTL {
			return nil, &ConstructionError{Reason: "refresh threshold requires a TTL"}
		}
		if b.ttr >= b.ttl {
			return nil, &ConstructionError{Reason: "refresh threshold must be strictly less than TTL"}
		}
	}
	if b.promotionSet && b.fallback == nil {
		return nil, &ConstructionError{Reason: "promotion policy set without a fallback"}
	}
	if b.fallback != nil && b.fallback.attached {
		return nil, &ConstructionError{Reason: "fallback cache is already attached as another cache's fallback"}
	}

	promotion := b.promotion
	if !b.promotionSet {
		promotion = PromotionNever[V]()
	}

	clk := b.clk
	if clk == nil {
		clk = clock.New()
	}

	c := &Cache[K, V]{
		name:               b.name,
		position:           b.position,
		backing:            b.backing,
		clk:                clk,
		ttl:                b.ttl,
		hasTTL:             b.hasTTL,
		ttr:                b.ttr,
		hasTTR:             b.hasTTR,
		fallback:           b.fallback,
		promotion:          promotion,
		coalescer:          coalesce.New[K, tier.CacheEntry[V]](),
		useCoalescerOnMiss: b.useCoalescerOnMiss,
		refresher:          b.refresher,
		sink:               b.telemetryCfg.Build(),
		logger:             loggerOrNop(b.telemetryCfg),
	}
	if b.fallback != nil {
		b.fallback.attached = true
	}
	return c, nil
}

func loggerOrNop(cfg telemetry.Config) *zap.Logger {
	if cfg.LogsEnabled() {
		return cfg.Logger()
	}
	return zap.NewNop()
}
