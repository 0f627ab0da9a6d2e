// Package cachelon composes a storage Tier with TTL/TTR expiration, single-
// flight coalescing, background refresh, a multi-level fallback chain, and
// telemetry into one Cache façade.
//
// A Cache is assembled with Builder: set a Tier, optionally a TTL and a
// refresh threshold, optionally a fallback Cache and promotion policy, and
// optionally a coalescer, a refresher, and telemetry. Build validates the
// combination and returns a ready-to-use Cache, or a *ConstructionError
// describing the first violated precondition.
//
//	inner, _ := cachelon.NewBuilder[string, User](clk).
//		Tier(remoteTier).
//		Name("users-remote").
//		Build()
//
//	outer, err := cachelon.NewBuilder[string, User](clk).
//		Tier(memory.New[string, User](memory.Options[string, User]{Capacity: 10_000})).
//		Name("users").
//		TTL(5 * time.Minute).
//		RefreshThreshold(4 * time.Minute).
//		Fallback(inner).
//		Promotion(cachelon.PromotionIfFresherThanOuter[User]()).
//		Build()
package cachelon
