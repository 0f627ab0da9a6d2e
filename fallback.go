package cachelon

import "github.com/cachelon-go/cachelon/tier"

// PromotionPolicy decides whether a value served by the fallback chain gets
// written back ("promoted") into the outer tier. outerEntry/outerPresent
// describe what the outer tier held at the time of the miss: an expired
// outer entry is passed with outerPresent == true so it can be compared
// against; a zero entry and outerPresent == false mean the outer tier had
// nothing at all (or its Get failed). innerEntry is what satisfied the read
// (spec §4.5).
type PromotionPolicy[V any] func(outerEntry tier.CacheEntry[V], outerPresent bool, innerEntry tier.CacheEntry[V]) bool

// PromotionNever never writes back to the outer tier. This is the default:
// a cache with a fallback but no configured promotion policy behaves as a
// pure read-through without ever mutating the outer tier on a fallback hit.
func PromotionNever[V any]() PromotionPolicy[V] {
	return func(tier.CacheEntry[V], bool, tier.CacheEntry[V]) bool { return false }
}

// PromotionAlways writes every fallback hit back into the outer tier,
// unconditionally.
func PromotionAlways[V any]() PromotionPolicy[V] {
	return func(tier.CacheEntry[V], bool, tier.CacheEntry[V]) bool { return true }
}

// PromotionIfFresherThanOuter writes the fallback hit back only if the outer
// tier had nothing, or if the inner entry's cached-at timestamp is strictly
// newer than the outer's — so a slow promotion race can never clobber a
// fresher value the outer tier already holds (spec §4.5).
func PromotionIfFresherThanOuter[V any]() PromotionPolicy[V] {
	return func(outerEntry tier.CacheEntry[V], outerPresent bool, innerEntry tier.CacheEntry[V]) bool {
		if !outerPresent {
			return true
		}
		outerAt, _ := outerEntry.CachedAt()
		innerAt, _ := innerEntry.CachedAt()
		return innerAt.After(outerAt)
	}
}
