package tier

import "time"

// Freshness is the three-valued expiration decision from spec §3/§4.2.
type Freshness int

const (
	// Fresh entries are returned as-is; no refresh is scheduled.
	Fresh Freshness = iota
	// StaleButUsable entries are returned to the caller, and a background
	// refresh should be scheduled.
	StaleButUsable
	// Expired entries must not be returned; they behave as a miss.
	Expired
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case StaleButUsable:
		return "stale"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// EffectiveTTL resolves the TTL that applies to entry: its own TTL if set,
// else tierTTL, else "no expiration" (ok == false).
func EffectiveTTL[V any](entry CacheEntry[V], tierTTL time.Duration, tierHasTTL bool) (ttl time.Duration, ok bool) {
	if t, has := entry.TTL(); has {
		return t, true
	}
	if tierHasTTL {
		return tierTTL, true
	}
	return 0, false
}

// Expire evaluates entry's freshness at now, given the effective TTL and an
// optional refresh threshold (time-to-refresh). Ties are inclusive on both
// boundaries: age == ttl is Expired, age == ttr is StaleButUsable (spec §4.2).
//
// An entry with no cached-at timestamp is fresh forever (step 1). A zero TTL
// means "always expired" — a primitive for forcing refresh on every read.
func Expire[V any](entry CacheEntry[V], now time.Time, tierTTL time.Duration, tierHasTTL bool, ttr time.Duration, hasTTR bool) Freshness {
	cachedAt, hasCachedAt := entry.CachedAt()
	if !hasCachedAt {
		return Fresh
	}

	elapsed := age(now, cachedAt)

	ttl, hasTTL := EffectiveTTL(entry, tierTTL, tierHasTTL)
	if !hasTTL {
		if hasTTR && elapsed >= ttr {
			return StaleButUsable
		}
		return Fresh
	}

	if elapsed >= ttl {
		return Expired
	}
	if hasTTR && elapsed >= ttr {
		return StaleButUsable
	}
	return Fresh
}

// age returns max(0, now-cachedAt); clocks under test control may go
// backwards, so age is clamped rather than allowed to go negative (spec §4.2
// step 3).
func age(now, cachedAt time.Time) time.Duration {
	d := now.Sub(cachedAt)
	if d < 0 {
		return 0
	}
	return d
}
