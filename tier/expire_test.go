package tier

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestExpire_NoCachedAt_AlwaysFresh(t *testing.T) {
	t.Parallel()
	e := New("v")
	if got := Expire(e, epoch.Add(100*time.Hour), time.Second, true, 0, false); got != Fresh {
		t.Fatalf("want Fresh, got %v", got)
	}
}

func TestExpire_TTLBoundary_Inclusive(t *testing.T) {
	t.Parallel()
	e := ExpiresAt("v", 60*time.Second, epoch)

	if got := Expire(e, epoch.Add(59*time.Second), 0, false, 0, false); got != Fresh {
		t.Fatalf("at t0+59s want Fresh, got %v", got)
	}
	if got := Expire(e, epoch.Add(60*time.Second), 0, false, 0, false); got != Expired {
		t.Fatalf("at t0+60s want Expired (inclusive), got %v", got)
	}
}

func TestExpire_TTRBoundary_Inclusive(t *testing.T) {
	t.Parallel()
	// Outer TTL=60s, TTR=30s (spec §8 scenario 3).
	e := ExpiresAt("v", 60*time.Second, epoch)

	if got := Expire(e, epoch.Add(30*time.Second-1), 0, false, 30*time.Second, true); got != Fresh {
		t.Fatalf("at t0+TTR-ε want Fresh, got %v", got)
	}
	if got := Expire(e, epoch.Add(30*time.Second), 0, false, 30*time.Second, true); got != StaleButUsable {
		t.Fatalf("at t0+TTR want StaleButUsable (inclusive), got %v", got)
	}
}

func TestExpire_ZeroTTL_AlwaysExpired(t *testing.T) {
	t.Parallel()
	e := ExpiresAt("v", 0, epoch)
	if got := Expire(e, epoch, 0, false, 0, false); got != Expired {
		t.Fatalf("zero TTL must always expire, got %v", got)
	}
}

func TestExpire_PerEntryTTLOverridesTierTTL(t *testing.T) {
	t.Parallel()
	// Per-entry TTL=10s should win over a tier-level TTL of 1h (open
	// question in spec §9, locked down here).
	e := ExpiresAt("v", 10*time.Second, epoch)

	if got := Expire(e, epoch.Add(5*time.Second), time.Hour, true, 0, false); got != Fresh {
		t.Fatalf("want Fresh under per-entry TTL, got %v", got)
	}
	if got := Expire(e, epoch.Add(11*time.Second), time.Hour, true, 0, false); got != Expired {
		t.Fatalf("want Expired under per-entry TTL despite tier TTL=1h, got %v", got)
	}
}

func TestExpire_ClampsNegativeAge(t *testing.T) {
	t.Parallel()
	// A clock that runs backwards under test control must not produce a
	// negative age (spec §4.2 step 3).
	e := ExpiresAt("v", time.Minute, epoch)
	if got := Expire(e, epoch.Add(-time.Hour), 0, false, 0, false); got != Fresh {
		t.Fatalf("want Fresh when now precedes cached-at, got %v", got)
	}
}

func TestEffectiveTTL_Precedence(t *testing.T) {
	t.Parallel()
	withPerEntry := ExpiresAfter("v", 5*time.Second)
	if ttl, ok := EffectiveTTL(withPerEntry, time.Hour, true); !ok || ttl != 5*time.Second {
		t.Fatalf("per-entry TTL must win, got %v ok=%v", ttl, ok)
	}

	noPerEntry := New("v")
	if ttl, ok := EffectiveTTL(noPerEntry, time.Hour, true); !ok || ttl != time.Hour {
		t.Fatalf("tier TTL must apply, got %v ok=%v", ttl, ok)
	}
	if _, ok := EffectiveTTL(noPerEntry, 0, false); ok {
		t.Fatal("no TTL anywhere must mean infinite (ok=false)")
	}
}
