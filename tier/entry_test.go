package tier

import (
	"testing"
	"time"
)

func TestNew_NoTTLNoCachedAt(t *testing.T) {
	t.Parallel()
	e := New(42)
	if e.Value() != 42 {
		t.Fatalf("want 42, got %v", e.Value())
	}
	if _, ok := e.CachedAt(); ok {
		t.Fatal("New entry must not have a cached-at timestamp")
	}
	if _, ok := e.TTL(); ok {
		t.Fatal("New entry must not have a TTL")
	}
}

func TestExpiresAfter_HasTTLNoCachedAt(t *testing.T) {
	t.Parallel()
	e := ExpiresAfter("v", 60*time.Second)
	ttl, ok := e.TTL()
	if !ok || ttl != 60*time.Second {
		t.Fatalf("want ttl=60s ok=true, got %v ok=%v", ttl, ok)
	}
	if _, ok := e.CachedAt(); ok {
		t.Fatal("ExpiresAfter must not stamp cached-at; the tier does that on insert")
	}
}

func TestExpiresAt_SetsBoth(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e := ExpiresAt("v", time.Minute, now)
	if got, ok := e.CachedAt(); !ok || !got.Equal(now) {
		t.Fatalf("want cachedAt=%v, got %v ok=%v", now, got, ok)
	}
	if ttl, ok := e.TTL(); !ok || ttl != time.Minute {
		t.Fatalf("want ttl=1m, got %v ok=%v", ttl, ok)
	}
}

func TestEnsureCachedAt_NeverMovesBackwards(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	e := New("v").EnsureCachedAt(t0)
	got, ok := e.CachedAt()
	if !ok || !got.Equal(t0) {
		t.Fatalf("want %v, got %v", t0, got)
	}

	// A later EnsureCachedAt call must not overwrite the existing timestamp.
	e = e.EnsureCachedAt(t1)
	got, _ = e.CachedAt()
	if !got.Equal(t0) {
		t.Fatalf("cached-at moved backwards/forwards unexpectedly: want %v, got %v", t0, got)
	}
}

func TestWithTTL_OverridesPerEntry(t *testing.T) {
	t.Parallel()
	e := New("v").WithTTL(5 * time.Second)
	ttl, ok := e.TTL()
	if !ok || ttl != 5*time.Second {
		t.Fatalf("want ttl=5s, got %v ok=%v", ttl, ok)
	}
}

func TestCacheEntry_ValueReplacedNotMutated(t *testing.T) {
	t.Parallel()
	type payload struct{ n int }
	e1 := New(payload{n: 1})
	e2 := New(payload{n: 2})
	if e1.Value().n != 1 {
		t.Fatal("original entry must be unaffected by an unrelated replacement")
	}
	if e2.Value().n != 2 {
		t.Fatal("replacement entry must carry the new value")
	}
}
