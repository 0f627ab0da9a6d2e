package memory

import (
	"context"
	"testing"
	"time"

	"github.com/cachelon-go/cachelon/clock"
	"github.com/cachelon-go/cachelon/tier"
)

func TestTier_InsertGetRemove(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := New[string, int](Options[string, int]{Capacity: 8})

	if _, ok, err := tr.Get(ctx, "a"); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := tr.Insert(ctx, "a", tier.New(1)); err != nil {
		t.Fatal(err)
	}
	e, ok, err := tr.Get(ctx, "a")
	if err != nil || !ok || e.Value() != 1 {
		t.Fatalf("want hit 1, got entry=%v ok=%v err=%v", e, ok, err)
	}

	if err := tr.Invalidate(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := tr.Get(ctx, "a"); ok {
		t.Fatal("a must be absent after Invalidate")
	}
}

func TestTier_InsertStampsCachedAtOnlyWhenAbsent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	fc := clock.NewFrozen()
	tr := New[string, int](Options[string, int]{Capacity: 8, Clock: fc})

	if err := tr.Insert(ctx, "a", tier.New(1)); err != nil {
		t.Fatal(err)
	}
	e, _, _ := tr.Get(ctx, "a")
	gotAt, ok := e.CachedAt()
	if !ok || !gotAt.Equal(fc.Now()) {
		t.Fatalf("tier must stamp cached-at when the entry has none, got %v ok=%v", gotAt, ok)
	}

	supplied := fc.Now().Add(-time.Hour)
	if err := tr.Insert(ctx, "b", tier.ExpiresAt(2, time.Minute, supplied)); err != nil {
		t.Fatal(err)
	}
	e2, _, _ := tr.Get(ctx, "b")
	gotAt2, _ := e2.CachedAt()
	if !gotAt2.Equal(supplied) {
		t.Fatalf("tier must not overwrite a caller-supplied cached-at, got %v want %v", gotAt2, supplied)
	}
}

func TestTier_EvictionLRU(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := New[string, int](Options[string, int]{Capacity: 2, Shards: 1})

	_ = tr.Insert(ctx, "a", tier.New(1))
	_ = tr.Insert(ctx, "b", tier.New(2))

	if _, ok, _ := tr.Get(ctx, "a"); !ok {
		t.Fatal("expect hit for a")
	}
	_ = tr.Insert(ctx, "c", tier.New(3)) // overflow evicts LRU (b)

	if _, ok, _ := tr.Get(ctx, "b"); ok {
		t.Fatal("b must be evicted")
	}
	if _, ok, _ := tr.Get(ctx, "a"); !ok {
		t.Fatal("a must survive (promoted)")
	}
	if e, ok, _ := tr.Get(ctx, "c"); !ok || e.Value() != 3 {
		t.Fatal("c must be present")
	}
}

func TestTier_CostLimiting(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := New[string, string](Options[string, string]{
		Capacity: 100,
		Shards:   1,
		Cost:     func(v string) int { return len(v) },
		MaxCost:  10,
	})

	_ = tr.Insert(ctx, "a", tier.New("12345")) // cost 5
	_ = tr.Insert(ctx, "b", tier.New("123456")) // cost 6, total would be 11 > 10

	if _, ok, _ := tr.Get(ctx, "a"); ok {
		t.Fatal("a must be evicted to satisfy the cost limit")
	}
	if e, ok, _ := tr.Get(ctx, "b"); !ok || e.Value() != "123456" {
		t.Fatal("b must survive")
	}
}

func TestTier_Clear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := New[string, int](Options[string, int]{Capacity: 8})

	_ = tr.Insert(ctx, "a", tier.New(1))
	_ = tr.Insert(ctx, "b", tier.New(2))
	if err := tr.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if n, ok := tr.Len(ctx); !ok || n != 0 {
		t.Fatalf("want 0 entries after Clear, got %d ok=%v", n, ok)
	}
}

func TestTier_LenAndIsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := New[string, int](Options[string, int]{Capacity: 8})

	if empty, ok := tr.IsEmpty(ctx); !ok || !empty {
		t.Fatal("new tier must be empty")
	}
	_ = tr.Insert(ctx, "a", tier.New(1))
	if n, ok := tr.Len(ctx); !ok || n != 1 {
		t.Fatalf("want len 1, got %d ok=%v", n, ok)
	}
	if empty, ok := tr.IsEmpty(ctx); !ok || empty {
		t.Fatal("non-empty tier reported empty")
	}
}

func TestTier_OnEvictCallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	var reasons []EvictReason
	tr := New[string, int](Options[string, int]{
		Capacity: 1,
		Shards:   1,
		OnEvict: func(key string, entry tier.CacheEntry[int], reason EvictReason) {
			reasons = append(reasons, reason)
		},
	})

	_ = tr.Insert(ctx, "a", tier.New(1))
	_ = tr.Insert(ctx, "b", tier.New(2)) // evicts a for capacity
	_ = tr.Invalidate(ctx, "b")          // explicit removal

	if len(reasons) != 2 {
		t.Fatalf("want 2 eviction callbacks, got %d", len(reasons))
	}
	if reasons[0] != EvictCapacity {
		t.Fatalf("first eviction must be capacity-driven, got %v", reasons[0])
	}
	if reasons[1] != EvictExplicit {
		t.Fatalf("second eviction must be explicit, got %v", reasons[1])
	}
}

func TestTier_CloseStopsFurtherWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	tr := New[string, int](Options[string, int]{Capacity: 8})

	_ = tr.Insert(ctx, "a", tier.New(1))
	if err := tr.Close(); err != nil {
		t.Fatal(err)
	}
	if err := tr.Insert(ctx, "b", tier.New(2)); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := tr.Get(ctx, "b"); ok {
		t.Fatal("insert after Close must be a no-op")
	}
	// Existing entries are left in place (Close is not a Clear), but Get on a
	// closed tier reports a miss for them.
	if _, ok, _ := tr.Get(ctx, "a"); ok {
		t.Fatal("Get after Close must report nothing (tier treats itself as drained)")
	}
}
