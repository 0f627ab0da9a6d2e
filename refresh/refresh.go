// Package refresh implements background revalidation of stale-but-usable
// cache entries (spec §4.4): for a key whose entry has crossed its
// time-to-refresh threshold, Refresher schedules at most one background
// fetch-and-promote per key and never blocks the foreground Get that
// discovered the staleness.
package refresh

import (
	"context"
	"sync"

	"github.com/cachelon-go/cachelon/clock"
	"go.uber.org/zap"
)

// Func performs one background revalidation for key: re-fetch the value
// (typically via the fallback chain or the originating tier) and promote it
// if newer than what's currently visible. A returned error is logged by the
// Refresher at warn level and then discarded; it never reaches the caller of
// Schedule.
type Func func(ctx context.Context) error

// Refresher schedules background revalidations with stampede protection:
// inserting a key that's already being refreshed is a no-op (spec §4.4
// step 1), and the key is always released — success, failure, or panic —
// when the background task ends (the "drop guard" from spec §4.4 step (c)).
type Refresher[K comparable] struct {
	clock  clock.Clock
	logger *zap.Logger

	mu       sync.Mutex
	inFlight map[K]struct{}
}

// New returns a Refresher driven by clk. A nil logger defaults to a no-op
// logger so refresh failures are swallowed silently when the caller hasn't
// wired one up (spec §7: refresh failures never surface to callers).
func New[K comparable](clk clock.Clock, logger *zap.Logger) *Refresher[K] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher[K]{
		clock:    clk,
		logger:   logger,
		inFlight: make(map[K]struct{}),
	}
}

// Schedule requests a background revalidation for key. If a refresh for key
// is already in flight, Schedule is a no-op and returns false; otherwise it
// spawns fn on the clock's execution substrate and returns true.
//
// Schedule never blocks the caller: the spawn itself is the only
// synchronous work performed.
func (r *Refresher[K]) Schedule(ctx context.Context, key K, fn Func) bool {
	r.mu.Lock()
	if _, busy := r.inFlight[key]; busy {
		r.mu.Unlock()
		return false
	}
	r.inFlight[key] = struct{}{}
	r.mu.Unlock()

	r.clock.Spawn(func() {
		defer r.release(key)
		defer r.recoverPanic(key)
		if err := fn(ctx); err != nil {
			r.logger.Warn("background refresh failed; stale entry remains visible",
				zap.Any("key", key), zap.Error(err))
		}
	})
	return true
}

// InFlight reports whether a refresh for key is currently running. Exposed
// for tests; not required for correctness.
func (r *Refresher[K]) InFlight(key K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.inFlight[key]
	return busy
}

func (r *Refresher[K]) release(key K) {
	r.mu.Lock()
	delete(r.inFlight, key)
	r.mu.Unlock()
}

// recoverPanic ensures a panicking refresh function still releases the
// in-flight slot (the "whether it succeeded, failed, or was cancelled"
// clause of spec §4.4's Refresher invariant) instead of leaking it forever.
func (r *Refresher[K]) recoverPanic(key K) {
	if rec := recover(); rec != nil {
		r.logger.Error("background refresh panicked; slot released",
			zap.Any("key", key), zap.Any("panic", rec))
	}
}
