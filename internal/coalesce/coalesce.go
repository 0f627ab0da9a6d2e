// Package coalesce implements per-key single-flight coalescing of concurrent
// fetches (spec §4.3). The teacher repo hand-rolled its own single-flight
// map (internal/singleflight, since deleted) rather than reach for
// golang.org/x/sync/singleflight, and that choice turns out to matter here:
// singleflight.Group always runs fn to completion in its own goroutine
// regardless of which caller is "leader," and a caller's context can only
// make its own DoChan wait return early — it can't stop fn from running, nor
// keep other waiters from receiving its (by-then-stale) result, nor make a
// later caller start a fresh call. Coalescer is this package's hand-rolled
// equivalent of the teacher's map+broadcast shape, generalized to track
// leader/waiter identity and to tie cancellation to the call itself rather
// than to one caller's wait (spec §8 "cancel the leader").
package coalesce

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is returned to a waiter (or to the leader itself) whose
// context is cancelled before the shared result is published.
var ErrCancelled = errors.New("coalesce: cancelled while waiting for in-flight call")

// call is one in-flight (or just-resolved) fn invocation shared by a leader
// and any number of waiters that arrived while it was running.
type call[V any] struct {
	done      chan struct{} // closed once, when val/err are published
	cancelled chan struct{} // closed once, if the leader's ctx is cancelled first
	val       V
	err       error
}

// Coalescer deduplicates concurrent calls to fn for the same key: at most
// one fn invocation is in flight per key at any instant (spec §4.3, §8
// "At-most-one fetch").
type Coalescer[K comparable, V any] struct {
	mu       sync.Mutex
	inFlight map[K]*call[V]
}

// New returns an empty Coalescer.
func New[K comparable, V any]() *Coalescer[K, V] {
	return &Coalescer[K, V]{inFlight: make(map[K]*call[V])}
}

// Do runs fn for key, coalescing concurrent callers. The returned leader
// flag tells the caller whether it executed fn itself (leader) or joined an
// already in-flight call (waiter) — the cache wrapper uses this to emit
// coalesced_leader vs coalesced_waiter telemetry (spec §4.6).
//
// Cancelling the leader's ctx before fn completes removes the in-flight
// call immediately and broadcasts ErrCancelled to every caller currently
// waiting on it; a caller that arrives afterward starts an entirely fresh
// call rather than joining the abandoned one (spec §8 scenario 6: "drop A
// before the fetch completes; B and C observe a cancellation error; a
// subsequent call from D starts a fresh fetch"). Cancelling a waiter's own
// ctx only ever affects that waiter — the leader and every other waiter are
// unaffected, and the shared result, once ready, is still delivered to them.
func (c *Coalescer[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (result V, leader bool, err error) {
	c.mu.Lock()
	if existing, ok := c.inFlight[key]; ok {
		c.mu.Unlock()
		return c.wait(ctx, existing)
	}

	cl := &call[V]{done: make(chan struct{}), cancelled: make(chan struct{})}
	c.inFlight[key] = cl
	c.mu.Unlock()

	go func() {
		v, e := fn()
		cl.val, cl.err = v, e
		close(cl.done)
	}()

	select {
	case <-cl.done:
		c.retire(key, cl)
		return cl.val, true, cl.err
	case <-ctx.Done():
		c.retire(key, cl)
		close(cl.cancelled)
		var zero V
		return zero, true, ErrCancelled
	}
}

// wait blocks on an in-flight call as a non-leader: the shared result if fn
// finishes, ErrCancelled if the leader cancels first, or ErrCancelled if
// ctx's own deadline or cancellation fires first.
func (c *Coalescer[K, V]) wait(ctx context.Context, cl *call[V]) (V, bool, error) {
	var zero V
	select {
	case <-cl.done:
		return cl.val, false, cl.err
	case <-cl.cancelled:
		return zero, false, ErrCancelled
	case <-ctx.Done():
		return zero, false, ErrCancelled
	}
}

// retire removes cl from the in-flight map, but only if it is still the
// active call for key — a call already superseded by a fresh one (because
// an earlier cancellation already retired it) must not clobber the new
// entry.
func (c *Coalescer[K, V]) retire(key K, cl *call[V]) {
	c.mu.Lock()
	if c.inFlight[key] == cl {
		delete(c.inFlight, key)
	}
	c.mu.Unlock()
}
