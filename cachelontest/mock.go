// Package cachelontest provides test doubles for exercising code built on
// tier.Tier without a real backend: MockTier records every operation it
// receives and can be configured to fail selected operations on demand, so
// callers can assert on coalescing, fallback, and error-propagation behavior
// deterministically.
package cachelontest

import (
	"context"
	"errors"
	"sync"

	"github.com/cachelon-go/cachelon/tier"
)

// OpKind identifies which Tier method an Op records.
type OpKind int

const (
	OpGet OpKind = iota
	OpInsert
	OpInvalidate
	OpClear
)

func (k OpKind) String() string {
	switch k {
	case OpGet:
		return "Get"
	case OpInsert:
		return "Insert"
	case OpInvalidate:
		return "Invalidate"
	case OpClear:
		return "Clear"
	default:
		return "Unknown"
	}
}

// Op is one recorded call against a MockTier. Key is the zero value for
// Clear, which operates on no particular key.
type Op[K comparable] struct {
	Kind OpKind
	Key  K
}

// ErrInjected is returned by an operation a FailWhen predicate matched.
var ErrInjected = errors.New("cachelontest: injected failure")

// MockTier is an in-memory tier.Tier double with an operation log and
// failure injection. The zero value is not usable; construct with New.
type MockTier[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]tier.CacheEntry[V]
	ops      []Op[K]
	failWhen func(Op[K]) bool
}

// New returns an empty MockTier.
func New[K comparable, V any]() *MockTier[K, V] {
	return &MockTier[K, V]{entries: make(map[K]tier.CacheEntry[V])}
}

var _ interface {
	Get(ctx context.Context, key string) (tier.CacheEntry[int], bool, error)
	Insert(ctx context.Context, key string, entry tier.CacheEntry[int]) error
	Invalidate(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Len(ctx context.Context) (uint64, bool)
	IsEmpty(ctx context.Context) (bool, bool)
} = (*MockTier[string, int])(nil)

// FailWhen configures MockTier to return ErrInjected from any operation for
// which predicate reports true. A nil predicate (the default) never fails.
func (m *MockTier[K, V]) FailWhen(predicate func(Op[K]) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWhen = predicate
}

// ClearFailures removes any FailWhen predicate previously configured.
func (m *MockTier[K, V]) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWhen = nil
}

// Operations returns a copy of every operation recorded so far, in order.
func (m *MockTier[K, V]) Operations() []Op[K] {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Op[K], len(m.ops))
	copy(out, m.ops)
	return out
}

// ContainsKey reports whether key is currently resident.
func (m *MockTier[K, V]) ContainsKey(key K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// EntryCount returns the number of resident entries.
func (m *MockTier[K, V]) EntryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MockTier[K, V]) record(op Op[K]) error {
	m.ops = append(m.ops, op)
	if m.failWhen != nil && m.failWhen(op) {
		return ErrInjected
	}
	return nil
}

// Get implements tier.Tier.
func (m *MockTier[K, V]) Get(ctx context.Context, key K) (tier.CacheEntry[V], bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Op[K]{Kind: OpGet, Key: key}); err != nil {
		var zero tier.CacheEntry[V]
		return zero, false, err
	}
	entry, ok := m.entries[key]
	return entry, ok, nil
}

// Insert implements tier.Tier. It stores entry exactly as given: an entry
// without a cached-at timestamp is not stamped, so it stays unstamped (and
// is treated as fresh by tier.Expire) until the caller stamps it.
func (m *MockTier[K, V]) Insert(ctx context.Context, key K, entry tier.CacheEntry[V]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Op[K]{Kind: OpInsert, Key: key}); err != nil {
		return err
	}
	m.entries[key] = entry
	return nil
}

// Invalidate implements tier.Tier.
func (m *MockTier[K, V]) Invalidate(ctx context.Context, key K) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(Op[K]{Kind: OpInvalidate, Key: key}); err != nil {
		return err
	}
	delete(m.entries, key)
	return nil
}

// Clear implements tier.Tier.
func (m *MockTier[K, V]) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var zero K
	if err := m.record(Op[K]{Kind: OpClear, Key: zero}); err != nil {
		return err
	}
	m.entries = make(map[K]tier.CacheEntry[V])
	return nil
}

// Len implements tier.Tier.
func (m *MockTier[K, V]) Len(ctx context.Context) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.entries)), true
}

// IsEmpty implements tier.Tier.
func (m *MockTier[K, V]) IsEmpty(ctx context.Context) (bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries) == 0, true
}
