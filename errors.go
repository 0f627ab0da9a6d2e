package cachelon

import "fmt"

// OperationalError wraps a failure from a tier operation (get, insert,
// invalidate, clear) with the position of the tier that produced it and the
// Go type of the key involved, so a caller staring at a wrapped error from a
// multi-tier fallback chain can tell which level misbehaved without the
// wrapper needing to know anything about the key or value types (spec §7).
type OperationalError struct {
	TierPosition string
	KeyClass     string
	Err          error
}

func (e *OperationalError) Error() string {
	return fmt.Sprintf("cachelon: tier %q (key %s): %v", e.TierPosition, e.KeyClass, e.Err)
}

func (e *OperationalError) Unwrap() error { return e.Err }

// ConstructionError reports a Builder.Build() precondition violation. It
// never escapes a running cache — only Build itself returns one (spec §4.8).
type ConstructionError struct {
	Reason string
}

func (e *ConstructionError) Error() string { return "cachelon: " + e.Reason }

func keyClass[K comparable](key K) string {
	return fmt.Sprintf("%T", key)
}
