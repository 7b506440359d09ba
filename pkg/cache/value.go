// Package cache holds values that expire after a fixed age.
package cache

import (
	"sync"
	"time"
)

// Value holds one value with the time it was set. A Value is owned by the
// component that uses it; it is safe for concurrent use.
type Value[T any] struct {
	mu        sync.RWMutex
	value     T
	timestamp time.Time
	set       bool
	maxAge    time.Duration
	now       func() time.Time
}

// Option configures a Value.
type Option[T any] func(*Value[T])

// WithClock replaces time.Now.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(v *Value[T]) {
		v.now = now
	}
}

// New returns an empty Value whose contents are fresh for maxAge after each
// Set. A maxAge of zero or less never expires.
func New[T any](maxAge time.Duration, opts ...Option[T]) *Value[T] {
	v := &Value[T]{
		maxAge: maxAge,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Set stores value and restarts its age.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.value = value
	v.timestamp = v.now()
	v.set = true
}

// Get returns the value and whether it is fresh. A stale value is still
// returned with false.
func (v *Value[T]) Get() (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.value, v.freshLocked()
}

// IsFresh reports whether a value is set and younger than the max age.
func (v *Value[T]) IsFresh() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.freshLocked()
}

// Invalidate drops the value.
func (v *Value[T]) Invalidate() {
	v.mu.Lock()
	defer v.mu.Unlock()

	var zero T
	v.value = zero
	v.timestamp = time.Time{}
	v.set = false
}

func (v *Value[T]) freshLocked() bool {
	if !v.set {
		return false
	}
	if v.maxAge <= 0 {
		return true
	}
	return v.now().Sub(v.timestamp) < v.maxAge
}
