// Package cache holds process-lifetime resources that are expensive to build,
// such as a loaded speech model. A Resource is constructed at most once, on
// first use, and the same value is handed back on every later call.
package cache

import (
	"context"
	"sync"
)

// Loader builds the resource. It runs at most once per Resource.
type Loader[T any] func(ctx context.Context) (T, error)

// Resource is a lazily-initialized, process-lifetime value.
// The zero value is not usable; build one with NewResource.
type Resource[T any] struct {
	name string
	load Loader[T]

	once  sync.Once
	value T
	err   error
	done  chan struct{}
}

// NewResource returns a Resource that will call load on first Get.
func NewResource[T any](name string, load Loader[T]) *Resource[T] {
	return &Resource[T]{
		name: name,
		load: load,
		done: make(chan struct{}),
	}
}

// Name identifies the resource in logs.
func (r *Resource[T]) Name() string {
	return r.name
}

// Get returns the resource, constructing it on the first call. Concurrent
// first callers block until the single construction finishes. A failed
// construction is remembered and returned to every caller.
func (r *Resource[T]) Get(ctx context.Context) (T, error) {
	r.once.Do(func() {
		defer close(r.done)
		r.value, r.err = r.load(ctx)
	})
	return r.value, r.err
}

// Loaded reports whether construction has already run.
func (r *Resource[T]) Loaded() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
