// Package readiness publishes a value produced in the background to any number of waiters.
package readiness

import (
	"context"
	"sync"
)

// Gate is a one-shot future. The zero value is not usable, use New.
type Gate[T any] struct {
	mu       sync.Mutex
	done     chan struct{}
	resolved bool
	value    T
	err      error
}

func New[T any]() *Gate[T] {
	return &Gate[T]{
		done: make(chan struct{}),
	}
}

// Resolve publishes the result and releases every waiter. Only the first call has an effect.
func (g *Gate[T]) Resolve(value T, err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.resolved {
		return false
	}

	g.value = value
	g.err = err
	g.resolved = true
	close(g.done)

	return true
}

// Wait blocks until the gate is resolved or ctx is done.
func (g *Gate[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-g.done:
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return g.value, g.err
}

func (g *Gate[T]) Ready() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}
