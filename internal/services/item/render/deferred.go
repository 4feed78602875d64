package render

import (
	"context"
)

// Deferred is a value that may not be available yet. Every render
// contribution is a Deferred, whether it was computed up front or is still
// being produced by an asynchronous collaborator.
type Deferred[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Resolved returns a Deferred that is already complete.
func Resolved[T any](value T) *Deferred[T] {
	d := &Deferred[T]{done: make(chan struct{}), value: value}
	close(d.done)
	return d
}

// Failed returns a Deferred that is already complete with err.
func Failed[T any](err error) *Deferred[T] {
	d := &Deferred[T]{done: make(chan struct{}), err: err}
	close(d.done)
	return d
}

// Go runs fn in its own goroutine and returns its eventual result.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Deferred[T] {
	d := &Deferred[T]{done: make(chan struct{})}
	go func() {
		defer close(d.done)
		d.value, d.err = fn(ctx)
	}()
	return d
}

// Then returns a Deferred holding fn applied to d's value. Errors from d
// skip fn and propagate.
func Then[T, U any](ctx context.Context, d *Deferred[T], fn func(T) (U, error)) *Deferred[U] {
	return Go(ctx, func(ctx context.Context) (U, error) {
		value, err := d.Await(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(value)
	})
}

// Await blocks until the value is available or ctx is done.
func (d *Deferred[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-d.done:
		return d.value, d.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports whether the value is available without blocking.
func (d *Deferred[T]) Done() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}
