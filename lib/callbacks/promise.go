package callbacks

import (
	"context"
	"sync/atomic"
	"time"
)

const (
	promisePending uint32 = iota
	promiseCompleting
	promiseDone
)

// Promise is the completion handle of one pending request.
// It is fulfilled at most once; later Complete/Fail calls are ignored and return false.
type Promise[T any] struct {
	id      uint32
	created time.Time
	state   atomic.Uint32
	done    chan struct{}
	value   T
	err     error
}

// NewPromise creates a pending promise for the given correlation ID
func NewPromise[T any](id uint32) *Promise[T] {
	return &Promise[T]{
		id:      id,
		created: time.Now(),
		done:    make(chan struct{}),
	}
}

// FailedPromise creates a promise that is already failed with err
func FailedPromise[T any](id uint32, err error) *Promise[T] {
	p := NewPromise[T](id)
	p.Fail(err)
	return p
}

// ID returns the correlation ID the promise was created for
func (p *Promise[T]) ID() uint32 {
	return p.id
}

// Age returns the time since the promise was created
func (p *Promise[T]) Age() time.Duration {
	return time.Since(p.created)
}

// Complete fulfills the promise with value.
// Returns false if the promise was already fulfilled.
func (p *Promise[T]) Complete(value T) bool {
	if !p.state.CompareAndSwap(promisePending, promiseCompleting) {
		return false
	}
	p.value = value
	p.state.Store(promiseDone)
	close(p.done)
	return true
}

// Fail fulfills the promise with err.
// Returns false if the promise was already fulfilled.
func (p *Promise[T]) Fail(err error) bool {
	if !p.state.CompareAndSwap(promisePending, promiseCompleting) {
		return false
	}
	p.err = err
	p.state.Store(promiseDone)
	close(p.done)
	return true
}

// Done returns a channel that is closed once the promise is fulfilled
func (p *Promise[T]) Done() <-chan struct{} {
	return p.done
}

// IsDone reports whether the promise has been fulfilled (or is being fulfilled)
func (p *Promise[T]) IsDone() bool {
	return p.state.Load() != promisePending
}

// Result returns the outcome without blocking. ok is false while the promise is pending.
func (p *Promise[T]) Result() (value T, err error, ok bool) {
	select {
	case <-p.done:
		return p.value, p.err, true
	default:
		return value, nil, false
	}
}

// Await blocks until the promise is fulfilled or ctx is done.
// A ctx error does not change the promise; the caller decides whether to cancel the request.
func (p *Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.value, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
