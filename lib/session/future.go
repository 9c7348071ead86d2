package session

import (
	"context"
	"sync"
)

// Result is the outcome of a successful command.
// For Put and Delete it is always empty. For Get, Found reports whether the key exists.
type Result struct {
	Value string
	Found bool
}

// Future is the completion handle of a command. It is resolved exactly once.
type Future struct {
	once   sync.Once
	done   chan struct{}
	result Result
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve sets the outcome of the future, it reports false if the future was already resolved
func (f *Future) resolve(res Result, err error) (resolved bool) {
	f.once.Do(func() {
		f.result = res
		f.err = err
		close(f.done)
		resolved = true
	})
	return resolved
}

// Done returns a channel that is closed once the future is resolved
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future is resolved or ctx is done.
// Giving up on a future does not cancel the command.
func (f *Future) Wait(ctx context.Context) (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Result returns the outcome without blocking, ErrPending if the future is not resolved yet
func (f *Future) Result() (Result, error) {
	select {
	case <-f.done:
		return f.result, f.err
	default:
		return Result{}, ErrPending
	}
}
