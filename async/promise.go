// Package async implements a simple Promise API.
package async

import "context"

// Promise is a simple notification primitive for asynchronous events.
type Promise chan struct{}

// NewPromise returns an unresolved Promise.
func NewPromise() Promise { return make(Promise) }

// Resolve wakes any clients currently waiting on the Promise.
// It must be called at most once.
func (s Promise) Resolve() {
	close(s)
}

// Resolved returns true if the Promise has been resolved.
func (s Promise) Resolved() bool {
	select {
	case <-s:
		return true
	default:
		return false
	}
}

// Wait synchronously blocks until the Promise is resolved.
func (s Promise) Wait() {
	<-s
}

// WaitContext blocks until the Promise is resolved or |ctx| is done,
// returning the context error in the latter case.
func (s Promise) WaitContext(ctx context.Context) error {
	select {
	case <-s:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
