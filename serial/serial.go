// Package serial runs posted work on a single goroutine.
package serial

import (
	"context"
	"sync"
)

// Executor accepts work to run later on the owning goroutine.
type Executor interface {
	Post(fn func())
}

// Loop is an unbounded queue of closures drained by one goroutine.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	ready chan struct{}
}

// NewLoop creates a loop.
func NewLoop() *Loop {
	return &Loop{ready: make(chan struct{}, 1)}
}

// Post queues fn; safe from any goroutine.
func (lp *Loop) Post(fn func()) {

	lp.mu.Lock()
	lp.queue = append(lp.queue, fn)
	lp.mu.Unlock()

	select {
	case lp.ready <- struct{}{}:
	default:
	}
}

// Ready signals when work may be waiting.
func (lp *Loop) Ready() <-chan struct{} {
	return lp.ready
}

// Drain runs queued work, including work queued while draining, until the queue is empty.
// It returns the number of closures run.
func (lp *Loop) Drain() (count int) {

	for {
		fn := lp.pop()
		if fn == nil {
			return
		}
		fn()
		count++
	}
}

// Step waits for work, then drains.
func (lp *Loop) Step(ctx context.Context) (count int, err error) {

	if count = lp.Drain(); count > 0 {
		return
	}

	select {
	case <-ctx.Done():
		err = ctx.Err()
		return
	case <-lp.ready:
	}

	count = lp.Drain()
	return
}

// Run drains until ctx is done.
func (lp *Loop) Run(ctx context.Context) (err error) {

	for {
		_, err = lp.Step(ctx)
		if err != nil {
			return
		}
	}
}

// Pending is the number of queued closures.
func (lp *Loop) Pending() int {

	lp.mu.Lock()
	defer lp.mu.Unlock()

	return len(lp.queue)
}

func (lp *Loop) pop() (fn func()) {

	lp.mu.Lock()
	defer lp.mu.Unlock()

	if len(lp.queue) == 0 {
		return
	}

	fn = lp.queue[0]
	lp.queue[0] = nil
	lp.queue = lp.queue[1:]
	return
}

// Inline runs posted work immediately on the caller's goroutine.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }
