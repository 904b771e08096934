package timer

import (
	"time"
)

// Debouncer delays a callback until triggers stop arriving for a quiet window.
// The latest triggered value is delivered. Use from a single goroutine.
type Debouncer[T any] struct {
	clock  Clock
	window time.Duration
	fn     func(T)

	timer   Timer
	gen     int
	pending T
}

// NewDebouncer creates a debouncer calling fn after window of quiet.
func NewDebouncer[T any](clock Clock, window time.Duration, fn func(T)) *Debouncer[T] {

	return &Debouncer[T]{
		clock:  clock,
		window: window,
		fn:     fn,
	}
}

// Trigger (re)starts the window with val as the value to deliver.
func (db *Debouncer[T]) Trigger(val T) {

	db.Cancel()

	gen := db.gen
	db.pending = val
	db.timer = db.clock.AfterFunc(db.window, func() {
		// a stopped real timer may already have posted its callback
		if gen != db.gen {
			return
		}
		db.Flush()
	})
}

// Cancel drops any pending delivery.
func (db *Debouncer[T]) Cancel() {

	db.gen++
	if db.timer != nil {
		db.timer.Stop()
		db.timer = nil
	}

	var zero T
	db.pending = zero
}

// Flush delivers a pending value now, if there is one.
func (db *Debouncer[T]) Flush() {

	if db.timer == nil {
		return
	}

	val := db.pending
	db.Cancel()
	db.fn(val)
}

// Pending is true while a delivery is scheduled.
func (db *Debouncer[T]) Pending() bool {
	return db.timer != nil
}
