// Package timer offers cancellable timers on an injectable clock, and a debouncer built on them.
package timer

import (
	"sort"
	"sync"
	"time"

	"visdom/serial"
)

// Timer is a scheduled callback.
type Timer interface {
	// Stop cancels the callback, reporting whether it was still pending.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(dur time.Duration, fn func()) Timer
}

// Real is a wall clock whose callbacks are posted to an executor, so they run on its goroutine.
type Real struct {
	Exec serial.Executor
}

func (rl Real) Now() time.Time {
	return time.Now()
}

func (rl Real) AfterFunc(dur time.Duration, fn func()) Timer {

	return time.AfterFunc(dur, func() {
		rl.Exec.Post(fn)
	})
}

// Fake is a manually advanced clock; due callbacks run inline from Advance.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	at    time.Time
	seq   int
	fn    func()
	done  bool
}

// NewFake creates a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (fk *Fake) Now() time.Time {

	fk.mu.Lock()
	defer fk.mu.Unlock()

	return fk.now
}

func (fk *Fake) AfterFunc(dur time.Duration, fn func()) Timer {

	fk.mu.Lock()
	defer fk.mu.Unlock()

	fk.seq++
	tmr := &fakeTimer{clock: fk, at: fk.now.Add(dur), seq: fk.seq, fn: fn}
	fk.timers = append(fk.timers, tmr)
	return tmr
}

// Advance moves time forward by dur, running callbacks as they come due in time order.
func (fk *Fake) Advance(dur time.Duration) {

	fk.mu.Lock()
	end := fk.now.Add(dur)
	fk.mu.Unlock()

	for {
		tmr := fk.next(end)
		if tmr == nil {
			break
		}
		tmr.fn()
	}

	fk.mu.Lock()
	fk.now = end
	fk.mu.Unlock()
}

// Pending is the number of timers yet to fire.
func (fk *Fake) Pending() int {

	fk.mu.Lock()
	defer fk.mu.Unlock()

	return len(fk.timers)
}

func (fk *Fake) next(end time.Time) (tmr *fakeTimer) {

	fk.mu.Lock()
	defer fk.mu.Unlock()

	sort.SliceStable(fk.timers, func(i, j int) bool {
		if fk.timers[i].at.Equal(fk.timers[j].at) {
			return fk.timers[i].seq < fk.timers[j].seq
		}
		return fk.timers[i].at.Before(fk.timers[j].at)
	})

	if len(fk.timers) == 0 || fk.timers[0].at.After(end) {
		return
	}

	tmr = fk.timers[0]
	fk.timers = fk.timers[1:]
	tmr.done = true
	fk.now = tmr.at
	return
}

func (tmr *fakeTimer) Stop() bool {

	fk := tmr.clock
	fk.mu.Lock()
	defer fk.mu.Unlock()

	if tmr.done {
		return false
	}
	tmr.done = true

	for i, other := range fk.timers {
		if other == tmr {
			fk.timers = append(fk.timers[:i], fk.timers[i+1:]...)
			break
		}
	}
	return true
}
