package chart

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	nt "visdom/entity"
	"visdom/event"
	"visdom/serial"
	"visdom/state"
)

// Fetcher prepares a fetch for a state snapshot. It runs on the executor's goroutine.
type Fetcher func(snap state.Snapshot) (job Job, err error)

// Job loads data, blocking until done or ctx is cancelled. It runs on its own goroutine.
type Job func(ctx context.Context) (data any, err error)

// Request is a handle on one fetch in flight.
type Request struct {
	ID string

	live   atomic.Bool
	cancel context.CancelFunc
}

// Abort cancels the request; its result, if it still comes, is dropped.
func (req *Request) Abort() {

	req.live.Store(false)
	req.cancel()
}

// Live is false once the request is aborted or done.
func (req *Request) Live() bool {
	return req.live.Load()
}

// Base implements the chart lifecycle around a Fetcher.
// At most one request is in flight; starting another aborts it.
// Use from the executor's goroutine.
type Base struct {
	bus    event.Bus[EventKind, Event]
	state  state.Snapshot
	fetch  Fetcher
	exec   serial.Executor
	ctx    context.Context
	logger nt.Logger

	request *Request
	data    any
	loading bool
}

// NewBase creates a base whose fetch results are handed back through exec.
func NewBase(ctx context.Context, fetch Fetcher, exec serial.Executor, lgr nt.Logger) *Base {

	return &Base{
		state:  state.Snapshot{},
		fetch:  fetch,
		exec:   exec,
		ctx:    ctx,
		logger: nt.OrNoop(lgr),
	}
}

func (base *Base) Events() *event.Bus[EventKind, Event] {
	return &base.bus
}

// State returns a copy of the chart's state.
func (base *Base) State() state.Snapshot {
	return base.state.Clone()
}

// SetState merges partial into the chart's state; nil values unset.
func (base *Base) SetState(partial state.Snapshot) (diff state.Diff) {

	store := state.NewStore(base.state)
	diff = store.Set(partial)
	base.state = store.Get()
	return
}

// Data is the last rendered data.
func (base *Base) Data() any {
	return base.data
}

// Loading is true while a request is in flight.
func (base *Base) Loading() bool {
	return base.loading
}

// Abort cancels the request in flight, if any.
func (base *Base) Abort() bool {

	if base.request == nil {
		return false
	}

	base.request.Abort()
	base.request = nil
	base.loading = false
	return true
}

// Load aborts any request in flight and starts a new one for the current state.
// Done runs on the executor unless the request is aborted first.
func (base *Base) Load(done func(data any, err error)) (req *Request) {

	base.Abort()

	ctx, cancel := context.WithCancel(base.ctx)
	req = &Request{ID: uuid.NewString(), cancel: cancel}
	req.live.Store(true)

	base.request = req
	base.loading = true

	job, err := base.fetch(base.state.Clone())
	go func() {
		var data any
		if err == nil {
			data, err = job(ctx)
		}
		base.exec.Post(func() {
			if !req.Live() {
				return
			}

			req.live.Store(false)
			cancel()
			base.request = nil
			base.loading = false

			if err != nil {
				base.logger.Error(base.ctx, "chart fetch failed", err, "request", req.ID)
				base.bus.Emit(EventError, Event{Request: req.ID, Err: err})
			} else {
				base.bus.Emit(EventLoad, Event{Request: req.ID, Data: data})
			}
			done(data, err)
		})
	}()

	base.bus.Emit(EventLoading, Event{Request: req.ID})
	return
}

// Update loads then renders; on error the previous data stays.
func (base *Base) Update(done func(err error)) {

	base.Load(func(data any, err error) {
		if err == nil {
			base.data = data
			base.bus.Emit(EventRender, Event{Data: data})
		}
		if done != nil {
			done(err)
		}
	})
}
