// Package chart defines the chart contract and the fetching/rendering lifecycle shared by charts.
package chart

import (
	"context"

	"visdom/codec"
	nt "visdom/entity"
	"visdom/event"
	"visdom/state"
)

// EventKind enumerates chart lifecycle events.
type EventKind int

const (
	EventLoading EventKind = iota
	EventLoad
	EventError
	EventRender
)

func (kind EventKind) String() string {
	return [...]string{"loading", "load", "error", "render"}[kind]
}

// Event carries a lifecycle event's payload.
type Event struct {
	// Request is the id of the request concerned.
	Request string
	Data    any
	Err     error
}

// Stateful charts hold their own copy of view state.
type Stateful interface {
	State() state.Snapshot
	SetState(partial state.Snapshot) state.Diff
}

// Fetchable charts load data with an abortable request.
type Fetchable interface {
	Load(done func(data any, err error)) *Request
	Abort() bool
}

// Dispatchable charts emit lifecycle events.
type Dispatchable interface {
	Events() *event.Bus[EventKind, Event]
}

// Chart is what a controller drives.
type Chart interface {
	Stateful
	Fetchable
	Dispatchable
	// Update loads, then renders, then calls done; done is not called for a superseded update.
	Update(done func(err error))
	// Data is the last rendered data.
	Data() any
}

// Querier runs chart queries.
type Querier interface {
	Histogram(ctx context.Context, qry nt.HistogramQuery) (bins []nt.Bin, err error)
	Rows(ctx context.Context, qry nt.RowQuery) (tbl nt.Table, err error)
}

// Field describes a chart-specific state key.
type Field struct {
	Key   string
	Label string
	// Types restricts a column field to columns of these types.
	Types []nt.ColumnType
	// Column is true when the field names a column.
	Column bool
}

// Deps are what charts need from their host.
type Deps struct {
	Querier Querier
	Codec   codec.Codec
	// Schema returns the current source's columns.
	Schema func() nt.Schema
}

// criteria decodes the filter held in snap.
func (deps Deps) criteria(snap state.Snapshot) (crits []nt.Criterion, err error) {
	return deps.Codec.Parse(snap.String("filter"))
}
