package hash

import (
	"context"

	nt "visdom/entity"
	"visdom/event"
	"visdom/state"
)

// Location is where the address lives.
type Location interface {
	Address() string
	// Push records a new address, as a programmatic write does.
	Push(addr string)
	// Replace overwrites the current address without adding to history.
	Replace(addr string)
}

// Origin tells a write from a navigation.
type Origin int

const (
	Written Origin = iota
	Navigated
)

func (org Origin) String() string {
	return [...]string{"write", "navigate"}[org]
}

// EventKind enumerates sync events.
type EventKind int

const (
	EventChange EventKind = iota
)

// ChangeEvent carries the decoded state and its diff against the previous state.
type ChangeEvent struct {
	Data   state.Snapshot
	Diff   state.Diff
	Origin Origin
}

// Sync keeps a snapshot and a location in step.
type Sync struct {
	Events event.Bus[EventKind, ChangeEvent]

	tmpl     *Template
	loc      Location
	lgr      nt.Logger
	defaults state.Snapshot
	last     state.Snapshot
}

// New creates a sync over loc.
func New(tmpl *Template, loc Location, lgr nt.Logger) *Sync {

	return &Sync{
		tmpl:     tmpl,
		loc:      loc,
		lgr:      nt.OrNoop(lgr),
		defaults: state.Snapshot{},
		last:     state.Snapshot{},
	}
}

// OnChange subscribes to changes from writes and navigation.
func (hs *Sync) OnChange(fn func(ChangeEvent)) (off func()) {
	return hs.Events.On(EventChange, fn)
}

// Default sets fallback state used when the address is empty.
func (hs *Sync) Default(snap state.Snapshot) {
	hs.defaults = snap.Clone()
}

// Encode renders snap as an address.
func (hs *Sync) Encode(snap state.Snapshot) string {
	return hs.tmpl.Encode(snap)
}

// Decode reads an address, falling back to defaults when it is empty.
func (hs *Sync) Decode(addr string) (snap state.Snapshot, err error) {

	if addr == "" || addr == "#" {
		snap = hs.defaults.Clone()
		return
	}
	return hs.tmpl.Decode(addr)
}

// Read decodes the current address and takes it as the known state, without notifying.
// An undecodable address yields the defaults.
func (hs *Sync) Read(ctx context.Context) (snap state.Snapshot) {

	addr := hs.loc.Address()
	snap, err := hs.Decode(addr)
	if err != nil {
		hs.lgr.Error(ctx, "failed to decode address, using defaults", err, "address", addr)
		snap = hs.defaults.Clone()
	}

	hs.last = snap.Clone()
	return
}

// Write puts snap in the address and notifies subscribers of the diff.
// Nothing happens when the address would not change.
func (hs *Sync) Write(snap state.Snapshot) {

	addr := hs.tmpl.Encode(snap)
	if addr == hs.loc.Address() {
		hs.last = snap.Clone()
		return
	}

	hs.loc.Push(addr)
	hs.emit(snap, Written)
}

// Amend puts snap in the address in place of the current entry and notifies subscribers of the diff.
// It settles an address that needed correcting, such as one missing defaults, without adding history.
func (hs *Sync) Amend(snap state.Snapshot) {

	addr := hs.tmpl.Encode(snap)
	if addr == hs.loc.Address() {
		hs.last = snap.Clone()
		return
	}

	hs.loc.Replace(addr)
	hs.emit(snap, Written)
}

// Navigate handles an address changed from outside, such as back or forward.
func (hs *Sync) Navigate(ctx context.Context, addr string) (err error) {

	snap, err := hs.Decode(addr)
	if err != nil {
		hs.lgr.Error(ctx, "failed to decode address", err, "address", addr)
		return
	}

	hs.emit(snap, Navigated)
	return
}

// Check navigates when the location no longer holds the last written address.
func (hs *Sync) Check(ctx context.Context) (changed bool, err error) {

	addr := hs.loc.Address()
	if addr == hs.tmpl.Encode(hs.last) {
		return
	}

	changed = true
	err = hs.Navigate(ctx, addr)
	return
}

func (hs *Sync) emit(snap state.Snapshot, org Origin) {

	diff := state.Compare(hs.last, snap)
	hs.last = snap.Clone()

	if len(diff) == 0 {
		return
	}
	hs.Events.Emit(EventChange, ChangeEvent{Data: snap.Clone(), Diff: diff, Origin: org})
}
