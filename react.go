package visdom

import (
	"slices"

	"github.com/pkg/errors"

	"visdom/chart"
	nt "visdom/entity"
	"visdom/state"
)

var (
	// ErrUnknownChart is logged when state names a chart that is not registered.
	ErrUnknownChart = errors.New("unknown chart")
	// ErrUnknownSource is logged when state names a source the provider lacks.
	ErrUnknownSource = errors.New("unknown source")
	// ErrUnsupportedSource is logged when a chart is refused a source it does not support.
	ErrUnsupportedSource = errors.New("source not supported by chart")
)

// commit writes the address and reacts to diff.
// Changes made while reacting are folded into the same commit.
func (ctl *Controller) commit(diff state.Diff, replaced bool) {

	if ctl.reacting {
		for key, chg := range diff {
			if _, ok := ctl.pending[key]; !ok {
				ctl.pending[key] = chg
			}
		}
		return
	}
	if len(diff) == 0 {
		return
	}

	amend := replaced

	ctl.reacting = true
	for len(diff) > 0 {
		ctl.pending = state.Diff{}
		ctl.react(diff, replaced)
		diff, replaced = ctl.pending, false
	}
	ctl.reacting = false

	snap := ctl.store.Get()
	if amend {
		ctl.hash.Amend(snap)
	} else {
		ctl.hash.Write(snap)
	}

	changes := state.Compare(ctl.last, snap)
	ctl.last = snap
	if len(changes) > 0 {
		ctl.Events.Emit(EventState, Event{State: snap.Clone(), Diff: changes})
	}
}

// react brings source, chart and filter in line with the store.
// At most one chart update is issued.
func (ctl *Controller) react(diff state.Diff, replaced bool) {

	reg, source := ctl.resolve(diff)

	loaded := false
	if source != ctl.schema.Source {
		loaded = ctl.load(source)
		if !loaded {
			if ctl.schema.Source == "" {
				return
			}
			ctl.store.Set(state.Snapshot{"source": ctl.schema.Source})
		}
	}

	switched := false
	if ctl.active != reg {
		ctl.activate(reg, diff, replaced)
		switched = true
	}

	if diff.Has("filter") && !loaded {
		ctl.applyFilter()
	}
	if diff.Has("adv") || loaded {
		ctl.applyAdvanced()
	}

	if !loaded && !switched && len(diff.Without("adv")) == 0 {
		return
	}
	ctl.update(loaded)
}

// resolve picks the chart and source to show, falling back to defaults for unknown ids.
func (ctl *Controller) resolve(diff state.Diff) (reg *Registration, source string) {

	snap := ctl.store.Get()

	id := snap.String("chart")
	reg = ctl.registration(id)
	if reg == nil {
		err := errors.Wrapf(ErrUnknownChart, "no chart %q", id)
		ctl.logger.Error(ctl.ctx, "falling back to default chart", err)

		reg = ctl.registration(ctl.defaults.String("chart"))
		if reg == nil {
			reg = ctl.charts[0]
		}
	}

	source = snap.String("source")
	if !ctl.known(source) {
		err := errors.Wrapf(ErrUnknownSource, "no source %q", source)
		ctl.logger.Error(ctl.ctx, "falling back to default source", err)

		source = ctl.defaults.String("source")
	}

	if !reg.Supports(source) {
		err := errors.Wrapf(ErrUnsupportedSource, "chart %q cannot show %q", reg.ID, source)

		switch {
		case diff.Has("chart") && !diff.Has("source") && ctl.active != nil && ctl.active.Supports(source):
			ctl.logger.Error(ctl.ctx, "refusing chart", err)
			reg = ctl.active
		case reg.Supports(ctl.schema.Source) && ctl.schema.Source != "":
			ctl.logger.Error(ctl.ctx, "refusing source", err)
			source = ctl.schema.Source
		default:
			ctl.logger.Error(ctl.ctx, "refusing source", err)
			source = reg.Sources[0]
		}
	}

	fix := state.Snapshot{}
	if snap.String("chart") != reg.ID {
		fix["chart"] = reg.ID
	}
	if snap.String("source") != source {
		fix["source"] = source
	}
	ctl.store.Set(fix)
	return
}

// load fetches a source's columns and resets the filter over them.
func (ctl *Controller) load(source string) (ok bool) {

	cols, err := ctl.provider.Columns(ctl.ctx, source)
	if err != nil {
		ctl.logger.Error(ctl.ctx, "failed to load columns", err, "source", source)
		return
	}

	ctl.schema = nt.Schema{Source: source, Columns: cols}
	ctl.logger.Info(ctl.ctx, "loaded columns", "source", source, "count", len(cols))

	ctl.filter.Reset(source, ctl.schema)
	ctl.Events.Emit(EventSchema, Event{State: ctl.store.Get()})

	ctl.applyFilter()
	return true
}

// activate tears down the active chart and selects reg.
func (ctl *Controller) activate(reg *Registration, diff state.Diff, replaced bool) {

	old := ctl.active
	if old != nil {
		if inst, ok := ctl.instances[old.ID]; ok {
			inst.Abort()
		}

		if !replaced {
			keys := slices.DeleteFunc(old.Keys(), func(key string) bool {
				return diff.Has(key)
			})
			ctl.store.Unset(keys...)
		}
		if old.Teardown != nil {
			old.Teardown(ctl)
		}

		ctl.status[old.ID] = Unselected
	}

	ctl.status[reg.ID] = Building
	ctl.active = reg

	ctl.fill(reg)

	if _, ok := ctl.instances[reg.ID]; !ok {
		ctl.instances[reg.ID] = reg.Create(ctl.ctx, ctl.deps(), ctl.exec, ctl.logger)
	}

	ctl.status[reg.ID] = Active
	ctl.logger.Info(ctl.ctx, "selected chart", "chart", reg.ID)
	ctl.Events.Emit(EventSelect, Event{State: ctl.store.Get()})
}

// applyFilter hands the filter in the store to the filter model.
// An expression the model cannot take is dropped from the store.
func (ctl *Controller) applyFilter() {

	expr := ctl.store.Get().String("filter")

	var err error
	if expr == "" {
		_, err = ctl.filter.SetCriteria(nil)
	} else {
		_, err = ctl.filter.SetFromExpression(expr)
	}
	ctl.filterChange.Cancel()

	if err != nil {
		ctl.logger.Error(ctl.ctx, "dropping filter", err, "filter", expr)
		ctl.store.Unset("filter")
	}
}

func (ctl *Controller) applyAdvanced() {

	if ctl.store.Get().Bool("adv") {
		ctl.filter.ShowAdvanced()
		return
	}

	err := ctl.filter.ShowList()
	if err != nil {
		ctl.logger.Error(ctl.ctx, "staying in advanced mode", err)
		ctl.store.Set(state.Snapshot{"adv": true})
	}
}

// update syncs the active chart's state from the store and updates it.
// Following a source switch, a failed update reverts the chart's fields to their defaults.
func (ctl *Controller) update(switched bool) {

	reg := ctl.active
	inst := ctl.instances[reg.ID]

	ctl.fill(reg)

	snap := ctl.store.Get()
	if keys := reg.missing(snap, ctl.schema); len(keys) > 0 {
		err := errors.Wrapf(chart.ErrMissingColumn, "source %q lacks the columns in %v", ctl.schema.Source, keys)
		ctl.logger.Error(ctl.ctx, "reverting chart to defaults", err, "chart", reg.ID)
		inst.Events().Emit(chart.EventError, chart.Event{Err: err})

		ctl.revert(reg)
		snap = ctl.store.Get()
	}

	if reg.Validate != nil {
		fix := reg.Validate(snap, ctl.schema)
		if fix != nil {
			ctl.store.Set(fix)
			snap = ctl.store.Get()
		}
	}

	partial := snap.Clone()
	for key := range inst.State() {
		if _, ok := snap[key]; !ok {
			partial[key] = nil
		}
	}
	inst.SetState(partial)

	inst.Update(func(err error) {
		if err == nil || !switched || ctl.active != reg {
			return
		}

		ctl.logger.Error(ctl.ctx, "chart failed on new source, reverting to defaults", err, "chart", reg.ID)
		dflt, ok := ctl.defaultsFor(reg)
		if ok {
			ctl.SetState(dflt)
		}
	})
}

// fill puts the chart's defaults in the store for keys it lacks.
func (ctl *Controller) fill(reg *Registration) {

	dflt, ok := ctl.defaultsFor(reg)
	if !ok {
		return
	}

	snap := ctl.store.Get()
	partial := state.Snapshot{}
	for key, val := range dflt {
		if _, ok := snap[key]; !ok {
			partial[key] = val
		}
	}
	ctl.store.Set(partial)
}

// revert puts the chart's defaults in the store.
func (ctl *Controller) revert(reg *Registration) {

	dflt, ok := ctl.defaultsFor(reg)
	if ok {
		ctl.store.Set(dflt)
	}
}

func (ctl *Controller) defaultsFor(reg *Registration) (dflt state.Snapshot, ok bool) {

	dflt, err := reg.Defaults(ctl.schema)
	if err != nil {
		ctl.logger.Error(ctl.ctx, "failed to derive chart defaults", err, "chart", reg.ID)
		return
	}
	return dflt, true
}

func (ctl *Controller) registration(id string) *Registration {

	idx := slices.IndexFunc(ctl.charts, func(reg *Registration) bool { return reg.ID == id })
	if idx < 0 {
		return nil
	}
	return ctl.charts[idx]
}

func (ctl *Controller) known(source string) bool {

	return slices.ContainsFunc(ctl.provider.Sources(), func(src nt.Source) bool {
		return src.Name == source
	})
}
