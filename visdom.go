// Package visdom reconciles one canonical view state with the address, the filter and the
// selected chart, so that fetching and rendering happen only when the state they depend on changes.
package visdom

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pkg/errors"

	"visdom/chart"
	"visdom/codec"
	nt "visdom/entity"
	"visdom/event"
	"visdom/filter"
	"visdom/hash"
	"visdom/serial"
	"visdom/state"
	"visdom/timer"
)

// Todo: surface chart fields to the tui so they can be edited there too

// Provider specifies the data behind the dashboard.
type Provider interface {
	// Sources lists the available data sources.
	Sources() []nt.Source
	// Columns loads column metadata for a source.
	Columns(ctx context.Context, source string) (cols []nt.Column, err error)
	// Histogram bins a column under criteria.
	Histogram(ctx context.Context, qry nt.HistogramQuery) (bins []nt.Bin, err error)
	// Categories counts a category column's distinct values.
	Categories(ctx context.Context, source, column string) (cats []nt.CategoryCount, err error)
	// Rows selects rows under criteria.
	Rows(ctx context.Context, qry nt.RowQuery) (tbl nt.Table, err error)
}

// Status is a chart's place in its lifecycle.
type Status int

const (
	Unselected Status = iota
	Building
	Active
)

func (st Status) String() string {
	return [...]string{"unselected", "building", "active"}[st]
}

// EventKind enumerates controller events.
type EventKind int

const (
	// EventState follows every committed state change.
	EventState EventKind = iota
	// EventSchema follows loading a source's columns.
	EventSchema
	// EventSelect follows a chart becoming active.
	EventSelect
)

// Event carries the controller's state at the time of the event.
type Event struct {
	State state.Snapshot
	Diff  state.Diff
}

// Config configures the controller.
type Config struct {
	// Version selects the filter wire format.
	Version int `yaml:"version"`
	// Template lays out the address.
	Template string `yaml:"template"`
	// Debounce is the quiet window before a filter edit reaches the state.
	Debounce time.Duration `yaml:"debounce"`
	// Filter configures the filter model.
	Filter filter.Config `yaml:"filter"`
	// Default is the state used when the address is empty.
	Default map[string]any `yaml:"default"`
}

// Controller owns the view state.
// All methods, and all callbacks it registers, run on the executor's goroutine.
type Controller struct {
	Events event.Bus[EventKind, Event]

	ctx      context.Context
	logger   nt.Logger
	provider Provider
	codec    codec.Codec
	exec     serial.Executor

	store    *state.Store
	hash     *hash.Sync
	filter   *filter.Model
	defaults state.Snapshot

	charts    []*Registration
	instances map[string]chart.Chart
	status    map[string]Status
	active    *Registration
	schema    nt.Schema

	filterChange *timer.Debouncer[struct{}]

	reacting bool
	pending  state.Diff
	last     state.Snapshot
}

// New creates a controller over provider with the given charts.
func (cfg *Config) New(ctx context.Context, provider Provider, charts []*Registration, loc hash.Location, clock timer.Clock, exec serial.Executor, lgr nt.Logger) (ctl *Controller, err error) {

	if len(charts) == 0 {
		err = errors.Errorf("no charts registered")
		return
	}

	version := cfg.Version
	if version == 0 {
		version = 2
	}
	cdc, err := codec.Select(version)
	if err != nil {
		return
	}

	text := cfg.Template
	if text == "" {
		text = "{source}/{chart}?"
	}
	tmpl, err := hash.Compile(text)
	if err != nil {
		return
	}

	window := cfg.Debounce
	if window == 0 {
		window = 500 * time.Millisecond
	}

	lgr = nt.OrNoop(lgr)
	ctl = &Controller{
		ctx:       ctx,
		logger:    lgr,
		provider:  provider,
		codec:     cdc,
		exec:      exec,
		store:     state.NewStore(state.Snapshot{}),
		hash:      hash.New(tmpl, loc, lgr),
		defaults:  state.Snapshot(cfg.Default).Clone(),
		charts:    charts,
		instances: map[string]chart.Chart{},
		status:    map[string]Status{},
		last:      state.Snapshot{},
	}
	ctl.filter = cfg.Filter.New(ctx, cdc, provider, clock, exec, lgr)
	ctl.filterChange = timer.NewDebouncer(clock, window, func(struct{}) {
		ctl.onFilterChange()
	})

	if ctl.defaults.String("chart") == "" {
		ctl.defaults["chart"] = charts[0].ID
	}
	if ctl.defaults.String("source") == "" {
		sources := provider.Sources()
		if len(sources) > 0 {
			ctl.defaults["source"] = sources[0].Name
		}
	}
	ctl.hash.Default(ctl.defaults)

	return
}

// Start reads the address, brings everything in line with it and begins listening for changes.
func (ctl *Controller) Start() {

	ctl.hash.OnChange(func(evt hash.ChangeEvent) {
		if evt.Origin == hash.Navigated {
			ctl.onNavigate(evt)
		}
	})
	ctl.filter.Events.On(filter.EventChange, func(filter.Event) {
		ctl.filterChange.Trigger(struct{}{})
	})
	ctl.filter.Events.On(filter.EventAdvanced, func(filter.Event) {
		ctl.SetState(state.Snapshot{"adv": advFlag(ctl.filter.Advanced())})
	})

	snap := ctl.hash.Read(ctl.ctx)
	ctl.commit(ctl.store.Replace(snap), true)
}

// State returns a copy of the current state.
func (ctl *Controller) State() state.Snapshot {
	return ctl.store.Get()
}

// SetState merges partial into the state, writes the address and reacts to what changed.
func (ctl *Controller) SetState(partial state.Snapshot) (diff state.Diff) {

	diff = ctl.store.Set(partial)
	ctl.commit(diff, false)
	return
}

// SelectChart makes the chart with id active.
func (ctl *Controller) SelectChart(id string) {
	ctl.SetState(state.Snapshot{"chart": id})
}

// SetSource switches data source, dropping the filter.
func (ctl *Controller) SetSource(source string) {

	ctl.filterChange.Cancel()
	ctl.SetState(state.Snapshot{"source": source, "filter": nil})
}

// Unset removes keys from the state without reacting; for teardown hooks.
func (ctl *Controller) Unset(keys ...string) {
	ctl.store.Unset(keys...)
}

// Filter is the filter model.
func (ctl *Controller) Filter() *filter.Model {
	return ctl.filter
}

// Hash is the address sync.
func (ctl *Controller) Hash() *hash.Sync {
	return ctl.hash
}

// Schema is the current source's columns.
func (ctl *Controller) Schema() nt.Schema {
	return ctl.schema
}

// Categories counts the distinct values of a category column in the current source.
func (ctl *Controller) Categories(column string) (cats []nt.CategoryCount, err error) {

	cats, err = ctl.provider.Categories(ctl.ctx, ctl.schema.Source, column)
	err = errors.Wrapf(err, "failed to get categories for %q", column)
	return
}

// Sources lists the provider's sources.
func (ctl *Controller) Sources() []nt.Source {
	return ctl.provider.Sources()
}

// Charts lists the registered charts.
func (ctl *Controller) Charts() []*Registration {
	return ctl.charts
}

// Active returns the active chart, nil when none is.
func (ctl *Controller) Active() (reg *Registration, inst chart.Chart) {

	if ctl.active == nil {
		return
	}
	return ctl.active, ctl.instances[ctl.active.ID]
}

// Status returns a chart's lifecycle status.
func (ctl *Controller) Status(id string) Status {
	return ctl.status[id]
}

// Describe summarizes the controller's state on one line.
func (ctl *Controller) Describe() string {

	snap := ctl.store.Get()

	bits := []string{
		fmt.Sprintf("source=%s", snap.String("source")),
		fmt.Sprintf("chart=%s", snap.String("chart")),
	}
	if ctl.active != nil {
		bits = append(bits, fmt.Sprintf("status=%s", ctl.status[ctl.active.ID]))
	}
	if expr := snap.String("filter"); expr != "" {
		bits = append(bits, fmt.Sprintf("filter=%s", expr))
	}
	if ctl.filter.Advanced() {
		bits = append(bits, "adv")
	}

	for _, key := range snap.Keys() {
		if slices.Contains(reserved, key) {
			continue
		}
		bits = append(bits, fmt.Sprintf("%s=%s", key, snap.String(key)))
	}
	return strings.Join(bits, " ")
}

// unexported

var reserved = []string{"source", "chart", "filter", "adv"}

func advFlag(adv bool) any {

	if adv {
		return true
	}
	return nil
}

func (ctl *Controller) onNavigate(evt hash.ChangeEvent) {

	ctl.logger.Info(ctl.ctx, "navigated", "address", ctl.hash.Encode(evt.Data))
	ctl.commit(ctl.store.Replace(evt.Data), true)
}

func (ctl *Controller) onFilterChange() {

	expr, err := ctl.filter.Compile()
	if err != nil {
		ctl.logger.Error(ctl.ctx, "failed to compile filter", err)
		return
	}

	var val any
	if expr != "" {
		val = expr
	}
	ctl.SetState(state.Snapshot{"filter": val})
}

func (ctl *Controller) deps() chart.Deps {

	return chart.Deps{
		Querier: ctl.provider,
		Codec:   ctl.codec,
		Schema:  ctl.Schema,
	}
}
