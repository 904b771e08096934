// Package filter holds the current filter as an ordered list of per-column entries.
//
// Entries are edited through widgets in list mode, or wholesale as text in advanced mode,
// and compile to a wire string through a codec.
package filter

import (
	"context"
	"slices"
	"time"

	"github.com/pkg/errors"

	"visdom/codec"
	nt "visdom/entity"
	"visdom/event"
	"visdom/serial"
	"visdom/timer"
)

// Todo: look at keeping removed entries around for undo

// ErrUnknownColumn is wrapped when a criterion names a column the source lacks.
var ErrUnknownColumn = errors.New("unknown column")

// EventKind enumerates model events.
type EventKind int

const (
	// EventChange follows any edit to the compiled filter.
	EventChange EventKind = iota
	// EventClear follows dropping all entries.
	EventClear
	// EventUpdate follows a completed histogram refresh.
	EventUpdate
	// EventAdvanced follows a switch between list and advanced mode.
	EventAdvanced
)

// Event describes a model event.
type Event struct {
	// Entry is the entry edited, nil when the filter changed as a whole.
	Entry *Entry
	// Temporary is true when only the entry's enablement changed.
	Temporary bool
	// Bins are refreshed histograms by entry id.
	Bins map[int][]nt.Bin
	// Err is a failed histogram refresh.
	Err error
}

// Columns looks up column metadata for the current source.
type Columns interface {
	Column(name string) (col nt.Column, ok bool)
}

// Histograms computes histograms, blocking until done or ctx is cancelled.
type Histograms interface {
	Histogram(ctx context.Context, qry nt.HistogramQuery) (bins []nt.Bin, err error)
}

// Entry is one column's criterion.
type Entry struct {
	ID       int
	Column   nt.Column
	Widget   Widget
	Disabled bool
	Removed  bool

	off []func()
}

// Active is true for an enabled, kept entry with clauses.
func (ent *Entry) Active() bool {
	return !ent.Disabled && !ent.Removed && len(ent.Widget.Expression()) > 0
}

// Criterion returns the entry's clauses as a criterion.
func (ent *Entry) Criterion() (crit nt.Criterion, err error) {

	cls, err := ent.Widget.Clauses()
	if err != nil {
		return
	}

	crit = nt.Criterion{Column: ent.Column.Name, Clauses: cls}
	return
}

type Config struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Model is the current filter. Use from a single goroutine.
type Model struct {
	Events event.Bus[EventKind, Event]

	codec   codec.Codec
	columns Columns
	hist    Histograms
	exec    serial.Executor
	ctx     context.Context
	logger  nt.Logger

	source   string
	entries  []*Entry
	nextID   int
	advanced bool
	text     string

	refresh *timer.Debouncer[struct{}]
	cancels map[int]context.CancelFunc
	gen     int
}

// New creates an empty model.
// Histogram results are handed back through exec; ctx bounds histogram requests.
func (cfg *Config) New(ctx context.Context, cdc codec.Codec, hist Histograms, clock timer.Clock, exec serial.Executor, lgr nt.Logger) *Model {

	window := cfg.Debounce
	if window == 0 {
		window = 200 * time.Millisecond
	}

	mdl := &Model{
		codec:   cdc,
		hist:    hist,
		exec:    exec,
		ctx:     ctx,
		logger:  nt.OrNoop(lgr),
		cancels: map[int]context.CancelFunc{},
	}
	mdl.refresh = timer.NewDebouncer(clock, window, func(struct{}) {
		mdl.RefreshHistograms()
	})

	return mdl
}

// Reset empties the model for a new source.
func (mdl *Model) Reset(source string, cols Columns) {

	mdl.source = source
	mdl.columns = cols
	mdl.advanced = false
	mdl.text = ""
	mdl.drop()

	mdl.Events.Emit(EventClear, Event{})
}

// Clear drops all entries.
func (mdl *Model) Clear() {

	mdl.text = ""
	mdl.drop()

	mdl.Events.Emit(EventClear, Event{})
	mdl.Events.Emit(EventChange, Event{})
}

// Source is the source the model's columns belong to.
func (mdl *Model) Source() string {
	return mdl.source
}

// Entries returns the entries not removed, in order.
func (mdl *Model) Entries() (ents []*Entry) {

	for _, ent := range mdl.entries {
		if !ent.Removed {
			ents = append(ents, ent)
		}
	}
	return
}

// Entry finds an entry by id.
func (mdl *Model) Entry(id int) (ent *Entry, ok bool) {

	idx := slices.IndexFunc(mdl.entries, func(ent *Entry) bool { return ent.ID == id })
	if idx < 0 {
		return
	}
	return mdl.entries[idx], true
}

// AddCriterion appends an entry for column with initial clauses.
func (mdl *Model) AddCriterion(column string, initial []string) (ent *Entry, err error) {

	ent, err = mdl.newEntry(column, initial)
	if err != nil {
		return
	}
	mdl.entries = append(mdl.entries, ent)

	mdl.changed(ent, false)
	return
}

// SetDisabled enables or disables an entry without removing it.
func (mdl *Model) SetDisabled(id int, disabled bool) (err error) {

	ent, err := mdl.live(id)
	if err != nil || ent.Disabled == disabled {
		return
	}

	ent.Disabled = disabled
	mdl.changed(ent, true)
	return
}

// Remove soft-deletes an entry.
func (mdl *Model) Remove(id int) (err error) {

	ent, err := mdl.live(id)
	if err != nil {
		return
	}

	ent.Removed = true
	mdl.detach(ent)
	mdl.changed(ent, false)
	return
}

// SetClauses replaces an entry's clauses, returning any its widget could not take.
func (mdl *Model) SetClauses(id int, exprs []string) (skipped []string, err error) {

	ent, err := mdl.live(id)
	if err != nil {
		return
	}

	skipped = ent.Widget.SetExpression(exprs)
	mdl.changed(ent, false)
	return
}

// Criteria returns the active entries' criteria.
func (mdl *Model) Criteria() (crits []nt.Criterion) {
	return mdl.criteria(mdl.entries, nil)
}

// Compile encodes the active criteria, "" when there are none.
func (mdl *Model) Compile() (wire string, err error) {

	crits := mdl.Criteria()
	if len(crits) == 0 {
		return
	}

	wire, err = mdl.codec.Format(crits)
	return
}

// SetFromExpression decodes expr and applies it with SetCriteria.
// A decode error leaves the model untouched.
func (mdl *Model) SetFromExpression(expr string) (changed bool, err error) {

	crits, err := mdl.codec.Parse(expr)
	if err != nil {
		return
	}

	changed, err = mdl.SetCriteria(crits)
	return
}

// SetCriteria replaces the entries with one per criterion.
// Nothing happens, and no event is emitted, when crits come out equal to the current criteria.
func (mdl *Model) SetCriteria(crits []nt.Criterion) (changed bool, err error) {

	ents := make([]*Entry, 0, len(crits))
	for _, crit := range crits {
		err = crit.Validate()
		if err != nil {
			break
		}

		var ent *Entry
		ent, err = mdl.newEntry(crit.Column, crit.Expression())
		if err != nil {
			break
		}
		ents = append(ents, ent)
	}

	if err != nil || nt.EqualCriteria(mdl.Criteria(), mdl.criteria(ents, nil)) {
		for _, ent := range ents {
			mdl.detach(ent)
		}
		return
	}

	mdl.drop()
	mdl.entries = ents
	if mdl.advanced {
		mdl.text = mdl.compiled()
	}

	changed = true
	mdl.changed(nil, false)
	return
}

// Advanced is true in advanced mode.
func (mdl *Model) Advanced() bool {
	return mdl.advanced
}

// Expression is the advanced-mode text, or the compiled filter in list mode.
func (mdl *Model) Expression() string {

	if mdl.advanced {
		return mdl.text
	}
	return mdl.compiled()
}

// ShowAdvanced switches to advanced mode, seeding the text from the compiled filter.
func (mdl *Model) ShowAdvanced() {

	if mdl.advanced {
		return
	}

	mdl.text = mdl.compiled()
	mdl.advanced = true
	mdl.Events.Emit(EventAdvanced, Event{})
}

// ShowList switches to list mode by applying the advanced-mode text.
// When the text does not parse, it is kept and the model stays in advanced mode.
func (mdl *Model) ShowList() (err error) {

	if !mdl.advanced {
		return
	}

	_, err = mdl.SetFromExpression(mdl.text)
	if err != nil {
		return
	}

	mdl.advanced = false
	mdl.Events.Emit(EventAdvanced, Event{})
	return
}

// SubmitAdvanced applies text typed in advanced mode, keeping it verbatim either way.
func (mdl *Model) SubmitAdvanced(text string) (err error) {

	mdl.advanced = true
	mdl.text = text

	_, err = mdl.SetFromExpression(text)
	mdl.text = text
	return
}

// unexported

func (mdl *Model) newEntry(column string, initial []string) (ent *Entry, err error) {

	if mdl.columns == nil {
		err = errors.Wrapf(ErrUnknownColumn, "no columns loaded for %q", column)
		return
	}

	col, ok := mdl.columns.Column(column)
	if !ok {
		err = errors.Wrapf(ErrUnknownColumn, "source %q has no column %q", mdl.source, column)
		return
	}

	wdg, err := NewWidget(col)
	if err != nil {
		return
	}

	skipped := wdg.SetExpression(initial)
	if len(skipped) > 0 {
		mdl.logger.Info(mdl.ctx, "skipped filter clauses", "column", column, "clauses", skipped)
	}

	mdl.nextID++
	ent = &Entry{ID: mdl.nextID, Column: col, Widget: wdg}
	ent.off = []func(){
		wdg.Events().On(WidgetChange, func([]string) {
			mdl.changed(ent, false)
		}),
	}
	return
}

func (mdl *Model) live(id int) (ent *Entry, err error) {

	ent, ok := mdl.Entry(id)
	if !ok || ent.Removed {
		err = errors.Errorf("no filter entry %d", id)
	}
	return
}

func (mdl *Model) changed(ent *Entry, temporary bool) {

	mdl.abort()
	mdl.Events.Emit(EventChange, Event{Entry: ent, Temporary: temporary})
	mdl.Schedule()
}

func (mdl *Model) detach(ent *Entry) {

	for _, off := range ent.off {
		off()
	}
	ent.off = nil
}

func (mdl *Model) drop() {

	mdl.refresh.Cancel()
	mdl.abort()

	for _, ent := range mdl.entries {
		mdl.detach(ent)
	}
	mdl.entries = nil
}

func (mdl *Model) compiled() string {

	wire, err := mdl.Compile()
	if err != nil {
		mdl.logger.Error(mdl.ctx, "failed to compile filter", err)
	}
	return wire
}

// criteria returns the active criteria of ents, leaving out skip.
func (mdl *Model) criteria(ents []*Entry, skip *Entry) (crits []nt.Criterion) {

	for _, ent := range ents {
		if ent == skip || !ent.Active() {
			continue
		}

		crit, err := ent.Criterion()
		if err != nil {
			mdl.logger.Error(mdl.ctx, "bad clauses in filter entry", err, "column", ent.Column.Name)
			continue
		}
		crits = append(crits, crit)
	}
	return
}
