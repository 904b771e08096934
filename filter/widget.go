package filter

import (
	"slices"
	"time"

	"github.com/pkg/errors"

	"visdom/clause"
	nt "visdom/entity"
	"visdom/event"
)

// WidgetKind enumerates widget events.
type WidgetKind int

const (
	// WidgetChange follows a user edit; the payload is the new expression.
	WidgetChange WidgetKind = iota
	// WidgetScale follows new histogram bins or domain.
	WidgetScale
)

// Widget edits the clauses of one filter entry.
type Widget interface {
	// Expression returns the widget's clauses, nil when unconstrained.
	Expression() []string
	// Clauses returns the widget's clauses as built, without a trip through text.
	Clauses() (cls []nt.Clause, err error)
	// SetExpression replaces the clauses without emitting a change, returning any it skipped.
	SetExpression(exprs []string) (skipped []string)
	// Value returns the widget's selection in its own terms, nil when unconstrained.
	Value() any
	// Events is the widget's change/scale channel.
	Events() *event.Bus[WidgetKind, []string]
	// Histogram is true for widgets that show a histogram.
	Histogram() bool
}

// NewWidget picks a widget for a column's type.
func NewWidget(col nt.Column) (wdg Widget, err error) {

	switch col.Type {
	case nt.Float:
		wdg = NewRange(col, clause.Float)
	case nt.Int:
		wdg = NewRange(col, clause.Int)
	case nt.Date:
		wdg = NewDate(col)
	case nt.Category:
		wdg = NewCategory(col)
	default:
		err = errors.Errorf("no filter widget for column %q of type %q", col.Name, col.Type)
	}
	return
}

// Span is a range widget over an axis.
type Span[T any] struct {
	bus    event.Bus[WidgetKind, []string]
	axis   clause.Axis[T]
	domain clause.Bounds[T]
	rng    *clause.Range[T]
	bins   []nt.Bin
}

// NewRange creates a numeric range widget.
func NewRange(col nt.Column, axis clause.Axis[float64]) *Span[float64] {

	return &Span[float64]{
		axis:   axis,
		domain: clause.Bounds[float64](col.Domain()),
	}
}

// NewDate creates a date range widget.
func NewDate(col nt.Column) *Span[time.Time] {

	return &Span[time.Time]{
		axis:   clause.Unix,
		domain: clause.Bounds[time.Time](col.DateDomain()),
	}
}

func (sp *Span[T]) Events() *event.Bus[WidgetKind, []string] {
	return &sp.bus
}

func (sp *Span[T]) Histogram() bool {
	return true
}

func (sp *Span[T]) Expression() []string {

	if sp.rng == nil {
		return nil
	}
	return clause.FormatRange(*sp.rng, sp.domain, sp.axis)
}

func (sp *Span[T]) Clauses() (cls []nt.Clause, err error) {
	return clause.ParseAll(sp.Expression())
}

func (sp *Span[T]) SetExpression(exprs []string) (skipped []string) {

	sp.rng, skipped = clause.ParseRange(exprs, sp.domain, sp.axis)
	return
}

// Value returns the selected clause.Range[T], or nil.
func (sp *Span[T]) Value() any {

	if sp.rng == nil {
		return nil
	}
	return *sp.rng
}

// Domain returns the widget's bounds.
func (sp *Span[T]) Domain() clause.Bounds[T] {
	return sp.domain
}

// Select brushes [lo, hi) as a user would.
func (sp *Span[T]) Select(lo, hi T) {

	sp.rng = &clause.Range[T]{Lo: lo, Hi: hi, LoInclusive: true}
	sp.bus.Emit(WidgetChange, sp.Expression())
}

// Reset drops the selection as a user would.
func (sp *Span[T]) Reset() {

	sp.rng = nil
	sp.bus.Emit(WidgetChange, nil)
}

// Bins returns the last histogram shown.
func (sp *Span[T]) Bins() []nt.Bin {
	return sp.bins
}

// SetBins shows a new histogram.
func (sp *Span[T]) SetBins(bins []nt.Bin) {

	sp.bins = bins
	sp.bus.Emit(WidgetScale, sp.Expression())
}

// Category is a set-membership widget.
type Category struct {
	bus      event.Bus[WidgetKind, []string]
	multiple bool
	invert   bool
	selected []string
	options  []nt.CategoryCount
}

// NewCategory creates a multiple-selection category widget.
func NewCategory(col nt.Column) *Category {
	return &Category{multiple: true}
}

func (cat *Category) Events() *event.Bus[WidgetKind, []string] {
	return &cat.bus
}

func (cat *Category) Histogram() bool {
	return false
}

// Expression is "in(a,b)" for multiple selection, "=a" for single, "!" prefixed when inverted.
func (cat *Category) Expression() []string {

	cls, _ := cat.Clauses()
	if len(cls) == 0 {
		return nil
	}
	return []string{cls[0].String()}
}

// Clauses keeps each selected value whole, commas included.
func (cat *Category) Clauses() (cls []nt.Clause, err error) {

	if len(cat.selected) == 0 {
		return
	}

	cl := nt.Clause{Op: nt.In, Negate: cat.invert, Values: slices.Clone(cat.selected)}
	if !cat.multiple {
		cl = nt.Clause{Op: nt.Eq, Negate: cat.invert, Values: slices.Clone(cat.selected[:1])}
	}
	cls = []nt.Clause{cl}
	return
}

func (cat *Category) SetExpression(exprs []string) (skipped []string) {

	cat.selected = nil
	cat.invert = false

	for i, expr := range exprs {
		cl, err := clause.Parse(expr)
		if err != nil || i > 0 || (cl.Op != nt.In && cl.Op != nt.Eq) {
			skipped = append(skipped, expr)
			continue
		}

		cat.invert = cl.Negate
		cat.multiple = cl.Op == nt.In
		cat.selected = append([]string(nil), cl.Values...)
	}
	return
}

// Value returns the selected values, or nil.
func (cat *Category) Value() any {

	if len(cat.selected) == 0 {
		return nil
	}
	return append([]string(nil), cat.selected...)
}

// Inverted is true when the selection is excluded rather than kept.
func (cat *Category) Inverted() bool {
	return cat.invert
}

// Select sets the chosen values as a user would.
func (cat *Category) Select(vals ...string) {

	cat.selected = append([]string(nil), vals...)
	if !cat.multiple && len(cat.selected) > 1 {
		cat.selected = cat.selected[:1]
	}
	cat.bus.Emit(WidgetChange, cat.Expression())
}

// Invert flips between keeping and excluding the selection as a user would.
func (cat *Category) Invert(invert bool) {

	cat.invert = invert
	cat.bus.Emit(WidgetChange, cat.Expression())
}

// Options returns the values offered for selection.
func (cat *Category) Options() []nt.CategoryCount {
	return cat.options
}

// SetOptions offers values for selection.
func (cat *Category) SetOptions(opts []nt.CategoryCount) {

	cat.options = opts
	cat.bus.Emit(WidgetScale, cat.Expression())
}
