package chart

import (
	"context"

	"github.com/pkg/errors"

	nt "visdom/entity"
	"visdom/serial"
	"visdom/state"
)

var (
	// ErrMissingColumn is wrapped when state names a column the source lacks.
	ErrMissingColumn = errors.New("missing column")
	// ErrTooFewColumns is wrapped when a source cannot supply a chart's default columns.
	ErrTooFewColumns = errors.New("too few columns")
)

// HistogramFields are the histogram's state keys.
var HistogramFields = []Field{
	{Key: "x", Label: "X axis", Column: true, Types: []nt.ColumnType{nt.Float, nt.Int, nt.Date}},
	{Key: "bins", Label: "Bins"},
	{Key: "cum", Label: "Cumulative"},
}

// HistogramDefaults picks the first numeric column.
func HistogramDefaults(sch nt.Schema) (snap state.Snapshot, err error) {

	cols, err := numeric(sch, 1)
	if err != nil {
		return
	}

	snap = state.Snapshot{"x": cols[0].Name, "bins": 100}
	return
}

// Histogram counts rows per bin of one column.
type Histogram struct {
	*Base
	deps Deps
}

// NewHistogram creates a histogram chart.
func NewHistogram(ctx context.Context, deps Deps, exec serial.Executor, lgr nt.Logger) *Histogram {

	hst := &Histogram{deps: deps}
	hst.Base = NewBase(ctx, hst.fetch, exec, lgr)
	return hst
}

func (hst *Histogram) fetch(snap state.Snapshot) (job Job, err error) {

	col, err := lookup(hst.deps.Schema(), snap.String("x"))
	if err != nil {
		return
	}
	if !col.Ranged() {
		err = errors.Errorf("cannot bin %s column %q", col.Type, col.Name)
		return
	}

	crits, err := hst.deps.criteria(snap)
	if err != nil {
		return
	}

	qry := nt.HistogramQuery{
		Source:   snap.String("source"),
		Column:   col,
		Criteria: crits,
		Bins:     snap.Int("bins", col.Bins),
	}
	cum := snap.Bool("cum")

	job = func(ctx context.Context) (data any, err error) {

		bins, err := hst.deps.Querier.Histogram(ctx, qry)
		if err != nil {
			return
		}

		if cum {
			total := 0
			for i := range bins {
				total += bins[i].Count
				bins[i].Count = total
			}
		}

		data = bins
		return
	}
	return
}

func lookup(sch nt.Schema, name string) (col nt.Column, err error) {

	col, ok := sch.Column(name)
	if !ok {
		err = errors.Wrapf(ErrMissingColumn, "source %q has no column %q", sch.Source, name)
	}
	return
}

// numeric returns float then int columns, failing when there are fewer than count.
func numeric(sch nt.Schema, count int) (cols []nt.Column, err error) {

	cols = append(sch.ColumnsByType(nt.Float), sch.ColumnsByType(nt.Int)...)
	if len(cols) < count {
		err = errors.Wrapf(ErrTooFewColumns, "source %q has %d numeric columns, want %d", sch.Source, len(cols), count)
	}
	return
}
