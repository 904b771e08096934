package chart

import (
	"context"

	nt "visdom/entity"
	"visdom/serial"
	"visdom/state"
)

// TableFields are the table's state keys.
var TableFields = []Field{
	{Key: "y", Label: "Sort column", Column: true},
	{Key: "nrows", Label: "First n rows"},
	{Key: "asc", Label: "Ascending?"},
}

// TableDefaults sorts by the first numeric column, largest first.
func TableDefaults(sch nt.Schema) (snap state.Snapshot, err error) {

	cols, err := numeric(sch, 1)
	if err != nil {
		return
	}

	snap = state.Snapshot{"y": cols[0].Name, "nrows": 100, "asc": false}
	return
}

// Table lists the first rows by one column.
type Table struct {
	*Base
	deps Deps
}

// NewTable creates a table chart.
func NewTable(ctx context.Context, deps Deps, exec serial.Executor, lgr nt.Logger) *Table {

	tbl := &Table{deps: deps}
	tbl.Base = NewBase(ctx, tbl.fetch, exec, lgr)
	return tbl
}

func (tbl *Table) fetch(snap state.Snapshot) (job Job, err error) {

	sch := tbl.deps.Schema()

	col, err := lookup(sch, snap.String("y"))
	if err != nil {
		return
	}

	crits, err := tbl.deps.criteria(snap)
	if err != nil {
		return
	}

	qry := nt.RowQuery{
		Source:   snap.String("source"),
		Columns:  sch.Names(),
		Criteria: crits,
		OrderBy:  col.Name,
		Desc:     !snap.Bool("asc"),
		Limit:    snap.Int("nrows", 100),
	}

	job = func(ctx context.Context) (data any, err error) {
		return tbl.deps.Querier.Rows(ctx, qry)
	}
	return
}
