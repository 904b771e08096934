package chart

import (
	"context"

	nt "visdom/entity"
	"visdom/serial"
	"visdom/state"
)

// Color schemes for scatter points.
const (
	SchemeCategory  = "category"
	SchemeDivergent = "divergent"
)

// ScatterFields are the scatter plot's state keys.
var ScatterFields = []Field{
	{Key: "x", Label: "X axis", Column: true, Types: []nt.ColumnType{nt.Float, nt.Int, nt.Date}},
	{Key: "y", Label: "Y axis", Column: true, Types: []nt.ColumnType{nt.Float, nt.Int, nt.Date}},
	{Key: "color", Label: "Color by", Column: true},
	{Key: "scheme", Label: "Color scheme"},
	{Key: "samples", Label: "Samples"},
	{Key: "logx", Label: "log x?"},
	{Key: "logy", Label: "log y?"},
}

// ScatterDefaults plots the first two numeric columns colored by the third.
func ScatterDefaults(sch nt.Schema) (snap state.Snapshot, err error) {

	cols, err := numeric(sch, 3)
	if err != nil {
		return
	}

	snap = state.Snapshot{
		"x":       cols[0].Name,
		"y":       cols[1].Name,
		"color":   cols[2].Name,
		"samples": 1000,
		"logx":    false,
		"logy":    false,
	}
	return
}

// ValidateScatter matches the color scheme to the color column's type.
// It returns the keys it had to change, nil when snap was already consistent.
func ValidateScatter(snap state.Snapshot, sch nt.Schema) (fix state.Snapshot) {

	col, ok := sch.Column(snap.String("color"))
	if !ok {
		return
	}

	scheme := snap.String("scheme")
	switch {
	case col.Type == nt.Category && scheme != SchemeCategory:
		fix = state.Snapshot{"scheme": SchemeCategory}
	case col.Type != nt.Category && scheme == SchemeCategory:
		fix = state.Snapshot{"scheme": SchemeDivergent}
	}
	return
}

// Scatter plots a random sample of rows.
type Scatter struct {
	*Base
	deps Deps
}

// NewScatter creates a scatter chart.
func NewScatter(ctx context.Context, deps Deps, exec serial.Executor, lgr nt.Logger) *Scatter {

	sct := &Scatter{deps: deps}
	sct.Base = NewBase(ctx, sct.fetch, exec, lgr)
	return sct
}

func (sct *Scatter) fetch(snap state.Snapshot) (job Job, err error) {

	sch := sct.deps.Schema()

	var names []string
	for _, key := range []string{"x", "y", "color"} {
		name := snap.String(key)
		if name == "" && key == "color" {
			continue
		}
		_, err = lookup(sch, name)
		if err != nil {
			return
		}
		names = append(names, name)
	}

	crits, err := sct.deps.criteria(snap)
	if err != nil {
		return
	}

	qry := nt.RowQuery{
		Source:   snap.String("source"),
		Columns:  names,
		Criteria: crits,
		Limit:    snap.Int("samples", 1000),
		Sample:   true,
	}

	job = func(ctx context.Context) (data any, err error) {
		return sct.deps.Querier.Rows(ctx, qry)
	}
	return
}
