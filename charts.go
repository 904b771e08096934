package visdom

import (
	"context"
	"slices"

	"visdom/chart"
	nt "visdom/entity"
	"visdom/serial"
	"visdom/state"
)

// Registration describes a kind of chart the controller can host.
type Registration struct {
	ID   string
	Name string
	// Fields are the chart's own state keys.
	Fields []chart.Field
	// Sources restricts the chart to these sources, any when empty.
	Sources []string
	// Defaults derives starting values for the fields from a source's columns.
	Defaults func(sch nt.Schema) (state.Snapshot, error)
	// Validate returns corrections to apply before an update, nil when none are needed.
	Validate func(snap state.Snapshot, sch nt.Schema) state.Snapshot
	// Create builds the chart; it is called once, the first time the chart is selected.
	Create func(ctx context.Context, deps chart.Deps, exec serial.Executor, lgr nt.Logger) chart.Chart
	// Teardown runs when the chart is deselected.
	Teardown func(ctl *Controller)
}

// Supports is true when the chart can show source.
func (reg *Registration) Supports(source string) bool {
	return len(reg.Sources) == 0 || slices.Contains(reg.Sources, source)
}

// Keys returns the chart's field keys.
func (reg *Registration) Keys() (keys []string) {

	for _, fld := range reg.Fields {
		keys = append(keys, fld.Key)
	}
	return
}

// missing returns the column fields in snap naming columns sch lacks.
func (reg *Registration) missing(snap state.Snapshot, sch nt.Schema) (keys []string) {

	for _, fld := range reg.Fields {
		if !fld.Column {
			continue
		}

		name := snap.String(fld.Key)
		if name == "" {
			continue
		}
		if _, ok := sch.Column(name); !ok {
			keys = append(keys, fld.Key)
		}
	}
	return
}

// Charts returns the built-in charts, histogram first.
func Charts() []*Registration {

	return []*Registration{
		{
			ID:       "histogram",
			Name:     "Histogram",
			Fields:   chart.HistogramFields,
			Defaults: chart.HistogramDefaults,
			Create: func(ctx context.Context, deps chart.Deps, exec serial.Executor, lgr nt.Logger) chart.Chart {
				return chart.NewHistogram(ctx, deps, exec, lgr)
			},
			Teardown: func(ctl *Controller) {
				ctl.Unset("bins")
			},
		},
		{
			ID:       "scatter",
			Name:     "Scatter",
			Fields:   chart.ScatterFields,
			Defaults: chart.ScatterDefaults,
			Validate: chart.ValidateScatter,
			Create: func(ctx context.Context, deps chart.Deps, exec serial.Executor, lgr nt.Logger) chart.Chart {
				return chart.NewScatter(ctx, deps, exec, lgr)
			},
			Teardown: func(ctl *Controller) {
				ctl.Unset("samples")
			},
		},
		{
			ID:       "table",
			Name:     "Customer List",
			Fields:   chart.TableFields,
			Defaults: chart.TableDefaults,
			Create: func(ctx context.Context, deps chart.Deps, exec serial.Executor, lgr nt.Logger) chart.Chart {
				return chart.NewTable(ctx, deps, exec, lgr)
			},
		},
	}
}
