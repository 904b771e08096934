package entity

import (
	"math"
	"time"
)

// ColumnType is the kind of data held by a column.
type ColumnType string

const (
	Int      ColumnType = "int"
	Float    ColumnType = "float"
	Date     ColumnType = "date"
	Category ColumnType = "category"
)

const defaultBins = 100

// Column describes a data source column.
// Date columns carry Min and Max as epoch seconds.
type Column struct {
	Name  string     `yaml:"name"`
	Label string     `yaml:"label,omitempty"`
	Type  ColumnType `yaml:"type"`
	Min   float64    `yaml:"min,omitempty"`
	Max   float64    `yaml:"max,omitempty"`
	Bins  int        `yaml:"bins,omitempty"`
}

// Numeric is true for int and float columns.
func (col Column) Numeric() bool {
	return col.Type == Int || col.Type == Float
}

// Ranged is true for columns filtered by a range widget.
func (col Column) Ranged() bool {
	return col.Numeric() || col.Type == Date
}

// Domain returns the column's bounds.
func (col Column) Domain() [2]float64 {
	return [2]float64{col.Min, col.Max}
}

// DateDomain returns the bounds of a date column as times.
func (col Column) DateDomain() [2]time.Time {
	return [2]time.Time{
		time.Unix(int64(col.Min), 0).UTC(),
		time.Unix(int64(col.Max), 0).UTC(),
	}
}

// Init fills in defaults for label and bins.
// Int columns are widened by one on the top edge so the last value gets a bin of its own.
func (col Column) Init() Column {

	if col.Label == "" {
		col.Label = col.Name
	}
	if col.Type == "" {
		col.Type = Float
	}

	if col.Numeric() && col.Bins == 0 {
		col.Bins = defaultBins
	}
	if col.Type == Int {
		col.Min = math.Floor(col.Min)
		col.Max = math.Ceil(col.Max) + 1
		col.Bins = min(col.Bins, int(col.Max-col.Min+1))
	}
	if col.Type == Date && col.Bins == 0 {
		col.Bins = defaultBins
	}
	return col
}

// Bin is one histogram bucket, X being the bucket's lower edge.
type Bin struct {
	X     float64
	Count int
}

// CategoryCount is a distinct category value with its count.
type CategoryCount struct {
	Value string
	Count int
}
