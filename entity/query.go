package entity

// HistogramQuery asks for the histogram of Column under Criteria.
// Bins overrides the column's bin count when positive.
type HistogramQuery struct {
	Source   string
	Column   Column
	Criteria []Criterion
	Bins     int
}

// RowQuery asks for rows under Criteria.
// Rows are sorted by OrderBy when set, else sampled at random when Sample is set.
type RowQuery struct {
	Source   string
	Columns  []string
	Criteria []Criterion
	OrderBy  string
	Desc     bool
	Limit    int
	Sample   bool
}
