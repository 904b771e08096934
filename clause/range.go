package clause

import (
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"

	nt "visdom/entity"
)

// Axis knows how to read, write and compare the values along one kind of range.
type Axis[T any] struct {
	Parse  func(string) (T, error)
	Format func(T) string
	Equal  func(a, b T) bool
}

// Bounds is a [min, max] pair.
type Bounds[T any] [2]T

// Range is a bounded interval with per-bound inclusivity.
type Range[T any] struct {
	Lo          T
	Hi          T
	LoInclusive bool
	HiInclusive bool
}

// Inclusive is true when either bound is inclusive.
func (rng Range[T]) Inclusive() bool {
	return rng.LoInclusive || rng.HiInclusive
}

// ParseRange narrows domain by each clause in exprs.
// Clauses that are not range clauses, or whose operand the axis cannot parse, are skipped and
// returned so the caller can warn about them. Nil is returned for empty input.
func ParseRange[T any](exprs []string, domain Bounds[T], axis Axis[T]) (rng *Range[T], skipped []string) {

	if len(exprs) == 0 {
		return
	}

	rng = &Range[T]{
		Lo:          domain[0],
		Hi:          domain[1],
		LoInclusive: true,
		HiInclusive: true,
	}

	for _, expr := range exprs {
		cl, err := Parse(expr)
		if err != nil || cl.Negate || cl.Op == nt.In {
			skipped = append(skipped, expr)
			continue
		}

		val, err := axis.Parse(cl.Value())
		if err != nil {
			skipped = append(skipped, expr)
			continue
		}

		switch cl.Op {
		case nt.Eq:
			rng.Lo, rng.Hi = val, val
			rng.LoInclusive, rng.HiInclusive = true, true
		case nt.Gt, nt.Gte:
			rng.Lo = val
			rng.LoInclusive = cl.Op == nt.Gte
		case nt.Lt, nt.Lte:
			rng.Hi = val
			rng.HiInclusive = cl.Op == nt.Lte
		}
	}

	return
}

// FormatRange renders rng as clause texts, leaving out any bound sitting on the domain edge.
// A single inclusive point is written "=v". Nil is returned when neither bound constrains the domain.
func FormatRange[T any](rng Range[T], domain Bounds[T], axis Axis[T]) (exprs []string) {

	if rng.LoInclusive && rng.HiInclusive && axis.Equal(rng.Lo, rng.Hi) {
		exprs = []string{"=" + axis.Format(rng.Lo)}
		return
	}

	if !axis.Equal(rng.Lo, domain[0]) {
		op := ">"
		if rng.LoInclusive {
			op = ">="
		}
		exprs = append(exprs, op+axis.Format(rng.Lo))
	}

	if !axis.Equal(rng.Hi, domain[1]) {
		op := "<"
		if rng.HiInclusive {
			op = "<="
		}
		exprs = append(exprs, op+axis.Format(rng.Hi))
	}

	return
}

// Float is the axis for float columns.
var Float = Axis[float64]{
	Parse: parseFloat,
	Format: func(val float64) string {
		return strconv.FormatFloat(val, 'f', -1, 64)
	},
	Equal: func(a, b float64) bool { return a == b },
}

// Int is the axis for int columns; values are floored when formatted.
var Int = Axis[float64]{
	Parse: parseFloat,
	Format: func(val float64) string {
		return strconv.FormatInt(int64(math.Floor(val)), 10)
	},
	Equal: func(a, b float64) bool { return math.Floor(a) == math.Floor(b) },
}

// Unix is the axis for date columns, written as epoch seconds.
// Parsing also accepts YYYY-MM-DD.
var Unix = Axis[time.Time]{
	Parse: func(str string) (tm time.Time, err error) {

		secs, err := strconv.ParseInt(str, 10, 64)
		if err == nil {
			tm = time.Unix(secs, 0).UTC()
			return
		}

		tm, err = time.Parse(time.DateOnly, str)
		err = errors.Wrapf(err, "failed to parse date %q", str)
		return
	},
	Format: func(tm time.Time) string {
		return strconv.FormatInt(tm.Unix(), 10)
	},
	Equal: func(a, b time.Time) bool { return a.Unix() == b.Unix() },
}

func parseFloat(str string) (val float64, err error) {

	val, err = strconv.ParseFloat(str, 64)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse number %q", str)
		return
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		err = errors.Errorf("number out of range: %q", str)
	}
	return
}
