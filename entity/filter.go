package entity

import (
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrMalformed marks filter text that cannot be decoded.
	ErrMalformed = errors.New("malformed filter expression")
	// ErrUnsupported marks filter constructs neither wire format can carry.
	ErrUnsupported = errors.New("unsupported filter construct")
)

// Op represents a clause operator.
type Op int

const (
	Lt  Op = iota // <
	Lte           // <=
	Gt            // >
	Gte           // >=
	Eq            // =
	In            // in(...)
)

var opText = map[Op]string{
	Lt:  "<",
	Lte: "<=",
	Gt:  ">",
	Gte: ">=",
	Eq:  "=",
	In:  "in",
}

// String returns the operator as it appears in clause text.
func (op Op) String() string {
	return opText[op]
}

// IsRange is true for the ordering operators.
func (op Op) IsRange() bool {
	return op == Lt || op == Lte || op == Gt || op == Gte
}

// Clause is one operator+value constraint on a column, e.g. ">=5" or "!in(a,b)".
type Clause struct {
	Op     Op
	Negate bool
	Values []string
}

// Value returns the first operand, or "".
func (cl Clause) Value() string {
	if len(cl.Values) == 0 {
		return ""
	}
	return cl.Values[0]
}

// String renders the clause in its canonical text form.
func (cl Clause) String() string {

	var bld strings.Builder
	if cl.Negate {
		bld.WriteString("!")
	}

	if cl.Op == In {
		bld.WriteString("in(")
		bld.WriteString(strings.Join(cl.Values, ","))
		bld.WriteString(")")
		return bld.String()
	}

	bld.WriteString(cl.Op.String())
	bld.WriteString(cl.Value())
	return bld.String()
}

// Equal compares clauses structurally.
func (cl Clause) Equal(other Clause) bool {

	if cl.Op != other.Op || cl.Negate != other.Negate || len(cl.Values) != len(other.Values) {
		return false
	}
	for i := range cl.Values {
		if cl.Values[i] != other.Values[i] {
			return false
		}
	}
	return true
}

// Criterion is all the clauses for one column, AND-combined.
type Criterion struct {
	Column  string
	Clauses []Clause
}

// Expression returns the clause texts in order.
func (crit Criterion) Expression() []string {

	exprs := make([]string, len(crit.Clauses))
	for i, cl := range crit.Clauses {
		exprs[i] = cl.String()
	}
	return exprs
}

// Validate checks the criterion can be carried by a wire format.
func (crit Criterion) Validate() (err error) {

	if crit.Column == "" {
		err = errors.Wrapf(ErrMalformed, "criterion has no column")
		return
	}
	if len(crit.Clauses) == 0 {
		err = errors.Wrapf(ErrMalformed, "criterion for %q has no clauses", crit.Column)
		return
	}

	ranged, sets := 0, 0
	for _, cl := range crit.Clauses {
		if cl.Op.IsRange() {
			ranged++
			continue
		}
		sets++
		if cl.Op == In && len(cl.Values) == 0 {
			err = errors.Wrapf(ErrMalformed, "empty set for %q", crit.Column)
			return
		}
	}

	if sets > 0 && ranged > 0 {
		err = errors.Wrapf(ErrUnsupported, "column %q mixes set membership with range clauses", crit.Column)
		return
	}
	if sets > 1 {
		err = errors.Wrapf(ErrUnsupported, "column %q has more than one set clause", crit.Column)
	}
	return
}

// Equal compares criteria structurally, clause order included.
func (crit Criterion) Equal(other Criterion) bool {

	if crit.Column != other.Column || len(crit.Clauses) != len(other.Clauses) {
		return false
	}
	for i := range crit.Clauses {
		if !crit.Clauses[i].Equal(other.Clauses[i]) {
			return false
		}
	}
	return true
}

// EqualCriteria compares two criteria lists structurally.
func EqualCriteria(aa, bb []Criterion) bool {

	if len(aa) != len(bb) {
		return false
	}
	for i := range aa {
		if !aa[i].Equal(bb[i]) {
			return false
		}
	}
	return true
}
