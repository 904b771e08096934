package codec

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	nt "visdom/entity"
)

const v1Reserved = "|+^&"

var v1And = regexp.MustCompile(`[&^]`)

// V1 is the flat format: "col+col|clauses+clauses", clauses of one column joined by "^".
type V1 struct{}

func (V1) Version() int   { return 1 }
func (V1) Prefix() string { return Prefix }

// Parse decodes a v1 wire string.
func (V1) Parse(wire string) (crits []nt.Criterion, err error) {

	wire = trimPrefix(wire)
	if wire == "" {
		return
	}

	parts := strings.Split(wire, "|")
	if len(parts) != 2 {
		err = errors.Wrapf(nt.ErrMalformed, "expected one '|' in filter expression: %q", wire)
		return
	}

	columns := strings.Split(parts[0], "+")
	groups := strings.Split(parts[1], "+")
	if len(columns) != len(groups) {
		err = errors.Wrapf(nt.ErrMalformed, "%d columns but %d clause groups in: %q", len(columns), len(groups), wire)
		return
	}

	for i, column := range columns {
		if column == "" {
			err = errors.Wrapf(nt.ErrMalformed, "empty column name in: %q", wire)
			return
		}

		var crit nt.Criterion
		crit, err = criterion(column, v1And.Split(groups[i], -1))
		if err != nil {
			return
		}
		crits = append(crits, crit)
	}
	return
}

// Format encodes criteria as a v1 wire string.
func (V1) Format(crits []nt.Criterion) (wire string, err error) {

	if len(crits) == 0 {
		return
	}

	columns := make([]string, len(crits))
	groups := make([]string, len(crits))
	for i, crit := range crits {
		err = checkValues(crit, v1Reserved)
		if err != nil {
			return
		}
		if strings.ContainsAny(crit.Column, v1Reserved) {
			err = errors.Wrapf(nt.ErrUnsupported, "column name %q contains one of %q", crit.Column, v1Reserved)
			return
		}

		columns[i] = crit.Column
		groups[i] = strings.Join(crit.Expression(), "^")
	}

	wire = strings.Join(columns, "+") + "|" + strings.Join(groups, "+")
	return
}
