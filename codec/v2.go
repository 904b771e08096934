package codec

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	nt "visdom/entity"
)

const v2Reserved = "()|+^&[]"

var (
	v2Groups = regexp.MustCompile(`\)[&^+]\(`)
	v2And    = regexp.MustCompile(`[&^+]`)
	v2Clause = regexp.MustCompile(`^(\w+)(.+)$`)
	v2Column = regexp.MustCompile(`^\w+$`)
	wireSet  = regexp.MustCompile(`^(!?)'in'\[(.*)\]$`)
	textSet  = regexp.MustCompile(`^(!?)in\((.*)\)$`)
)

// V2 is the grouped format: "(col>=1+col<5)^(cat'in'[a,b])".
type V2 struct{}

func (V2) Version() int   { return 2 }
func (V2) Prefix() string { return Prefix }

// Parse decodes a v2 wire string.
// Criteria come back in the order their columns first appear.
func (V2) Parse(wire string) (crits []nt.Criterion, err error) {

	wire = trimPrefix(wire)
	if wire == "" {
		return
	}

	if !strings.HasPrefix(wire, "(") {
		err = errors.Wrapf(nt.ErrMalformed, "expected '(' at beginning of filter expression: %q", wire)
		return
	}
	if !strings.HasSuffix(wire, ")") || len(wire) < 2 {
		err = errors.Wrapf(nt.ErrMalformed, "expected ')' at end of filter expression: %q", wire)
		return
	}

	inner := wire[1 : len(wire)-1]
	if strings.Contains(inner, "|") {
		err = errors.Wrapf(nt.ErrUnsupported, "can't parse OR'd expressions: %q", inner)
		return
	}

	var order []string
	texts := map[string][]string{}

	for _, group := range v2Groups.Split(inner, -1) {
		for _, cls := range v2And.Split(group, -1) {
			if strings.ContainsAny(cls, "()") {
				err = errors.Wrapf(nt.ErrUnsupported, "can't parse nested expression: %q", cls)
				return
			}

			match := v2Clause.FindStringSubmatch(cls)
			if match == nil {
				err = errors.Wrapf(nt.ErrMalformed, "bad clause format: %q", cls)
				return
			}

			column := match[1]
			if _, ok := texts[column]; !ok {
				order = append(order, column)
			}
			texts[column] = append(texts[column], fromWire(match[2]))
		}
	}

	for _, column := range order {
		var crit nt.Criterion
		crit, err = criterion(column, texts[column])
		if err != nil {
			return
		}
		crits = append(crits, crit)
	}
	return
}

// Format encodes criteria as a v2 wire string.
// Criteria naming the same column share a group.
func (V2) Format(crits []nt.Criterion) (wire string, err error) {

	if len(crits) == 0 {
		return
	}

	var order []string
	buckets := map[string][]string{}

	for _, crit := range crits {
		if !v2Column.MatchString(crit.Column) {
			err = errors.Wrapf(nt.ErrUnsupported, "column name %q is not a word", crit.Column)
			return
		}
		err = checkValues(crit, v2Reserved)
		if err != nil {
			return
		}

		if _, ok := buckets[crit.Column]; !ok {
			order = append(order, crit.Column)
		}
		for _, text := range crit.Expression() {
			buckets[crit.Column] = append(buckets[crit.Column], crit.Column+toWire(text))
		}
	}

	groups := make([]string, len(order))
	for i, column := range order {
		groups[i] = strings.Join(buckets[column], "+")
	}

	wire = "(" + strings.Join(groups, ")^(") + ")"
	return
}

// toWire rewrites "in(a,b)" as "'in'[a,b]".
func toWire(text string) string {

	match := textSet.FindStringSubmatch(text)
	if match == nil {
		return text
	}
	return match[1] + "'in'[" + match[2] + "]"
}

// fromWire rewrites "'in'[a,b]" as "in(a,b)".
func fromWire(text string) string {

	match := wireSet.FindStringSubmatch(text)
	if match == nil {
		return text
	}
	return match[1] + "in(" + match[2] + ")"
}
