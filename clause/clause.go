// Package clause parses and formats single filter clauses and the bounded ranges built from them.
package clause

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"

	nt "visdom/entity"
)

var (
	setPattern   = regexp.MustCompile(`^in\((.*)\)$`)
	rangePattern = regexp.MustCompile(`^(<=|>=|==|<|>|=)(.+)$`)
)

var opFromString = map[string]nt.Op{
	"<":  nt.Lt,
	"<=": nt.Lte,
	">":  nt.Gt,
	">=": nt.Gte,
	"=":  nt.Eq,
	"==": nt.Eq,
}

// Parse reads one clause in its canonical text form, e.g. ">=18", "!=x" or "in(CA,OR)".
func Parse(text string) (cl nt.Clause, err error) {

	body := text
	if strings.HasPrefix(body, "!") {
		cl.Negate = true
		body = body[1:]
	}

	match := setPattern.FindStringSubmatch(body)
	if match != nil {
		if match[1] == "" {
			err = errors.Wrapf(nt.ErrMalformed, "empty set in clause %q", text)
			return
		}
		cl.Op = nt.In
		cl.Values = strings.Split(match[1], ",")
		return
	}

	match = rangePattern.FindStringSubmatch(body)
	if match == nil {
		err = errors.Wrapf(nt.ErrMalformed, "unrecognized clause %q", text)
		return
	}

	cl.Op = opFromString[match[1]]
	cl.Values = []string{match[2]}
	return
}

// ParseAll reads a sequence of clause texts, failing on the first bad one.
func ParseAll(texts []string) (cls []nt.Clause, err error) {

	cls = make([]nt.Clause, 0, len(texts))
	for _, text := range texts {
		var cl nt.Clause
		cl, err = Parse(text)
		if err != nil {
			return
		}
		cls = append(cls, cl)
	}
	return
}
