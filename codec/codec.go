// Package codec translates filter criteria to and from their compact wire formats.
//
// Two incompatible versions exist; a session picks one with Select and keeps it.
package codec

import (
	"strings"

	"github.com/pkg/errors"

	"visdom/clause"
	nt "visdom/entity"
)

// Prefix marks a filter segment in query paths for both versions.
const Prefix = "/f/"

// Codec parses and formats filter wire strings.
type Codec interface {
	// Version is the wire format version.
	Version() int
	// Prefix is the path marker for the filter segment.
	Prefix() string
	// Parse decodes a wire string; empty input yields no criteria.
	Parse(wire string) (crits []nt.Criterion, err error)
	// Format encodes criteria; no criteria yields "".
	Format(crits []nt.Criterion) (wire string, err error)
}

// Select returns the codec for a wire format version.
func Select(version int) (cdc Codec, err error) {

	switch version {
	case 1:
		cdc = V1{}
	case 2:
		cdc = V2{}
	default:
		err = errors.Errorf("bad filter format version: %d", version)
	}
	return
}

func trimPrefix(wire string) string {
	return strings.TrimPrefix(wire, Prefix)
}

// criterion builds and validates a criterion from clause texts.
func criterion(column string, texts []string) (crit nt.Criterion, err error) {

	cls, err := clause.ParseAll(texts)
	if err != nil {
		err = errors.Wrapf(err, "bad clause for column %q", column)
		return
	}

	crit = nt.Criterion{Column: column, Clauses: cls}
	err = crit.Validate()
	return
}

// checkValues rejects values that would not survive the wire.
func checkValues(crit nt.Criterion, reserved string) (err error) {

	err = crit.Validate()
	if err != nil {
		return
	}

	for _, cl := range crit.Clauses {
		for _, val := range cl.Values {
			if val == "" {
				err = errors.Wrapf(nt.ErrMalformed, "empty value in %q clause", crit.Column)
				return
			}
			if cl.Op == nt.In && strings.Contains(val, ",") {
				err = errors.Wrapf(nt.ErrUnsupported, "category value %q in %q contains a comma", val, crit.Column)
				return
			}
			if strings.ContainsAny(val, reserved) {
				err = errors.Wrapf(nt.ErrUnsupported, "value %q in %q contains one of %q", val, crit.Column, reserved)
				return
			}
		}
	}
	return
}

// Sentinels wrapped by codec errors, shared with the entity package.
var (
	ErrMalformed   = nt.ErrMalformed
	ErrUnsupported = nt.ErrUnsupported
)
