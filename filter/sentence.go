package filter

import (
	"strings"
	"time"

	"visdom/clause"
	nt "visdom/entity"
)

// Sentence describes each active entry in words, e.g. "age is between 18 and 65".
func (mdl *Model) Sentence() (clauses []string) {

	for _, ent := range mdl.entries {
		if !ent.Active() {
			continue
		}

		bits := []string{ent.Column.Label, "is"}
		switch wdg := ent.Widget.(type) {
		case *Span[float64]:
			axis := clause.Float
			if ent.Column.Type == nt.Int {
				axis = clause.Int
			}
			bits = append(bits, bounds(wdg, axis, "greater than", "less than")...)
		case *Span[time.Time]:
			bits = append(bits, bounds(wdg, dateAxis, "after", "before")...)
		case *Category:
			if wdg.Inverted() {
				bits = append(bits, "not")
			}
			bits = append(bits, strings.Join(wdg.selected, " or "))
		default:
			bits = append(bits, strings.Join(ent.Widget.Expression(), " and "))
		}

		clauses = append(clauses, strings.Join(bits, " "))
	}
	return
}

// ToSentence joins Sentence into one line.
func (mdl *Model) ToSentence() string {
	return strings.Join(mdl.Sentence(), " and ")
}

var dateAxis = clause.Axis[time.Time]{
	Format: func(tm time.Time) string { return tm.UTC().Format(time.DateOnly) },
	Equal:  clause.Unix.Equal,
}

func bounds[T any](sp *Span[T], axis clause.Axis[T], above, below string) []string {

	rng := sp.rng
	dom := sp.domain
	lower := !axis.Equal(rng.Lo, dom[0])
	upper := !axis.Equal(rng.Hi, dom[1])

	switch {
	case lower && upper:
		return []string{"between", axis.Format(rng.Lo), "and", axis.Format(rng.Hi)}
	case lower:
		return []string{above, axis.Format(rng.Lo)}
	case upper:
		return []string{below, axis.Format(rng.Hi)}
	}
	return nil
}
