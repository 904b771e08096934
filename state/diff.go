package state

// Op is the kind of change a key underwent.
type Op int

const (
	Added Op = iota
	Removed
	Changed
)

func (op Op) String() string {
	return [...]string{"added", "removed", "changed"}[op]
}

// Change describes one key's change; Previous is unset for Added.
type Change struct {
	Op       Op
	Previous any
}

// Diff maps changed keys to their change.
type Diff map[string]Change

// Has is true when any of keys changed.
func (diff Diff) Has(keys ...string) bool {

	for _, key := range keys {
		if _, ok := diff[key]; ok {
			return true
		}
	}
	return false
}

// Without returns a copy of diff minus keys.
func (diff Diff) Without(keys ...string) Diff {

	out := make(Diff, len(diff))
	for key, chg := range diff {
		out[key] = chg
	}
	for _, key := range keys {
		delete(out, key)
	}
	return out
}

// Compare diffs two snapshots without side effects.
func Compare(aa, bb Snapshot) (diff Diff) {

	diff = Diff{}

	for key, prev := range aa {
		next, ok := bb[key]
		switch {
		case !ok:
			diff[key] = Change{Op: Removed, Previous: prev}
		case !Equal(prev, next):
			diff[key] = Change{Op: Changed, Previous: prev}
		}
	}

	for key := range bb {
		if _, ok := aa[key]; !ok {
			diff[key] = Change{Op: Added}
		}
	}
	return
}
