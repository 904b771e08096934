package state

// Store holds the current snapshot.
// It is not safe for concurrent use; a single writer owns it.
type Store struct {
	current Snapshot
}

// NewStore creates a store holding a copy of initial.
func NewStore(initial Snapshot) *Store {
	return &Store{current: initial.Clone()}
}

// Get returns a copy of the current snapshot.
func (st *Store) Get() Snapshot {
	return st.current.Clone()
}

// Set merges partial into the current snapshot; a nil value unsets its key.
func (st *Store) Set(partial Snapshot) (diff Diff) {

	next := st.current.Clone()
	for key, val := range partial {
		if val == nil {
			delete(next, key)
			continue
		}
		if strs, ok := val.([]string); ok {
			val = append([]string(nil), strs...)
		}
		next[key] = val
	}

	return st.swap(next)
}

// Unset removes keys.
func (st *Store) Unset(keys ...string) (diff Diff) {

	partial := Snapshot{}
	for _, key := range keys {
		partial[key] = nil
	}
	return st.Set(partial)
}

// Replace swaps in a copy of snap wholesale.
func (st *Store) Replace(snap Snapshot) (diff Diff) {
	return st.swap(snap.Clone())
}

func (st *Store) swap(next Snapshot) (diff Diff) {

	diff = Compare(st.current, next)
	st.current = next
	return
}
