package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {

	assert.True(t, Equal(5, "5"))
	assert.True(t, Equal(2.5, "2.5"))
	assert.True(t, Equal(true, "1"))
	assert.True(t, Equal([]string{"a", "b"}, []any{"a", "b"}))
	assert.True(t, Equal([]string{"a", "b"}, "a,b"))
	assert.True(t, Equal(nil, ""))

	assert.False(t, Equal(5, "6"))
	assert.False(t, Equal([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, Equal([]string{"a"}, []string{"a", "b"}))
}

func TestCompare(t *testing.T) {

	aa := Snapshot{"source": "A", "chart": "x", "bins": 10, "gone": "y"}
	bb := Snapshot{"source": "B", "chart": "x", "bins": "10", "new": []string{"q"}}

	diff := Compare(aa, bb)

	assert.Equal(t, Diff{
		"source": {Op: Changed, Previous: "A"},
		"gone":   {Op: Removed, Previous: "y"},
		"new":    {Op: Added},
	}, diff)
}

func TestCompareProperties(t *testing.T) {

	snaps := []Snapshot{
		{},
		{"a": 1},
		{"a": "1", "b": []string{"x"}},
		{"b": []string{"x", "y"}, "c": true},
		{"a": 2, "c": "1"},
	}

	for _, aa := range snaps {
		for _, bb := range snaps {
			diff := Compare(aa, bb)

			for key, chg := range diff {
				prev, inA := aa[key]
				next, inB := bb[key]

				switch chg.Op {
				case Added:
					assert.False(t, inA)
					assert.True(t, inB)
				case Removed:
					assert.True(t, inA)
					assert.False(t, inB)
					assert.Equal(t, prev, chg.Previous)
				case Changed:
					assert.True(t, inA && inB)
					assert.False(t, Equal(prev, next))
					assert.Equal(t, prev, chg.Previous)
				}
			}

			for key := range aa {
				if next, ok := bb[key]; ok && Equal(aa[key], next) {
					assert.NotContains(t, diff, key)
				}
			}
		}
	}
}

func TestStoreSetMerges(t *testing.T) {

	st := NewStore(Snapshot{"source": "A", "chart": "x"})

	diff := st.Set(Snapshot{"source": "B"})
	assert.Equal(t, Diff{"source": {Op: Changed, Previous: "A"}}, diff)
	assert.Equal(t, Snapshot{"source": "B", "chart": "x"}, st.Get())

	diff = st.Set(Snapshot{"source": "B"})
	assert.Empty(t, diff)

	diff = st.Set(Snapshot{"chart": nil, "bins": 5})
	assert.Equal(t, Diff{
		"chart": {Op: Removed, Previous: "x"},
		"bins":  {Op: Added},
	}, diff)
}

func TestStoreGetIsCopy(t *testing.T) {

	st := NewStore(Snapshot{"tags": []string{"a"}})

	snap := st.Get()
	snap["tags"].([]string)[0] = "z"
	snap["other"] = 1

	assert.Equal(t, Snapshot{"tags": []string{"a"}}, st.Get())
}

func TestStoreUnsetAndReplace(t *testing.T) {

	st := NewStore(Snapshot{"a": 1, "b": 2})

	diff := st.Unset("a", "missing")
	assert.Equal(t, Diff{"a": {Op: Removed, Previous: 1}}, diff)

	diff = st.Replace(Snapshot{"c": 3})
	assert.Equal(t, Diff{"b": {Op: Removed, Previous: 2}, "c": {Op: Added}}, diff)
}

func TestSnapshotGetters(t *testing.T) {

	snap := Snapshot{"n": "12", "f": 3.0, "b": "true", "l": "x", "ll": []any{"p", 1}}

	assert.Equal(t, 12, snap.Int("n", 0))
	assert.Equal(t, 3, snap.Int("f", 0))
	assert.Equal(t, 7, snap.Int("missing", 7))
	assert.True(t, snap.Bool("b"))
	assert.False(t, snap.Bool("missing"))
	assert.Equal(t, []string{"x"}, snap.Strings("l"))
	assert.Equal(t, []string{"p", "1"}, snap.Strings("ll"))
	assert.Nil(t, snap.Strings("missing"))
	assert.Equal(t, "3", snap.String("f"))
	assert.Equal(t, []string{"a", "b"}, Snapshot{"b": 1, "a": 2}.Keys())
}
