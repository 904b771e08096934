package duck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nt "visdom/entity"
)

const peopleCsv = `name,age,income,state,joined
ann,20,50000.5,CA,2020-01-01
bob,30,60000,OR,2020-06-01
cat,40,70000,CA,2020-12-31
dan,50,80000.25,TX,2021-01-01
`

func loaded(t *testing.T) (dk *Duck, cols []nt.Column) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(peopleCsv), 0644))

	dk, err := New(nil)
	require.NoError(t, err)
	t.Cleanup(dk.Close)

	err = dk.Load(nt.Source{Name: "people", Path: path})
	require.NoError(t, err)

	cols, err = dk.Columns(context.Background(), "people")
	require.NoError(t, err)
	return
}

func column(t *testing.T, cols []nt.Column, name string) nt.Column {
	t.Helper()

	col, ok := nt.Schema{Columns: cols}.Column(name)
	require.True(t, ok, name)
	return col
}

func TestColumns(t *testing.T) {

	dk, cols := loaded(t)

	assert.Equal(t, []nt.Source{{Name: "people", Path: dk.sources[0].Path}}, dk.Sources())
	assert.Equal(t, []string{"name", "age", "income", "state", "joined"}, nt.Schema{Columns: cols}.Names())

	age := column(t, cols, "age")
	assert.Equal(t, nt.Int, age.Type)
	assert.Equal(t, 20.0, age.Min)
	assert.Equal(t, 51.0, age.Max)
	assert.Equal(t, 32, age.Bins)

	income := column(t, cols, "income")
	assert.Equal(t, nt.Float, income.Type)
	assert.Equal(t, 80000.25, income.Max)

	joined := column(t, cols, "joined")
	assert.Equal(t, nt.Date, joined.Type)
	assert.Equal(t, 1577836800.0, joined.Min)
	assert.Equal(t, 1609459200.0, joined.Max)

	assert.Equal(t, nt.Category, column(t, cols, "state").Type)
}

func TestHistogram(t *testing.T) {

	dk, cols := loaded(t)
	ctx := context.Background()

	bins, err := dk.Histogram(ctx, nt.HistogramQuery{Source: "people", Column: column(t, cols, "age"), Bins: 31})
	require.NoError(t, err)
	require.Len(t, bins, 31)

	assert.Equal(t, nt.Bin{X: 20, Count: 1}, bins[0])
	assert.Equal(t, nt.Bin{X: 30, Count: 1}, bins[10])
	assert.Equal(t, 0, bins[5].Count)

	total := 0
	for _, bin := range bins {
		total += bin.Count
	}
	assert.Equal(t, 4, total)

	crits := []nt.Criterion{{Column: "state", Clauses: []nt.Clause{{Op: nt.In, Values: []string{"CA"}}}}}
	bins, err = dk.Histogram(ctx, nt.HistogramQuery{Source: "people", Column: column(t, cols, "age"), Bins: 31, Criteria: crits})
	require.NoError(t, err)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 0, bins[10].Count)
	assert.Equal(t, 1, bins[20].Count)
}

func TestHistogramCategory(t *testing.T) {

	dk, cols := loaded(t)

	_, err := dk.Histogram(context.Background(), nt.HistogramQuery{Source: "people", Column: column(t, cols, "state")})
	assert.ErrorContains(t, err, "cannot bin")
}

func TestCategories(t *testing.T) {

	dk, _ := loaded(t)

	cats, err := dk.Categories(context.Background(), "people", "state")
	require.NoError(t, err)
	assert.Equal(t, []nt.CategoryCount{{Value: "CA", Count: 2}, {Value: "OR", Count: 1}, {Value: "TX", Count: 1}}, cats)
}

func TestRows(t *testing.T) {

	dk, _ := loaded(t)

	tbl, err := dk.Rows(context.Background(), nt.RowQuery{
		Source:  "people",
		Columns: []string{"name", "income"},
		Criteria: []nt.Criterion{
			{Column: "age", Clauses: []nt.Clause{{Op: nt.Gte, Values: []string{"30"}}}},
		},
		OrderBy: "income",
		Desc:    true,
		Limit:   2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "income"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "dan", tbl.Rows[0][0].String())
	assert.Equal(t, "cat", tbl.Rows[1][0].String())

	tbl, err = dk.Rows(context.Background(), nt.RowQuery{Source: "people", Columns: []string{"name"}, Sample: true, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 3)
}

func TestLoadUnsupported(t *testing.T) {

	dk, err := New(nil)
	require.NoError(t, err)
	defer dk.Close()

	err = dk.Load(nt.Source{Name: "x", Path: "x.xlsx"})
	assert.ErrorContains(t, err, "unsupported file type")
}
