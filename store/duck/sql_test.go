package duck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nt "visdom/entity"
)

var people = nt.Schema{
	Source: "people",
	Columns: []nt.Column{
		{Name: "age", Type: nt.Int},
		{Name: "day", Type: nt.Date},
		{Name: "state", Type: nt.Category},
	},
}

func TestBuildWhere(t *testing.T) {

	crits := []nt.Criterion{
		{Column: "age", Clauses: []nt.Clause{
			{Op: nt.Gte, Values: []string{"18"}},
			{Op: nt.Lt, Values: []string{"65"}},
		}},
		{Column: "state", Clauses: []nt.Clause{
			{Op: nt.In, Negate: true, Values: []string{"CA", "OR"}},
		}},
		{Column: "day", Clauses: []nt.Clause{
			{Op: nt.Gt, Values: []string{"1583020800"}},
		}},
	}

	where, args, err := buildWhere(people, crits)
	require.NoError(t, err)

	assert.Equal(t, `"age" >= ? AND "age" < ? AND NOT (CAST("state" AS VARCHAR) IN (?, ?)) AND date_part('epoch', "day") > ?`, where)
	assert.Equal(t, []any{18.0, 65.0, "CA", "OR", 1583020800.0}, args)
}

func TestBuildWhereEmpty(t *testing.T) {

	where, args, err := buildWhere(people, nil)
	require.NoError(t, err)
	assert.Equal(t, "", where)
	assert.Empty(t, args)
}

func TestBuildWhereEquals(t *testing.T) {

	where, args, err := buildWhere(people, []nt.Criterion{
		{Column: "state", Clauses: []nt.Clause{{Op: nt.Eq, Negate: true, Values: []string{"TX"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, `NOT (CAST("state" AS VARCHAR) = ?)`, where)
	assert.Equal(t, []any{"TX"}, args)
}

func TestBuildWhereErrors(t *testing.T) {

	_, _, err := buildWhere(people, []nt.Criterion{
		{Column: "height", Clauses: []nt.Clause{{Op: nt.Gt, Values: []string{"1"}}}},
	})
	assert.ErrorContains(t, err, `no column "height"`)

	_, _, err = buildWhere(people, []nt.Criterion{
		{Column: "age", Clauses: []nt.Clause{{Op: nt.Gt, Values: []string{"old"}}}},
	})
	assert.ErrorContains(t, err, `bad value "old"`)
}

func TestColumnType(t *testing.T) {

	cases := map[string]nt.ColumnType{
		"BIGINT":                   nt.Int,
		"integer":                  nt.Int,
		"DOUBLE":                   nt.Float,
		"DECIMAL(18,3)":            nt.Float,
		"DATE":                     nt.Date,
		"TIMESTAMP":                nt.Date,
		"TIMESTAMP WITH TIME ZONE": nt.Date,
		"VARCHAR":                  nt.Category,
		"BOOLEAN":                  nt.Category,
	}

	for dataType, expected := range cases {
		assert.Equal(t, expected, columnType(dataType), dataType)
	}
}

func TestQuote(t *testing.T) {

	assert.Equal(t, `"we""ird"`, quoteIdent(`we"ird`))
	assert.Equal(t, `'it''s.csv'`, quoteLiteral("it's.csv"))
	assert.Equal(t, `"a", "b"`, selectList([]string{"a", "b"}))
	assert.Equal(t, "*", selectList(nil))
}
