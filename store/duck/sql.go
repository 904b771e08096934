package duck

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	nt "visdom/entity"
)

var opSql = map[nt.Op]string{
	nt.Lt:  "<",
	nt.Lte: "<=",
	nt.Gt:  ">",
	nt.Gte: ">=",
	nt.Eq:  "=",
}

// buildWhere converts criteria to a WHERE expression with placeholders, "" when there are none.
// Clauses and criteria are AND-ed.
func buildWhere(sch nt.Schema, crits []nt.Criterion) (where string, args []any, err error) {

	var exprs []string
	for _, crit := range crits {
		col, ok := sch.Column(crit.Column)
		if !ok {
			err = errors.Errorf("source %q has no column %q", sch.Source, crit.Column)
			return
		}

		for _, cl := range crit.Clauses {
			var expr string
			var vals []any
			expr, vals, err = buildClause(col, cl)
			if err != nil {
				return
			}
			exprs = append(exprs, expr)
			args = append(args, vals...)
		}
	}

	where = strings.Join(exprs, " AND ")
	return
}

// buildClause converts one clause, e.g. "!in(a,b)" on state is NOT ("state" IN (?, ?)).
func buildClause(col nt.Column, cl nt.Clause) (expr string, args []any, err error) {

	lhs := valueExpr(col)

	for _, val := range cl.Values {
		var arg any
		arg, err = operand(col, val)
		if err != nil {
			return
		}
		args = append(args, arg)
	}

	switch {
	case cl.Op == nt.In:
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")
		expr = fmt.Sprintf("%s IN (%s)", lhs, marks)
	case len(args) == 1:
		expr = fmt.Sprintf("%s %s ?", lhs, opSql[cl.Op])
	default:
		err = errors.Errorf("clause %q needs exactly one value", cl.String())
		return
	}

	if cl.Negate {
		expr = "NOT (" + expr + ")"
	}
	return
}

func operand(col nt.Column, val string) (arg any, err error) {

	if !col.Ranged() {
		arg = val
		return
	}

	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		err = errors.Wrapf(err, "bad value %q for %s column %q", val, col.Type, col.Name)
		return
	}
	arg = num
	return
}

// valueExpr is how a column is compared: dates as epoch seconds and categories as text.
func valueExpr(col nt.Column) string {

	switch col.Type {
	case nt.Date:
		return fmt.Sprintf("date_part('epoch', %s)", quoteIdent(col.Name))
	case nt.Category:
		return fmt.Sprintf("CAST(%s AS VARCHAR)", quoteIdent(col.Name))
	}
	return quoteIdent(col.Name)
}

// columnType maps a DuckDB data type to a column type; anything unrecognized is a category.
func columnType(dataType string) nt.ColumnType {

	upper := strings.ToUpper(dataType)
	switch {
	case strings.HasPrefix(upper, "DECIMAL"):
		return nt.Float
	case strings.HasPrefix(upper, "TIMESTAMP"):
		return nt.Date
	}

	switch upper {
	case "TINYINT", "SMALLINT", "INTEGER", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT":
		return nt.Int
	case "FLOAT", "DOUBLE", "REAL":
		return nt.Float
	case "DATE":
		return nt.Date
	}
	return nt.Category
}

func selectList(cols []string) string {

	if len(cols) == 0 {
		return "*"
	}

	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdent(col)
	}
	return strings.Join(quoted, ", ")
}

func and(where string) string {

	if where == "" {
		return ""
	}
	return "AND " + where
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(text string) string {
	return "'" + strings.ReplaceAll(text, "'", "''") + "'"
}
