// Package duck provides data sources backed by an in-memory DuckDB.
package duck

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"

	nt "visdom/entity"
)

// Todo: follow sources that are appended to and reload their tables

// Duck is a data provider over files loaded into DuckDB, one table per source.
type Duck struct {
	db      *sql.DB
	logger  nt.Logger
	sources []nt.Source

	mu      sync.RWMutex
	schemas map[string]nt.Schema
}

// New opens an in-memory database.
// The caller is expected to have registered the duckdb driver.
func New(lgr nt.Logger) (dk *Duck, err error) {

	db, err := sql.Open("duckdb", "")
	if err != nil {
		err = errors.Wrapf(err, "failed to open memo duck")
		return
	}

	dk = &Duck{
		db:      db,
		logger:  nt.OrNoop(lgr),
		schemas: map[string]nt.Schema{},
	}
	return
}

func (dk *Duck) Close() {
	dk.db.Close()
}

// Load reads a csv, json or parquet file into a table named for the source.
func (dk *Duck) Load(src nt.Source) (err error) {

	reader, err := readerFor(src.Path)
	if err != nil {
		return
	}

	create := fmt.Sprintf("CREATE OR REPLACE TABLE %s AS SELECT * FROM %s(%s)",
		quoteIdent(src.Name), reader, quoteLiteral(src.Path))

	_, err = dk.db.Exec(create)
	if err != nil {
		err = errors.Wrapf(err, "failed to create table for %s", src.Path)
		return
	}

	dk.sources = slices.DeleteFunc(dk.sources, func(have nt.Source) bool { return have.Name == src.Name })
	dk.sources = append(dk.sources, src)

	dk.mu.Lock()
	delete(dk.schemas, src.Name)
	dk.mu.Unlock()

	dk.logger.Info(context.Background(), "loaded source", "source", src.Name, "path", src.Path)
	return
}

// Sources lists the loaded sources in load order.
func (dk *Duck) Sources() []nt.Source {
	return slices.Clone(dk.sources)
}

// Columns describes a source's columns, with min and max for ranged ones.
func (dk *Duck) Columns(ctx context.Context, source string) (cols []nt.Column, err error) {

	fields, err := getFields(ctx, dk.db, source)
	if err != nil {
		return
	}
	if len(fields) == 0 {
		err = errors.Errorf("no columns found for source %q", source)
		return
	}

	for _, fld := range fields {
		col := nt.Column{Name: fld.Name, Type: columnType(fld.Type)}

		if col.Ranged() {
			col.Min, col.Max, err = dk.domain(ctx, source, col)
			if err != nil {
				return
			}
		}
		cols = append(cols, col.Init())
	}

	dk.mu.Lock()
	dk.schemas[source] = nt.Schema{Source: source, Columns: cols}
	dk.mu.Unlock()

	return
}

// Histogram counts rows per bin of a ranged column, under criteria.
// Every bin is present, empty ones counting zero; values outside the column's domain are left out.
func (dk *Duck) Histogram(ctx context.Context, qry nt.HistogramQuery) (bins []nt.Bin, err error) {

	col := qry.Column
	if !col.Ranged() {
		err = errors.Errorf("cannot bin %s column %q", col.Type, col.Name)
		return
	}

	count := qry.Bins
	if count <= 0 {
		count = col.Bins
	}
	if count <= 0 || col.Max <= col.Min {
		err = errors.Errorf("empty domain for column %q", col.Name)
		return
	}
	width := (col.Max - col.Min) / float64(count)

	where, args, err := dk.where(qry.Source, qry.Criteria)
	if err != nil {
		return
	}

	expr := valueExpr(col)
	query := fmt.Sprintf(`
		SELECT bin, count(*) FROM (
			SELECT least(floor((%s - ?) / ?), ?)::BIGINT AS bin
			FROM %s
			WHERE %s IS NOT NULL AND %s <= ? %s
		) WHERE bin >= 0
		GROUP BY bin
	`, expr, quoteIdent(qry.Source), quoteIdent(col.Name), expr, and(where))

	args = append([]any{col.Min, width, count - 1, col.Max}, args...)
	rows, err := dk.db.QueryContext(ctx, query, args...)
	if err != nil {
		err = errors.Wrapf(err, "failed to query histogram of %q", col.Name)
		return
	}
	defer rows.Close()

	bins = make([]nt.Bin, count)
	for i := range bins {
		bins[i].X = col.Min + float64(i)*width
	}

	for rows.Next() {
		var idx int64
		var num int
		err = rows.Scan(&idx, &num)
		if err != nil {
			err = errors.Wrapf(err, "failed to scan bin")
			return
		}
		if idx < int64(count) {
			bins[idx].Count = num
		}
	}

	err = rows.Err()
	err = errors.Wrapf(err, "error iterating bins")
	return
}

// Categories counts a column's distinct values, most common first.
func (dk *Duck) Categories(ctx context.Context, source, column string) (cats []nt.CategoryCount, err error) {

	query := fmt.Sprintf(`
		SELECT CAST(%s AS VARCHAR) AS val, count(*) AS num
		FROM %s
		WHERE %s IS NOT NULL
		GROUP BY val
		ORDER BY num DESC, val
	`, quoteIdent(column), quoteIdent(source), quoteIdent(column))

	rows, err := dk.db.QueryContext(ctx, query)
	if err != nil {
		err = errors.Wrapf(err, "failed to query categories of %q", column)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var cat nt.CategoryCount
		err = rows.Scan(&cat.Value, &cat.Count)
		if err != nil {
			err = errors.Wrapf(err, "failed to scan category")
			return
		}
		cats = append(cats, cat)
	}

	err = rows.Err()
	err = errors.Wrapf(err, "error iterating categories")
	return
}

// Rows selects rows under criteria, sorted or sampled.
func (dk *Duck) Rows(ctx context.Context, qry nt.RowQuery) (tbl nt.Table, err error) {

	where, args, err := dk.where(qry.Source, qry.Criteria)
	if err != nil {
		return
	}

	query := fmt.Sprintf("SELECT %s FROM %s", selectList(qry.Columns), quoteIdent(qry.Source))
	if where != "" {
		query += " WHERE " + where
	}

	switch {
	case qry.OrderBy != "":
		dir := "ASC"
		if qry.Desc {
			dir = "DESC"
		}
		query += fmt.Sprintf(" ORDER BY %s %s NULLS LAST", quoteIdent(qry.OrderBy), dir)
	case qry.Sample:
		query += " ORDER BY random()"
	}
	if qry.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", qry.Limit)
	}

	rows, err := dk.db.QueryContext(ctx, query, args...)
	if err != nil {
		err = errors.Wrapf(err, "failed to query rows")
		return
	}
	defer rows.Close()

	tbl.Columns, err = rows.Columns()
	if err != nil {
		err = errors.Wrapf(err, "failed to get cols from query rows")
		return
	}

	for rows.Next() {
		var vals []any
		vals, err = scanRow(rows, len(tbl.Columns))
		if err != nil {
			err = errors.Wrapf(err, "failed to scan row")
			return
		}

		row := make(nt.Row, len(vals))
		for i, val := range vals {
			row[i] = nt.Value{Raw: val}
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	err = rows.Err()
	err = errors.Wrapf(err, "error iterating rows")
	return
}

// unexported

func (dk *Duck) domain(ctx context.Context, source string, col nt.Column) (lo, hi float64, err error) {

	query := fmt.Sprintf("SELECT min(%s), max(%s) FROM %s",
		valueExpr(col), valueExpr(col), quoteIdent(source))

	var nlo, nhi sql.NullFloat64
	err = dk.db.QueryRowContext(ctx, query).Scan(&nlo, &nhi)
	if err != nil {
		err = errors.Wrapf(err, "failed to query domain of %q", col.Name)
		return
	}

	lo, hi = nlo.Float64, nhi.Float64
	if math.IsNaN(lo) || math.IsNaN(hi) {
		lo, hi = 0, 0
	}
	return
}

func (dk *Duck) where(source string, crits []nt.Criterion) (where string, args []any, err error) {

	dk.mu.RLock()
	sch, ok := dk.schemas[source]
	dk.mu.RUnlock()

	if !ok && len(crits) > 0 {
		err = errors.Errorf("columns of source %q not loaded", source)
		return
	}

	where, args, err = buildWhere(sch, crits)
	return
}

func readerFor(path string) (reader string, err error) {

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		reader = "read_csv_auto"
	case ".json", ".jsonl", ".ndjson":
		reader = "read_json_auto"
	case ".parquet":
		reader = "read_parquet"
	default:
		err = errors.Errorf("unsupported file type: %s", path)
	}
	return
}

func scanRow(rows *sql.Rows, columnCount int) ([]any, error) {

	vals := make([]any, columnCount)
	ptrs := make([]any, columnCount)
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	err := rows.Scan(ptrs...)
	return vals, err
}

type field struct {
	Name string
	Type string
}

func getFields(ctx context.Context, db *sql.DB, table string) (fields []field, err error) {

	rows, err := db.QueryContext(ctx, `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		err = errors.Wrapf(err, "failed to query schema")
		return
	}
	defer rows.Close()

	for rows.Next() {
		var fld field
		if err = rows.Scan(&fld.Name, &fld.Type); err != nil {
			err = errors.Wrapf(err, "failed to scan field")
			return
		}
		fields = append(fields, fld)
	}

	err = rows.Err()
	err = errors.Wrapf(err, "error iterating fields")
	return
}
