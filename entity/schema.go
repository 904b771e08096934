package entity

import "slices"

// Schema is the column metadata of one source.
type Schema struct {
	Source  string   `yaml:"source"`
	Columns []Column `yaml:"columns"`
}

// Column finds a column by name.
func (sch Schema) Column(name string) (col Column, ok bool) {

	idx := slices.IndexFunc(sch.Columns, func(col Column) bool { return col.Name == name })
	if idx < 0 {
		return
	}
	return sch.Columns[idx], true
}

// ColumnsByType returns the columns of any of types, in schema order.
func (sch Schema) ColumnsByType(types ...ColumnType) (cols []Column) {

	for _, col := range sch.Columns {
		if slices.Contains(types, col.Type) {
			cols = append(cols, col)
		}
	}
	return
}

// Names returns the column names in schema order.
func (sch Schema) Names() (names []string) {

	for _, col := range sch.Columns {
		names = append(names, col.Name)
	}
	return
}
