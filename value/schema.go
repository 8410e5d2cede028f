package value

import "strings"

// Column is one named, typed column of a Schema.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is the ordered set of columns of a data source or a result.
// It is immutable once built.
type Schema struct {
	columns []Column
}

// NewSchema builds a schema from columns in order.
func NewSchema(columns ...Column) Schema {
	cp := make([]Column, len(columns))
	copy(cp, columns)
	return Schema{columns: cp}
}

// Len returns the number of columns.
func (s Schema) Len() int { return len(s.columns) }

// Column returns the i-th column.
func (s Schema) Column(i int) Column { return s.columns[i] }

// Columns returns a copy of the columns.
func (s Schema) Columns() []Column {
	cp := make([]Column, len(s.columns))
	copy(cp, s.columns)
	return cp
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.columns))
	for i, c := range s.columns {
		names[i] = c.Name
	}
	return names
}

// Index returns the position of the column called name.
// Names are case-sensitive.
func (s Schema) Index(name string) (int, bool) {
	for i, c := range s.columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// Project returns the schema made of the columns at idx, in that order.
func (s Schema) Project(idx []int) Schema {
	cols := make([]Column, len(idx))
	for i, j := range idx {
		cols[i] = s.columns[j]
	}
	return Schema{columns: cols}
}

// Equal reports whether both schemas have the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s.columns) != len(o.columns) {
		return false
	}
	for i := range s.columns {
		if s.columns[i] != o.columns[i] {
			return false
		}
	}
	return true
}

// String renders the schema as "name Type, name Type".
func (s Schema) String() string {
	parts := make([]string, len(s.columns))
	for i, c := range s.columns {
		parts[i] = c.Name + " " + c.Type.String()
	}
	return strings.Join(parts, ", ")
}
