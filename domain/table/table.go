// Package table holds the in-memory tabular model shared by every dataset page.
//
// A Table is an ordered sequence of rows over a column set that only grows:
// writing an unknown column appends it, nothing removes columns implicitly.
// Transformations clone before writing so the loaded table stays untouched for
// the rest of the request.
package table

// Row maps column names to cell values
type Row map[string]Value

// Table is an ordered collection of rows sharing one column set
type Table struct {
	Name    string
	columns []string
	rows    []Row
}

// New creates an empty table with the given columns
func New(name string, columns ...string) *Table {
	t := &Table{Name: name}
	for _, c := range columns {
		t.AddColumn(c)
	}
	return t
}

// Empty creates a table with no columns and no rows
func Empty(name string) *Table {
	return &Table{Name: name}
}

// Columns returns a copy of the column names in insertion order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// IsEmpty reports whether the table has no rows
func (t *Table) IsEmpty() bool {
	return t.Len() == 0
}

// HasColumn reports whether the column exists
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column if it is not present yet
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.columns = append(t.columns, name)
	}
}

// Append adds a row at the end. Unknown columns in the row are appended to
// the column set in map iteration order, so callers should declare columns first.
func (t *Table) Append(row Row) {
	r := make(Row, len(row))
	for k, v := range row {
		t.AddColumn(k)
		r[k] = v
	}
	t.rows = append(t.rows, r)
}

// Row returns a copy of row i
func (t *Table) Row(i int) Row {
	out := make(Row, len(t.columns))
	for k, v := range t.rows[i] {
		out[k] = v
	}
	return out
}

// Value returns the cell at row i, column col; absent cells are missing
func (t *Table) Value(i int, col string) Value {
	if i < 0 || i >= len(t.rows) {
		return Missing()
	}
	v, ok := t.rows[i][col]
	if !ok {
		return Missing()
	}
	return v
}

// Set writes a cell, appending the column if needed
func (t *Table) Set(i int, col string, v Value) {
	t.AddColumn(col)
	t.rows[i][col] = v
}

// Column returns every value of a column in row order
func (t *Table) Column(col string) []Value {
	out := make([]Value, len(t.rows))
	for i := range t.rows {
		out[i] = t.Value(i, col)
	}
	return out
}

// Clone returns a deep copy. Values are plain structs so copying the row maps
// is enough.
func (t *Table) Clone() *Table {
	c := &Table{Name: t.Name, columns: t.Columns(), rows: make([]Row, len(t.rows))}
	for i := range t.rows {
		c.rows[i] = t.Row(i)
	}
	return c
}

// Filter returns a new table holding the rows accepted by keep, in order
func (t *Table) Filter(keep func(i int, r Row) bool) *Table {
	out := &Table{Name: t.Name, columns: t.Columns()}
	for i := range t.rows {
		if keep(i, t.rows[i]) {
			out.rows = append(out.rows, t.Row(i))
		}
	}
	return out
}

// Find returns the index of the first row whose column renders as value, or -1
func (t *Table) Find(col, value string) int {
	for i := range t.rows {
		if t.Value(i, col).String() == value {
			return i
		}
	}
	return -1
}
