// Package table is the rectangular, immutable data shape passed between
// pipeline stages: ordered column names plus rows of Values.
package table

import (
	"fmt"
)

// Table is immutable once built. Derived tables may share row storage with
// their source, which is safe because no method writes to a row.
type Table struct {
	cols []string
	idx  map[string]int
	rows [][]Value
}

// New builds a table from columns and rows, taking ownership of both.
func New(cols []string, rows [][]Value) (*Table, error) {
	t, err := newHeader(cols)
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		if len(r) != len(cols) {
			return nil, fmt.Errorf("table: row %d has %d values, want %d", i, len(r), len(cols))
		}
	}
	t.rows = rows
	return t, nil
}

// Empty returns a table with the given columns and no rows.
func Empty(cols ...string) *Table {
	t, err := newHeader(cols)
	if err != nil {
		panic(err)
	}
	return t
}

func newHeader(cols []string) (*Table, error) {
	idx := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := idx[c]; dup {
			return nil, fmt.Errorf("table: duplicate column %q", c)
		}
		idx[c] = i
	}
	return &Table{cols: append([]string(nil), cols...), idx: idx}, nil
}

// FromRecords lays records out in the given column order. Fields not named
// in cols are dropped; columns absent from a record are missing.
func FromRecords(cols []string, recs []Record) *Table {
	b := NewBuilder(cols...)
	for _, r := range recs {
		b.AppendRecord(r)
	}
	return b.Build()
}

func (t *Table) Columns() []string { return append([]string(nil), t.cols...) }
func (t *Table) Len() int          { return len(t.rows) }
func (t *Table) Width() int        { return len(t.cols) }

func (t *Table) Has(col string) bool {
	_, ok := t.idx[col]
	return ok
}

// Index returns the position of col.
func (t *Table) Index(col string) (int, bool) {
	i, ok := t.idx[col]
	return i, ok
}

// At returns the value at row i, column position c.
func (t *Table) At(i, c int) Value { return t.rows[i][c] }

// Get returns the value at row i for the named column, missing when the
// column does not exist.
func (t *Table) Get(i int, col string) Value {
	c, ok := t.idx[col]
	if !ok {
		return Null
	}
	return t.rows[i][c]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	return append([]Value(nil), t.rows[i]...)
}

// Record returns row i as a field map.
func (t *Table) Record(i int) Record {
	r := make(Record, len(t.cols))
	for c, name := range t.cols {
		r[name] = t.rows[i][c]
	}
	return r
}

// Column returns a copy of one column, nil when absent.
func (t *Table) Column(col string) []Value {
	c, ok := t.idx[col]
	if !ok {
		return nil
	}
	out := make([]Value, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[c]
	}
	return out
}

// Project keeps only the allowed columns, in allow-list order. Unknown
// names are ignored.
func (t *Table) Project(allow []string) *Table {
	var cols []string
	var pos []int
	seen := make(map[string]bool, len(allow))
	for _, a := range allow {
		if c, ok := t.idx[a]; ok && !seen[a] {
			seen[a] = true
			cols = append(cols, a)
			pos = append(pos, c)
		}
	}
	out := Empty(cols...)
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		nr := make([]Value, len(pos))
		for j, c := range pos {
			nr[j] = r[c]
		}
		out.rows[i] = nr
	}
	return out
}

// Filter keeps rows for which keep returns true, preserving order.
func (t *Table) Filter(keep func(i int) bool) *Table {
	out := &Table{cols: t.cols, idx: t.idx}
	for i, r := range t.rows {
		if keep(i) {
			out.rows = append(out.rows, r)
		}
	}
	return out
}

// Extend appends columns, one slice of extra values per existing row.
func (t *Table) Extend(cols []string, extra [][]Value) (*Table, error) {
	if len(extra) != len(t.rows) {
		return nil, fmt.Errorf("table: extend with %d rows, table has %d", len(extra), len(t.rows))
	}
	out, err := newHeader(append(t.Columns(), cols...))
	if err != nil {
		return nil, err
	}
	out.rows = make([][]Value, len(t.rows))
	for i, r := range t.rows {
		if len(extra[i]) != len(cols) {
			return nil, fmt.Errorf("table: extend row %d has %d values, want %d", i, len(extra[i]), len(cols))
		}
		nr := make([]Value, 0, len(r)+len(cols))
		nr = append(nr, r...)
		nr = append(nr, extra[i]...)
		out.rows[i] = nr
	}
	return out, nil
}

// Equal reports whether both tables have the same columns and the same rows
// in the same order.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.cols) != len(o.cols) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.cols {
		if t.cols[i] != o.cols[i] {
			return false
		}
	}
	for i := range t.rows {
		for c := range t.rows[i] {
			if !t.rows[i][c].Equal(o.rows[i][c]) {
				return false
			}
		}
	}
	return true
}

// Builder accumulates rows before a Table is frozen.
type Builder struct {
	t     *Table
	built bool
}

func NewBuilder(cols ...string) *Builder {
	return &Builder{t: Empty(cols...)}
}

// Append adds a row; short rows are padded with missing, long rows truncated.
func (b *Builder) Append(vals ...Value) {
	row := make([]Value, len(b.t.cols))
	copy(row, vals)
	b.t.rows = append(b.t.rows, row)
}

// AppendRecord adds a row from a field map.
func (b *Builder) AppendRecord(r Record) {
	row := make([]Value, len(b.t.cols))
	for c, name := range b.t.cols {
		row[c] = r[name]
	}
	b.t.rows = append(b.t.rows, row)
}

func (b *Builder) Len() int { return len(b.t.rows) }

// Build freezes the table. The builder must not be used afterwards.
func (b *Builder) Build() *Table {
	if b.built {
		panic("table: Build called twice")
	}
	b.built = true
	return b.t
}
