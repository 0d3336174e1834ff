// Package schema holds the value objects shared across PaulDB's storage
// and query layers: columns, versioned table schemas, and the record
// (column-name to value mapping) that flows between them.
package schema

import (
	"fmt"

	"pauldb/internal/types"
)

// ColumnKind discriminates a column's provenance.
type ColumnKind int

const (
	// Stored columns carry a value persisted in the row store.
	Stored ColumnKind = iota
	// Computed columns derive their value from the rest of the record
	// on read; callers never supply them directly.
	Computed
)

// Record maps column name to value for a single row.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Column describes one column of a table schema.
type Column struct {
	Name       string
	Type       types.Type
	Unique     bool
	Indexed    bool
	Kind       ColumnKind
	HasDefault bool
	// Default produces a value for a stored column omitted on insert.
	Default func() (any, error)
	// Compute derives a computed column's value from the stored record.
	Compute func(Record) (any, error)
}

// Value resolves the column's value for rec: for stored columns, a
// direct lookup; for computed columns, invokes Compute.
func (c *Column) Value(rec Record) (any, error) {
	if c.Kind == Computed {
		if c.Compute == nil {
			return nil, fmt.Errorf("schema: computed column %q has no compute function", c.Name)
		}
		return c.Compute(rec)
	}
	return rec[c.Name], nil
}

// Table is an ordered, versioned list of uniquely-named columns, with
// at most one column designated as the row-identity key.
type Table struct {
	Name      string
	Columns   []Column
	KeyColumn string // "" if the table has no designated identity key
	Version   int
}

// Column returns the named column, or nil if absent.
func (t *Table) Column(name string) *Column {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i]
		}
	}
	return nil
}

// StoredColumns returns the columns persisted in the row store, in
// schema order.
func (t *Table) StoredColumns() []Column {
	out := make([]Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Kind == Stored {
			out = append(out, c)
		}
	}
	return out
}

// IndexedColumns returns the columns (stored or computed) that carry a
// secondary index: those marked Indexed, plus every Unique column,
// since a unique constraint is enforced through its index whether or
// not the column was also asked for explicitly.
func (t *Table) IndexedColumns() []Column {
	out := make([]Column, 0)
	for _, c := range t.Columns {
		if c.Indexed || c.Unique {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks structural invariants: a table name, non-empty and
// unique column names, a type on every column, a compute function on
// every computed column, and a valid key column reference if set.
func (t *Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("schema: table has no name")
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c.Name == "" {
			return fmt.Errorf("schema: table %q has an unnamed column", t.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("schema: table %q has duplicate column %q", t.Name, c.Name)
		}
		seen[c.Name] = true
		if c.Type == nil {
			return fmt.Errorf("schema: table %q column %q has no type", t.Name, c.Name)
		}
		if c.Kind == Computed && c.Compute == nil {
			return fmt.Errorf("schema: table %q column %q is computed but has no compute function", t.Name, c.Name)
		}
	}
	if t.KeyColumn != "" && t.Column(t.KeyColumn) == nil {
		return fmt.Errorf("schema: table %q key column %q not found", t.Name, t.KeyColumn)
	}
	return nil
}

// Nullable returns a copy of t whose columns (stored and computed) are
// all converted to their nullable type form.
func (t *Table) Nullable() *Table {
	out := &Table{Name: t.Name, KeyColumn: t.KeyColumn, Version: t.Version}
	out.Columns = make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		c.Type = c.Type.Nullable()
		out.Columns[i] = c
	}
	return out
}
