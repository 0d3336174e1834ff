// Package row holds the multi-table row shape threaded between query
// plan operators: a mapping from table alias to a materialized record.
// It is its own package so that internal/expr and internal/plan can
// both depend on the shape without either depending on the other.
package row

import "pauldb/internal/schema"

// Row maps a table alias (as introduced by TableScan, Select, or
// Aggregate) to the record currently bound to it.
type Row map[string]schema.Record

// Clone returns a shallow copy of r, safe to extend with an additional
// alias without mutating the original (used when merging join sides).
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a new Row containing every alias of r and other; other
// wins on key collision.
func (r Row) Merge(other Row) Row {
	out := r.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}
