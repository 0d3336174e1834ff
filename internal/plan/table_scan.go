package plan

import (
	"context"

	"pauldb/internal/row"
	"pauldb/internal/seq"
	"pauldb/internal/table"
)

// TableScan streams every live row of a resolved Table Handle in
// insertion order, emitting each as a single-alias multi-table row. The
// handle is resolved ahead of time by the host-facing model, which is
// what actually consults the catalog; the plan node itself only needs
// the resolved handle to stream it.
type TableScan struct {
	Handle *table.Handle
	Alias  string
}

// NewTableScan builds a TableScan over handle, addressed as alias. If
// alias is empty, the handle's own table name is used.
func NewTableScan(handle *table.Handle, alias string) *TableScan {
	if alias == "" {
		alias = handle.Name()
	}
	return &TableScan{Handle: handle, Alias: alias}
}

// Execute implements Node.
func (t *TableScan) Execute(ctx context.Context) (seq.Seq[row.Row], error) {
	rows, err := t.Handle.Iterate(ctx)
	if err != nil {
		return nil, err
	}
	return seq.Map(rows, func(_ context.Context, r table.Row) (row.Row, error) {
		return row.Row{t.Alias: r.Record}, nil
	}), nil
}

// Children implements Node.
func (t *TableScan) Children() []Node { return nil }

// Describe implements Node.
func (t *TableScan) Describe() string { return "TableScan(" + t.Handle.Name() + " as " + t.Alias + ")" }

// ToJSON implements Node.
func (t *TableScan) ToJSON() map[string]any {
	return map[string]any{"kind": "tableScan", "table": t.Handle.Name(), "alias": t.Alias}
}
